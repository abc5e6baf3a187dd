package lsp

import (
	"context"
	"log/slog"

	"github.com/creachadair/jrpc2"

	"github.com/vito/lineup/pkg/syntax"
)

func (h *Handler) handleTextDocumentFormatting(ctx context.Context, req *jrpc2.Request) (any, error) {
	if !req.HasParams() {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing parameters")
	}

	var params DocumentFormattingParams
	if err := req.UnmarshalParams(&params); err != nil {
		return nil, err
	}

	f, ok := h.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "document not found: %v", params.TextDocument.URI)
	}

	cfg := *h.configFor(ctx, params.TextDocument.URI)
	if params.Options.TabSize > 0 {
		cfg.TabSpaces = params.Options.TabSize
	}
	cfg.HardTabs = !params.Options.InsertSpaces && params.Options.TabSize > 0

	res, err := syntax.FormatFile([]byte(f.Text), &cfg)
	if err != nil {
		// The parse error is already published as a diagnostic.
		slog.DebugContext(ctx, "not formatting", "uri", params.TextDocument.URI, "error", err)
		return []TextEdit{}, nil
	}

	if res.Text == f.Text {
		return []TextEdit{}, nil
	}

	// Replace the whole document.
	return []TextEdit{
		{
			Range: Range{
				Start: Position{Line: 0, Character: 0},
				End:   documentEnd(f.Text),
			},
			NewText: res.Text,
		},
	}, nil
}
