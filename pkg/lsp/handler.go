package lsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/creachadair/jrpc2"

	"github.com/vito/lineup/pkg/lineup"
	"github.com/vito/lineup/pkg/syntax"
)

// Handler serves one client. It implements jrpc2.Assigner.
type Handler struct {
	// cfg overrides lineup.toml discovery when set.
	cfg *lineup.Config

	mu    sync.Mutex
	files map[DocumentURI]*File
}

// File is an open document.
type File struct {
	LanguageID  string
	Text        string
	Version     int
	Diagnostics []Diagnostic
}

// NewHandler creates a handler. With a nil cfg each document uses the
// lineup.toml found above it.
func NewHandler(cfg *lineup.Config) *Handler {
	return &Handler{
		cfg:   cfg,
		files: make(map[DocumentURI]*File),
	}
}

// Assign routes a method to its handler. Unknown methods get nil, which
// jrpc2 answers with "method not found".
func (h *Handler) Assign(ctx context.Context, method string) jrpc2.Handler {
	slog.DebugContext(ctx, "handle", "method", method)

	switch method {
	case "initialize":
		return h.handleInitialize
	case "initialized":
		return func(context.Context, *jrpc2.Request) (any, error) { return nil, nil }
	case "shutdown":
		return h.handleShutdown
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose
	case "textDocument/formatting":
		return h.handleTextDocumentFormatting
	}
	return nil
}

func isWindowsDriveURI(uri string) bool {
	if len(uri) < 4 {
		return false
	}
	return uri[0] == '/' && unicode.IsLetter(rune(uri[1])) && uri[2] == ':'
}

func fromURI(uri DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("only file URIs are supported, got %v", u.Scheme)
	}
	if isWindowsDriveURI(u.Path) {
		u.Path = u.Path[1:]
	}
	return u.Path, nil
}

func (h *Handler) openFile(uri DocumentURI, languageID string, version int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[uri] = &File{
		LanguageID: languageID,
		Version:    version,
	}
}

func (h *Handler) closeFile(uri DocumentURI) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, uri)
}

// snapshot copies the document so it can be formatted without the lock.
func (h *Handler) snapshot(uri DocumentURI) (File, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.files[uri]
	if !ok {
		return File{}, false
	}
	return *f, true
}

func (h *Handler) updateFile(ctx context.Context, uri DocumentURI, text string, version *int) error {
	h.mu.Lock()
	f, ok := h.files[uri]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("document not found: %v", uri)
	}
	f.Text = text
	if version != nil {
		f.Version = *version
	}
	h.mu.Unlock()

	slog.InfoContext(ctx, "file updated", "uri", uri)

	var diags []Diagnostic
	res, err := syntax.FormatFile([]byte(text), h.configFor(ctx, uri))
	if err != nil {
		diags = append(diags, errorToDiagnostics(err)...)
	} else {
		diags = append(diags, unformattedDiagnostics(text, res.Unformatted)...)
	}

	h.mu.Lock()
	f.Diagnostics = diags
	published := *f
	h.mu.Unlock()

	h.publishDiagnostics(ctx, uri, published)
	return nil
}

// configFor picks the configuration for a document: the override, or the
// lineup.toml above the document, or the defaults.
func (h *Handler) configFor(ctx context.Context, uri DocumentURI) *lineup.Config {
	if h.cfg != nil {
		return h.cfg
	}
	path, err := fromURI(uri)
	if err != nil {
		return lineup.DefaultConfig()
	}
	cfgPath, cfg, err := lineup.FindConfig(filepath.Dir(path))
	if err != nil {
		slog.WarnContext(ctx, "failed to load lineup.toml", "path", cfgPath, "error", err)
		return lineup.DefaultConfig()
	}
	return cfg
}

func (h *Handler) publishDiagnostics(ctx context.Context, uri DocumentURI, f File) {
	srv := jrpc2.ServerFromContext(ctx)
	if srv == nil {
		return
	}

	diagnostics := f.Diagnostics
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}

	err := srv.Notify(ctx, "textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
		Version:     f.Version,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish diagnostics", "error", err)
	}
}

// errorToDiagnostics converts a formatting failure to diagnostics. Parse
// errors point at the offending character.
func errorToDiagnostics(err error) []Diagnostic {
	var startLine, startCol int

	var parseErr *syntax.ParseError
	if errors.As(err, &parseErr) {
		// LSP positions are 0-based, parse errors 1-based.
		startLine = parseErr.Line - 1
		startCol = parseErr.Column - 1
	}

	return []Diagnostic{
		{
			Range: Range{
				Start: Position{Line: startLine, Character: startCol},
				End:   Position{Line: startLine, Character: startCol + 1},
			},
			Severity: SeverityError,
			Source:   "lineup",
			Message:  err.Error(),
		},
	}
}

// unformattedDiagnostics warns about statements that were kept as written.
func unformattedDiagnostics(text string, unformatted []syntax.Unformatted) []Diagnostic {
	if len(unformatted) == 0 {
		return nil
	}
	lines := strings.Split(text, "\n")
	diags := make([]Diagnostic, 0, len(unformatted))
	for _, u := range unformatted {
		line := u.Line - 1
		end := 0
		if line < len(lines) {
			end = utf16Len(lines[line])
		}
		diags = append(diags, Diagnostic{
			Range: Range{
				Start: Position{Line: line},
				End:   Position{Line: line, Character: end},
			},
			Severity: SeverityWarning,
			Source:   "lineup",
			Message:  "could not be reformatted: " + u.Reason,
		})
	}
	return diags
}

// utf16Len is the length of s in UTF-16 code units, the unit of LSP
// character offsets.
func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		n += utf16.RuneLen(r)
		s = s[size:]
	}
	return n
}

// documentEnd is the position just past the last character of text.
func documentEnd(text string) Position {
	line := strings.Count(text, "\n")
	last := text[strings.LastIndexByte(text, '\n')+1:]
	return Position{Line: line, Character: utf16Len(last)}
}
