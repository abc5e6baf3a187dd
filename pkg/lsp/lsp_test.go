package lsp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vito/lineup/pkg/lineup"
	"github.com/vito/lineup/pkg/lsp"
)

const uri = lsp.DocumentURI("file:///work/main.lu")

// startServer runs a handler over an in-memory channel and collects the
// diagnostics it publishes.
func startServer(t *testing.T) (*jrpc2.Client, <-chan lsp.PublishDiagnosticsParams) {
	t.Helper()

	diags := make(chan lsp.PublishDiagnosticsParams, 16)
	loc := server.NewLocal(lsp.NewHandler(lineup.DefaultConfig()), &server.LocalOptions{
		Server: &jrpc2.ServerOptions{AllowPush: true},
		Client: &jrpc2.ClientOptions{
			OnNotify: func(req *jrpc2.Request) {
				if req.Method() != "textDocument/publishDiagnostics" {
					return
				}
				var params lsp.PublishDiagnosticsParams
				if err := req.UnmarshalParams(&params); err == nil {
					diags <- params
				}
			},
		},
	})
	t.Cleanup(func() { _ = loc.Close() })

	var init lsp.InitializeResult
	require.NoError(t, loc.Client.CallResult(context.Background(), "initialize", lsp.InitializeParams{
		RootURI: "file:///work",
	}, &init))
	assert.Equal(t, lsp.TDSKFull, init.Capabilities.TextDocumentSync)
	assert.True(t, init.Capabilities.DocumentFormattingProvider)
	require.NoError(t, loc.Client.Notify(context.Background(), "initialized", struct{}{}))

	return loc.Client, diags
}

func open(t *testing.T, cli *jrpc2.Client, diags <-chan lsp.PublishDiagnosticsParams, text string) lsp.PublishDiagnosticsParams {
	t.Helper()
	require.NoError(t, cli.Notify(context.Background(), "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: "lineup", Version: 1, Text: text},
	}))
	return next(t, diags)
}

func next(t *testing.T, diags <-chan lsp.PublishDiagnosticsParams) lsp.PublishDiagnosticsParams {
	t.Helper()
	select {
	case d := <-diags:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("no diagnostics published")
		return lsp.PublishDiagnosticsParams{}
	}
}

func format(t *testing.T, cli *jrpc2.Client) []lsp.TextEdit {
	t.Helper()
	var edits []lsp.TextEdit
	require.NoError(t, cli.CallResult(context.Background(), "textDocument/formatting", lsp.DocumentFormattingParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Options:      lsp.FormattingOptions{TabSize: 4, InsertSpaces: true},
	}, &edits))
	return edits
}

func TestFormatting(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("whole document edit", func(t *testing.T) {
		cli, diags := startServer(t)

		published := open(t, cli, diags, "fn   add(a:i32,b:i32)->i32{a+b}")
		assert.Equal(t, uri, published.URI)
		assert.Empty(t, published.Diagnostics)

		edits := format(t, cli)
		require.Len(t, edits, 1)
		assert.Equal(t, lsp.Range{
			Start: lsp.Position{Line: 0, Character: 0},
			End:   lsp.Position{Line: 0, Character: 31},
		}, edits[0].Range)
		assert.Equal(t, "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n", edits[0].NewText)
	})

	t.Run("formatted document has no edits", func(t *testing.T) {
		cli, diags := startServer(t)
		open(t, cli, diags, "let x = 1;\n")
		assert.Empty(t, format(t, cli))
	})

	t.Run("changes replace the text", func(t *testing.T) {
		cli, diags := startServer(t)
		open(t, cli, diags, "let x = 1;\n")

		require.NoError(t, cli.Notify(context.Background(), "textDocument/didChange", lsp.DidChangeTextDocumentParams{
			TextDocument: lsp.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri},
				Version:                2,
			},
			ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "let   x=2;\n"}},
		}))
		published := next(t, diags)
		assert.Equal(t, 2, published.Version)

		edits := format(t, cli)
		require.Len(t, edits, 1)
		assert.Equal(t, "let x = 2;\n", edits[0].NewText)
		assert.Equal(t, lsp.Position{Line: 1, Character: 0}, edits[0].Range.End)
	})

	t.Run("syntax error", func(t *testing.T) {
		cli, diags := startServer(t)

		published := open(t, cli, diags, "let x = ;")
		require.Len(t, published.Diagnostics, 1)
		assert.Equal(t, lsp.SeverityError, published.Diagnostics[0].Severity)
		assert.Equal(t, lsp.Position{Line: 0, Character: 8}, published.Diagnostics[0].Range.Start)

		assert.Empty(t, format(t, cli))
	})

	t.Run("closed document", func(t *testing.T) {
		cli, diags := startServer(t)
		open(t, cli, diags, "let x = 1;\n")

		require.NoError(t, cli.Notify(context.Background(), "textDocument/didClose", lsp.DidCloseTextDocumentParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		}))

		var edits []lsp.TextEdit
		err := cli.CallResult(context.Background(), "textDocument/formatting", lsp.DocumentFormattingParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		}, &edits)
		var rpcErr *jrpc2.Error
		require.True(t, errors.As(err, &rpcErr), "expected an RPC error, got %v", err)
		assert.Equal(t, jrpc2.InvalidParams, rpcErr.Code)
	})

	t.Run("unknown method", func(t *testing.T) {
		cli, _ := startServer(t)
		_, err := cli.Call(context.Background(), "textDocument/hover", struct{}{})
		var rpcErr *jrpc2.Error
		require.True(t, errors.As(err, &rpcErr), "expected an RPC error, got %v", err)
		assert.Equal(t, jrpc2.MethodNotFound, rpcErr.Code)
	})
}
