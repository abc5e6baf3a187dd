package lsp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/lineup/pkg/syntax"
)

func TestErrorToDiagnostics(t *testing.T) {
	t.Run("parse error with location", func(t *testing.T) {
		_, err := syntax.Parse([]byte("let x = 1;\nlet y = ;"))
		require.Error(t, err)

		diags := errorToDiagnostics(errors.Wrap(err, "main.lu"))
		require.Len(t, diags, 1)
		assert.Equal(t, Position{Line: 1, Character: 8}, diags[0].Range.Start)
		assert.Equal(t, Position{Line: 1, Character: 9}, diags[0].Range.End)
		assert.Equal(t, SeverityError, diags[0].Severity)
		assert.Contains(t, diags[0].Message, `unexpected ";"`)
	})

	t.Run("error without location", func(t *testing.T) {
		diags := errorToDiagnostics(errors.New("boom"))
		require.Len(t, diags, 1)
		assert.Equal(t, Position{}, diags[0].Range.Start)
		assert.Equal(t, "boom", diags[0].Message)
	})
}

func TestUnformattedDiagnostics(t *testing.T) {
	text := "let a = 1;\nlet  ü = 2;\n"
	diags := unformattedDiagnostics(text, []syntax.Unformatted{
		{Line: 2, Reason: "too wide"},
		{Line: 9, Reason: "past the end"},
	})
	want := []Diagnostic{
		{
			Range: Range{
				Start: Position{Line: 1},
				End:   Position{Line: 1, Character: 11},
			},
			Severity: SeverityWarning,
			Source:   "lineup",
			Message:  "could not be reformatted: too wide",
		},
		{
			Range: Range{
				Start: Position{Line: 8},
				End:   Position{Line: 8},
			},
			Severity: SeverityWarning,
			Source:   "lineup",
			Message:  "could not be reformatted: past the end",
		},
	}
	if diff := cmp.Diff(want, diags); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, unformattedDiagnostics(text, nil))
}

func TestDocumentEnd(t *testing.T) {
	assert.Equal(t, Position{Line: 0, Character: 0}, documentEnd(""))
	assert.Equal(t, Position{Line: 0, Character: 3}, documentEnd("abc"))
	assert.Equal(t, Position{Line: 2, Character: 0}, documentEnd("a\nb\n"))
	// U+1F600 takes two UTF-16 code units.
	assert.Equal(t, Position{Line: 1, Character: 3}, documentEnd("x\n😀y"))
}
