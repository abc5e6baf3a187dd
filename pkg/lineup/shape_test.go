package lineup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeSubWidth(t *testing.T) {
	s := Shape{Width: 10, Indent: Indent{Block: 4}, Offset: 2}

	for n := 0; n <= s.Width; n++ {
		narrowed, err := s.SubWidth(n)
		require.NoError(t, err)
		assert.Equal(t, s.Width-n, narrowed.Width)
		assert.Equal(t, s.Indent, narrowed.Indent)
		assert.Equal(t, s.Offset, narrowed.Offset)
	}

	_, err := s.SubWidth(11)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrExceedsWidth))
}

func TestShapeOffsetLeft(t *testing.T) {
	s := LegacyShape(20, Indent{Block: 4})

	narrowed, err := s.OffsetLeft(5)
	require.NoError(t, err)
	assert.Equal(t, 15, narrowed.Width)
	assert.Equal(t, 5, narrowed.Offset)
	assert.Equal(t, 4+5, narrowed.UsedWidth())

	_, err = s.OffsetLeft(21)
	require.ErrorIs(t, err, ErrExceedsWidth)
}

func TestShapeShrinkLeft(t *testing.T) {
	s := LegacyShape(20, Indent{Block: 4})

	narrowed, err := s.ShrinkLeft(3)
	require.NoError(t, err)
	assert.Equal(t, 17, narrowed.Width)
	assert.Equal(t, Indent{Block: 4, Alignment: 3}, narrowed.Indent)
	assert.Equal(t, 3, narrowed.Offset)

	_, err = s.ShrinkLeft(30)
	require.ErrorIs(t, err, ErrExceedsWidth)
}

func TestShapeBlockIndent(t *testing.T) {
	t.Run("unaligned shape moves to a new block", func(t *testing.T) {
		s := Shape{Width: 40, Indent: Indent{Block: 4}, Offset: 12}
		got := s.BlockIndent(4)
		assert.Equal(t, Shape{Width: 40, Indent: Indent{Block: 8}, Offset: 0}, got)
	})

	t.Run("aligned shape stays aligned", func(t *testing.T) {
		s := Shape{Width: 40, Indent: Indent{Block: 4, Alignment: 6}, Offset: 6}
		got := s.BlockIndent(2)
		assert.Equal(t, Shape{Width: 40, Indent: Indent{Block: 4, Alignment: 8}, Offset: 8}, got)
	})

	t.Run("block left takes the indent from the width", func(t *testing.T) {
		s := Shape{Width: 40, Indent: Indent{Block: 4}}
		got, err := s.BlockLeft(4)
		require.NoError(t, err)
		assert.Equal(t, Shape{Width: 36, Indent: Indent{Block: 8}}, got)

		_, err = s.BlockLeft(41)
		require.ErrorIs(t, err, ErrExceedsWidth)
	})
}

func TestShapeVisualIndent(t *testing.T) {
	s := Shape{Width: 30, Indent: Indent{Block: 8}, Offset: 5}
	got := s.VisualIndent(1)
	assert.Equal(t, Indent{Block: 8, Alignment: 6}, got.Indent)
	assert.Equal(t, 6, got.Offset)
	assert.Equal(t, 30, got.Width)
	assert.Equal(t, Indent{Block: 8}, got.Block().Indent)
}

func TestShapeWithMaxWidth(t *testing.T) {
	cfg := DefaultConfig()
	s := IndentedShape(Indent{Block: 8}, cfg)
	assert.Equal(t, cfg.MaxWidth-8, s.Width)

	narrowed, err := s.SubWidth(10)
	require.NoError(t, err)
	assert.Equal(t, 10, narrowed.RHSOverhead(cfg))
	assert.Equal(t, s, narrowed.WithMaxWidth(cfg))
}

func TestIndentString(t *testing.T) {
	cfg := DefaultConfig()
	indent := Indent{Block: 8, Alignment: 2}
	assert.Equal(t, "          ", indent.String(cfg))
	assert.Equal(t, "\n          ", indent.Newline(cfg))

	cfg.HardTabs = true
	assert.Equal(t, "\t\t  ", indent.String(cfg))

	assert.Equal(t, Indent{Block: 4, Alignment: 2}, indent.BlockUnindent(cfg))
	assert.Equal(t, Indent{}, Indent{Block: 2}.BlockUnindent(cfg))
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, DisplayWidth("hello"))
	assert.Equal(t, 4, DisplayWidth("日本"))
	assert.Equal(t, 3, FirstLineWidth("abc\nde"))
	assert.Equal(t, 2, LastLineWidth("abc\nde"))
	assert.Equal(t, 2, CountNewlines("a\nb\nc"))
	assert.Equal(t, 3, ExtraOffset("foo", Shape{}))
	assert.Equal(t, 2, ExtraOffset("foo(\n    xy", Shape{Indent: Indent{Block: 4}}))
}
