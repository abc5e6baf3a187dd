package lineup

import (
	"context"
	"strings"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/require"
)

type OverflowSuite struct{}

func TestOverflow(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(OverflowSuite{})
}

// atom renders as its text when it fits.
type atom struct {
	text  string
	span  Span
	flags ItemFlags
}

func (a *atom) Span() Span { return a.span }

func (a *atom) Rewrite(shape Shape) (string, error) {
	if !shape.Fits(a.text) {
		return "", ErrExceedsWidth
	}
	return a.text, nil
}

func (a *atom) CanOverflow(OverflowContext, int) bool { return false }

func (a *atom) Flags() ItemFlags { return a.flags }

// block renders as "head {", an indented body line and a closing brace.
type block struct {
	head string
	body string
	span Span
	cfg  *Config
}

func (b *block) Span() Span { return b.span }

func (b *block) Rewrite(shape Shape) (string, error) {
	open := b.head + " {"
	if !shape.Fits(open) {
		return "", ErrExceedsWidth
	}
	inner := shape.Indent.BlockIndent(b.cfg)
	if DisplayWidth(b.body) > b.cfg.MaxWidth-inner.Width() {
		return "", ErrExceedsWidth
	}
	return open + inner.Newline(b.cfg) + b.body + shape.Indent.BlockOnly().Newline(b.cfg) + "}", nil
}

func (b *block) CanOverflow(OverflowContext, int) bool { return true }

func (b *block) Flags() ItemFlags { return ItemFlags{Expr: true, Closure: true} }

func simple(text string) *atom {
	return &atom{text: text, flags: ItemFlags{Expr: true, Simple: true}}
}

func opaque(text string) *atom {
	return &atom{text: text, flags: ItemFlags{Expr: true}}
}

func closure(cfg *Config, head, body string) *block {
	return &block{head: head, body: body, cfg: cfg}
}

// call lays out ident(items...) as source text and assigns spans.
func call(ident string, items ...OverflowItem) (Text, Span) {
	return delimited(ident, "(", ")", items...)
}

func delimited(ident, open, close string, items ...OverflowItem) (Text, Span) {
	var b strings.Builder
	b.WriteString(ident)
	lo := b.Len()
	b.WriteString(open)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		start := b.Len()
		switch x := item.(type) {
		case *atom:
			b.WriteString(x.text)
			x.span = Span{Lo: start, Hi: b.Len()}
		case *block:
			b.WriteString(x.head + " { " + x.body + " }")
			x.span = Span{Lo: start, Hi: b.Len()}
		}
	}
	b.WriteString(close)
	return Text(b.String()), Span{Lo: lo, Hi: b.Len()}
}

func parens(src Text, cfg *Config, ident string, span Span, items ...OverflowItem) Delimited[OverflowItem] {
	return Delimited[OverflowItem]{
		Source:       src,
		Config:       cfg,
		Ident:        ident,
		Items:        items,
		Span:         span,
		Prefix:       "(",
		Suffix:       ")",
		ItemMaxWidth: cfg.FnCallWidth,
	}
}

func requireWithin(t *testctx.T, text string, width int) {
	for _, line := range strings.Split(text, "\n") {
		require.LessOrEqual(t, DisplayWidth(line), width, "line %q", line)
	}
}

func (OverflowSuite) TestFitsOnOneLine(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	items := []OverflowItem{simple("a"), simple("b")}
	src, span := call("f", items...)

	out, extendable, err := RewriteWithParens(src, cfg, "f", items, span, IndentedShape(Indent{}, cfg), cfg.FnCallWidth)
	require.NoError(t, err)
	require.Equal(t, "f(a, b)", out)
	require.True(t, extendable)
}

func (OverflowSuite) TestLastClosureOverflows(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 40
	items := []OverflowItem{simple("x"), simple("y"), closure(cfg, "|x|", "do_something_with(x)")}
	src, span := call("f", items...)

	out, extendable, err := parens(src, cfg, "f", span, items...).Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "f(x, y, |x| {\n    do_something_with(x)\n})", out)
	require.False(t, extendable)
	requireWithin(t, out, 40)
}

func (OverflowSuite) TestSeveralClosuresDoNotOverflow(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 40
	items := []OverflowItem{closure(cfg, "|x|", "a"), closure(cfg, "|y|", "b")}
	src, span := call("f", items...)

	out, extendable, err := parens(src, cfg, "f", span, items...).Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "f(\n    |x| {\n        a\n    },\n    |y| {\n        b\n    },\n)", out)
	require.False(t, extendable)
}

func (OverflowSuite) TestBreaksVertically(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 30
	items := []OverflowItem{opaque("aaaaaaaaaa"), opaque("bbbbbbbbbb"), opaque("cccccccccc")}
	src, span := call("foo", items...)

	t.Run("block indent", func(ctx context.Context, t *testctx.T) {
		out, extendable, err := parens(src, cfg, "foo", span, items...).Rewrite(IndentedShape(Indent{}, cfg))
		require.NoError(t, err)
		require.Equal(t, "foo(\n    aaaaaaaaaa,\n    bbbbbbbbbb,\n    cccccccccc,\n)", out)
		require.False(t, extendable)
		requireWithin(t, out, 30)
	})

	t.Run("visual indent", func(ctx context.Context, t *testctx.T) {
		cfg := *cfg
		cfg.IndentStyle = IndentVisual
		out, _, err := parens(src, &cfg, "foo", span, items...).Rewrite(IndentedShape(Indent{}, &cfg))
		require.NoError(t, err)
		require.Equal(t, "foo(aaaaaaaaaa,\n    bbbbbbbbbb,\n    cccccccccc)", out)
	})
}

func (OverflowSuite) TestShortItemsMix(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 20
	var items []OverflowItem
	for _, s := range strings.Fields("1 2 3 4 5 6 7 8 9 10 11 12") {
		items = append(items, simple(s))
	}
	src, span := delimited("vec!", "[", "]", items...)

	out, _, err := RewriteWithBrackets(src, cfg, "vec!", items, span, IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "vec![\n    1, 2, 3, 4, 5,\n    6, 7, 8, 9, 10,\n    11, 12,\n]", out)
	requireWithin(t, out, 20)
}

func (OverflowSuite) TestFormatLikeArguments(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 40
	items := []OverflowItem{simple(`"{} {}"`), simple("first_value_here"), simple("second_value_here")}
	src, span := call("println!", items...)

	d := parens(src, cfg, "println!", span, items...)
	d.Special = true
	d.SpecialArgs = 0

	out, _, err := d.Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "println!(\n    \"{} {}\",\n    first_value_here, second_value_here\n)", out)
	requireWithin(t, out, 40)
}

func (OverflowSuite) TestForcedTrailingSeparator(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	items := []OverflowItem{simple("a")}
	src, span := call("", items...)

	d := parens(src, cfg, "", span, items...)
	d.ForceSeparator = true
	d.Separator = SeparatorAlways

	out, extendable, err := d.Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "(a,)", out)
	require.True(t, extendable)
}

func (OverflowSuite) TestItemTooWide(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	cfg.MaxWidth = 40
	items := []OverflowItem{opaque(strings.Repeat("x", 50))}
	src, span := call("f", items...)

	_, _, err := parens(src, cfg, "f", span, items...).Rewrite(IndentedShape(Indent{}, cfg))
	require.ErrorIs(t, err, ErrExceedsWidth)
}

func (OverflowSuite) TestKeepsComments(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	src := Text("f(a, /* keep me */ b)")
	a := opaque("a")
	a.span = Span{Lo: 2, Hi: 3}
	b := opaque("b")
	b.span = Span{Lo: 19, Hi: 20}
	items := []OverflowItem{a, b}

	out, extendable, err := parens(src, cfg, "f", Span{Lo: 1, Hi: len(src)}, items...).Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "f(\n    a,\n    /* keep me */ b,\n)", out)
	require.False(t, extendable)
}

func (OverflowSuite) TestEmptyList(ctx context.Context, t *testctx.T) {
	cfg := DefaultConfig()
	src, span := call("f")

	out, extendable, err := parens(src, cfg, "f", span).Rewrite(IndentedShape(Indent{}, cfg))
	require.NoError(t, err)
	require.Equal(t, "f()", out)
	require.True(t, extendable)

	narrow := LegacyShape(2, Indent{})
	_, _, err = parens(src, cfg, "f", span).Rewrite(narrow)
	require.ErrorIs(t, err, ErrExceedsWidth)

	t.Run("block comment stays inline", func(ctx context.Context, t *testctx.T) {
		src := Text("f(/* only */)")
		span := Span{Lo: 1, Hi: len(src)}

		out, _, err := parens(src, cfg, "f", span).Rewrite(IndentedShape(Indent{}, cfg))
		require.NoError(t, err)
		require.Equal(t, "f(/* only */)", out)

		_, _, err = parens(src, cfg, "f", span).Rewrite(LegacyShape(5, Indent{}))
		require.ErrorIs(t, err, ErrExceedsWidth)
	})

	t.Run("line comment gets its own line", func(ctx context.Context, t *testctx.T) {
		src := Text("f(// only\n)")
		span := Span{Lo: 1, Hi: len(src)}

		out, extendable, err := parens(src, cfg, "f", span).Rewrite(IndentedShape(Indent{}, cfg))
		require.NoError(t, err)
		require.Equal(t, "f(\n    // only\n)", out)
		require.False(t, extendable)
	})
}
