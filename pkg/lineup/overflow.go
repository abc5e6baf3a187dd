package lineup

import (
	"strings"
	"unicode"
)

// ItemFlags describe the syntactic category of a list element as far as the
// overflow heuristics care.
type ItemFlags struct {
	// Expr is set for expressions, as opposed to types, patterns or
	// attributes.
	Expr bool
	// Closure is set for closures.
	Closure bool
	// NestedCall is set for calls, method calls and macro calls.
	NestedCall bool
	// Simple is set for literals, paths and similar atoms, possibly
	// behind a unary operator.
	Simple bool
	// Attrs is set when the element carries attributes.
	Attrs bool
}

// Flagged is implemented by elements that can report their category.
// Elements without it are treated as opaque: not expressions, not simple.
type Flagged interface {
	Flags() ItemFlags
}

// OverflowContext is what an element consults to decide whether it may
// overflow.
type OverflowContext struct {
	Config *Config
	// BlockIndent is set when the list is block indented, by configuration
	// or because a visual layout had to be retried.
	BlockIndent bool
}

// OverflowItem is an element of a call-like list.
type OverflowItem interface {
	Spanned
	// Rewrite renders the element within shape. It may recurse into this
	// package for nested lists.
	Rewrite(shape Shape) (string, error)
	// CanOverflow reports whether the element, as the last of count
	// elements, may span several lines while the others stay on the
	// opening line.
	CanOverflow(ctx OverflowContext, count int) bool
}

func flagsOf(item OverflowItem) ItemFlags {
	if f, ok := item.(Flagged); ok {
		return f.Flags()
	}
	return ItemFlags{}
}

// Delimited describes a call-like list: an identifier followed by
// delimited, comma-separated elements, as in "foo(a, b)", "vec![1, 2]" or
// "Vec<T>".
type Delimited[T OverflowItem] struct {
	Source Source
	Config *Config

	// Ident is the text on the line before the opening delimiter.
	Ident string
	Items []T
	// Span covers the delimiters and everything between them.
	Span Span

	Prefix, Suffix string

	// ItemMaxWidth is the soft limit of a horizontal layout.
	ItemMaxWidth int

	// ForceSeparator replaces the configured trailing separator policy
	// with Separator.
	ForceSeparator bool
	Separator      SeparatorTactic

	// Special marks format-style lists whose first SpecialArgs elements
	// precede a format string.
	Special     bool
	SpecialArgs int
}

// RewriteWithParens renders ident(items...).
func RewriteWithParens[T OverflowItem](src Source, cfg *Config, ident string, items []T, span Span, shape Shape, itemMaxWidth int) (string, bool, error) {
	return Delimited[T]{
		Source:       src,
		Config:       cfg,
		Ident:        ident,
		Items:        items,
		Span:         span,
		Prefix:       "(",
		Suffix:       ")",
		ItemMaxWidth: itemMaxWidth,
	}.Rewrite(shape)
}

// RewriteWithBrackets renders ident[items...] using the array width limit.
func RewriteWithBrackets[T OverflowItem](src Source, cfg *Config, ident string, items []T, span Span, shape Shape) (string, bool, error) {
	return Delimited[T]{
		Source:       src,
		Config:       cfg,
		Ident:        ident,
		Items:        items,
		Span:         span,
		Prefix:       "[",
		Suffix:       "]",
		ItemMaxWidth: cfg.ArrayWidth,
	}.Rewrite(shape)
}

// RewriteWithAngleBrackets renders ident<items...>. Generic lists have no
// soft limit of their own.
func RewriteWithAngleBrackets[T OverflowItem](src Source, cfg *Config, ident string, items []T, span Span, shape Shape) (string, bool, error) {
	return Delimited[T]{
		Source:       src,
		Config:       cfg,
		Ident:        ident,
		Items:        items,
		Span:         span,
		Prefix:       "<",
		Suffix:       ">",
		ItemMaxWidth: cfg.MaxWidth,
	}.Rewrite(shape)
}

// Rewrite renders the list at shape. extendable reports whether the result
// is a single line the caller may continue on.
func (d Delimited[T]) Rewrite(shape Shape) (text string, extendable bool, err error) {
	return d.rewrite(shape, d.Config.IndentStyle == IndentBlock)
}

func (d Delimited[T]) rewrite(shape Shape, blockIndent bool) (string, bool, error) {
	if len(d.Items) == 0 {
		if comment := d.emptyListComment(); comment != "" {
			return d.rewriteCommentOnly(comment, shape)
		}
		// An empty list cannot break.
		empty := d.Ident + d.Prefix + d.Suffix
		if !strings.Contains(d.Ident, "\n") && DisplayWidth(empty) > shape.Width {
			return "", false, exceeds("%q", empty)
		}
	}

	l := d.layout(shape, blockIndent)

	tactic, itemsStr, err := l.rewriteItems()
	if err != nil {
		return "", false, err
	}

	horizontal := tactic == Horizontal
	// A visual layout whose continuation lines ended up left of the
	// opening delimiter is retried with block indentation.
	if !blockIndent && !horizontal && needBlockIndent(itemsStr, l.nested) {
		return d.rewrite(shape, true)
	}

	return l.wrapItems(itemsStr, shape, horizontal), horizontal && !strings.Contains(itemsStr, "\n"), nil
}

// emptyListComment is the text between the delimiters of a list without
// items, if it holds a comment.
func (d Delimited[T]) emptyListComment() string {
	lo := SpanAfter(d.Source, d.Span, d.Prefix)
	body, ok := d.Source.Snippet(Span{Lo: lo, Hi: d.Span.Hi})
	if !ok {
		return ""
	}
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), d.Suffix))
	if !ContainsComment(body) {
		return ""
	}
	return body
}

// rewriteCommentOnly keeps a lone comment between the delimiters: inline
// if it is a single-line block comment, otherwise on its own nested line.
func (d Delimited[T]) rewriteCommentOnly(comment string, shape Shape) (string, bool, error) {
	cfg := d.Config
	if !isLineComment(comment) && !strings.Contains(comment, "\n") {
		text := d.Ident + d.Prefix + comment + d.Suffix
		if DisplayWidth(lastLine(text)) > shape.Width {
			return "", false, exceeds("%q", text)
		}
		return text, !strings.Contains(text, "\n"), nil
	}

	inner := shape.Indent.BlockOnly().BlockIndent(cfg)
	formatted, err := RewriteComment(comment, false, IndentedShape(inner, cfg), cfg)
	if err != nil {
		return "", false, err
	}
	return d.Ident + d.Prefix + inner.Newline(cfg) + formatted + shape.Block().Indent.Newline(cfg) + d.Suffix, false, nil
}

// delimitedLayout is one attempt at laying out a Delimited.
type delimitedLayout[T OverflowItem] struct {
	d   Delimited[T]
	ctx OverflowContext

	// oneLineWidth is what remains for the elements when everything stays
	// on the current line.
	oneLineWidth int
	// oneLineShape is the shape right after the opening delimiter.
	oneLineShape Shape
	// nested is the shape of elements on their own lines.
	nested Shape
}

func (d Delimited[T]) layout(shape Shape, blockIndent bool) *delimitedLayout[T] {
	cfg := d.Config
	usedWidth := ExtraOffset(d.Ident, shape)
	delims := DisplayWidth(d.Prefix) + DisplayWidth(d.Suffix)

	oneLine, err := shape.OffsetLeft(LastLineWidth(d.Ident) + DisplayWidth(d.Prefix))
	if err == nil {
		oneLine, err = oneLine.SubWidth(DisplayWidth(d.Suffix))
	}
	if err != nil {
		oneLine = shape
		oneLine.Width = 0
	}

	var nested Shape
	if blockIndent {
		nested = shape.Block().BlockIndent(cfg.TabSpaces).WithMaxWidth(cfg)
		// ","
		nested.Width = saturatingSub(nested.Width, 1)
	} else {
		nested = shape.VisualIndent(usedWidth + DisplayWidth(d.Prefix))
		nested.Width = saturatingSub(nested.Width, usedWidth+delims)
	}

	return &delimitedLayout[T]{
		d:            d,
		ctx:          OverflowContext{Config: cfg, BlockIndent: blockIndent},
		oneLineWidth: saturatingSub(shape.Width, usedWidth+delims),
		oneLineShape: oneLine,
		nested:       nested,
	}
}

func (l *delimitedLayout[T]) rewriteItems() (Tactic, string, error) {
	d := l.d
	lo := SpanAfter(d.Source, d.Span, d.Prefix)
	items := Itemize(d.Source, d.Items, d.Suffix, ",", func(item T) (string, error) {
		return item.Rewrite(l.nested)
	}, lo, d.Span.Hi, true).Collect()

	tactic := l.tryOverflowLastItem(items)

	trailing := d.Config.TrailingComma
	switch {
	case d.ForceSeparator:
		trailing = d.Separator
	case !l.ctx.BlockIndent:
		trailing = SeparatorNever
	}

	f := NewListFormatting(l.nested, d.Config)
	f.Tactic = tactic
	f.TrailingSeparator = trailing
	f.EndsWithNewline = (tactic == Vertical || tactic == Mixed) && l.ctx.BlockIndent
	f.SpecialArgs = d.SpecialArgs

	out, err := WriteList(items, f)
	if err != nil {
		return tactic, "", err
	}
	return tactic, out, nil
}

func (l *delimitedLayout[T]) defaultTactic(items []ListItem) Tactic {
	return DefinitiveTactic(items, PreferLimitedHorizontalVertical(l.d.ItemMaxWidth), Comma, l.oneLineWidth)
}

// tryOverflowLastItem renders the last element, letting it overflow if
// its first line fits on the opening line with the others, and returns the
// tactic for the list.
func (l *delimitedLayout[T]) tryOverflowLastItem(items []ListItem) Tactic {
	elems := l.d.Items
	n := len(elems)
	if n == 0 {
		return l.defaultTactic(items)
	}
	cfg := l.d.Config
	last := elems[n-1]
	lastFlags := flagsOf(last)

	firstFlags := flagsOf(elems[0])
	combineWithCallee := n == 1 &&
		firstFlags.Expr &&
		!firstFlags.Attrs &&
		DisplayWidth(l.d.Ident) < cfg.TabSpaces
	overflowLast := combineWithCallee || last.CanOverflow(l.ctx, n)

	// Of several closures none overflows.
	if lastFlags.Closure && countClosures(elems) > 1 {
		overflowLast = false
	}

	var overflowed string
	var haveOverflowed bool
	if overflowLast {
		if shape, err := lastItemShape(elems, items, l.oneLineShape, l.d.ItemMaxWidth); err == nil {
			if text, err := last.Rewrite(shape); err == nil {
				overflowed = text
				haveOverflowed = true
				// Only the first line has to fit beside the others.
				items[n-1].Text = firstLine(text)
			}
		}
	}

	tactic := l.defaultTactic(items)

	switch {
	case haveOverflowed && tactic == Horizontal && n == 1:
		// A lone element that needs exactly one extra line may fit on one
		// line at the nested shape, which is wider than the overflow shape.
		if CountNewlines(overflowed) == 1 {
			if text, err := last.Rewrite(l.nested); err == nil && !strings.Contains(text, "\n") {
				overflowed = text
			}
		}
		items[n-1].Text = overflowed

	case haveOverflowed && tactic == Horizontal:
		items[n-1].Text = overflowed

	default:
		items[n-1].Text, items[n-1].Err = last.Rewrite(l.nested)

		// A zero one-line width forces a vertical layout.
		if n == 1 &&
			l.oneLineWidth != 0 &&
			items[0].Err == nil &&
			!items[0].HasComment() &&
			!strings.Contains(items[0].Text, "\n") &&
			ItemWidth(items[0]) <= l.oneLineWidth {
			return Horizontal
		}

		tactic = l.defaultTactic(items)
		if tactic != Vertical {
			return tactic
		}

		if l.d.Special {
			k := l.d.SpecialArgs
			if k >= 0 && k < n &&
				everySimple(elems[:k]) &&
				DefinitiveTactic(items[:k], PreferHorizontalVertical, Comma, l.nested.Width) == Horizontal &&
				DefinitiveTactic(items[k+1:], PreferHorizontalVertical, Comma, l.nested.Width) == Horizontal {
				tactic = SpecialMacro
			}
		} else if everySimple(elems) && noLongItems(items, cfg.ShortArrayElementWidthThreshold) {
			tactic = Mixed
		}
	}

	return tactic
}

// lastItemShape is the shape of the last element when it follows the
// others on the opening line.
func lastItemShape[T OverflowItem](elems []T, items []ListItem, shape Shape, maxWidth int) (Shape, error) {
	if len(items) == 1 && !flagsOf(elems[0]).NestedCall {
		return shape, nil
	}
	offset := 0
	for _, it := range items[:len(items)-1] {
		// ", "
		offset += 2 + DisplayWidth(it.Text)
	}
	shape.Width = min(maxWidth, shape.Width)
	return shape.OffsetLeft(offset)
}

// wrapItems surrounds the rendered elements with the identifier and the
// delimiters. Hugged elements stay on the identifier's line; otherwise they
// go on a new nested line and the closing delimiter on a line of its own.
func (l *delimitedLayout[T]) wrapItems(itemsStr string, shape Shape, hug bool) string {
	cfg := l.d.Config
	shape.Width = saturatingSub(shape.Width, LastLineWidth(l.d.Ident))

	extendWidth := 2
	if itemsStr != "" {
		extendWidth = FirstLineWidth(itemsStr) + 1
	}

	var b strings.Builder
	b.WriteString(l.d.Ident)
	b.WriteString(l.d.Prefix)
	if !l.ctx.BlockIndent || (hug && extendWidth <= shape.Width) {
		b.WriteString(itemsStr)
	} else {
		if itemsStr != "" {
			b.WriteString(l.nested.Indent.Newline(cfg))
			b.WriteString(itemsStr)
		}
		b.WriteString(shape.Block().Indent.Newline(cfg))
	}
	b.WriteString(l.d.Suffix)
	return b.String()
}

// needBlockIndent reports whether a continuation line of s starts left of
// the shape's indentation.
func needBlockIndent(s string, shape Shape) bool {
	lines := strings.Split(s, "\n")
	for _, line := range lines[1:] {
		w := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
		if w >= 0 && w+1 < shape.Indent.Width() {
			return true
		}
	}
	return false
}

func countClosures[T OverflowItem](elems []T) int {
	n := 0
	for _, e := range elems {
		if flagsOf(e).Closure {
			n++
		}
	}
	return n
}

func everySimple[T OverflowItem](elems []T) bool {
	for _, e := range elems {
		if !flagsOf(e).Simple {
			return false
		}
	}
	return true
}

func noLongItems(items []ListItem, threshold int) bool {
	for _, it := range items {
		if DisplayWidth(it.Text) > threshold {
			return false
		}
	}
	return true
}
