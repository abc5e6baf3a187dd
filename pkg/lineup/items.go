package lineup

import (
	"strings"
	"unicode"
)

// Span is a half-open byte range [Lo, Hi) of the source text.
type Span struct {
	Lo, Hi int
}

// Spanned is anything with a source span.
type Spanned interface {
	Span() Span
}

// Source gives access to the original text of a byte range.
type Source interface {
	Snippet(Span) (string, bool)
}

// Text is a Source backed by the complete source string.
type Text string

func (t Text) Snippet(sp Span) (string, bool) {
	if sp.Lo < 0 || sp.Hi > len(t) || sp.Lo > sp.Hi {
		return "", false
	}
	return string(t[sp.Lo:sp.Hi]), true
}

// SpanAfter returns the position right after the first uncommented
// occurrence of needle within sp, or sp.Lo if there is none.
func SpanAfter(src Source, sp Span, needle string) int {
	snippet, ok := src.Snippet(sp)
	if !ok {
		return sp.Lo
	}
	if i := FindUncommented(snippet, needle); i >= 0 {
		return sp.Lo + i + len(needle)
	}
	return sp.Lo
}

// CommentStyle records where a leading comment sat relative to its item.
type CommentStyle uint8

const (
	CommentNone CommentStyle = iota
	// CommentSameLine: the comment was followed by the item on the same line.
	CommentSameLine
	// CommentDifferentLine: the comment was on a line of its own.
	CommentDifferentLine
)

func (s CommentStyle) String() string {
	switch s {
	case CommentSameLine:
		return "SameLine"
	case CommentDifferentLine:
		return "DifferentLine"
	default:
		return "None"
	}
}

// ListItem is one element of a list together with the comments attached to
// it in the source.
type ListItem struct {
	PreComment      string
	PreCommentStyle CommentStyle

	// Text is the rendered item. It is meaningless when Err is set.
	Text string
	// Err is the render failure of this item, if any. WriteList refuses
	// to render a list with a failed item.
	Err error

	PostComment string

	// HasPrecedingBlankLine is set when the source had a blank line
	// between the previous item and this one.
	HasPrecedingBlankLine bool
}

// ItemFromString builds an item with no comments.
func ItemFromString(s string) ListItem {
	return ListItem{Text: s}
}

// ItemsFromStrings builds comment-free items.
func ItemsFromStrings(ss ...string) []ListItem {
	items := make([]ListItem, len(ss))
	for i, s := range ss {
		items[i] = ItemFromString(s)
	}
	return items
}

// IsMultiline reports whether the item or its comments span several lines.
func (it ListItem) IsMultiline() bool {
	return strings.Contains(it.Text, "\n") ||
		strings.Contains(it.PreComment, "\n") ||
		strings.Contains(it.PostComment, "\n")
}

// HasComment reports whether any comment is attached to the item.
func (it ListItem) HasComment() bool {
	return it.PreComment != "" || it.PostComment != ""
}

// HasSingleLineComment reports whether a line comment is attached; such
// an item cannot be followed by anything on the same line.
func (it ListItem) HasSingleLineComment() bool {
	return isLineComment(it.PreComment) || isLineComment(it.PostComment)
}

// IsSubstantial reports whether the item contributes any output.
func (it ListItem) IsSubstantial() bool {
	return it.PreComment != "" || it.Text != "" || it.PostComment != ""
}

// isDifferentGroup ends a run of trailing comments that share a column.
func (it ListItem) isDifferentGroup() bool {
	return strings.Contains(it.Text, "\n") ||
		it.PreComment != "" ||
		strings.Contains(it.PostComment, "\n")
}

// ListItems is the lazy, forward-only sequence produced by Itemize. Each
// call to Next consumes one source item; it cannot be restarted.
type ListItems[T Spanned] struct {
	src        Source
	items      []T
	pos        int
	terminator string
	separator  string
	render     func(T) (string, error)

	prevSpanEnd   int
	nextSpanStart int
	leaveLast     bool
	blankPending  bool
}

// Itemize pairs every item with the comments found around it in the
// source. lo is where the first item's leading region starts (just after
// the opening delimiter) and hi where the list ends (at or after the
// terminator). render is called once per item in order; with leaveLast set
// the last item is not rendered and its Text left empty for the caller to
// fill in.
func Itemize[T Spanned](src Source, items []T, terminator, separator string, render func(T) (string, error), lo, hi int, leaveLast bool) *ListItems[T] {
	return &ListItems[T]{
		src:           src,
		items:         items,
		terminator:    terminator,
		separator:     separator,
		render:        render,
		prevSpanEnd:   lo,
		nextSpanStart: hi,
		leaveLast:     leaveLast,
	}
}

// Next returns the next item, or false once the sequence is exhausted.
func (l *ListItems[T]) Next() (ListItem, bool) {
	if l.pos >= len(l.items) {
		return ListItem{}, false
	}
	item := l.items[l.pos]
	l.pos++
	isLast := l.pos == len(l.items)
	span := item.Span()

	var li ListItem
	li.HasPrecedingBlankLine = l.blankPending

	pre, _ := l.src.Snippet(Span{Lo: l.prevSpanEnd, Hi: span.Lo})
	li.PreComment, li.PreCommentStyle = extractPreComment(pre)

	nextStart := l.nextSpanStart
	if !isLast {
		nextStart = l.items[l.pos].Span().Lo
	}
	post, _ := l.src.Snippet(Span{Lo: span.Hi, Hi: nextStart})
	commentEnd := postCommentEnd(post, l.separator, l.terminator, isLast)
	l.blankPending = hasExtraNewline(post, commentEnd)
	li.PostComment = extractPostComment(post, commentEnd, l.separator, isLast)

	l.prevSpanEnd = span.Hi + commentEnd

	if !(isLast && l.leaveLast) {
		li.Text, li.Err = l.render(item)
	}
	return li, true
}

// Collect drains the remaining items.
func (l *ListItems[T]) Collect() []ListItem {
	out := make([]ListItem, 0, len(l.items)-l.pos)
	for {
		li, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, li)
	}
}

// extractPreComment returns the comment found before an item and whether
// it shared the item's line.
func extractPreComment(pre string) (string, CommentStyle) {
	trimmed := strings.TrimSpace(pre)
	if trimmed == "" {
		return "", CommentNone
	}
	startsWithBlock := strings.HasPrefix(trimmed, "/*")
	endsWithBlock := strings.HasSuffix(trimmed, "*/")
	startsWithLine := strings.HasPrefix(trimmed, "//")
	switch {
	case endsWithBlock:
		end := strings.LastIndexByte(pre, '/')
		if strings.Contains(pre[end:], "\n") {
			return trimmed, CommentDifferentLine
		}
		return trimmed, CommentSameLine
	case startsWithLine || startsWithBlock:
		return trimmed, CommentDifferentLine
	default:
		return "", CommentNone
	}
}

// postCommentEnd finds where the text after an item stops belonging to it.
// The first uncommented separator delimits the item's trailing region; a
// comment following the separator on the same line still belongs to the
// item. Without a separator (lists without trailing separators, such as a
// match arm ending in a block) everything after the first line belongs to
// the next item.
func postCommentEnd(post, separator, terminator string, isLast bool) int {
	if isLast {
		if i := FindUncommented(post, terminator); i >= 0 {
			return i
		}
		return len(post)
	}

	blockOpen := strings.Index(post, "/*")
	if blockOpen >= 0 {
		// "//*" and block comments nested in line comments are not block
		// comment openers.
		if j := strings.IndexByte(post, '/'); j < blockOpen || strings.HasSuffix(post[:blockOpen], "/") {
			blockOpen = -1
		}
	}
	newline := strings.IndexByte(post, '\n')

	sep := FindUncommented(post, separator)
	if separator == "" {
		sep = -1
	}
	if sep < 0 {
		if newline >= 0 {
			return newline + 1
		}
		return 0
	}

	blockEnd := func() int {
		end, ok := FindCommentEnd(post[blockOpen:])
		if !ok {
			return len(post)
		}
		return max(blockOpen+end, sep+1)
	}
	switch {
	case blockOpen >= 0 && newline < 0 && blockOpen > sep:
		// Separator before a comment with the next item on the same line:
		// the comment belongs to the next item.
		return sep + 1
	case blockOpen >= 0 && newline < 0:
		return blockEnd()
	case blockOpen >= 0 && blockOpen < newline:
		return blockEnd()
	case newline > sep:
		return newline + 1
	default:
		return len(post)
	}
}

// extractPostComment returns the trailing comment of an item from the
// region after it, with one leading separator (or colon) and one trailing
// separator removed.
func extractPostComment(post string, commentEnd int, separator string, isLast bool) string {
	white := " \t"
	snippet := strings.TrimSpace(post[:commentEnd])

	lastInlineEndsWithSep := false
	if isLast && separator != "" {
		lines := strings.Split(snippet, "\n")
		line := lines[len(lines)-1]
		lastInlineEndsWithSep = strings.HasSuffix(line, separator) &&
			strings.HasPrefix(strings.TrimLeft(line, white), "//")
	}

	var trimmed string
	switch {
	case strings.HasPrefix(snippet, ",") || strings.HasPrefix(snippet, ":"):
		trimmed = strings.Trim(snippet[1:], white)
	case separator != "" && strings.HasPrefix(snippet, separator):
		trimmed = strings.Trim(snippet[len(separator):], white)
	case lastInlineEndsWithSep:
		trimmed = strings.Trim(snippet, white)
	case strings.HasSuffix(snippet, ",") &&
		(!strings.HasPrefix(strings.TrimSpace(snippet), "//") || strings.Contains(strings.TrimSpace(snippet), "\n")):
		trimmed = strings.Trim(snippet[:len(snippet)-1], white)
	default:
		trimmed = snippet
	}

	bare := strings.TrimSpace(trimmed)
	if trimmed != "" && (strings.HasPrefix(bare, "//") || strings.HasPrefix(bare, "/*")) {
		return trimmed
	}
	return ""
}

// hasExtraNewline reports whether a blank line separates the first line of
// the trailing region from whatever follows it.
func hasExtraNewline(post string, commentEnd int) bool {
	if post == "" || commentEnd == 0 {
		return false
	}
	// Everything from the last byte of the trailing region to the next item.
	test := post[commentEnd-1:]
	if i := strings.IndexByte(test, '\n'); i >= 0 {
		test = test[i:]
	} else {
		test = ""
	}
	if i := strings.IndexFunc(test, func(r rune) bool { return !unicode.IsSpace(r) }); i >= 0 {
		test = test[:i]
	}
	return CountNewlines(test) > 1
}
