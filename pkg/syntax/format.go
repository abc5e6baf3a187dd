package syntax

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/lineup/pkg/lineup"
)

// Unformatted records a statement that was emitted as written because it
// could not be laid out.
type Unformatted struct {
	Line   int
	Reason string
}

// Result is a formatted file.
type Result struct {
	Text        string
	Unformatted []Unformatted
}

// Formatter lays out one parsed file.
type Formatter struct {
	cfg         *lineup.Config
	src         lineup.Text
	comments    []Comment
	unformatted []Unformatted
}

// NewFormatter prepares to format file, which was parsed from src.
func NewFormatter(file *File, src []byte, cfg *lineup.Config) *Formatter {
	return &Formatter{
		cfg:      cfg,
		src:      lineup.Text(src),
		comments: file.Comments,
	}
}

// FormatFile parses and formats a source file. Statements that cannot be
// laid out are kept as written and reported in the result; only a syntax
// error fails the whole file.
func FormatFile(src []byte, cfg *lineup.Config) (Result, error) {
	file, err := Parse(src)
	if err != nil {
		return Result{}, err
	}
	return NewFormatter(file, src, cfg).Format(file)
}

// Format lays out the whole file.
func (f *Formatter) Format(file *File) (Result, error) {
	body, err := f.formatStmts(file.Stmts, lineup.Indent{}, 0, len(f.src), true)
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimRight(trimTrailingWhitespace(body), "\n")
	if text != "" {
		text += "\n"
	}
	return Result{Text: text, Unformatted: f.unformatted}, nil
}

// trimTrailingWhitespace removes trailing whitespace from each line
func trimTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// formatStmts lays out a statement sequence at indent, together with the
// comments and blank lines of the source range [lo, hi) around it. With
// fallback set a statement that fails is kept as written; otherwise the
// failure is returned.
func (f *Formatter) formatStmts(stmts []Stmt, indent lineup.Indent, lo, hi int, fallback bool) (string, error) {
	shape := lineup.IndentedShape(indent, f.cfg)
	prefix := indent.String(f.cfg)

	var lines []string
	emit := func(text string) {
		lines = append(lines, prefix+text)
	}
	blank := func() {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
	}
	trail := func(comment string) {
		if comment != "" && len(lines) > 0 {
			lines[len(lines)-1] += " " + comment
		}
	}

	pos := lo
	for i, s := range stmts {
		trailing, between, blankBefore := splitGap(string(f.src[pos:s.Span().Lo]), i > 0)
		trail(trailing)

		nofmt := false
		for _, c := range between {
			if c == "" {
				blank()
				nofmt = false
				continue
			}
			emit(f.standaloneComment(c, shape))
			nofmt = isNoFmt(c)
		}
		if blankBefore {
			blank()
			nofmt = false
		}

		text, err := f.formatStmt(s, indent, fallback, nofmt || f.hasTrailingNoFmt(s))
		if err != nil {
			return "", err
		}
		emit(text)
		pos = s.Span().Hi
	}

	trailing, rest, _ := splitGap(string(f.src[pos:hi]), len(stmts) > 0)
	trail(trailing)
	for _, c := range rest {
		if c == "" {
			blank()
			continue
		}
		emit(f.standaloneComment(c, shape))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n"), nil
}

func (f *Formatter) formatStmt(s Stmt, indent lineup.Indent, fallback, nofmt bool) (string, error) {
	if nofmt {
		return f.original(s), nil
	}

	recorded := len(f.unformatted)
	text, err := f.rewriteStmt(s, indent)
	if err == nil {
		if lost, ok := f.lostComment(s.Span(), text); ok {
			err = errors.Errorf("comment %q has no place in the layout", firstLineOf(lost))
		}
	}
	if err == nil {
		return text, nil
	}
	if !fallback {
		return "", err
	}

	// Anything recorded inside the statement is moot now.
	f.unformatted = f.unformatted[:recorded]
	f.unformatted = append(f.unformatted, Unformatted{
		Line:   f.line(s.Span().Lo),
		Reason: err.Error(),
	})
	return f.original(s), nil
}

func (f *Formatter) rewriteStmt(s Stmt, indent lineup.Indent) (string, error) {
	shape := lineup.IndentedShape(indent, f.cfg)

	var b strings.Builder
	for _, attr := range s.Attributes() {
		text, err := f.rewriteAttr(attr, shape)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		b.WriteString(indent.Newline(f.cfg))
	}

	var text string
	var err error
	switch s := s.(type) {
	case *FnDecl:
		text, err = f.rewriteFn(s, shape)
	case *UseDecl:
		text, err = f.rewriteUse(s, shape)
	case *LetStmt:
		text, err = f.rewriteLet(s, shape)
	case *ExprStmt:
		text, err = f.rewriteExprStmt(s, shape)
	default:
		err = errors.Errorf("unknown statement %T", s)
	}
	if err != nil {
		return "", err
	}
	b.WriteString(text)
	return b.String(), nil
}

func (f *Formatter) rewriteExprStmt(s *ExprStmt, shape lineup.Shape) (string, error) {
	if !s.Semi {
		return f.rewriteExpr(s.X, shape)
	}
	shape, err := shape.SubWidth(1)
	if err != nil {
		return "", err
	}
	text, err := f.rewriteExpr(s.X, shape)
	if err != nil {
		return "", err
	}
	return text + ";", nil
}

// rewriteBlock renders a braced block whose closing brace sits at indent.
// Non-empty blocks always span several lines.
func (f *Formatter) rewriteBlock(b *Block, indent lineup.Indent, fallback bool) (string, error) {
	lo, hi := b.Loc.Lo+1, b.Loc.Hi-1
	if len(b.Stmts) == 0 && !lineup.ContainsComment(string(f.src[lo:hi])) {
		return "{}", nil
	}
	body, err := f.formatStmts(b.Stmts, indent.BlockIndent(f.cfg), lo, hi, fallback)
	if err != nil {
		return "", err
	}
	return "{\n" + body + indent.Newline(f.cfg) + "}", nil
}

// original is the statement as written. Its first line takes the current
// indentation; the rest is untouched.
func (f *Formatter) original(s Stmt) string {
	text, _ := f.src.Snippet(s.Span())
	return text
}

func (f *Formatter) line(pos int) int {
	return strings.Count(string(f.src[:pos]), "\n") + 1
}

func (f *Formatter) standaloneComment(c string, shape lineup.Shape) string {
	text, err := lineup.RewriteComment(c, false, shape, f.cfg)
	if err != nil {
		return c
	}
	return text
}

// hasTrailingNoFmt reports a nofmt comment on the line where s ends.
func (f *Formatter) hasTrailingNoFmt(s Stmt) bool {
	rest := string(f.src[s.Span().Hi:])
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	trailing, _, _ := splitGap(rest, true)
	return isNoFmt(trailing)
}

func isNoFmt(comment string) bool {
	text, ok := strings.CutPrefix(comment, "//")
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)
	return text == "nofmt" || strings.HasPrefix(text, "nofmt ")
}

// splitGap takes apart the text between two statements, which holds only
// whitespace and comments. A comment on the line where the previous
// statement ended trails it. The standalone comments that follow come back
// in order, with "" standing for a blank line. blankBefore reports a blank
// line right before the next statement.
func splitGap(gap string, afterStmt bool) (trailing string, between []string, blankBefore bool) {
	newlines := 0
	for i := 0; i < len(gap); {
		switch c := gap[i]; c {
		case '\n':
			newlines++
			i++
			continue
		case ' ', '\t', '\r':
			i++
			continue
		}

		end, ok := lineup.FindCommentEnd(gap[i:])
		if !ok {
			// Not a comment; nothing else can sit between statements.
			break
		}
		raw := gap[i : i+end]
		text := strings.TrimRight(raw, " \t\r\n")
		switch {
		case afterStmt && newlines == 0 && trailing == "" && len(between) == 0:
			trailing = text
		default:
			if newlines > 1 && (afterStmt || len(between) > 0) {
				between = append(between, "")
			}
			between = append(between, text)
		}
		newlines = 0
		if strings.HasSuffix(raw, "\n") {
			newlines = 1
		}
		i += end
	}
	return trailing, between, newlines > 1
}

// lostComment finds a comment of the source range sp that does not appear
// in out. Comments are compared by their words, so rewritten delimiters
// and indentation do not matter.
func (f *Formatter) lostComment(sp lineup.Span, out string) (string, bool) {
	var flat string
	for _, c := range f.comments {
		if c.Loc.Lo < sp.Lo || c.Loc.Hi > sp.Hi {
			continue
		}
		if flat == "" {
			flat = squeeze(out)
		}
		if !strings.Contains(flat, squeeze(c.Text)) {
			return c.Text, true
		}
	}
	return "", false
}

// squeeze drops whitespace and comment punctuation.
func squeeze(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '/', '*':
			return -1
		}
		return r
	}, s)
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
