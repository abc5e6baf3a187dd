package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vito/lineup/pkg/lineup"
)

// TokenKind classifies a token.
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	Int
	Float
	String
	Char
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Char:
		return "char"
	case Punct:
		return "punctuation"
	default:
		return "end of file"
	}
}

// Token is a lexeme with its byte range in the source.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
	End  int
}

// Comment is a line or block comment found while lexing.
type Comment struct {
	Loc  lineup.Span
	Text string
}

// Multi-byte punctuation, longest first. "<" and ">" are always single
// tokens so that nested generics close properly; the parser joins "<" "="
// when they are adjacent.
var puncts = []string{
	"..=", "...",
	"::", "->", "=>", "==", "!=", "&&", "||", "..", "+=", "-=", "*=", "/=", "%=",
}

const singlePuncts = "()[]{},;:.#!?&|+-*/%=<>@^~$"

type lexer struct {
	src      string
	pos      int
	tokens   []Token
	comments []Comment
}

func lex(src string) ([]Token, []Comment, error) {
	l := &lexer{src: src}
	for {
		if err := l.skipSpaceAndComments(); err != nil {
			return nil, nil, err
		}
		if l.pos >= len(l.src) {
			l.tokens = append(l.tokens, Token{Kind: EOF, Pos: l.pos, End: l.pos})
			return l.tokens, l.comments, nil
		}
		if err := l.lexToken(); err != nil {
			return nil, nil, err
		}
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return newParseError(l.src, pos, fmt.Sprintf(format, args...))
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				end = len(l.src) - l.pos
			}
			l.comment(l.pos, l.pos+end)
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end, ok := lineup.FindCommentEnd(l.src[l.pos:])
			if !ok {
				return l.errorf(l.pos, "unterminated block comment")
			}
			l.comment(l.pos, l.pos+end)
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) comment(lo, hi int) {
	l.comments = append(l.comments, Comment{
		Loc:  lineup.Span{Lo: lo, Hi: hi},
		Text: strings.TrimRight(l.src[lo:hi], " \t\r\n"),
	})
	l.pos = hi
}

func (l *lexer) emit(kind TokenKind, start int) {
	l.tokens = append(l.tokens, Token{
		Kind: kind,
		Text: l.src[start:l.pos],
		Pos:  start,
		End:  l.pos,
	})
}

func (l *lexer) lexToken() error {
	start := l.pos
	rest := l.src[l.pos:]
	c := rest[0]

	switch {
	case c == '"':
		return l.lexString(start, 1)
	case (c == 'r' || c == 'b') && len(rest) > 1 && (rest[1] == '"' || rest[1] == '#' || (rest[1] == 'r' && len(rest) > 2 && (rest[2] == '"' || rest[2] == '#'))):
		return l.lexPrefixedString(start)
	case c == '\'':
		return l.lexChar(start)
	case c >= '0' && c <= '9':
		l.lexNumber(start)
		return nil
	case isIdentStart(rest):
		for l.pos < len(l.src) {
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.pos += size
		}
		l.emit(Ident, start)
		return nil
	}

	for _, p := range puncts {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			l.emit(Punct, start)
			return nil
		}
	}
	if strings.IndexByte(singlePuncts, c) >= 0 {
		l.pos++
		l.emit(Punct, start)
		return nil
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return l.errorf(start, "unexpected character %q", r)
}

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func (l *lexer) lexString(start, skip int) error {
	l.pos += skip
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			l.pos++
			l.emit(String, start)
			return nil
		default:
			l.pos++
		}
	}
	return l.errorf(start, "unterminated string")
}

// lexPrefixedString handles byte strings and raw strings: b"..", r"..",
// r#".."#, br"..".
func (l *lexer) lexPrefixedString(start int) error {
	if l.src[l.pos] == 'b' {
		l.pos++
		if l.src[l.pos] == '"' {
			return l.lexString(start, 1)
		}
	}
	if l.src[l.pos] != 'r' {
		return l.errorf(start, "malformed string prefix")
	}
	l.pos++
	hashes := 0
	for l.pos < len(l.src) && l.src[l.pos] == '#' {
		hashes++
		l.pos++
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '"' {
		return l.errorf(start, "malformed raw string")
	}
	l.pos++
	closing := "\"" + strings.Repeat("#", hashes)
	end := strings.Index(l.src[l.pos:], closing)
	if end < 0 {
		return l.errorf(start, "unterminated raw string")
	}
	l.pos += end + len(closing)
	l.emit(String, start)
	return nil
}

func (l *lexer) lexChar(start int) error {
	rest := l.src[l.pos+1:]
	if strings.HasPrefix(rest, "\\") {
		end := strings.IndexByte(rest[1:], '\'')
		if end < 0 {
			return l.errorf(start, "unterminated character literal")
		}
		l.pos += 1 + 1 + end + 1
		l.emit(Char, start)
		return nil
	}
	_, size := utf8.DecodeRuneInString(rest)
	if size > 0 && len(rest) > size && rest[size] == '\'' {
		l.pos += 1 + size + 1
		l.emit(Char, start)
		return nil
	}
	return l.errorf(start, "lifetimes are not supported")
}

func (l *lexer) lexNumber(start int) {
	kind := Int
	digits := func() {
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if c != '_' && !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
				return
			}
			l.pos++
		}
	}
	digits()
	// "1.5" is a float; "1..2" and "x.0.1" are not.
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
		prev := l.tokens
		isTupleIndex := len(prev) > 0 && prev[len(prev)-1].Text == "." && prev[len(prev)-1].End == start
		if !isTupleIndex {
			kind = Float
			l.pos++
			digits()
		}
	}
	l.emit(kind, start)
}
