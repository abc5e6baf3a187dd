package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vito/lineup/pkg/lineup"
)

// ParseError is a syntax error with a 1-based position.
type ParseError struct {
	Pos    int
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func newParseError(src string, pos int, msg string) *ParseError {
	if pos > len(src) {
		pos = len(src)
	}
	before := src[:pos]
	line := strings.Count(before, "\n") + 1
	col := utf8.RuneCountInString(before[strings.LastIndexByte(before, '\n')+1:]) + 1
	return &ParseError{Pos: pos, Line: line, Column: col, Msg: msg}
}

// Parse parses a complete source file.
func Parse(src []byte) (file *File, err error) {
	text := string(src)
	toks, comments, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, toks: toks}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			file, err = nil, pe
		}
	}()
	file = p.parseFile()
	file.Comments = comments
	return file, nil
}

type parser struct {
	src  string
	toks []Token
	pos  int

	// noStruct disables struct literals, as in match scrutinees and if
	// conditions where a brace starts the body.
	noStruct bool
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

// prevEnd is the end of the last consumed token.
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

func (p *parser) at(text string) bool {
	t := p.peek()
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == text
}

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) Token {
	if !p.at(text) {
		p.failf("expected %q, found %s", text, describe(p.peek()))
	}
	return p.next()
}

func (p *parser) ident() Token {
	t := p.peek()
	if t.Kind != Ident || isKeyword(t.Text) {
		p.failf("expected identifier, found %s", describe(t))
	}
	return p.next()
}

func (p *parser) failf(format string, args ...any) {
	panic(newParseError(p.src, p.peek().Pos, fmt.Sprintf(format, args...)))
}

func describe(t Token) string {
	if t.Kind == EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}

var keywords = map[string]bool{
	"fn": true, "let": true, "use": true, "match": true, "if": true,
	"else": true, "return": true, "move": true, "mut": true, "as": true,
	"true": true, "false": true,
}

func isKeyword(s string) bool { return keywords[s] }

func span(lo, hi int) lineup.Span { return lineup.Span{Lo: lo, Hi: hi} }

func (p *parser) parseFile() *File {
	var stmts []Stmt
	for p.peek().Kind != EOF {
		stmts = append(stmts, p.parseStmt())
	}
	return &File{Stmts: stmts, Loc: span(0, len(p.src))}
}

func (p *parser) parseStmt() Stmt {
	start := p.peek().Pos
	attrs := p.parseAttrs()
	switch {
	case p.at("fn"):
		return p.parseFn(attrs, start)
	case p.at("use"):
		p.next()
		tree := p.parseUseTree()
		p.expect(";")
		return &UseDecl{Attrs: attrs, Tree: tree, Loc: span(start, p.prevEnd())}
	case p.at("let"):
		return p.parseLet(attrs, start)
	}

	x := p.parseExpr()
	stmt := &ExprStmt{Attrs: attrs, X: x}
	switch {
	case p.accept(";"):
		stmt.Semi = true
	case isBlockLike(x), p.at("}"), p.peek().Kind == EOF:
	default:
		p.failf("expected \";\", found %s", describe(p.peek()))
	}
	stmt.Loc = span(start, p.prevEnd())
	return stmt
}

func isBlockLike(x Expr) bool {
	switch x.(type) {
	case *BlockExpr, *Match, *If:
		return true
	}
	return false
}

func (p *parser) parseAttrs() []*Attr {
	var attrs []*Attr
	for p.at("#") && p.peekAt(1).Text == "[" {
		start := p.next().Pos
		p.expect("[")
		meta := p.parseMeta()
		p.expect("]")
		attrs = append(attrs, &Attr{Meta: meta, Loc: span(start, p.prevEnd())})
	}
	return attrs
}

func (p *parser) parseMeta() *Meta {
	start := p.peek().Pos
	if lit := p.tryLit(); lit != nil {
		return &Meta{Lit: lit, Loc: lit.Loc}
	}
	m := &Meta{Path: p.parsePath(false)}
	switch {
	case p.accept("="):
		m.Lit = p.tryLit()
		if m.Lit == nil {
			p.failf("expected literal, found %s", describe(p.peek()))
		}
	case p.at("("):
		open := p.next().Pos
		m.HasList = true
		for !p.at(")") {
			m.List = append(m.List, p.parseMeta())
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
		m.ListSpan = span(open, p.prevEnd())
	}
	m.Loc = span(start, p.prevEnd())
	return m
}

func (p *parser) tryLit() *Lit {
	t := p.peek()
	var kind LitKind
	switch t.Kind {
	case Int:
		kind = IntLit
	case Float:
		kind = FloatLit
	case String:
		kind = StringLit
	case Char:
		kind = CharLit
	case Ident:
		if t.Text != "true" && t.Text != "false" {
			return nil
		}
		kind = BoolLit
	default:
		return nil
	}
	p.next()
	return &Lit{Kind: kind, Text: t.Text, Loc: span(t.Pos, t.End)}
}

// parsePath reads a::b::c. In use trees the path stops before "::{" and
// "::*".
func (p *parser) parsePath(inUse bool) string {
	var b strings.Builder
	if p.at("::") {
		p.next()
		b.WriteString("::")
	}
	b.WriteString(p.pathSegment())
	for p.at("::") {
		nxt := p.peekAt(1)
		if inUse && (nxt.Text == "{" || nxt.Text == "*") {
			break
		}
		if nxt.Kind != Ident {
			break
		}
		p.next()
		b.WriteString("::")
		b.WriteString(p.pathSegment())
	}
	return b.String()
}

func (p *parser) pathSegment() string {
	t := p.peek()
	if t.Kind == Ident && (!isKeyword(t.Text) || t.Text == "self") {
		p.next()
		return t.Text
	}
	p.failf("expected path, found %s", describe(t))
	return ""
}

func (p *parser) parseFn(attrs []*Attr, start int) *FnDecl {
	p.expect("fn")
	fn := &FnDecl{Attrs: attrs, Name: p.ident().Text}

	if p.at("<") {
		open := p.next().Pos
		for !p.at(">") {
			fn.Generics = append(fn.Generics, p.parseGeneric())
			if !p.accept(",") {
				break
			}
		}
		p.expect(">")
		fn.GenericsSpan = span(open, p.prevEnd())
	}

	open := p.expect("(").Pos
	for !p.at(")") {
		fn.Params = append(fn.Params, p.parseParam())
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	fn.ParamsSpan = span(open, p.prevEnd())

	if p.accept("->") {
		fn.Ret = p.parseType()
	}
	fn.Body = p.parseBlock()
	fn.Loc = span(start, p.prevEnd())
	return fn
}

func (p *parser) parseGeneric() *Generic {
	name := p.ident()
	g := &Generic{Name: name.Text}
	if p.accept(":") {
		g.Bounds = append(g.Bounds, p.parseType())
		for p.accept("+") {
			g.Bounds = append(g.Bounds, p.parseType())
		}
	}
	g.Loc = span(name.Pos, p.prevEnd())
	return g
}

func (p *parser) parseParam() *Param {
	start := p.peek().Pos
	pat := p.parsePattern()
	param := &Param{Pat: pat}
	if p.accept(":") {
		param.Type = p.parseType()
	} else if !isSelf(pat) {
		p.failf("expected \":\", found %s", describe(p.peek()))
	}
	param.Loc = span(start, p.prevEnd())
	return param
}

func isSelf(pat Pattern) bool {
	switch x := pat.(type) {
	case *IdentPat:
		return x.Name == "self"
	case *RefPat:
		return isSelf(x.X)
	}
	return false
}

func (p *parser) parseUseTree() *UseTree {
	start := p.peek().Pos
	tree := &UseTree{}
	if !p.at("{") && !p.at("*") {
		tree.Path = p.parsePath(true)
		if !p.accept("::") {
			if p.accept("as") {
				tree.Alias = p.ident().Text
			}
			tree.Loc = span(start, p.prevEnd())
			return tree
		}
	}
	switch {
	case p.accept("*"):
		tree.Star = true
	case p.at("{"):
		open := p.next().Pos
		tree.HasChildren = true
		for !p.at("}") {
			tree.Children = append(tree.Children, p.parseUseTree())
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		tree.ChildrenSpan = span(open, p.prevEnd())
	default:
		p.failf("expected \"{\" or \"*\", found %s", describe(p.peek()))
	}
	tree.Loc = span(start, p.prevEnd())
	return tree
}

func (p *parser) parseLet(attrs []*Attr, start int) *LetStmt {
	p.expect("let")
	let := &LetStmt{Attrs: attrs, Pat: p.parsePattern()}
	if p.accept(":") {
		let.Type = p.parseType()
	}
	if p.accept("=") {
		let.Value = p.parseExpr()
	}
	p.expect(";")
	let.Loc = span(start, p.prevEnd())
	return let
}

func (p *parser) parseBlock() *Block {
	open := p.expect("{").Pos
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()

	var stmts []Stmt
	for !p.at("}") {
		if p.peek().Kind == EOF {
			p.failf("unclosed block")
		}
		stmts = append(stmts, p.parseStmt())
	}
	p.expect("}")
	return &Block{Stmts: stmts, Loc: span(open, p.prevEnd())}
}

// Expressions.

func (p *parser) parseExpr() Expr {
	lhs := p.parseBinary(0)
	switch op := p.peek(); {
	case op.Kind == Punct && (op.Text == "=" || op.Text == "+=" || op.Text == "-=" || op.Text == "*=" || op.Text == "/=" || op.Text == "%="):
		p.next()
		rhs := p.parseExpr()
		return &Assign{Op: op.Text, L: lhs, R: rhs, Loc: span(lhs.Span().Lo, rhs.Span().Hi)}
	}
	return lhs
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
	"as": 6,
}

// binaryOp returns the operator at the current position and how many
// tokens it spans. "<=" and ">=" arrive as two adjacent tokens.
func (p *parser) binaryOp() (string, int) {
	t := p.peek()
	switch {
	case t.Kind == Ident && t.Text == "as":
		return "as", 1
	case t.Kind != Punct:
		return "", 0
	case t.Text == "<" || t.Text == ">":
		if nxt := p.peekAt(1); nxt.Text == "=" && nxt.Pos == t.End {
			return t.Text + "=", 2
		}
	}
	if _, ok := precedence[t.Text]; ok {
		return t.Text, 1
	}
	return "", 0
}

func (p *parser) parseBinary(minPrec int) Expr {
	lhs := p.parseUnary()
	for {
		op, n := p.binaryOp()
		if op == "" || precedence[op] < minPrec {
			return lhs
		}
		for range n {
			p.next()
		}
		if op == "as" {
			typ := p.parseType()
			lhs = &Cast{X: lhs, Type: typ, Loc: span(lhs.Span().Lo, typ.Span().Hi)}
			continue
		}
		rhs := p.parseBinary(precedence[op] + 1)
		lhs = &Binary{Op: op, L: lhs, R: rhs, Loc: span(lhs.Span().Lo, rhs.Span().Hi)}
	}
}

func (p *parser) parseUnary() Expr {
	t := p.peek()
	if t.Kind == Punct {
		switch t.Text {
		case "-", "!", "*":
			p.next()
			x := p.parseUnary()
			return &Unary{Op: t.Text, X: x, Loc: span(t.Pos, x.Span().Hi)}
		case "&":
			p.next()
			mut := p.accept("mut")
			x := p.parseUnary()
			return &Ref{Mut: mut, X: x, Loc: span(t.Pos, x.Span().Hi)}
		case "&&":
			p.next()
			mut := p.accept("mut")
			x := p.parseUnary()
			inner := &Ref{Mut: mut, X: x, Loc: span(t.Pos+1, x.Span().Hi)}
			return &Ref{X: inner, Loc: span(t.Pos, x.Span().Hi)}
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(x Expr) Expr {
	lo := x.Span().Lo
	for {
		switch {
		case p.at("."):
			p.next()
			name := p.peek()
			if name.Kind != Ident && name.Kind != Int && name.Kind != Float {
				p.failf("expected field or method name, found %s", describe(name))
			}
			p.next()
			if name.Kind == Ident && p.at("(") {
				args, argsSpan := p.parseExprList("(", ")")
				x = &MethodCall{Recv: x, Name: name.Text, Args: args, ArgsSpan: argsSpan, Loc: span(lo, p.prevEnd())}
			} else {
				x = &Field{X: x, Name: name.Text, Loc: span(lo, p.prevEnd())}
			}
		case p.at("("):
			args, argsSpan := p.parseExprList("(", ")")
			x = &Call{Fun: x, Args: args, ArgsSpan: argsSpan, Loc: span(lo, p.prevEnd())}
		case p.at("["):
			p.next()
			idx := p.withStructs(p.parseExpr)
			p.expect("]")
			x = &Index{X: x, Index: idx, Loc: span(lo, p.prevEnd())}
		case p.at("?"):
			p.next()
			x = &Try{X: x, Loc: span(lo, p.prevEnd())}
		default:
			return x
		}
	}
}

func (p *parser) withStructs(fn func() Expr) Expr {
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()
	return fn()
}

func (p *parser) withoutStructs(fn func() Expr) Expr {
	saved := p.noStruct
	p.noStruct = true
	defer func() { p.noStruct = saved }()
	return fn()
}

// parseExprList reads open elem, elem, ... close and returns the span of
// the delimited list.
func (p *parser) parseExprList(open, close string) ([]Expr, lineup.Span) {
	start := p.expect(open).Pos
	var elems []Expr
	for !p.at(close) {
		elems = append(elems, p.withStructs(p.parseExpr))
		if !p.accept(",") {
			break
		}
	}
	p.expect(close)
	return elems, span(start, p.prevEnd())
}

func (p *parser) parsePrimary() Expr {
	t := p.peek()
	if lit := p.tryLit(); lit != nil {
		return lit
	}

	switch {
	case t.Kind == Ident && t.Text == "match":
		return p.parseMatch()
	case t.Kind == Ident && t.Text == "if":
		return p.parseIf()
	case t.Kind == Ident && t.Text == "return":
		p.next()
		ret := &Return{}
		if !p.at(";") && !p.at("}") && !p.at(",") && !p.at(")") && p.peek().Kind != EOF {
			ret.X = p.parseExpr()
		}
		ret.Loc = span(t.Pos, p.prevEnd())
		return ret
	case t.Kind == Ident && t.Text == "move", p.at("|"), p.at("||"):
		return p.parseClosure()
	case p.at("("):
		return p.parseParenOrTuple()
	case p.at("["):
		elems, sp := p.parseExprList("[", "]")
		return &Array{Elems: elems, Loc: sp}
	case p.at("{"):
		return &BlockExpr{Block: p.parseBlock()}
	case t.Kind == Ident && (!isKeyword(t.Text) || t.Text == "self") || p.at("::"):
		return p.parsePathExpr()
	}
	p.failf("unexpected %s", describe(t))
	return nil
}

func (p *parser) parseParenOrTuple() Expr {
	start := p.expect("(").Pos
	var elems []Expr
	trailingComma := false
	for !p.at(")") {
		elems = append(elems, p.withStructs(p.parseExpr))
		trailingComma = p.accept(",")
		if !trailingComma {
			break
		}
	}
	p.expect(")")
	sp := span(start, p.prevEnd())
	if len(elems) == 1 && !trailingComma {
		return &Paren{X: elems[0], Loc: sp}
	}
	return &Tuple{Elems: elems, Loc: sp}
}

func (p *parser) parsePathExpr() Expr {
	start := p.peek().Pos
	path := p.parsePath(false)

	if p.at("!") {
		switch p.peekAt(1).Text {
		case "(", "[", "{":
			p.next()
			return p.parseMacro(path, start)
		}
	}
	if p.at("{") && !p.noStruct && startsUpper(path) {
		return p.parseStructLit(path, start)
	}
	return &PathExpr{Path: path, Loc: span(start, p.prevEnd())}
}

func startsUpper(path string) bool {
	last := path[strings.LastIndex(path, "::")+1:]
	last = strings.TrimPrefix(last, ":")
	r, _ := utf8.DecodeRuneInString(last)
	return unicode.IsUpper(r)
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

func (p *parser) parseMacro(path string, start int) Expr {
	open := p.peek()
	m := &MacroCall{Path: path, Delim: open.Text[0]}
	close := closers[open.Text]
	if open.Text != "{" {
		if args, sp, ok := p.tryExprList(open.Text, close); ok {
			m.Args, m.ArgsSpan = args, sp
			m.Loc = span(start, p.prevEnd())
			return m
		}
	}
	m.Raw = true
	m.ArgsSpan = p.skipBalanced()
	m.Loc = span(start, p.prevEnd())
	return m
}

func (p *parser) tryExprList(open, close string) (elems []Expr, sp lineup.Span, ok bool) {
	saved := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, isParseErr := r.(*ParseError); !isParseErr {
				panic(r)
			}
			p.pos = saved
			ok = false
		}
	}()
	elems, sp = p.parseExprList(open, close)
	return elems, sp, true
}

// skipBalanced consumes a delimited token tree.
func (p *parser) skipBalanced() lineup.Span {
	open := p.next()
	var stack []string
	stack = append(stack, closers[open.Text])
	for len(stack) > 0 {
		t := p.next()
		switch {
		case t.Kind == EOF:
			panic(newParseError(p.src, open.Pos, "unclosed delimiter"))
		case t.Kind != Punct:
		case closers[t.Text] != "":
			stack = append(stack, closers[t.Text])
		case t.Text == stack[len(stack)-1]:
			stack = stack[:len(stack)-1]
		case t.Text == ")" || t.Text == "]" || t.Text == "}":
			panic(newParseError(p.src, t.Pos, fmt.Sprintf("mismatched %q", t.Text)))
		}
	}
	return span(open.Pos, p.prevEnd())
}

func (p *parser) parseStructLit(path string, start int) Expr {
	open := p.expect("{").Pos
	lit := &StructLit{Path: path}
	for !p.at("}") {
		fstart := p.peek().Pos
		field := &FieldInit{}
		if p.accept("..") {
			field.Base = true
			field.Value = p.parseExpr()
		} else {
			field.Name = p.ident().Text
			if p.accept(":") {
				field.Value = p.parseExpr()
			}
		}
		field.Loc = span(fstart, p.prevEnd())
		lit.Fields = append(lit.Fields, field)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	lit.FieldsSpan = span(open, p.prevEnd())
	lit.Loc = span(start, p.prevEnd())
	return lit
}

func (p *parser) parseClosure() Expr {
	start := p.peek().Pos
	c := &Closure{Move: p.accept("move")}
	if !p.accept("||") {
		p.expect("|")
		for !p.at("|") {
			pstart := p.peek().Pos
			param := &ClosureParam{Pat: p.parsePattern()}
			if p.accept(":") {
				param.Type = p.parseType()
			}
			param.Loc = span(pstart, p.prevEnd())
			c.Params = append(c.Params, param)
			if !p.accept(",") {
				break
			}
		}
		p.expect("|")
	}
	if p.accept("->") {
		c.Ret = p.parseType()
		c.Body = &BlockExpr{Block: p.parseBlock()}
	} else {
		c.Body = p.parseExpr()
	}
	c.Loc = span(start, p.prevEnd())
	return c
}

func (p *parser) parseMatch() Expr {
	start := p.expect("match").Pos
	m := &Match{Scrutinee: p.withoutStructs(p.parseExpr)}
	open := p.expect("{").Pos
	for !p.at("}") {
		arm := &Arm{}
		armStart := p.peek().Pos
		arm.Pat = p.parseArmPattern()
		if p.accept("if") {
			arm.Guard = p.parseExpr()
		}
		p.expect("=>")
		arm.Body = p.withStructs(p.parseExpr)
		arm.Loc = span(armStart, p.prevEnd())
		m.Arms = append(m.Arms, arm)
		if !p.accept(",") && !isBlockLike(arm.Body) && !p.at("}") {
			p.failf("expected \",\", found %s", describe(p.peek()))
		}
	}
	p.expect("}")
	m.ArmsSpan = span(open, p.prevEnd())
	m.Loc = span(start, p.prevEnd())
	return m
}

func (p *parser) parseIf() Expr {
	start := p.expect("if").Pos
	x := &If{Cond: p.withoutStructs(p.parseExpr)}
	x.Then = p.parseBlock()
	if p.accept("else") {
		if p.at("if") {
			x.Else = p.parseIf()
		} else {
			x.Else = &BlockExpr{Block: p.parseBlock()}
		}
	}
	x.Loc = span(start, p.prevEnd())
	return x
}

// Patterns.

func (p *parser) parseArmPattern() Pattern {
	first := p.parsePattern()
	if !p.at("|") {
		return first
	}
	or := &OrPat{Alts: []Pattern{first}}
	for p.accept("|") {
		or.Alts = append(or.Alts, p.parsePattern())
	}
	or.Loc = span(first.Span().Lo, p.prevEnd())
	return or
}

func (p *parser) parsePattern() Pattern {
	t := p.peek()
	switch {
	case t.Kind == Ident && t.Text == "_":
		p.next()
		return &WildPat{Loc: span(t.Pos, t.End)}
	case p.at(".."):
		p.next()
		return &RestPat{Loc: span(t.Pos, t.End)}
	case p.at("&"):
		p.next()
		mut := p.accept("mut")
		x := p.parsePattern()
		return &RefPat{Mut: mut, X: x, Loc: span(t.Pos, x.Span().Hi)}
	case p.at("("):
		elems, sp, trailing := p.parsePatternList("(", ")")
		if len(elems) == 1 && !trailing {
			return elems[0]
		}
		return &TuplePat{Elems: elems, Loc: sp}
	case p.at("-"):
		p.next()
		num := p.peek()
		if num.Kind != Int && num.Kind != Float {
			p.failf("expected number, found %s", describe(num))
		}
		p.next()
		return &LitPat{Text: "-" + num.Text, Loc: span(t.Pos, num.End)}
	case t.Kind == Int || t.Kind == Float || t.Kind == String || t.Kind == Char || t.Text == "true" || t.Text == "false":
		p.next()
		return &LitPat{Text: t.Text, Loc: span(t.Pos, t.End)}
	case t.Kind == Ident && t.Text == "mut":
		p.next()
		name := p.ident()
		return &IdentPat{Mut: true, Name: name.Text, Loc: span(t.Pos, name.End)}
	}

	path := p.parsePath(false)
	switch {
	case p.at("("):
		elems, sp, _ := p.parsePatternList("(", ")")
		return &TupleStructPat{Path: path, Elems: elems, ElemsSpan: sp, Loc: span(t.Pos, p.prevEnd())}
	case p.at("{"):
		return p.parseStructPat(path, t.Pos)
	}
	return &IdentPat{Name: path, Loc: span(t.Pos, p.prevEnd())}
}

func (p *parser) parsePatternList(open, close string) ([]Pattern, lineup.Span, bool) {
	start := p.expect(open).Pos
	var elems []Pattern
	trailing := false
	for !p.at(close) {
		elems = append(elems, p.parsePattern())
		trailing = p.accept(",")
		if !trailing {
			break
		}
	}
	p.expect(close)
	return elems, span(start, p.prevEnd()), trailing
}

func (p *parser) parseStructPat(path string, start int) Pattern {
	open := p.expect("{").Pos
	sp := &StructPat{Path: path}
	for !p.at("}") {
		t := p.peek()
		if p.accept("..") {
			sp.Fields = append(sp.Fields, &RestPat{Loc: span(t.Pos, t.End)})
		} else {
			name := p.ident()
			field := &FieldPat{Name: name.Text}
			if p.accept(":") {
				field.Pat = p.parsePattern()
			}
			field.Loc = span(name.Pos, p.prevEnd())
			sp.Fields = append(sp.Fields, field)
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	sp.FieldsSpan = span(open, p.prevEnd())
	sp.Loc = span(start, p.prevEnd())
	return sp
}

// Types.

func (p *parser) parseType() Type {
	t := p.peek()
	switch {
	case p.at("&"), p.at("&&"):
		p.next()
		mut := p.accept("mut")
		elem := p.parseType()
		ref := &RefType{Mut: mut, Elem: elem, Loc: span(t.Pos, elem.Span().Hi)}
		if t.Text == "&&" {
			ref.Loc.Lo++
			return &RefType{Elem: ref, Loc: span(t.Pos, elem.Span().Hi)}
		}
		return ref
	case p.at("("):
		p.next()
		var elems []Type
		for !p.at(")") {
			elems = append(elems, p.parseType())
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
		return &TupleType{Elems: elems, Loc: span(t.Pos, p.prevEnd())}
	case p.at("["):
		p.next()
		elem := p.parseType()
		p.expect("]")
		return &SliceType{Elem: elem, Loc: span(t.Pos, p.prevEnd())}
	}

	var prefix string
	if p.at("impl") || p.at("dyn") {
		prefix = p.next().Text + " "
	}
	typ := &PathType{Path: prefix + p.parsePath(false)}
	if p.at("<") {
		open := p.next().Pos
		for !p.at(">") {
			typ.Args = append(typ.Args, p.parseType())
			if !p.accept(",") {
				break
			}
		}
		p.expect(">")
		typ.ArgsSpan = span(open, p.prevEnd())
	}
	typ.Loc = span(t.Pos, p.prevEnd())
	return typ
}
