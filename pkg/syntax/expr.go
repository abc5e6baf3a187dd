package syntax

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/lineup/pkg/lineup"
)

// rewriteExpr renders x starting at the position shape describes.
// Continuation lines are indented relative to shape.Indent.
func (f *Formatter) rewriteExpr(x Expr, shape lineup.Shape) (string, error) {
	switch x := x.(type) {
	case *Lit:
		return f.atom(x.Text, shape)
	case *PathExpr:
		return f.atom(x.Path, shape)
	case *Paren:
		inner, err := shape.OffsetLeft(1)
		if err == nil {
			inner, err = inner.SubWidth(1)
		}
		if err != nil {
			return "", err
		}
		text, err := f.rewriteExpr(x.X, inner)
		if err != nil {
			return "", err
		}
		return "(" + text + ")", nil
	case *Unary:
		return f.prefixed(x.Op, x.X, shape)
	case *Ref:
		if x.Mut {
			return f.prefixed("&mut ", x.X, shape)
		}
		return f.prefixed("&", x.X, shape)
	case *Cast:
		return f.rewriteCast(x, shape)
	case *Binary:
		return f.rewriteBinary(x, shape)
	case *Assign:
		lhs, err := f.rewriteExpr(x.L, shape)
		if err != nil {
			return "", err
		}
		return f.rewriteAssignRHS(lhs+" "+x.Op, x.R, shape)
	case *Call:
		callee, err := f.rewriteExpr(x.Fun, shape)
		if err != nil {
			return "", err
		}
		text, _, err := lineup.RewriteWithParens(f.src, f.cfg, callee, f.callArgs(x.Args), x.ArgsSpan, shape, f.cfg.FnCallWidth)
		return text, err
	case *MethodCall, *Field, *Try:
		return f.rewriteChain(x, shape)
	case *Index:
		return f.rewriteIndex(x, shape)
	case *MacroCall:
		return f.rewriteMacro(x, shape)
	case *StructLit:
		return f.rewriteStructLit(x, shape)
	case *Tuple:
		return f.rewriteTuple(x, shape)
	case *Array:
		text, _, err := lineup.RewriteWithBrackets(f.src, f.cfg, "", f.callArgs(x.Elems), x.Loc, shape)
		return text, err
	case *Closure:
		return f.rewriteClosure(x, shape)
	case *BlockExpr:
		return f.rewriteBlock(x.Block, shape.Indent.BlockOnly(), false)
	case *Match:
		return f.rewriteMatch(x, shape)
	case *If:
		return f.rewriteIf(x, shape)
	case *Return:
		if x.X == nil {
			return f.atom("return", shape)
		}
		return f.prefixed("return ", x.X, shape)
	}
	return "", errors.Errorf("unsupported expression %T", x)
}

// atom renders text that cannot be broken.
func (f *Formatter) atom(text string, shape lineup.Shape) (string, error) {
	if lineup.FirstLineWidth(text) > shape.Width {
		return "", errors.Wrapf(lineup.ErrExceedsWidth, "%q in %d columns", firstLineOf(text), shape.Width)
	}
	return text, nil
}

func (f *Formatter) prefixed(prefix string, x Expr, shape lineup.Shape) (string, error) {
	inner, err := shape.OffsetLeft(lineup.DisplayWidth(prefix))
	if err != nil {
		return "", err
	}
	text, err := f.rewriteExpr(x, inner)
	if err != nil {
		return "", err
	}
	return prefix + text, nil
}

// after is the shape for whatever follows text, which itself started at
// shape.
func (f *Formatter) after(shape lineup.Shape, text string) (lineup.Shape, error) {
	if !strings.Contains(text, "\n") {
		return shape.OffsetLeft(lineup.DisplayWidth(text))
	}
	used := lineup.LastLineWidth(text)
	width := f.cfg.MaxWidth - used - shape.RHSOverhead(f.cfg)
	if width < 0 {
		return shape, errors.Wrap(lineup.ErrExceedsWidth, "no room after a multi-line prefix")
	}
	return lineup.Shape{
		Width:  width,
		Indent: shape.Indent,
		Offset: max(used-shape.Indent.Block, 0),
	}, nil
}

// continuation is the shape of a line broken out of an expression at
// shape: one block indent deeper, keeping what shape reserves at the end
// of the line.
func (f *Formatter) continuation(shape lineup.Shape) (lineup.Indent, lineup.Shape, error) {
	indent := shape.Indent.BlockOnly().BlockIndent(f.cfg)
	cont, err := lineup.IndentedShape(indent, f.cfg).SubWidth(shape.RHSOverhead(f.cfg))
	return indent, cont, err
}

func (f *Formatter) callArgs(xs []Expr) []CallArg {
	args := make([]CallArg, len(xs))
	for i, x := range xs {
		args[i] = CallArg{f: f, X: x}
	}
	return args
}

func (f *Formatter) rewriteCast(x *Cast, shape lineup.Shape) (string, error) {
	lhs, err := f.rewriteExpr(x.X, shape)
	if err != nil {
		return "", err
	}
	lhs += " as "
	ts, err := f.after(shape, lhs)
	if err != nil {
		return "", err
	}
	typ, err := f.rewriteType(x.Type, ts)
	if err != nil {
		return "", err
	}
	return lhs + typ, nil
}

func (f *Formatter) rewriteIndex(x *Index, shape lineup.Shape) (string, error) {
	lhs, err := f.rewriteExpr(x.X, shape)
	if err != nil {
		return "", err
	}
	is, err := f.after(shape, lhs+"[")
	if err == nil {
		is, err = is.SubWidth(1)
	}
	if err != nil {
		return "", err
	}
	idx, err := f.rewriteExpr(x.Index, is)
	if err != nil {
		return "", err
	}
	return lhs + "[" + idx + "]", nil
}

// flattenBinary collects a left-associative run of operators of the same
// precedence: a + b - c is [a b c] with [+ -].
func flattenBinary(x *Binary) ([]Expr, []string) {
	prec := precedence[x.Op]
	var operands []Expr
	var ops []string
	var walk func(e Expr)
	walk = func(e Expr) {
		if b, ok := e.(*Binary); ok && precedence[b.Op] == prec {
			walk(b.L)
			ops = append(ops, b.Op)
			operands = append(operands, b.R)
			return
		}
		operands = append(operands, e)
	}
	walk(x)
	return operands, ops
}

// rewriteBinary keeps an operator chain on one line if it fits, and
// otherwise breaks before every operator with one block indent.
func (f *Formatter) rewriteBinary(x *Binary, shape lineup.Shape) (string, error) {
	operands, ops := flattenBinary(x)

	if text, err := f.binaryOneLine(operands, ops, shape); err == nil {
		return text, nil
	}

	first, err := f.rewriteExpr(operands[0], shape)
	if err != nil {
		return "", err
	}
	indent, cont, err := f.continuation(shape)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(first)
	for i, op := range ops {
		s, err := cont.OffsetLeft(len(op) + 1)
		if err != nil {
			return "", err
		}
		text, err := f.rewriteExpr(operands[i+1], s)
		if err != nil {
			return "", err
		}
		b.WriteString(indent.Newline(f.cfg))
		b.WriteString(op + " " + text)
	}
	return b.String(), nil
}

// binaryOneLine lets only the last operand span several lines.
func (f *Formatter) binaryOneLine(operands []Expr, ops []string, shape lineup.Shape) (string, error) {
	text, err := f.rewriteExpr(operands[0], shape)
	if err != nil {
		return "", err
	}
	for i, op := range ops {
		if strings.Contains(text, "\n") {
			return "", errors.Wrap(lineup.ErrExceedsWidth, "operand spans lines")
		}
		text += " " + op + " "
		s, err := f.after(shape, text)
		if err != nil {
			return "", err
		}
		operand, err := f.rewriteExpr(operands[i+1], s)
		if err != nil {
			return "", err
		}
		text += operand
	}
	return text, nil
}

// rewriteAssignRHS renders lhs followed by rhs, moving rhs to the next
// line when that reads better: when it does not fit beside lhs, or when it
// fits on the next line as a single line but would not beside lhs.
func (f *Formatter) rewriteAssignRHS(lhs string, rhs Expr, shape lineup.Shape) (string, error) {
	orig, origErr := "", error(nil)
	if same, err := f.after(shape, lhs+" "); err != nil {
		origErr = err
	} else {
		orig, origErr = f.rewriteExpr(rhs, same)
	}
	if origErr == nil && !strings.Contains(orig, "\n") {
		return lhs + " " + orig, nil
	}

	indent, next, err := f.continuation(shape)
	if err != nil {
		if origErr == nil {
			return lhs + " " + orig, nil
		}
		return "", err
	}
	nextText, nextErr := f.rewriteExpr(rhs, next)

	switch {
	case origErr == nil && (nextErr != nil ||
		strings.Contains(nextText, "\n") && lineup.CountNewlines(orig) <= lineup.CountNewlines(nextText)+1):
		return lhs + " " + orig, nil
	case nextErr == nil:
		return lhs + indent.Newline(f.cfg) + nextText, nil
	}
	return "", origErr
}

type chainLink struct {
	name     string
	call     bool
	try      bool
	args     []Expr
	argsSpan lineup.Span
}

// flattenChain splits a.b().c? into its root a and the links .b() .c ?.
func flattenChain(x Expr) (Expr, []chainLink) {
	var links []chainLink
	for {
		switch e := x.(type) {
		case *MethodCall:
			links = append(links, chainLink{name: e.Name, call: true, args: e.Args, argsSpan: e.ArgsSpan})
			x = e.Recv
		case *Field:
			links = append(links, chainLink{name: e.Name})
			x = e.X
		case *Try:
			links = append(links, chainLink{try: true})
			x = e.X
		default:
			slices.Reverse(links)
			return x, links
		}
	}
}

// rewriteChain renders method chains on one line when they fit, letting
// the last link span several lines, and otherwise puts every link on a
// line of its own.
func (f *Formatter) rewriteChain(x Expr, shape lineup.Shape) (string, error) {
	root, links := flattenChain(x)
	rootText, err := f.rewriteExpr(root, shape)
	if err != nil {
		return "", err
	}

	text, err := f.chainOneLine(rootText, links, shape)
	if err == nil {
		return text, nil
	}
	if !slices.ContainsFunc(links, func(l chainLink) bool { return l.call }) {
		return "", err
	}

	indent, cont, err := f.continuation(shape)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(rootText)
	for i, l := range links {
		if l.try {
			b.WriteString("?")
			continue
		}
		tries := 0
		for _, next := range links[i+1:] {
			if !next.try {
				break
			}
			tries++
		}
		s, err := cont.SubWidth(tries)
		if err != nil {
			return "", err
		}
		text, err := f.rewriteLink(l, s)
		if err != nil {
			return "", err
		}
		b.WriteString(indent.Newline(f.cfg))
		b.WriteString(text)
	}
	return b.String(), nil
}

func (f *Formatter) chainOneLine(text string, links []chainLink, shape lineup.Shape) (string, error) {
	for _, l := range links {
		if strings.Contains(text, "\n") && !l.try {
			return "", errors.Wrap(lineup.ErrExceedsWidth, "chain link spans lines")
		}
		s, err := f.after(shape, text)
		if err != nil {
			return "", err
		}
		link, err := f.rewriteLink(l, s)
		if err != nil {
			return "", err
		}
		text += link
	}
	return text, nil
}

func (f *Formatter) rewriteLink(l chainLink, shape lineup.Shape) (string, error) {
	switch {
	case l.try:
		return f.atom("?", shape)
	case l.call:
		text, _, err := lineup.RewriteWithParens(f.src, f.cfg, "."+l.name, f.callArgs(l.args), l.argsSpan, shape, f.cfg.FnCallWidth)
		return text, err
	default:
		return f.atom("."+l.name, shape)
	}
}

func (f *Formatter) rewriteMacro(x *MacroCall, shape lineup.Shape) (string, error) {
	name := x.Path + "!"
	if x.Raw {
		args, _ := f.src.Snippet(x.ArgsSpan)
		return f.atom(name+args, shape)
	}

	args := make([]MacroArg, len(x.Args))
	for i, a := range x.Args {
		args[i] = MacroArg{f: f, X: a}
	}
	if x.Delim == '[' {
		text, _, err := lineup.RewriteWithBrackets(f.src, f.cfg, name, args, x.ArgsSpan, shape)
		return text, err
	}

	d := lineup.Delimited[MacroArg]{
		Source:       f.src,
		Config:       f.cfg,
		Ident:        name,
		Items:        args,
		Span:         x.ArgsSpan,
		Prefix:       "(",
		Suffix:       ")",
		ItemMaxWidth: f.cfg.FnCallWidth,
	}
	if n, ok := specialMacros[name]; ok {
		d.Special = true
		d.SpecialArgs = n
	}
	text, _, err := d.Rewrite(shape)
	return text, err
}

func (f *Formatter) rewriteTuple(x *Tuple, shape lineup.Shape) (string, error) {
	d := lineup.Delimited[CallArg]{
		Source:       f.src,
		Config:       f.cfg,
		Items:        f.callArgs(x.Elems),
		Span:         x.Loc,
		Prefix:       "(",
		Suffix:       ")",
		ItemMaxWidth: f.cfg.FnCallWidth,
	}
	// (a,) is a tuple, (a) is not.
	if len(x.Elems) == 1 {
		d.ForceSeparator = true
		d.Separator = lineup.SeparatorAlways
	}
	text, _, err := d.Rewrite(shape)
	return text, err
}

func (f *Formatter) rewriteStructLit(x *StructLit, shape lineup.Shape) (string, error) {
	if len(x.Fields) == 0 {
		return f.atom(x.Path+" {}", shape)
	}
	fields := make([]StructField, len(x.Fields))
	for i, field := range x.Fields {
		fields[i] = StructField{f: f, Field: field}
	}
	_, nested, err := f.bracedShapes(shape)
	if err != nil {
		return "", err
	}
	items := lineup.Itemize(f.src, fields, "}", ",", func(sf StructField) (string, error) {
		return sf.Rewrite(nested)
	}, x.FieldsSpan.Lo+1, x.FieldsSpan.Hi, false).Collect()

	// The base expression cannot take a trailing comma.
	trailing := !x.Fields[len(x.Fields)-1].Base
	return f.rewriteBraced(x.Path, items, trailing, shape)
}

// bracedShapes are the indentation and shape of the fields of a braced
// list opened at shape.
func (f *Formatter) bracedShapes(shape lineup.Shape) (lineup.Indent, lineup.Shape, error) {
	inner := shape.Indent.BlockOnly().BlockIndent(f.cfg)
	// ","
	nested, err := lineup.IndentedShape(inner, f.cfg).SubWidth(1)
	return inner, nested, err
}

// rewriteBraced lays out Path { fields } on one line within the struct
// literal width, or with one field per line.
func (f *Formatter) rewriteBraced(path string, items []lineup.ListItem, trailing bool, shape lineup.Shape) (string, error) {
	if _, err := f.atom(path+" {", shape); err != nil {
		return "", err
	}
	inner, nested, err := f.bracedShapes(shape)
	if err != nil {
		return "", err
	}

	// path + " { " + fields + " }"
	oneLine := shape.Width - lineup.DisplayWidth(path) - 5
	tactic := lineup.DefinitiveTactic(items, lineup.PreferLimitedHorizontalVertical(f.cfg.StructLitWidth), lineup.Comma, oneLine)

	lf := lineup.NewListFormatting(nested, f.cfg)
	if tactic == lineup.Horizontal {
		list, err := lineup.WriteList(items, lf)
		if err != nil {
			return "", err
		}
		return path + " { " + list + " }", nil
	}

	lf.Tactic = lineup.Vertical
	lf.TrailingSeparator = lineup.SeparatorNever
	if trailing {
		lf.TrailingSeparator = f.cfg.TrailingComma
	}
	lf.PreserveNewline = true
	list, err := lineup.WriteList(items, lf)
	if err != nil {
		return "", err
	}
	return path + " {" + inner.Newline(f.cfg) + list + shape.Indent.BlockOnly().Newline(f.cfg) + "}", nil
}

func (f *Formatter) rewriteFieldInit(field *FieldInit, shape lineup.Shape) (string, error) {
	switch {
	case field.Base:
		return f.prefixed("..", field.Value, shape)
	case field.Value == nil:
		return f.atom(field.Name, shape)
	}
	return f.prefixed(field.Name+": ", field.Value, shape)
}

func (f *Formatter) rewriteClosure(x *Closure, shape lineup.Shape) (string, error) {
	var b strings.Builder
	if x.Move {
		b.WriteString("move ")
	}
	b.WriteString("|")
	for i, p := range x.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		ps, err := f.after(shape, b.String())
		if err != nil {
			return "", err
		}
		param, err := f.rewriteParamLike(p.Pat, p.Type, ps)
		if err != nil {
			return "", err
		}
		b.WriteString(param)
	}
	b.WriteString("|")
	if x.Ret != nil {
		b.WriteString(" -> ")
		rs, err := f.after(shape, b.String())
		if err != nil {
			return "", err
		}
		ret, err := f.rewriteType(x.Ret, rs)
		if err != nil {
			return "", err
		}
		b.WriteString(ret)
	}
	prefix := b.String()
	if _, err := f.atom(prefix, shape); err != nil {
		return "", err
	}

	indent := shape.Indent.BlockOnly()
	if blk, ok := x.Body.(*BlockExpr); ok {
		body, err := f.rewriteBlock(blk.Block, indent, false)
		if err != nil {
			return "", err
		}
		return prefix + " " + body, nil
	}

	if s, err := f.after(shape, prefix+" "); err == nil {
		if body, err := f.rewriteExpr(x.Body, s); err == nil {
			return prefix + " " + body, nil
		}
	}

	// Wrap a body that does not fit in a block.
	inner := indent.BlockIndent(f.cfg)
	body, err := f.rewriteExpr(x.Body, lineup.IndentedShape(inner, f.cfg))
	if err != nil {
		return "", err
	}
	return prefix + " {" + inner.Newline(f.cfg) + body + indent.Newline(f.cfg) + "}", nil
}

func (f *Formatter) rewriteIf(x *If, shape lineup.Shape) (string, error) {
	cs, err := f.after(shape, "if ")
	if err == nil {
		// " {"
		cs, err = cs.SubWidth(2)
	}
	if err != nil {
		return "", err
	}
	cond, err := f.rewriteExpr(x.Cond, cs)
	if err != nil {
		return "", err
	}
	then, err := f.rewriteBlock(x.Then, shape.Indent.BlockOnly(), false)
	if err != nil {
		return "", err
	}
	text := "if " + cond + " " + then
	if x.Else == nil {
		return text, nil
	}

	text += " else "
	es, err := f.after(shape, text)
	if err != nil {
		return "", err
	}
	els, err := f.rewriteExpr(x.Else, es)
	if err != nil {
		return "", err
	}
	return text + els, nil
}

func (f *Formatter) rewriteMatch(x *Match, shape lineup.Shape) (string, error) {
	ss, err := f.after(shape, "match ")
	if err == nil {
		// " {"
		ss, err = ss.SubWidth(2)
	}
	if err != nil {
		return "", err
	}
	scrutinee, err := f.rewriteExpr(x.Scrutinee, ss)
	if err != nil {
		return "", err
	}
	head := "match " + scrutinee + " {"
	if len(x.Arms) == 0 {
		return head + "}", nil
	}

	indent := shape.Indent.BlockOnly()
	armIndent := indent.BlockIndent(f.cfg)
	armShape := lineup.IndentedShape(armIndent, f.cfg)

	// Arms carry their own commas, so the list separator is empty.
	items := lineup.Itemize(f.src, x.Arms, "}", ",", func(a *Arm) (string, error) {
		return f.rewriteArm(a, armShape)
	}, x.ArmsSpan.Lo+1, x.ArmsSpan.Hi, false).Collect()

	lf := lineup.NewListFormatting(armShape, f.cfg)
	lf.Tactic = lineup.Vertical
	lf.Separator = ""
	lf.TrailingSeparator = lineup.SeparatorNever
	lf.PreserveNewline = true
	arms, err := lineup.WriteList(items, lf)
	if err != nil {
		return "", err
	}
	return head + armIndent.Newline(f.cfg) + arms + indent.Newline(f.cfg) + "}", nil
}

func (f *Formatter) rewriteArm(a *Arm, shape lineup.Shape) (string, error) {
	// " => {"
	hs, err := shape.SubWidth(5)
	if err != nil {
		return "", err
	}
	head, err := f.rewritePattern(a.Pat, hs)
	if err != nil {
		return "", err
	}
	if a.Guard != nil {
		head += " if "
		gs, err := f.after(hs, head)
		if err != nil {
			return "", err
		}
		guard, err := f.rewriteExpr(a.Guard, gs)
		if err != nil {
			return "", err
		}
		head += guard
	}
	head += " =>"

	if blk, ok := a.Body.(*BlockExpr); ok {
		body, err := f.rewriteBlock(blk.Block, shape.Indent, false)
		if err != nil {
			return "", err
		}
		return head + " " + body, nil
	}

	if bs, err := f.after(shape, head+" "); err == nil {
		// ","
		if bs, err = bs.SubWidth(1); err == nil {
			if body, err := f.rewriteExpr(a.Body, bs); err == nil {
				return head + " " + body + ",", nil
			}
		}
	}

	inner := shape.Indent.BlockIndent(f.cfg)
	body, err := f.rewriteExpr(a.Body, lineup.IndentedShape(inner, f.cfg))
	if err != nil {
		return "", err
	}
	return head + " {" + inner.Newline(f.cfg) + body + shape.Indent.Newline(f.cfg) + "}", nil
}

