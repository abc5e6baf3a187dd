package syntax

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/lineup/pkg/lineup"
)

func (f *Formatter) rewriteFn(fn *FnDecl, shape lineup.Shape) (string, error) {
	header := "fn " + fn.Name
	if len(fn.Generics) > 0 {
		generics := make([]GenericParam, len(fn.Generics))
		for i, g := range fn.Generics {
			generics[i] = GenericParam{f: f, Param: g}
		}
		var err error
		header, _, err = lineup.RewriteWithAngleBrackets(f.src, f.cfg, header, generics, fn.GenericsSpan, shape)
		if err != nil {
			return "", errors.Wrapf(err, "generics of %s", fn.Name)
		}
	}

	var ret string
	if fn.Ret != nil {
		// ") -> " typ " {" on the line closing the parameters.
		rs, err := lineup.IndentedShape(shape.Indent.BlockOnly(), f.cfg).OffsetLeft(5)
		if err == nil {
			rs, err = rs.SubWidth(2)
		}
		if err != nil {
			return "", err
		}
		typ, err := f.rewriteType(fn.Ret, rs)
		if err != nil {
			return "", errors.Wrapf(err, "return type of %s", fn.Name)
		}
		ret = " -> " + typ
	}

	params, err := f.rewriteParams(fn, header, ret, shape)
	if err != nil {
		return "", errors.Wrapf(err, "parameters of %s", fn.Name)
	}
	sig := header + params + ret

	// The body is laid out once, so its statements can fall back on their
	// own.
	body, err := f.rewriteBlock(fn.Body, shape.Indent.BlockOnly(), true)
	if err != nil {
		return "", err
	}
	return sig + " " + body, nil
}

// rewriteParams keeps the parameters on the signature line if they fit
// there along with the return type and the opening brace, and otherwise
// puts one per line.
func (f *Formatter) rewriteParams(fn *FnDecl, header, ret string, shape lineup.Shape) (string, error) {
	indent := shape.Indent.BlockOnly()
	inner := indent.BlockIndent(f.cfg)
	// ","
	nested, err := lineup.IndentedShape(inner, f.cfg).SubWidth(1)
	if err != nil {
		return "", err
	}
	items := lineup.Itemize(f.src, fn.Params, ")", ",", func(p *Param) (string, error) {
		return f.rewriteParamLike(p.Pat, p.Type, nested)
	}, fn.ParamsSpan.Lo+1, fn.ParamsSpan.Hi, false).Collect()

	used := shape.UsedWidth() + lineup.DisplayWidth(header)
	if strings.Contains(header, "\n") {
		used = lineup.LastLineWidth(header)
	}
	// "(" + params + ")" + ret + " {"
	budget := f.cfg.MaxWidth - used - 2 - lineup.DisplayWidth(ret) - 2
	tactic := lineup.DefinitiveTactic(items, lineup.PreferHorizontalVertical, lineup.Comma, budget)

	lf := lineup.NewListFormatting(nested, f.cfg)
	if tactic == lineup.Horizontal {
		list, err := lineup.WriteList(items, lf)
		if err != nil {
			return "", err
		}
		return "(" + list + ")", nil
	}

	lf.Tactic = lineup.Vertical
	lf.TrailingSeparator = f.cfg.TrailingComma
	lf.PreserveNewline = true
	list, err := lineup.WriteList(items, lf)
	if err != nil {
		return "", err
	}
	return "(" + inner.Newline(f.cfg) + list + indent.Newline(f.cfg) + ")", nil
}

// rewriteParamLike renders pat: typ, or just pat.
func (f *Formatter) rewriteParamLike(pat Pattern, typ Type, shape lineup.Shape) (string, error) {
	text, err := f.rewritePattern(pat, shape)
	if err != nil {
		return "", err
	}
	if typ == nil {
		return text, nil
	}
	text += ": "
	ts, err := f.after(shape, text)
	if err != nil {
		return "", err
	}
	t, err := f.rewriteType(typ, ts)
	if err != nil {
		return "", err
	}
	return text + t, nil
}

func (f *Formatter) rewriteGeneric(g *Generic, shape lineup.Shape) (string, error) {
	if len(g.Bounds) == 0 {
		return f.atom(g.Name, shape)
	}
	text, err := f.atom(g.Name+":", shape)
	if err != nil {
		return "", err
	}
	for i, b := range g.Bounds {
		if i > 0 {
			text += " +"
		}
		text += " "
		bs, err := f.after(shape, text)
		if err != nil {
			return "", err
		}
		bound, err := f.rewriteType(b, bs)
		if err != nil {
			return "", err
		}
		text += bound
	}
	return text, nil
}

func (f *Formatter) rewriteLet(s *LetStmt, shape lineup.Shape) (string, error) {
	// ";"
	shape, err := shape.SubWidth(1)
	if err != nil {
		return "", err
	}
	ps, err := f.after(shape, "let ")
	if err != nil {
		return "", err
	}
	pat, err := f.rewritePattern(s.Pat, ps)
	if err != nil {
		return "", err
	}
	lhs := "let " + pat
	if s.Type != nil {
		lhs += ": "
		ts, err := f.after(shape, lhs)
		if err != nil {
			return "", err
		}
		typ, err := f.rewriteType(s.Type, ts)
		if err != nil {
			return "", err
		}
		lhs += typ
	}
	if s.Value == nil {
		return lhs + ";", nil
	}
	text, err := f.rewriteAssignRHS(lhs+" =", s.Value, shape)
	if err != nil {
		return "", err
	}
	return text + ";", nil
}

func (f *Formatter) rewriteUse(u *UseDecl, shape lineup.Shape) (string, error) {
	// "use " and ";"
	ts, err := shape.OffsetLeft(4)
	if err == nil {
		ts, err = ts.SubWidth(1)
	}
	if err != nil {
		return "", err
	}
	tree, err := f.rewriteUseTree(u.Tree, ts)
	if err != nil {
		return "", err
	}
	return "use " + tree + ";", nil
}

func (f *Formatter) rewriteUseTree(t *UseTree, shape lineup.Shape) (string, error) {
	var text string
	switch {
	case t.Star && t.Path == "":
		text = "*"
	case t.Star:
		text = t.Path + "::*"
	case t.HasChildren:
		prefix := t.Path
		if prefix != "" {
			prefix += "::"
		}
		list, err := f.rewriteUseList(t, prefix, shape)
		if err != nil {
			return "", err
		}
		text = prefix + list
	default:
		text = t.Path
	}
	if t.Alias != "" {
		text += " as " + t.Alias
	}
	return f.atom(text, shape)
}

// rewriteUseList lays out the braced part of a nested import, following
// the configured imports layout.
func (f *Formatter) rewriteUseList(t *UseTree, prefix string, shape lineup.Shape) (string, error) {
	if len(t.Children) == 0 {
		return "{}", nil
	}
	indent := shape.Indent.BlockOnly()
	inner := indent.BlockIndent(f.cfg)
	// ","
	nested, err := lineup.IndentedShape(inner, f.cfg).SubWidth(1)
	if err != nil {
		return "", err
	}
	items := lineup.Itemize(f.src, t.Children, "}", ",", func(c *UseTree) (string, error) {
		return f.rewriteUseTree(c, nested)
	}, t.ChildrenSpan.Lo+1, t.ChildrenSpan.Hi, false).Collect()

	// "{" and "}"
	remaining := shape.Width - lineup.DisplayWidth(prefix) - 2
	tactic := lineup.DefinitiveTactic(items, f.cfg.ImportsLayout, lineup.Comma, remaining)
	if tactic == lineup.Mixed && lineup.DefinitiveTactic(items, lineup.PreferHorizontalVertical, lineup.Comma, remaining) == lineup.Horizontal {
		tactic = lineup.Horizontal
	}

	lf := lineup.NewListFormatting(nested, f.cfg)
	lf.Tactic = tactic
	lf.PreserveNewline = true
	lf.EndsWithNewline = tactic != lineup.Horizontal
	lf.TrailingSeparator = lineup.SeparatorNever
	if lf.EndsWithNewline {
		lf.TrailingSeparator = f.cfg.TrailingComma
	}
	for _, c := range t.Children {
		if c.HasChildren {
			lf.Nested = true
		}
	}

	list, err := lineup.WriteList(items, lf)
	if err != nil {
		return "", err
	}
	if strings.Contains(list, "\n") || lineup.DisplayWidth(list) > remaining || tactic == lineup.Vertical {
		return "{" + inner.Newline(f.cfg) + list + indent.Newline(f.cfg) + "}", nil
	}
	return "{" + list + "}", nil
}

func (f *Formatter) rewriteAttr(a *Attr, shape lineup.Shape) (string, error) {
	// "#[" and "]"
	ms, err := shape.OffsetLeft(2)
	if err == nil {
		ms, err = ms.SubWidth(1)
	}
	if err != nil {
		return "", err
	}
	meta, err := f.rewriteMeta(a.Meta, ms)
	if err != nil {
		return "", errors.Wrap(err, "attribute")
	}
	return "#[" + meta + "]", nil
}

func (f *Formatter) rewriteMeta(m *Meta, shape lineup.Shape) (string, error) {
	switch {
	case m.Path == "":
		return f.atom(m.Lit.Text, shape)
	case m.Lit != nil:
		return f.atom(m.Path+" = "+m.Lit.Text, shape)
	case !m.HasList:
		return f.atom(m.Path, shape)
	}

	nested := make([]NestedAttr, len(m.List))
	for i, n := range m.List {
		nested[i] = NestedAttr{f: f, Meta: n}
	}
	text, _, err := lineup.Delimited[NestedAttr]{
		Source:       f.src,
		Config:       f.cfg,
		Ident:        m.Path,
		Items:        nested,
		Span:         m.ListSpan,
		Prefix:       "(",
		Suffix:       ")",
		ItemMaxWidth: f.cfg.AttrFnLikeWidth,
	}.Rewrite(shape)
	return text, err
}

func (f *Formatter) rewriteType(t Type, shape lineup.Shape) (string, error) {
	switch t := t.(type) {
	case *PathType:
		if len(t.Args) == 0 {
			return f.atom(t.Path, shape)
		}
		text, _, err := lineup.RewriteWithAngleBrackets(f.src, f.cfg, t.Path, f.typeArgs(t.Args), t.ArgsSpan, shape)
		return text, err
	case *RefType:
		prefix := "&"
		if t.Mut {
			prefix = "&mut "
		}
		es, err := shape.OffsetLeft(lineup.DisplayWidth(prefix))
		if err != nil {
			return "", err
		}
		elem, err := f.rewriteType(t.Elem, es)
		if err != nil {
			return "", err
		}
		return prefix + elem, nil
	case *TupleType:
		d := lineup.Delimited[TypeArg]{
			Source:       f.src,
			Config:       f.cfg,
			Items:        f.typeArgs(t.Elems),
			Span:         t.Loc,
			Prefix:       "(",
			Suffix:       ")",
			ItemMaxWidth: f.cfg.FnCallWidth,
		}
		if len(t.Elems) == 1 {
			d.ForceSeparator = true
			d.Separator = lineup.SeparatorAlways
		}
		text, _, err := d.Rewrite(shape)
		return text, err
	case *SliceType:
		es, err := shape.OffsetLeft(1)
		if err == nil {
			es, err = es.SubWidth(1)
		}
		if err != nil {
			return "", err
		}
		elem, err := f.rewriteType(t.Elem, es)
		if err != nil {
			return "", err
		}
		return "[" + elem + "]", nil
	}
	return "", errors.Errorf("unsupported type %T", t)
}

func (f *Formatter) typeArgs(ts []Type) []TypeArg {
	args := make([]TypeArg, len(ts))
	for i, t := range ts {
		args[i] = TypeArg{f: f, T: t}
	}
	return args
}

func (f *Formatter) patternFields(ps []Pattern) []PatternField {
	fields := make([]PatternField, len(ps))
	for i, p := range ps {
		fields[i] = PatternField{f: f, P: p}
	}
	return fields
}

func (f *Formatter) rewritePattern(p Pattern, shape lineup.Shape) (string, error) {
	switch p := p.(type) {
	case *WildPat:
		return f.atom("_", shape)
	case *RestPat:
		return f.atom("..", shape)
	case *LitPat:
		return f.atom(p.Text, shape)
	case *IdentPat:
		if p.Mut {
			return f.atom("mut "+p.Name, shape)
		}
		return f.atom(p.Name, shape)
	case *RefPat:
		prefix := "&"
		if p.Mut {
			prefix = "&mut "
		}
		xs, err := shape.OffsetLeft(lineup.DisplayWidth(prefix))
		if err != nil {
			return "", err
		}
		x, err := f.rewritePattern(p.X, xs)
		if err != nil {
			return "", err
		}
		return prefix + x, nil
	case *TupleStructPat:
		text, _, err := lineup.RewriteWithParens(f.src, f.cfg, p.Path, f.patternFields(p.Elems), p.ElemsSpan, shape, f.cfg.FnCallWidth)
		return text, err
	case *TuplePat:
		d := lineup.Delimited[PatternField]{
			Source:       f.src,
			Config:       f.cfg,
			Items:        f.patternFields(p.Elems),
			Span:         p.Loc,
			Prefix:       "(",
			Suffix:       ")",
			ItemMaxWidth: f.cfg.FnCallWidth,
		}
		if len(p.Elems) == 1 {
			d.ForceSeparator = true
			d.Separator = lineup.SeparatorAlways
		}
		text, _, err := d.Rewrite(shape)
		return text, err
	case *StructPat:
		if len(p.Fields) == 0 {
			return f.atom(p.Path+" {}", shape)
		}
		_, nested, err := f.bracedShapes(shape)
		if err != nil {
			return "", err
		}
		items := lineup.Itemize(f.src, f.patternFields(p.Fields), "}", ",", func(pf PatternField) (string, error) {
			return pf.Rewrite(nested)
		}, p.FieldsSpan.Lo+1, p.FieldsSpan.Hi, false).Collect()
		_, rest := p.Fields[len(p.Fields)-1].(*RestPat)
		return f.rewriteBraced(p.Path, items, !rest, shape)
	case *FieldPat:
		if p.Pat == nil {
			return f.atom(p.Name, shape)
		}
		prefix := p.Name + ": "
		xs, err := shape.OffsetLeft(lineup.DisplayWidth(prefix))
		if err != nil {
			return "", err
		}
		x, err := f.rewritePattern(p.Pat, xs)
		if err != nil {
			return "", err
		}
		return prefix + x, nil
	case *OrPat:
		return f.rewriteOrPat(p, shape)
	}
	return "", errors.Errorf("unsupported pattern %T", p)
}

// rewriteOrPat keeps the alternatives on one line, or puts one per line
// with the "|" placed according to binop_separator.
func (f *Formatter) rewriteOrPat(p *OrPat, shape lineup.Shape) (string, error) {
	// "| " or " |"
	as, err := shape.SubWidth(2)
	if err != nil {
		return "", err
	}
	items := lineup.Itemize(f.src, f.patternFields(p.Alts), "=>", "|", func(alt PatternField) (string, error) {
		return alt.Rewrite(as)
	}, p.Loc.Lo, p.Loc.Hi, false).Collect()

	lf := lineup.NewListFormatting(shape, f.cfg)
	lf.Tactic = lineup.DefinitiveTactic(items, lineup.PreferHorizontalVertical, lineup.VerticalBar, shape.Width)
	lf.Separator = " |"
	lf.SeparatorPlace = f.cfg.BinopSeparator
	lf.EndsWithNewline = false
	return lineup.WriteList(items, lf)
}
