package syntax

import (
	"strings"

	"github.com/vito/lineup/pkg/lineup"
)

// The list element kinds below adapt AST nodes to lineup.OverflowItem. Each
// carries the formatter that renders it.

// CallArg is an argument of a call or method call, or an element of a
// tuple or array.
type CallArg struct {
	f *Formatter
	X Expr
}

func (a CallArg) Span() lineup.Span { return a.X.Span() }

func (a CallArg) Rewrite(shape lineup.Shape) (string, error) { return a.f.rewriteExpr(a.X, shape) }

func (a CallArg) CanOverflow(ctx lineup.OverflowContext, count int) bool {
	return canOverflowExpr(a.X, ctx, count)
}

func (a CallArg) Flags() lineup.ItemFlags { return exprFlags(a.X) }

// MacroArg is an argument of a macro call. Only macro arguments are
// eligible for format-string layout.
type MacroArg struct {
	f *Formatter
	X Expr
}

func (a MacroArg) Span() lineup.Span { return a.X.Span() }

func (a MacroArg) Rewrite(shape lineup.Shape) (string, error) { return a.f.rewriteExpr(a.X, shape) }

func (a MacroArg) CanOverflow(ctx lineup.OverflowContext, count int) bool {
	return canOverflowExpr(a.X, ctx, count)
}

func (a MacroArg) Flags() lineup.ItemFlags { return exprFlags(a.X) }

// StructField is a field initializer of a struct literal.
type StructField struct {
	f     *Formatter
	Field *FieldInit
}

func (s StructField) Span() lineup.Span { return s.Field.Loc }

func (s StructField) Rewrite(shape lineup.Shape) (string, error) {
	return s.f.rewriteFieldInit(s.Field, shape)
}

func (StructField) CanOverflow(lineup.OverflowContext, int) bool { return false }

// GenericParam is a generic parameter of a function.
type GenericParam struct {
	f     *Formatter
	Param *Generic
}

func (g GenericParam) Span() lineup.Span { return g.Param.Loc }

func (g GenericParam) Rewrite(shape lineup.Shape) (string, error) {
	return g.f.rewriteGeneric(g.Param, shape)
}

func (GenericParam) CanOverflow(lineup.OverflowContext, int) bool { return false }

// TypeArg is a generic argument of a type or an element of a tuple type.
type TypeArg struct {
	f *Formatter
	T Type
}

func (a TypeArg) Span() lineup.Span { return a.T.Span() }

func (a TypeArg) Rewrite(shape lineup.Shape) (string, error) { return a.f.rewriteType(a.T, shape) }

func (a TypeArg) CanOverflow(ctx lineup.OverflowContext, count int) bool {
	switch t := a.T.(type) {
	case *TupleType:
		return ctx.BlockIndent && count == 1
	case *PathType:
		return ctx.BlockIndent && count == 1 && len(t.Args) > 0
	}
	return false
}

// PatternField is an element of a tuple, tuple struct or struct pattern.
type PatternField struct {
	f *Formatter
	P Pattern
}

func (p PatternField) Span() lineup.Span { return p.P.Span() }

func (p PatternField) Rewrite(shape lineup.Shape) (string, error) {
	return p.f.rewritePattern(p.P, shape)
}

func (p PatternField) CanOverflow(ctx lineup.OverflowContext, count int) bool {
	return canOverflowPattern(p.P, ctx, count)
}

func canOverflowPattern(pat Pattern, ctx lineup.OverflowContext, count int) bool {
	switch x := pat.(type) {
	case *StructPat, *TupleStructPat, *TuplePat:
		return ctx.BlockIndent && count == 1
	case *RefPat:
		return canOverflowPattern(x.X, ctx, count)
	}
	return false
}

// NestedAttr is an element of an attribute's argument list.
type NestedAttr struct {
	f    *Formatter
	Meta *Meta
}

func (a NestedAttr) Span() lineup.Span { return a.Meta.Loc }

func (a NestedAttr) Rewrite(shape lineup.Shape) (string, error) { return a.f.rewriteMeta(a.Meta, shape) }

func (NestedAttr) CanOverflow(lineup.OverflowContext, int) bool { return false }

func (a NestedAttr) Flags() lineup.ItemFlags {
	// Words and literals are simple; name(...) and name = value are not.
	return lineup.ItemFlags{Simple: !a.Meta.HasList && (a.Meta.Path == "" || a.Meta.Lit == nil)}
}

func exprFlags(x Expr) lineup.ItemFlags {
	flags := lineup.ItemFlags{Expr: true, Simple: isSimpleExpr(x)}
	switch x.(type) {
	case *Closure:
		flags.Closure = true
	case *Call, *MethodCall, *MacroCall:
		flags.NestedCall = true
	}
	return flags
}

// isSimpleExpr reports literals and single-segment paths, possibly behind
// unary operators, casts, field accesses and indexing.
func isSimpleExpr(x Expr) bool {
	switch x := x.(type) {
	case *Lit:
		return true
	case *PathExpr:
		return !strings.Contains(x.Path, "::")
	case *Ref:
		return isSimpleExpr(x.X)
	case *Unary:
		return isSimpleExpr(x.X)
	case *Cast:
		return isSimpleExpr(x.X)
	case *Field:
		return isSimpleExpr(x.X)
	case *Try:
		return isSimpleExpr(x.X)
	case *Index:
		return isSimpleExpr(x.X) && isSimpleExpr(x.Index)
	}
	return false
}

// canOverflowExpr decides whether x, as the last of count elements, may
// hug the opening delimiter while spanning several lines.
func canOverflowExpr(x Expr, ctx lineup.OverflowContext, count int) bool {
	switch x := x.(type) {
	case *Match:
		return (ctx.BlockIndent && count == 1) ||
			(!ctx.BlockIndent && count > 1) ||
			ctx.Config.OverflowDelimitedExpr
	case *If, *BlockExpr, *Closure:
		return true
	case *Array, *StructLit:
		return ctx.Config.OverflowDelimitedExpr || (ctx.BlockIndent && count == 1)
	case *MacroCall:
		if x.Delim == '[' && ctx.Config.OverflowDelimitedExpr {
			return true
		}
		return ctx.BlockIndent && count == 1
	case *Call, *MethodCall, *Tuple:
		return ctx.BlockIndent && count == 1
	case *Ref:
		return canOverflowExpr(x.X, ctx, count)
	case *Unary:
		return canOverflowExpr(x.X, ctx, count)
	case *Try:
		return canOverflowExpr(x.X, ctx, count)
	case *Cast:
		return canOverflowExpr(x.X, ctx, count)
	case *Paren:
		return canOverflowExpr(x.X, ctx, count)
	}
	return false
}

// specialMacros are format-like macros and the number of arguments that
// precede their format string.
var specialMacros = map[string]int{
	"eprint!":          0,
	"eprintln!":        0,
	"format!":          0,
	"format_args!":     0,
	"print!":           0,
	"println!":         0,
	"panic!":           0,
	"unreachable!":     0,
	"debug!":           0,
	"error!":           0,
	"info!":            0,
	"warn!":            0,
	"trace!":           0,
	"assert!":          1,
	"debug_assert!":    1,
	"write!":           1,
	"writeln!":         1,
	"assert_eq!":       2,
	"assert_ne!":       2,
	"debug_assert_eq!": 2,
	"debug_assert_ne!": 2,
}
