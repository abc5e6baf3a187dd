package syntax

import (
	"context"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ParserSuite struct{}

func TestParser(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(ParserSuite{})
}

func (ParserSuite) TestErrors(ctx context.Context, t *testctx.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
		msg    string
	}{
		{"missing expression", "let x = ;", 1, 9, `unexpected ";"`},
		{"missing semicolon", "let x = 1;\nfoo() bar()", 2, 7, `expected ";", found "bar"`},
		{"unterminated string", "let s = \"abc", 1, 9, "unterminated string"},
		{"unterminated block comment", "/* never\nends", 1, 1, "unterminated block comment"},
		{"unclosed block", "fn main() {\n    let x = 1;\n", 3, 1, "unclosed block"},
		{"lifetime", "fn f(x: &'a str) {}", 1, 10, "lifetimes are not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(ctx context.Context, t *testctx.T) {
			_, err := Parse([]byte(tt.input))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line, "line")
			assert.Equal(t, tt.column, pe.Column, "column")
			assert.Equal(t, tt.msg, pe.Msg)
		})
	}
}

func (ParserSuite) TestStatements(ctx context.Context, t *testctx.T) {
	file, err := Parse([]byte(`
// top
use std::{io, fmt::Write as _};
#[inline]
fn id<T: Clone>(x: T) -> T { x }
let v = vec![1, 2, 3];
match v.len() { 0 => {} n if n > 1 => println!("{}", n), _ => () }
`))
	require.NoError(t, err)
	require.Len(t, file.Stmts, 4)
	require.Len(t, file.Comments, 1)
	assert.Equal(t, "// top", file.Comments[0].Text)

	use, ok := file.Stmts[0].(*UseDecl)
	require.True(t, ok)
	assert.Equal(t, "std", use.Tree.Path)
	require.Len(t, use.Tree.Children, 2)
	assert.Equal(t, "fmt::Write", use.Tree.Children[1].Path)
	assert.Equal(t, "_", use.Tree.Children[1].Alias)

	fn, ok := file.Stmts[1].(*FnDecl)
	require.True(t, ok)
	assert.Equal(t, "id", fn.Name)
	require.Len(t, fn.Attrs, 1)
	assert.Equal(t, "inline", fn.Attrs[0].Meta.Path)
	require.Len(t, fn.Generics, 1)
	assert.Equal(t, "T", fn.Generics[0].Name)
	require.Len(t, fn.Params, 1)
	require.NotNil(t, fn.Ret)

	let, ok := file.Stmts[2].(*LetStmt)
	require.True(t, ok)
	mac, ok := let.Value.(*MacroCall)
	require.True(t, ok)
	assert.Equal(t, "vec", mac.Path)
	assert.Equal(t, byte('['), mac.Delim)
	assert.Len(t, mac.Args, 3)

	stmt, ok := file.Stmts[3].(*ExprStmt)
	require.True(t, ok)
	assert.False(t, stmt.Semi)
	m, ok := stmt.X.(*Match)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	assert.NotNil(t, m.Arms[1].Guard)
	_, ok = m.Arms[2].Pat.(*WildPat)
	assert.True(t, ok)
}

func (ParserSuite) TestStructLiteralsInConditions(ctx context.Context, t *testctx.T) {
	file, err := Parse([]byte("if x == Y { a } else { Point { x: 1 } }"))
	require.NoError(t, err)
	require.Len(t, file.Stmts, 1)

	cond := file.Stmts[0].(*ExprStmt).X.(*If)
	bin, ok := cond.Cond.(*Binary)
	require.True(t, ok)
	_, ok = bin.R.(*PathExpr)
	assert.True(t, ok, "struct literal parsed in condition")

	els := cond.Else.(*BlockExpr)
	require.Len(t, els.Block.Stmts, 1)
	_, ok = els.Block.Stmts[0].(*ExprStmt).X.(*StructLit)
	assert.True(t, ok)
}

func (ParserSuite) TestPrecedence(ctx context.Context, t *testctx.T) {
	file, err := Parse([]byte("a + b * c == d && e;"))
	require.NoError(t, err)

	and := file.Stmts[0].(*ExprStmt).X.(*Binary)
	assert.Equal(t, "&&", and.Op)
	eq := and.L.(*Binary)
	assert.Equal(t, "==", eq.Op)
	sum := eq.L.(*Binary)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, "*", sum.R.(*Binary).Op)
}

func (ParserSuite) TestUnparsedMacroArgs(ctx context.Context, t *testctx.T) {
	file, err := Parse([]byte("macro_rules_like!(a => b; c);"))
	require.NoError(t, err)

	mac := file.Stmts[0].(*ExprStmt).X.(*MacroCall)
	assert.True(t, mac.Raw)
	assert.Empty(t, mac.Args)
}
