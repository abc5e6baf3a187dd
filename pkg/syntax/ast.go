package syntax

import "github.com/vito/lineup/pkg/lineup"

// Node is anything with a location in the source.
type Node interface {
	Span() lineup.Span
}

// Stmt is a top-level item or a statement inside a block.
type Stmt interface {
	Node
	Attributes() []*Attr
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Pattern is a binding pattern.
type Pattern interface {
	Node
	patternNode()
}

// Type is a type expression.
type Type interface {
	Node
	typeNode()
}

// File is a parsed source file.
type File struct {
	Stmts    []Stmt
	Comments []Comment
	Loc      lineup.Span
}

func (f *File) Span() lineup.Span { return f.Loc }

// Attr is an outer attribute, #[meta].
type Attr struct {
	Meta *Meta
	Loc  lineup.Span
}

func (a *Attr) Span() lineup.Span { return a.Loc }

// Meta is the content of an attribute: a word, name = literal, or
// name(nested, ...). A nested literal has an empty Path and Lit set.
type Meta struct {
	Path string
	// Lit is the value of name = literal, or the literal itself when Path
	// is empty.
	Lit *Lit
	// HasList is set for name(...), even when the list is empty.
	HasList  bool
	List     []*Meta
	ListSpan lineup.Span
	Loc      lineup.Span
}

func (m *Meta) Span() lineup.Span { return m.Loc }

// Statements.

type FnDecl struct {
	Attrs        []*Attr
	Name         string
	Generics     []*Generic
	GenericsSpan lineup.Span
	Params       []*Param
	ParamsSpan   lineup.Span
	Ret          Type
	Body         *Block
	Loc          lineup.Span
}

// Generic is a generic parameter with optional bounds, T: A + B.
type Generic struct {
	Name   string
	Bounds []Type
	Loc    lineup.Span
}

func (g *Generic) Span() lineup.Span { return g.Loc }

// Param is a function parameter. Type is nil for self receivers.
type Param struct {
	Pat  Pattern
	Type Type
	Loc  lineup.Span
}

func (p *Param) Span() lineup.Span { return p.Loc }

type UseDecl struct {
	Attrs []*Attr
	Tree  *UseTree
	Loc   lineup.Span
}

// UseTree is a path in an import, optionally ending in a glob or a braced
// list of nested trees.
type UseTree struct {
	Path         string
	Star         bool
	HasChildren  bool
	Children     []*UseTree
	ChildrenSpan lineup.Span
	Alias        string
	Loc          lineup.Span
}

func (u *UseTree) Span() lineup.Span { return u.Loc }

type LetStmt struct {
	Attrs []*Attr
	Pat   Pattern
	Type  Type
	Value Expr
	Loc   lineup.Span
}

type ExprStmt struct {
	Attrs []*Attr
	X     Expr
	Semi  bool
	Loc   lineup.Span
}

// Block is a braced statement list. Loc includes the braces.
type Block struct {
	Stmts []Stmt
	Loc   lineup.Span
}

func (b *Block) Span() lineup.Span { return b.Loc }

func (s *FnDecl) Span() lineup.Span   { return s.Loc }
func (s *UseDecl) Span() lineup.Span  { return s.Loc }
func (s *LetStmt) Span() lineup.Span  { return s.Loc }
func (s *ExprStmt) Span() lineup.Span { return s.Loc }

func (s *FnDecl) Attributes() []*Attr   { return s.Attrs }
func (s *UseDecl) Attributes() []*Attr  { return s.Attrs }
func (s *LetStmt) Attributes() []*Attr  { return s.Attrs }
func (s *ExprStmt) Attributes() []*Attr { return s.Attrs }

func (*FnDecl) stmtNode()   {}
func (*UseDecl) stmtNode()  {}
func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

// Expressions.

type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	CharLit
	BoolLit
)

type Lit struct {
	Kind LitKind
	Text string
	Loc  lineup.Span
}

// PathExpr is a variable or a path such as a::b::C.
type PathExpr struct {
	Path string
	Loc  lineup.Span
}

// MacroCall is name!(...), name![...] or name!{...}. Raw is set when the
// arguments are not a comma-separated expression list; they are then kept
// as written.
type MacroCall struct {
	Path     string
	Delim    byte
	Args     []Expr
	ArgsSpan lineup.Span
	Raw      bool
	Loc      lineup.Span
}

type StructLit struct {
	Path       string
	Fields     []*FieldInit
	FieldsSpan lineup.Span
	Loc        lineup.Span
}

// FieldInit is name: value, a shorthand name, or the ..base of a struct
// literal.
type FieldInit struct {
	Name  string
	Value Expr
	Base  bool
	Loc   lineup.Span
}

func (f *FieldInit) Span() lineup.Span { return f.Loc }

type Paren struct {
	X   Expr
	Loc lineup.Span
}

// Tuple is (a, b) or the unit (). Loc includes the parentheses.
type Tuple struct {
	Elems []Expr
	Loc   lineup.Span
}

type Array struct {
	Elems []Expr
	Loc   lineup.Span
}

type Closure struct {
	Move   bool
	Params []*ClosureParam
	Ret    Type
	Body   Expr
	Loc    lineup.Span
}

type ClosureParam struct {
	Pat  Pattern
	Type Type
	Loc  lineup.Span
}

type BlockExpr struct {
	Block *Block
}

type Match struct {
	Scrutinee Expr
	Arms      []*Arm
	ArmsSpan  lineup.Span
	Loc       lineup.Span
}

type Arm struct {
	Pat   Pattern
	Guard Expr
	Body  Expr
	Loc   lineup.Span
}

func (a *Arm) Span() lineup.Span { return a.Loc }

// If is a conditional. Else is nil, another *If, or a *BlockExpr.
type If struct {
	Cond Expr
	Then *Block
	Else Expr
	Loc  lineup.Span
}

type Return struct {
	X   Expr
	Loc lineup.Span
}

// Unary is -x, !x or *x.
type Unary struct {
	Op  string
	X   Expr
	Loc lineup.Span
}

// Ref is &x or &mut x.
type Ref struct {
	Mut bool
	X   Expr
	Loc lineup.Span
}

type Binary struct {
	Op   string
	L, R Expr
	Loc  lineup.Span
}

// Assign is x = y or a compound assignment such as x += y.
type Assign struct {
	Op   string
	L, R Expr
	Loc  lineup.Span
}

type Cast struct {
	X    Expr
	Type Type
	Loc  lineup.Span
}

type Call struct {
	Fun      Expr
	Args     []Expr
	ArgsSpan lineup.Span
	Loc      lineup.Span
}

type MethodCall struct {
	Recv     Expr
	Name     string
	Args     []Expr
	ArgsSpan lineup.Span
	Loc      lineup.Span
}

// Field is x.name or a tuple index x.0.
type Field struct {
	X    Expr
	Name string
	Loc  lineup.Span
}

type Index struct {
	X     Expr
	Index Expr
	Loc   lineup.Span
}

// Try is x?.
type Try struct {
	X   Expr
	Loc lineup.Span
}

func (e *Lit) Span() lineup.Span        { return e.Loc }
func (e *PathExpr) Span() lineup.Span   { return e.Loc }
func (e *MacroCall) Span() lineup.Span  { return e.Loc }
func (e *StructLit) Span() lineup.Span  { return e.Loc }
func (e *Paren) Span() lineup.Span      { return e.Loc }
func (e *Tuple) Span() lineup.Span      { return e.Loc }
func (e *Array) Span() lineup.Span      { return e.Loc }
func (e *Closure) Span() lineup.Span    { return e.Loc }
func (e *BlockExpr) Span() lineup.Span  { return e.Block.Loc }
func (e *Match) Span() lineup.Span      { return e.Loc }
func (e *If) Span() lineup.Span         { return e.Loc }
func (e *Return) Span() lineup.Span     { return e.Loc }
func (e *Unary) Span() lineup.Span      { return e.Loc }
func (e *Ref) Span() lineup.Span        { return e.Loc }
func (e *Binary) Span() lineup.Span     { return e.Loc }
func (e *Assign) Span() lineup.Span     { return e.Loc }
func (e *Cast) Span() lineup.Span       { return e.Loc }
func (e *Call) Span() lineup.Span       { return e.Loc }
func (e *MethodCall) Span() lineup.Span { return e.Loc }
func (e *Field) Span() lineup.Span      { return e.Loc }
func (e *Index) Span() lineup.Span      { return e.Loc }
func (e *Try) Span() lineup.Span        { return e.Loc }

func (*Lit) exprNode()        {}
func (*PathExpr) exprNode()   {}
func (*MacroCall) exprNode()  {}
func (*StructLit) exprNode()  {}
func (*Paren) exprNode()      {}
func (*Tuple) exprNode()      {}
func (*Array) exprNode()      {}
func (*Closure) exprNode()    {}
func (*BlockExpr) exprNode()  {}
func (*Match) exprNode()      {}
func (*If) exprNode()         {}
func (*Return) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Ref) exprNode()        {}
func (*Binary) exprNode()     {}
func (*Assign) exprNode()     {}
func (*Cast) exprNode()       {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Field) exprNode()      {}
func (*Index) exprNode()      {}
func (*Try) exprNode()        {}

// Patterns.

type WildPat struct{ Loc lineup.Span }

// RestPat is .. inside a tuple or struct pattern.
type RestPat struct{ Loc lineup.Span }

type LitPat struct {
	Text string
	Loc  lineup.Span
}

// IdentPat binds a name, or matches a path such as None or Kind::A.
type IdentPat struct {
	Mut  bool
	Name string
	Loc  lineup.Span
}

type RefPat struct {
	Mut bool
	X   Pattern
	Loc lineup.Span
}

type TupleStructPat struct {
	Path      string
	Elems     []Pattern
	ElemsSpan lineup.Span
	Loc       lineup.Span
}

// StructPat is Path { a, b: pat, .. }. Fields holds *FieldPat and
// *RestPat elements.
type StructPat struct {
	Path       string
	Fields     []Pattern
	FieldsSpan lineup.Span
	Loc        lineup.Span
}

// FieldPat is name: pat, or a shorthand name when Pat is nil.
type FieldPat struct {
	Name string
	Pat  Pattern
	Loc  lineup.Span
}

type TuplePat struct {
	Elems []Pattern
	Loc   lineup.Span
}

// OrPat is a | b, allowed at the top of a match arm.
type OrPat struct {
	Alts []Pattern
	Loc  lineup.Span
}

func (p *WildPat) Span() lineup.Span        { return p.Loc }
func (p *RestPat) Span() lineup.Span        { return p.Loc }
func (p *LitPat) Span() lineup.Span         { return p.Loc }
func (p *IdentPat) Span() lineup.Span       { return p.Loc }
func (p *RefPat) Span() lineup.Span         { return p.Loc }
func (p *TupleStructPat) Span() lineup.Span { return p.Loc }
func (p *StructPat) Span() lineup.Span      { return p.Loc }
func (p *FieldPat) Span() lineup.Span       { return p.Loc }
func (p *TuplePat) Span() lineup.Span       { return p.Loc }
func (p *OrPat) Span() lineup.Span          { return p.Loc }

func (*WildPat) patternNode()        {}
func (*RestPat) patternNode()        {}
func (*LitPat) patternNode()         {}
func (*IdentPat) patternNode()       {}
func (*RefPat) patternNode()         {}
func (*TupleStructPat) patternNode() {}
func (*StructPat) patternNode()      {}
func (*FieldPat) patternNode()       {}
func (*TuplePat) patternNode()       {}
func (*OrPat) patternNode()          {}

// Types.

// PathType is a named type with optional generic arguments. impl and dyn
// prefixes are kept in Path.
type PathType struct {
	Path     string
	Args     []Type
	ArgsSpan lineup.Span
	Loc      lineup.Span
}

type RefType struct {
	Mut  bool
	Elem Type
	Loc  lineup.Span
}

type TupleType struct {
	Elems []Type
	Loc   lineup.Span
}

type SliceType struct {
	Elem Type
	Loc  lineup.Span
}

func (t *PathType) Span() lineup.Span  { return t.Loc }
func (t *RefType) Span() lineup.Span   { return t.Loc }
func (t *TupleType) Span() lineup.Span { return t.Loc }
func (t *SliceType) Span() lineup.Span { return t.Loc }

func (*PathType) typeNode()  {}
func (*RefType) typeNode()   {}
func (*TupleType) typeNode() {}
func (*SliceType) typeNode() {}
