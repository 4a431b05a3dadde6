// Package ast defines the syntax tree for preview snippets: JSX markup
// (elements, attributes, text, brace expressions) and the expression
// subset evaluated by the sandbox.
package ast

import "strings"

// Pos is a source position. Line and Col are 1-based; Col counts bytes.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

// Position returns p; embedding Pos gives every node a Position method.
func (p Pos) Position() Pos { return p }

// Node is the interface for all AST nodes.
type Node interface {
	Position() Pos
	node()
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Document is the root of a parsed snippet: a sequence of JSX children.
type Document struct {
	Children []Node
	Source   string
}

func (d *Document) Position() Pos { return Pos{Line: 1, Col: 1} }
func (d *Document) node()         {}

// --- Markup nodes ---

// Element represents <Name attrs>children</Name> or <Name attrs/>.
// An empty Name is a fragment (<>...</>).
type Element struct {
	Pos
	Name        string
	Attrs       []*Attr
	Children    []Node
	SelfClosing bool
}

func (e *Element) node() {}
func (e *Element) expr() {}

// IsFragment reports whether e is a <>...</> fragment.
func (e *Element) IsFragment() bool { return e.Name == "" }

// RootName returns the first segment of a member tag name
// (Foo for Foo.Bar).
func (e *Element) RootName() string {
	if i := strings.IndexByte(e.Name, '.'); i >= 0 {
		return e.Name[:i]
	}
	return e.Name
}

// IsComponent reports whether the tag names a component rather than an
// intrinsic element: its root starts with an uppercase ASCII letter.
func (e *Element) IsComponent() bool {
	root := e.RootName()
	return root != "" && root[0] >= 'A' && root[0] <= 'Z'
}

// IsIntrinsic reports whether the tag is a lowercase HTML element.
func (e *Element) IsIntrinsic() bool {
	return e.Name != "" && !strings.Contains(e.Name, ".") && e.Name[0] >= 'a' && e.Name[0] <= 'z'
}

// Attr is one attribute. Value is nil for the boolean shorthand
// (<input disabled/>). Spread attributes ({...props}) have an empty Name.
type Attr struct {
	Pos
	Name   string
	Value  Expr
	Spread bool
}

func (a *Attr) node() {}

// Text is JSX child text. Raw is the source text; Value has entities
// decoded and JSX whitespace rules applied (may be empty).
type Text struct {
	Pos
	Raw   string
	Value string
}

func (t *Text) node() {}

// ExprContainer is a {expr} child or attribute value. X is nil for an
// empty container or a comment-only container.
type ExprContainer struct {
	Pos
	X Expr
}

func (c *ExprContainer) node() {}
func (c *ExprContainer) expr() {}

// --- Expressions ---

// Ident is an identifier reference.
type Ident struct {
	Pos
	Name string
}

func (i *Ident) node() {}
func (i *Ident) expr() {}

// StringLit is a quoted string literal (also JSX attribute strings).
type StringLit struct {
	Pos
	Value string
}

func (s *StringLit) node() {}
func (s *StringLit) expr() {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Pos
	Value float64
	Raw   string
}

func (n *NumberLit) node() {}
func (n *NumberLit) expr() {}

// BoolLit is true or false.
type BoolLit struct {
	Pos
	Value bool
}

func (b *BoolLit) node() {}
func (b *BoolLit) expr() {}

// NullLit is null.
type NullLit struct{ Pos }

func (n *NullLit) node() {}
func (n *NullLit) expr() {}

// UndefinedLit is undefined.
type UndefinedLit struct{ Pos }

func (u *UndefinedLit) node() {}
func (u *UndefinedLit) expr() {}

// TemplateLit is a backtick string. len(Quasis) == len(Exprs)+1.
type TemplateLit struct {
	Pos
	Quasis []string
	Exprs  []Expr
}

func (t *TemplateLit) node() {}
func (t *TemplateLit) expr() {}

// SpreadElement is ...X inside an array literal or call arguments.
type SpreadElement struct {
	Pos
	X Expr
}

func (s *SpreadElement) node() {}
func (s *SpreadElement) expr() {}

// ArrayLit is [a, b, ...c].
type ArrayLit struct {
	Pos
	Elems []Expr
}

func (a *ArrayLit) node() {}
func (a *ArrayLit) expr() {}

// Property is one entry of an object literal. Spread entries have an
// empty Key and the spread operand in Value.
type Property struct {
	Key    string
	Value  Expr
	Spread bool
}

// ObjectLit is {key: value, ...rest}.
type ObjectLit struct {
	Pos
	Props []Property
}

func (o *ObjectLit) node() {}
func (o *ObjectLit) expr() {}

// MemberExpr is X.Prop, X[Index] or the optional forms X?.Prop, X?.[Index].
type MemberExpr struct {
	Pos
	X        Expr
	Prop     string
	Index    Expr // non-nil for computed access
	Optional bool
}

func (m *MemberExpr) node() {}
func (m *MemberExpr) expr() {}

// CallExpr is Fn(args).
type CallExpr struct {
	Pos
	Fn       Expr
	Args     []Expr
	Optional bool // Fn?.(args)
}

func (c *CallExpr) node() {}
func (c *CallExpr) expr() {}

// Stmt is a statement inside an arrow function block body.
type Stmt struct {
	Pos
	X      Expr
	Return bool
}

// ArrowFunc is (params) => Body or (params) => { Block }.
type ArrowFunc struct {
	Pos
	Params []string
	Body   Expr   // expression body; nil when Block is used
	Block  []Stmt // block body
}

func (a *ArrowFunc) node() {}
func (a *ArrowFunc) expr() {}

// UnaryExpr is Op X for !, -, + and typeof.
type UnaryExpr struct {
	Pos
	Op string
	X  Expr
}

func (u *UnaryExpr) node() {}
func (u *UnaryExpr) expr() {}

// BinaryExpr covers arithmetic, comparison, equality and the logical
// operators &&, || and ??.
type BinaryExpr struct {
	Pos
	Op   string
	L, R Expr
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

// CondExpr is Cond ? Then : Else.
type CondExpr struct {
	Pos
	Cond, Then, Else Expr
}

func (c *CondExpr) node() {}
func (c *CondExpr) expr() {}
