package render

import (
	"strconv"
	"strings"
)

// Node is an element of a parsed template body.
type Node interface {
	Position() Pos
}

// TextNode is literal template text copied to the output.
type TextNode struct {
	Pos  Pos
	Text string
}

// OutputNode is a `{{ expr }}` substitution.
type OutputNode struct {
	Pos  Pos
	Expr Expr
}

// ForNode is a `{% for Var in Seq %}` block.
type ForNode struct {
	Pos  Pos
	Var  string
	Seq  Expr
	Body []Node
}

// IfNode is a `{% if Cond %}` block. Elif chains nest in Else.
type IfNode struct {
	Pos  Pos
	Cond Expr
	Then []Node
	Else []Node
}

func (n *TextNode) Position() Pos   { return n.Pos }
func (n *OutputNode) Position() Pos { return n.Pos }
func (n *ForNode) Position() Pos    { return n.Pos }
func (n *IfNode) Position() Pos     { return n.Pos }

// Expr is an expression inside a tag. String returns its source form, which
// is what errors report as the offending name.
type Expr interface {
	Position() Pos
	String() string
}

// NameExpr references a variable.
type NameExpr struct {
	Pos  Pos
	Name string
}

// AttrExpr is `X.Name`.
type AttrExpr struct {
	Pos  Pos
	X    Expr
	Name string
}

// LiteralExpr is a string, number or boolean literal.
type LiteralExpr struct {
	Pos   Pos
	Value any
}

// BinaryExpr is `L Op R` for Op in + - and or.
type BinaryExpr struct {
	Pos Pos
	Op  string
	L   Expr
	R   Expr
}

// UnaryExpr is `not X` or `-X`.
type UnaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
}

// FormatExpr is `'<spec>' | format(Arg)`; the spec is parsed when the
// template is.
type FormatExpr struct {
	Pos  Pos
	Spec FormatSpec
	Arg  Expr
}

func (e *NameExpr) Position() Pos    { return e.Pos }
func (e *AttrExpr) Position() Pos    { return e.Pos }
func (e *LiteralExpr) Position() Pos { return e.Pos }
func (e *BinaryExpr) Position() Pos  { return e.Pos }
func (e *UnaryExpr) Position() Pos   { return e.Pos }
func (e *FormatExpr) Position() Pos  { return e.Pos }

func (e *NameExpr) String() string { return e.Name }
func (e *AttrExpr) String() string { return e.X.String() + "." + e.Name }

func (e *LiteralExpr) String() string {
	switch v := e.Value.(type) {
	case string:
		return strconv.Quote(v)
	default:
		return stringify(v)
	}
}

func (e *BinaryExpr) String() string {
	return e.L.String() + " " + e.Op + " " + e.R.String()
}

func (e *UnaryExpr) String() string {
	if e.Op == "not" {
		return "not " + e.X.String()
	}
	return e.Op + e.X.String()
}

func (e *FormatExpr) String() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(e.Spec.String()))
	b.WriteString("|format(")
	b.WriteString(e.Arg.String())
	b.WriteByte(')')
	return b.String()
}
