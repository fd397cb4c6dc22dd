// Package hir defines the expression nodes the lowering core consumes.
//
// Nodes are produced by the external elaborator (or the CUE unit loader) and
// are immutable once built: no parent pointers, every child pointer owning,
// left-to-right child order equal to source evaluation order. Each node can
// carry a cached evidence tag filled in by the upstream type pass; Unknown
// means "no evidence", never "error".
package hir

import "github.com/ferrous-lang/ferrous/internal/evidence"

// Expr is the sealed expression interface. Only the node types in this
// package implement it.
type Expr interface {
	hirExpr() // Sealed - only these types implement it

	// Type returns the cached evidence tag, or evidence.Unknown.
	Type() evidence.Tag
}

// Meta is embedded by every node and carries the optional cached tag.
// Builders outside this package set it directly; lowering only reads it.
type Meta struct {
	Tag evidence.Tag
}

// Type returns the cached evidence tag, or evidence.Unknown.
func (m Meta) Type() evidence.Tag { return m.Tag }

// IntLit is an integer literal. Width is fixed at 64-bit signed; bignum
// fidelity is out of scope.
type IntLit struct {
	Meta
	Value int64
}

// FloatLit is a floating point literal. Text preserves the source spelling
// when available so emission can keep it verbatim.
type FloatLit struct {
	Meta
	Value float64
	Text  string
}

// StringLit is a string literal.
type StringLit struct {
	Meta
	Value string
}

// BytesLit is a byte-string literal.
type BytesLit struct {
	Meta
	Value []byte
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Meta
	Value bool
}

// NoneLit is the none literal.
type NoneLit struct {
	Meta
}

// Name is an identifier reference.
type Name struct {
	Meta
	ID string
}

// Attribute is receiver.attr access (no call).
type Attribute struct {
	Meta
	Receiver Expr
	Attr     string
}

// Subscript is receiver[index].
type Subscript struct {
	Meta
	Receiver Expr
	Index    Expr
}

// SliceExpr is receiver[low:high:step]; absent bounds are nil.
type SliceExpr struct {
	Meta
	Receiver Expr
	Low      Expr
	High     Expr
	Step     Expr
}

// TupleLit is a tuple constructor.
type TupleLit struct {
	Meta
	Elems []Expr
}

// ListLit is a list constructor.
type ListLit struct {
	Meta
	Elems []Expr
}

// SetLit is a set constructor. Always non-empty; `set()` arrives as a Call.
type SetLit struct {
	Meta
	Elems []Expr
}

// DictLit is a dict constructor; Keys and Values are parallel.
type DictLit struct {
	Meta
	Keys   []Expr
	Values []Expr
}

// Unary is a unary operator application.
type Unary struct {
	Meta
	Op      UnOp
	Operand Expr
}

// Binary is a binary operator application (arithmetic and bitwise; the
// comparison family is Compare, the logical family is BoolOp).
type Binary struct {
	Meta
	Op    BinOp
	Left  Expr
	Right Expr
}

// Compare is a possibly-chained comparison: Left op[0] Rest[0] op[1] Rest[1]...
// A plain `a < b` has one op and one rest element.
type Compare struct {
	Meta
	Left Expr
	Ops  []CmpOp
	Rest []Expr
}

// BoolOp is the value-returning `and`/`or`. Values has at least two
// elements; chains keep source order.
type BoolOp struct {
	Meta
	Op     BoolOpKind
	Values []Expr
}

// Call is a plain function call.
type Call struct {
	Meta
	Func Expr
	Args []Expr
}

// MethodCall is receiver.method(args). Kept distinct from Call+Attribute
// because the method rewriter is the dispatch root for this shape.
type MethodCall struct {
	Meta
	Receiver Expr
	Method   string
	Args     []Expr
}

// Lambda is an anonymous function expression.
type Lambda struct {
	Meta
	Params []string
	Body   Expr
}

// CompKind distinguishes the comprehension families.
type CompKind int

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

// Comprehension is a single-clause comprehension. KeyElem is set only for
// dict comprehensions (Elem is then the value part). Multi-clause
// comprehensions are normalized upstream into nested ones.
type Comprehension struct {
	Meta
	Kind    CompKind
	KeyElem Expr
	Elem    Expr
	Var     string
	Iter    Expr
	Cond    Expr
}

// IfExp is the conditional expression `body if cond else orelse`.
type IfExp struct {
	Meta
	Cond   Expr
	Body   Expr
	Orelse Expr
}

// FString is a formatted string literal; Parts interleaves StringLit runs
// with arbitrary interpolated expressions.
type FString struct {
	Meta
	Parts []Expr
}

// Starred marks *expr in call argument position.
type Starred struct {
	Meta
	Operand Expr
}

func (IntLit) hirExpr()        {}
func (FloatLit) hirExpr()      {}
func (StringLit) hirExpr()     {}
func (BytesLit) hirExpr()      {}
func (BoolLit) hirExpr()       {}
func (NoneLit) hirExpr()       {}
func (Name) hirExpr()          {}
func (Attribute) hirExpr()     {}
func (Subscript) hirExpr()     {}
func (SliceExpr) hirExpr()     {}
func (TupleLit) hirExpr()      {}
func (ListLit) hirExpr()       {}
func (SetLit) hirExpr()        {}
func (DictLit) hirExpr()       {}
func (Unary) hirExpr()         {}
func (Binary) hirExpr()        {}
func (Compare) hirExpr()       {}
func (BoolOp) hirExpr()        {}
func (Call) hirExpr()          {}
func (MethodCall) hirExpr()    {}
func (Lambda) hirExpr()        {}
func (Comprehension) hirExpr() {}
func (IfExp) hirExpr()         {}
func (FString) hirExpr()       {}
func (Starred) hirExpr()       {}

// Tagged is a convenience for builders: it wraps a tag for embedding.
func Tagged(t evidence.Tag) Meta { return Meta{Tag: t} }
