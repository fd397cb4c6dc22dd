package hir

// BinOp is the binary operator discriminant.
type BinOp string

const (
	OpAdd      BinOp = "+"
	OpSub      BinOp = "-"
	OpMul      BinOp = "*"
	OpDiv      BinOp = "/"
	OpFloorDiv BinOp = "//"
	OpMod      BinOp = "%"
	OpPow      BinOp = "**"
	OpBitOr    BinOp = "|"
	OpBitAnd   BinOp = "&"
	OpBitXor   BinOp = "^"
	OpShl      BinOp = "<<"
	OpShr      BinOp = ">>"
)

// CmpOp is the comparison operator discriminant, including containment.
type CmpOp string

const (
	CmpEq    CmpOp = "=="
	CmpNe    CmpOp = "!="
	CmpLt    CmpOp = "<"
	CmpLe    CmpOp = "<="
	CmpGt    CmpOp = ">"
	CmpGe    CmpOp = ">="
	CmpIn    CmpOp = "in"
	CmpNotIn CmpOp = "not in"
	CmpIs    CmpOp = "is"
	CmpIsNot CmpOp = "is not"
)

// UnOp is the unary operator discriminant.
type UnOp string

const (
	OpNeg    UnOp = "-"
	OpUAdd   UnOp = "+"
	OpInvert UnOp = "~"
	OpNot    UnOp = "not"
)

// BoolOpKind distinguishes the two value-returning logical operators.
type BoolOpKind string

const (
	BoolAnd BoolOpKind = "and"
	BoolOr  BoolOpKind = "or"
)

// IsComparison reports whether the CmpOp is an ordering or equality test
// (as opposed to containment or identity).
func (op CmpOp) IsComparison() bool {
	switch op {
	case CmpEq, CmpNe, CmpLt, CmpLe, CmpGt, CmpGe:
		return true
	}
	return false
}

// Negate returns the complementary comparison, used when containment
// lowering rewrites `not in` as a negated `in`.
func (op CmpOp) Negate() CmpOp {
	switch op {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	case CmpGt:
		return CmpLe
	case CmpGe:
		return CmpLt
	case CmpIn:
		return CmpNotIn
	case CmpNotIn:
		return CmpIn
	case CmpIs:
		return CmpIsNot
	case CmpIsNot:
		return CmpIs
	}
	return op
}
