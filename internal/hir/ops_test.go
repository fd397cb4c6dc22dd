package hir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferrous-lang/ferrous/internal/evidence"
)

func TestIsComparison(t *testing.T) {
	for _, op := range []CmpOp{CmpEq, CmpNe, CmpLt, CmpLe, CmpGt, CmpGe} {
		assert.True(t, op.IsComparison(), string(op))
	}
	for _, op := range []CmpOp{CmpIn, CmpNotIn, CmpIs, CmpIsNot} {
		assert.False(t, op.IsComparison(), string(op))
	}
}

func TestNegate(t *testing.T) {
	cases := map[CmpOp]CmpOp{
		CmpEq:    CmpNe,
		CmpLt:    CmpGe,
		CmpLe:    CmpGt,
		CmpIn:    CmpNotIn,
		CmpIs:    CmpIsNot,
		CmpIsNot: CmpIs,
	}
	for op, want := range cases {
		assert.Equal(t, want, op.Negate())
		assert.Equal(t, op, op.Negate().Negate())
	}
}

func TestTaggedMeta(t *testing.T) {
	n := Name{Meta: Tagged(evidence.IntTag()), ID: "x"}
	assert.True(t, n.Type().IsKnown())
	assert.False(t, Name{ID: "y"}.Type().IsKnown())
}
