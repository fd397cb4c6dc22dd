package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

func TestIndexList(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("xs", evidence.ListOf(evidence.IntTag())).
		Var("i", evidence.IntTag()).
		Freeze()
	c := testContext(ev)

	// Literal index passes through; non-literal int indices get the usize
	// cast.
	lit := hir.Subscript{Receiver: hir.Name{ID: "xs"}, Index: hir.IntLit{Value: 0}}
	assert.Equal(t, "xs[0]", mustLower(t, c, lit))

	dyn := hir.Subscript{Receiver: hir.Name{ID: "xs"}, Index: hir.Name{ID: "i"}}
	assert.Equal(t, "xs[i as usize]", mustLower(t, c, dyn))
}

func TestIndexNegativeLiteral(t *testing.T) {
	ev := evidence.NewBuilder().Var("xs", evidence.ListOf(evidence.IntTag())).Freeze()
	c := testContext(ev)
	expr := hir.Subscript{Receiver: hir.Name{ID: "xs"}, Index: hir.IntLit{Value: -2}}
	assert.Equal(t, "xs[xs.len().saturating_sub(2)]", mustLower(t, c, expr))
	assert.Equal(t, "index_negative", c.Sink.Decisions()[0].Name)
}

func TestIndexTypedDict(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("m", evidence.DictOf(evidence.StrTag(), evidence.IntTag())).
		Freeze()
	c := testContext(ev)
	expr := hir.Subscript{Receiver: hir.Name{ID: "m"}, Index: hir.StringLit{Value: "k"}}
	assert.Equal(t, `m.get(&"k").cloned().unwrap()`, mustLower(t, c, expr))
	assert.Equal(t, "index_typed_dict", c.Sink.Decisions()[0].Name)
}

func TestIndexTaggedDict(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("d", evidence.DictOf(evidence.StrTag(), evidence.Unknown)).
		Var("g", evidence.DictOf(evidence.IntTag(), evidence.Unknown)).
		Freeze()
	c := testContext(ev)

	str := hir.Subscript{Receiver: hir.Name{ID: "d"}, Index: hir.StringLit{Value: "k"}}
	assert.Equal(t,
		`d.get(&Value::Str("k".to_string())).cloned().unwrap_or(Value::None)`,
		mustLower(t, c, str))
	assert.Equal(t, "index_tagged_dict", c.Sink.Decisions()[0].Name)

	num := hir.Subscript{Receiver: hir.Name{ID: "g"}, Index: hir.IntLit{Value: 3}}
	assert.Equal(t,
		"g.get(&Value::Int(3)).cloned().unwrap_or(Value::None)",
		mustLower(t, c, num))
}

func TestSliceList(t *testing.T) {
	ev := evidence.NewBuilder().Var("xs", evidence.ListOf(evidence.IntTag())).Freeze()
	c := testContext(ev)
	expr := hir.SliceExpr{
		Receiver: hir.Name{ID: "xs"},
		Low:      hir.IntLit{Value: 1},
		High:     hir.IntLit{Value: 3},
	}
	assert.Equal(t,
		"{ let __n = xs.len() as i64; "+
			"let __a = (if (1) < 0 { 1 + __n } else { 1 }).clamp(0, __n); "+
			"let __b = (if (3) < 0 { 3 + __n } else { 3 }).clamp(0, __n).max(__a); "+
			"xs[__a as usize..__b as usize].to_vec() }",
		mustLower(t, c, expr))
	assert.Equal(t, "slice_sequence", c.Sink.Decisions()[0].Name)
}

func TestSliceStringCollectsChars(t *testing.T) {
	ev := evidence.NewBuilder().Var("s", evidence.StrTag()).Freeze()
	c := testContext(ev)
	expr := hir.SliceExpr{
		Receiver: hir.Name{ID: "s"},
		High:     hir.IntLit{Value: 2},
	}
	out := mustLower(t, c, expr)
	assert.Contains(t, out, "s.chars().skip(__a as usize).take((__b - __a) as usize).collect::<String>()")
	assert.Contains(t, out, "let __n = s.len() as i64;")
	d := c.Sink.Decisions()[0]
	assert.Equal(t, "slice_string", d.Name)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
}

func TestSliceStepped(t *testing.T) {
	ev := evidence.NewBuilder().Var("xs", evidence.ListOf(evidence.IntTag())).Freeze()
	c := testContext(ev)
	expr := hir.SliceExpr{
		Receiver: hir.Name{ID: "xs"},
		Step:     hir.IntLit{Value: 2},
	}
	out := mustLower(t, c, expr)
	assert.Contains(t, out,
		"xs[__a as usize..__b as usize].iter().cloned().step_by(2).collect::<Vec<_>>()")
}

func TestSliceRejectsBadStep(t *testing.T) {
	ev := evidence.NewBuilder().Var("xs", evidence.ListOf(evidence.IntTag())).Freeze()

	for _, step := range []hir.Expr{
		hir.IntLit{Value: 0},
		hir.IntLit{Value: -1},
		hir.Name{ID: "k"},
	} {
		c := testContext(ev)
		expr := hir.SliceExpr{Receiver: hir.Name{ID: "xs"}, Step: step}
		_, err := Lower(c, expr)
		require.Error(t, err)
		var lerr *Error
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, ErrMalformedOperand, lerr.Kind)
	}
}
