package tagged

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualNoCrossVariantBridging(t *testing.T) {
	// Int never equals Float, even for the same magnitude; equality must
	// agree with Hash.
	assert.False(t, Int(1).Equal(Float(1.0)))
	assert.False(t, Bool(true).Equal(Int(1)))
	assert.False(t, Str("1").Equal(Int(1)))

	assert.True(t, Int(3).Equal(Int(3)))
	assert.True(t, None.Equal(None))
	assert.True(t, Str("a").Equal(Str("a")))
}

func TestEqualNaN(t *testing.T) {
	nan := Float(math.NaN())
	assert.True(t, nan.Equal(nan))
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
}

func TestEqualContainers(t *testing.T) {
	assert.True(t, List(Int(1), Str("x")).Equal(List(Int(1), Str("x"))))
	assert.False(t, List(Int(1)).Equal(List(Int(1), Int(2))))
	assert.False(t, List(Int(1)).Equal(Tuple(Int(1))))

	// Dict equality ignores insertion order.
	a := Dict(Pair{Str("x"), Int(1)}, Pair{Str("y"), Int(2)})
	b := Dict(Pair{Str("y"), Int(2)}, Pair{Str("x"), Int(1)})
	assert.True(t, a.Equal(b))
}

func TestHashAgreesWithEqual(t *testing.T) {
	pairs := [][2]Value{
		{Int(5), Int(5)},
		{Str("abc"), Str("abc")},
		{Float(2.5), Float(2.5)},
		{List(Int(1), Int(2)), List(Int(1), Int(2))},
		{Tuple(Str("k")), Tuple(Str("k"))},
	}
	for _, p := range pairs {
		assert.True(t, p[0].Equal(p[1]))
		assert.Equal(t, p[0].Hash(), p[1].Hash())
	}

	// Cross-variant values hash differently thanks to the discriminant.
	assert.NotEqual(t, Int(1).Hash(), Float(1).Hash())
	assert.NotEqual(t, List(Int(1)).Hash(), Tuple(Int(1)).Hash())
}

func TestCmpNumericBridging(t *testing.T) {
	// Ordering bridges Int and Float even though equality does not.
	assert.Equal(t, 0, Int(1).Cmp(Float(1.0)))
	assert.Equal(t, -1, Int(1).Cmp(Float(1.5)))
	assert.Equal(t, 1, Float(2.5).Cmp(Int(2)))
}

func TestCmpNoneLeast(t *testing.T) {
	assert.Equal(t, -1, None.Cmp(Int(-100)))
	assert.Equal(t, 1, Str("").Cmp(None))
	assert.Equal(t, 0, None.Cmp(None))
}

func TestCmpSequencesLexicographic(t *testing.T) {
	assert.Equal(t, -1, List(Int(1), Int(2)).Cmp(List(Int(1), Int(3))))
	assert.Less(t, List(Int(1)).Cmp(List(Int(1), Int(0))), 0)
	assert.Equal(t, 0, Tuple(Str("a")).Cmp(Tuple(Str("a"))))
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{None, Bool(false), Int(0), Float(0), Str(""), List(), Tuple(), Dict()}
	for _, v := range falsy {
		assert.False(t, v.IsTrue(), "%s should be falsy", v)
	}
	truthy := []Value{Bool(true), Int(-1), Float(0.1), Str("0"), List(None), Dict(Pair{Str("k"), None})}
	for _, v := range truthy {
		assert.True(t, v.IsTrue(), "%s should be truthy", v)
	}
}

func TestCoercions(t *testing.T) {
	assert.Equal(t, int64(3), Float(3.9).AsInt())
	assert.Equal(t, int64(1), Bool(true).AsInt())
	assert.Equal(t, int64(42), Str(" 42 ").AsInt())
	assert.Equal(t, int64(0), Str("nope").AsInt())

	assert.Equal(t, 2.5, Str("2.5").AsFloat())
	assert.Equal(t, 1.0, Bool(true).AsFloat())
	assert.Equal(t, 0.0, List().AsFloat())
}

func TestLen(t *testing.T) {
	assert.Equal(t, 3, Str("abc").Len())
	// Character count, not byte count.
	assert.Equal(t, 5, Str("héllo").Len())
	assert.Equal(t, 2, List(None, None).Len())
	assert.Equal(t, 1, Dict(Pair{Str("k"), Int(1)}).Len())
	assert.Equal(t, 0, Int(7).Len())
}

func TestDictSemantics(t *testing.T) {
	d := Dict(
		Pair{Str("a"), Int(1)},
		Pair{Str("b"), Int(2)},
		Pair{Str("a"), Int(3)}, // later entry replaces in place
	)
	v, ok := d.Get(Str("a"))
	assert.True(t, ok)
	assert.True(t, v.Equal(Int(3)))

	_, ok = d.Get(Str("missing"))
	assert.False(t, ok)

	// Insertion order is preserved; keys iterate a, b.
	keys := d.Iter()
	assert.Equal(t, "a", keys[0].String())
	assert.Equal(t, "b", keys[1].String())
}

func TestIndexSeqPanicsOutOfRange(t *testing.T) {
	l := List(Int(1))
	assert.True(t, l.IndexSeq(0).Equal(Int(1)))
	assert.Panics(t, func() { l.IndexSeq(1) })
	assert.Panics(t, func() { l.IndexSeq(-1) })
}

func TestIterString(t *testing.T) {
	chars := Str("ab").Iter()
	assert.Len(t, chars, 2)
	assert.True(t, chars[0].Equal(Str("a")))
	assert.True(t, chars[1].Equal(Str("b")))

	assert.Nil(t, Int(1).Iter())
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "None", None.String())
	assert.Equal(t, "True", Bool(true).String())
	assert.Equal(t, "3", Int(3).String())
	assert.Equal(t, "plain", Str("plain").String())
	assert.Equal(t, `[1, "x"]`, List(Int(1), Str("x")).String())
	assert.Equal(t, `("a", 2)`, Tuple(Str("a"), Int(2)).String())
	assert.Equal(t, `{"k": 1}`, Dict(Pair{Str("k"), Int(1)}).String())
}
