package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

func containsExpr(op hir.CmpOp, needle, haystack hir.Expr) hir.Compare {
	return hir.Compare{Left: needle, Ops: []hir.CmpOp{op}, Rest: []hir.Expr{haystack}}
}

func TestContainsInDict(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("d", evidence.DictOf(evidence.StrTag(), evidence.IntTag())).
		Freeze()
	c := testContext(ev)
	in := containsExpr(hir.CmpIn, hir.StringLit{Value: "k"}, hir.Name{ID: "d"})
	assert.Equal(t, `d.get(&"k").is_some()`, mustLower(t, c, in))
	assert.Equal(t, "in_dict", c.Sink.Decisions()[0].Name)
	assert.Equal(t, "get-is-some", c.Sink.Decisions()[0].Chosen)

	notIn := containsExpr(hir.CmpNotIn, hir.StringLit{Value: "k"}, hir.Name{ID: "d"})
	assert.Equal(t, `!d.get(&"k").is_some()`, mustLower(t, c, notIn))
}

func TestContainsInOptionalDict(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("d", evidence.OptionalOf(evidence.DictOf(evidence.StrTag(), evidence.IntTag()))).
		Freeze()
	c := testContext(ev)
	expr := containsExpr(hir.CmpIn, hir.StringLit{Value: "k"}, hir.Name{ID: "d"})
	assert.Equal(t, `d.as_ref().unwrap().get(&"k").is_some()`, mustLower(t, c, expr))
	assert.Equal(t, "in_optional_dict", c.Sink.Decisions()[0].Name)
	assert.InDelta(t, 0.9, c.Sink.Decisions()[0].Confidence, 1e-9)
}

func TestContainsInEnviron(t *testing.T) {
	c := testContext(nil)
	environ := hir.Attribute{Receiver: hir.Name{ID: "os"}, Attr: "environ"}
	expr := containsExpr(hir.CmpIn, hir.StringLit{Value: "HOME"}, environ)
	assert.Equal(t, `std::env::var("HOME").is_ok()`, mustLower(t, c, expr))
	assert.Equal(t, "in_environ", c.Sink.Decisions()[0].Name)
}

func TestContainsInTuple(t *testing.T) {
	c := testContext(intVars("n"))
	tup := hir.TupleLit{Elems: []hir.Expr{
		hir.IntLit{Value: 1}, hir.IntLit{Value: 2}, hir.IntLit{Value: 3},
	}}
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "n"}, tup)
	assert.Equal(t, "[1, 2, 3].contains(&n)", mustLower(t, c, expr))
	assert.Equal(t, "in_tuple", c.Sink.Decisions()[0].Name)
}

func TestContainsInStringListLiteral(t *testing.T) {
	ev := evidence.NewBuilder().Var("q", evidence.StrTag()).Freeze()
	c := testContext(ev)
	list := hir.ListLit{Elems: []hir.Expr{
		hir.StringLit{Value: "a"}, hir.StringLit{Value: "b"},
	}}
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "q"}, list)
	assert.Equal(t, `vec!["a", "b"].iter().any(|s| s == q)`, mustLower(t, c, expr))
	assert.Contains(t, decisionNames(c), "in_string_list")
}

func TestContainsInSet(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("s", evidence.SetOf(evidence.IntTag())).
		Var("n", evidence.IntTag()).
		Freeze()
	c := testContext(ev)
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "n"}, hir.Name{ID: "s"})
	assert.Equal(t, "s.contains(&*n)", mustLower(t, c, expr))
	assert.Equal(t, "in_set", c.Sink.Decisions()[0].Name)
}

func TestContainsInString(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("s", evidence.StrTag()).
		Var("ch", evidence.StrTag()).
		CharIter("ch", true).
		Freeze()

	// Literal needles stay string literals.
	c := testContext(ev)
	lit := containsExpr(hir.CmpIn, hir.StringLit{Value: "x"}, hir.Name{ID: "s"})
	assert.Equal(t, `s.contains("x")`, mustLower(t, c, lit))
	assert.Equal(t, "in_str", c.Sink.Decisions()[0].Name)

	// Char-iteration variables pass as chars, no reborrow.
	c = testContext(ev)
	char := containsExpr(hir.CmpIn, hir.Name{ID: "ch"}, hir.Name{ID: "s"})
	assert.Equal(t, "s.contains(ch)", mustLower(t, c, char))
}

func TestContainsInList(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("xs", evidence.ListOf(evidence.IntTag())).
		Var("n", evidence.IntTag()).
		Var("ws", evidence.ListOf(evidence.StrTag())).
		Var("w", evidence.StrTag()).
		Borrowed("w").
		Freeze()

	c := testContext(ev)
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "n"}, hir.Name{ID: "xs"})
	assert.Equal(t, "xs.contains(&n)", mustLower(t, c, expr))
	assert.Equal(t, "contains-ref", c.Sink.Decisions()[0].Chosen)

	// A borrowed string needle is already the right shape.
	c = testContext(ev)
	borrowed := containsExpr(hir.CmpIn, hir.Name{ID: "w"}, hir.Name{ID: "ws"})
	assert.Equal(t, "ws.contains(w)", mustLower(t, c, borrowed))
	assert.Equal(t, "contains-borrowed", c.Sink.Decisions()[0].Chosen)
}

func TestContainsUnknownHaystackStringNeedle(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("h", evidence.Unknown).
		Var("s", evidence.StrTag()).
		Freeze()
	c := testContext(ev)
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "s"}, hir.Name{ID: "h"})
	assert.Equal(t, "h.contains(&*s)", mustLower(t, c, expr))
	d := c.Sink.Decisions()[0]
	assert.Equal(t, "in_unknown_string_needle", d.Name)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
}

func TestContainsGenericFallthrough(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("h", evidence.Unknown).
		Var("n", evidence.IntTag()).
		Freeze()
	c := testContext(ev)
	expr := containsExpr(hir.CmpIn, hir.Name{ID: "n"}, hir.Name{ID: "h"})
	assert.Equal(t, "h.contains(&n)", mustLower(t, c, expr))
	d := c.Sink.Decisions()[0]
	assert.Equal(t, "in_generic", d.Name)
	assert.InDelta(t, 0.7, d.Confidence, 1e-9)
}
