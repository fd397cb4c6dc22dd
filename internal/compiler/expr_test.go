package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

func parseExprString(t *testing.T, src string) hir.Expr {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	e, err := parseExpr(v.LookupPath(cue.ParsePath("e")))
	require.NoError(t, err)
	return e
}

func TestParseLiterals(t *testing.T) {
	assert.Equal(t, hir.IntLit{Value: 42},
		parseExprString(t, `e: {kind: "int", value: 42}`))
	assert.Equal(t, hir.FloatLit{Value: 0.5},
		parseExprString(t, `e: {kind: "float", value: 0.5}`))
	assert.Equal(t, hir.FloatLit{Value: 1e-9, Text: "1e-9"},
		parseExprString(t, `e: {kind: "float", value: 1e-9, text: "1e-9"}`))
	assert.Equal(t, hir.StringLit{Value: "hi"},
		parseExprString(t, `e: {kind: "str", value: "hi"}`))
	assert.Equal(t, hir.BoolLit{Value: true},
		parseExprString(t, `e: {kind: "bool", value: true}`))
	assert.Equal(t, hir.NoneLit{},
		parseExprString(t, `e: {kind: "none"}`))
	assert.Equal(t, hir.BytesLit{Value: []byte("ab")},
		parseExprString(t, `e: {kind: "bytes", value: 'ab'}`))
}

func TestParseTagMeta(t *testing.T) {
	e := parseExprString(t, `e: {kind: "name", id: "u", tag: "int"}`)
	assert.Equal(t, hir.Name{Meta: hir.Tagged(evidence.IntTag()), ID: "u"}, e)
}

func TestParseAccessNodes(t *testing.T) {
	assert.Equal(t,
		hir.Attribute{Receiver: hir.Name{ID: "obj"}, Attr: "width"},
		parseExprString(t, `e: {kind: "attr", receiver: {kind: "name", id: "obj"}, attr: "width"}`))

	assert.Equal(t,
		hir.Subscript{Receiver: hir.Name{ID: "xs"}, Index: hir.IntLit{Value: 0}},
		parseExprString(t, `e: {kind: "subscript", receiver: {kind: "name", id: "xs"}, index: {kind: "int", value: 0}}`))
}

func TestParseSliceOptionalBounds(t *testing.T) {
	e := parseExprString(t, `e: {kind: "slice", receiver: {kind: "name", id: "xs"}, high: {kind: "int", value: 3}}`)
	sl, ok := e.(hir.SliceExpr)
	require.True(t, ok)
	assert.Nil(t, sl.Low)
	assert.Equal(t, hir.IntLit{Value: 3}, sl.High)
	assert.Nil(t, sl.Step)
}

func TestParseContainers(t *testing.T) {
	assert.Equal(t,
		hir.ListLit{Elems: []hir.Expr{hir.IntLit{Value: 1}, hir.IntLit{Value: 2}}},
		parseExprString(t, `e: {kind: "list", elems: [{kind: "int", value: 1}, {kind: "int", value: 2}]}`))

	assert.Equal(t, hir.SetLit{Elems: []hir.Expr{hir.IntLit{Value: 1}}},
		parseExprString(t, `e: {kind: "set", elems: [{kind: "int", value: 1}]}`))

	assert.Equal(t, hir.TupleLit{Elems: []hir.Expr{hir.Name{ID: "a"}}},
		parseExprString(t, `e: {kind: "tuple", elems: [{kind: "name", id: "a"}]}`))

	assert.Equal(t,
		hir.DictLit{
			Keys:   []hir.Expr{hir.StringLit{Value: "k"}},
			Values: []hir.Expr{hir.IntLit{Value: 1}},
		},
		parseExprString(t, `e: {kind: "dict", keys: [{kind: "str", value: "k"}], values: [{kind: "int", value: 1}]}`))
}

func TestParseDictArityMismatch(t *testing.T) {
	v := cuecontext.New().CompileString(`e: {kind: "dict", keys: [{kind: "str", value: "k"}], values: []}`)
	_, err := parseExpr(v.LookupPath(cue.ParsePath("e")))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "expr.dict", cerr.Field)
}

func TestParseOperators(t *testing.T) {
	assert.Equal(t,
		hir.Unary{Op: hir.OpNot, Operand: hir.Name{ID: "p"}},
		parseExprString(t, `e: {kind: "unary", op: "not", operand: {kind: "name", id: "p"}}`))

	assert.Equal(t,
		hir.Compare{
			Left: hir.Name{ID: "a"},
			Ops:  []hir.CmpOp{hir.CmpLt, hir.CmpLt},
			Rest: []hir.Expr{hir.Name{ID: "b"}, hir.Name{ID: "c"}},
		},
		parseExprString(t, `e: {kind: "compare", left: {kind: "name", id: "a"}, ops: ["<", "<"], rest: [{kind: "name", id: "b"}, {kind: "name", id: "c"}]}`))

	assert.Equal(t,
		hir.BoolOp{Op: hir.BoolAnd, Values: []hir.Expr{hir.Name{ID: "p"}, hir.Name{ID: "q"}}},
		parseExprString(t, `e: {kind: "boolop", op: "and", values: [{kind: "name", id: "p"}, {kind: "name", id: "q"}]}`))
}

func TestParseCalls(t *testing.T) {
	assert.Equal(t,
		hir.Call{Func: hir.Name{ID: "len"}, Args: []hir.Expr{hir.Name{ID: "xs"}}},
		parseExprString(t, `e: {kind: "call", func: {kind: "name", id: "len"}, args: [{kind: "name", id: "xs"}]}`))

	assert.Equal(t,
		hir.MethodCall{Receiver: hir.Name{ID: "s"}, Method: "upper"},
		parseExprString(t, `e: {kind: "method", receiver: {kind: "name", id: "s"}, method: "upper"}`))
}

func TestParseLambda(t *testing.T) {
	assert.Equal(t,
		hir.Lambda{Params: []string{"x"}, Body: hir.Name{ID: "x"}},
		parseExprString(t, `e: {kind: "lambda", params: ["x"], body: {kind: "name", id: "x"}}`))
}

func TestParseComprehension(t *testing.T) {
	e := parseExprString(t, `e: {
		kind: "comprehension", family: "dict", var: "v"
		iter: {kind: "name", id: "xs"}
		key: {kind: "name", id: "v"}
		elem: {kind: "name", id: "v"}
		cond: {kind: "name", id: "p"}
	}`)
	comp, ok := e.(hir.Comprehension)
	require.True(t, ok)
	assert.Equal(t, hir.CompDict, comp.Kind)
	assert.Equal(t, "v", comp.Var)
	assert.NotNil(t, comp.KeyElem)
	assert.NotNil(t, comp.Cond)
}

func TestParseComprehensionUnknownFamily(t *testing.T) {
	v := cuecontext.New().CompileString(`e: {kind: "comprehension", family: "frozenset", var: "v", iter: {kind: "name", id: "xs"}, elem: {kind: "name", id: "v"}}`)
	_, err := parseExpr(v.LookupPath(cue.ParsePath("e")))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, "frozenset")
}

func TestParseConditionalAndFString(t *testing.T) {
	assert.Equal(t,
		hir.IfExp{Cond: hir.Name{ID: "p"}, Body: hir.IntLit{Value: 1}, Orelse: hir.IntLit{Value: 0}},
		parseExprString(t, `e: {kind: "ifexp", cond: {kind: "name", id: "p"}, body: {kind: "int", value: 1}, orelse: {kind: "int", value: 0}}`))

	assert.Equal(t,
		hir.FString{Parts: []hir.Expr{hir.StringLit{Value: "n = "}, hir.Name{ID: "n"}}},
		parseExprString(t, `e: {kind: "fstring", parts: [{kind: "str", value: "n = "}, {kind: "name", id: "n"}]}`))
}

func TestParseStarred(t *testing.T) {
	assert.Equal(t,
		hir.Starred{Operand: hir.Name{ID: "rest"}},
		parseExprString(t, `e: {kind: "starred", operand: {kind: "name", id: "rest"}}`))
}

func TestParseUnknownKind(t *testing.T) {
	v := cuecontext.New().CompileString(`e: {kind: "walrus"}`)
	_, err := parseExpr(v.LookupPath(cue.ParsePath("e")))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "expr.kind", cerr.Field)
	assert.Contains(t, cerr.Message, "walrus")
}

func TestParseMissingKind(t *testing.T) {
	v := cuecontext.New().CompileString(`e: {value: 1}`)
	_, err := parseExpr(v.LookupPath(cue.ParsePath("e")))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "expr.kind", cerr.Field)
}
