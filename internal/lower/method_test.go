package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

func listCtx() *Context {
	return testContext(evidence.NewBuilder().
		Var("xs", evidence.ListOf(evidence.IntTag())).
		Var("ys", evidence.ListOf(evidence.IntTag())).
		Var("fs", evidence.ListOf(evidence.FloatTag())).
		Var("i", evidence.IntTag()).
		Freeze())
}

func listCall(method string, args ...hir.Expr) hir.MethodCall {
	return hir.MethodCall{Receiver: hir.Name{ID: "xs"}, Method: method, Args: args}
}

func TestListAppend(t *testing.T) {
	c := listCtx()
	assert.Equal(t, "xs.push(1)", mustLower(t, c, listCall("append", hir.IntLit{Value: 1})))

	d := c.Sink.Decisions()[0]
	assert.Equal(t, "list.append", d.Name)
	assert.Equal(t, "push", d.Chosen)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestListPop(t *testing.T) {
	c := listCtx()
	assert.Equal(t, "xs.pop().unwrap()", mustLower(t, c, listCall("pop")))
	assert.Equal(t, "xs.remove(0)", mustLower(t, c, listCall("pop", hir.IntLit{Value: 0})))
	assert.Equal(t, "xs.remove(i as usize)", mustLower(t, c, listCall("pop", hir.Name{ID: "i"})))
}

func TestListInsertRemoveIndex(t *testing.T) {
	c := listCtx()
	assert.Equal(t, "xs.insert(i as usize, 5)",
		mustLower(t, c, listCall("insert", hir.Name{ID: "i"}, hir.IntLit{Value: 5})))
	assert.Equal(t,
		`xs.remove(xs.iter().position(|__v| *__v == 3).expect("value not found"))`,
		mustLower(t, c, listCall("remove", hir.IntLit{Value: 3})))
	assert.Equal(t, "xs.iter().position(|__v| *__v == 3).unwrap() as i64",
		mustLower(t, c, listCall("index", hir.IntLit{Value: 3})))
	assert.Equal(t, "xs.iter().filter(|__v| **__v == 3).count() as i64",
		mustLower(t, c, listCall("count", hir.IntLit{Value: 3})))
}

func TestListExtend(t *testing.T) {
	c := listCtx()
	assert.Equal(t, "xs.extend(ys.iter().cloned())",
		mustLower(t, c, listCall("extend", hir.Name{ID: "ys"})))
}

func TestListSort(t *testing.T) {
	c := listCtx()
	assert.Equal(t, "xs.sort()", mustLower(t, c, listCall("sort")))

	// Floats have no total order; sort_by with partial_cmp.
	floats := hir.MethodCall{Receiver: hir.Name{ID: "fs"}, Method: "sort"}
	assert.Equal(t, "fs.sort_by(|a, b| a.partial_cmp(b).unwrap())",
		mustLower(t, c, floats))
}

func TestSetMethods(t *testing.T) {
	ev := evidence.NewBuilder().
		Var("st", evidence.SetOf(evidence.IntTag())).
		Var("other", evidence.SetOf(evidence.IntTag())).
		Freeze()
	call := func(method string, args ...hir.Expr) hir.MethodCall {
		return hir.MethodCall{Receiver: hir.Name{ID: "st"}, Method: method, Args: args}
	}

	c := testContext(ev)
	assert.Equal(t, "st.insert(1)", mustLower(t, c, call("add", hir.IntLit{Value: 1})))
	assert.Equal(t, "st.union(&other).cloned().collect::<HashSet<_>>()",
		mustLower(t, c, call("union", hir.Name{ID: "other"})))
	assert.Equal(t,
		"{ let __e = st.iter().next().cloned().unwrap(); st.remove(&__e); __e }",
		mustLower(t, c, call("pop")))

	// discard is exact; remove drops the missing-element error and says so
	// in its confidence.
	c = testContext(ev)
	assert.Equal(t, "st.remove(&1)", mustLower(t, c, call("discard", hir.IntLit{Value: 1})))
	assert.Equal(t, 1.0, c.Sink.Decisions()[0].Confidence)
	assert.Equal(t, "st.remove(&1)", mustLower(t, c, call("remove", hir.IntLit{Value: 1})))
	assert.Equal(t, 0.8, c.Sink.Decisions()[1].Confidence)
}

func TestDictMethods(t *testing.T) {
	c := testContext(evidence.NewBuilder().
		Var("m", evidence.DictOf(evidence.StrTag(), evidence.IntTag())).
		Var("o", evidence.DictOf(evidence.StrTag(), evidence.IntTag())).
		Freeze())
	call := func(method string, args ...hir.Expr) hir.MethodCall {
		return hir.MethodCall{Receiver: hir.Name{ID: "m"}, Method: method, Args: args}
	}

	assert.Equal(t, `m.get(&"k").cloned()`,
		mustLower(t, c, call("get", hir.StringLit{Value: "k"})))
	assert.Equal(t, `m.get(&"k").cloned().unwrap_or(0)`,
		mustLower(t, c, call("get", hir.StringLit{Value: "k"}, hir.IntLit{Value: 0})))
	assert.Equal(t, "m.keys().cloned().collect::<Vec<_>>()", mustLower(t, c, call("keys")))
	assert.Equal(t, "m.values().cloned().collect::<Vec<_>>()", mustLower(t, c, call("values")))
	assert.Equal(t,
		"m.iter().map(|(__k, __v)| (__k.clone(), __v.clone())).collect::<Vec<_>>()",
		mustLower(t, c, call("items")))
	assert.Equal(t, `m.remove(&"k").unwrap()`,
		mustLower(t, c, call("pop", hir.StringLit{Value: "k"})))
	assert.Equal(t, "m.extend(o.clone())", mustLower(t, c, call("update", hir.Name{ID: "o"})))
	assert.Equal(t, `m.entry("k").or_insert(0).clone()`,
		mustLower(t, c, call("setdefault", hir.StringLit{Value: "k"}, hir.IntLit{Value: 0})))
}

func TestDictGetStringDefaultIsOwned(t *testing.T) {
	c := testContext(evidence.NewBuilder().
		Var("m", evidence.DictOf(evidence.StrTag(), evidence.StrTag())).
		Freeze())
	call := hir.MethodCall{
		Receiver: hir.Name{ID: "m"},
		Method:   "get",
		Args:     []hir.Expr{hir.StringLit{Value: "k"}, hir.StringLit{Value: "d"}},
	}
	// The owned default stays behind a closure so the hit path never
	// allocates it.
	assert.Equal(t, `m.get(&"k").cloned().unwrap_or_else(|| "d".to_string())`,
		mustLower(t, c, call))
	d := c.Sink.Decisions()[0]
	assert.Equal(t, "get-unwrap-or-else", d.Chosen)
}

func TestDequeMethods(t *testing.T) {
	// Deque method names are unique; no evidence for dq is needed.
	c := testContext(intVars("v"))
	left := hir.MethodCall{Receiver: hir.Name{ID: "dq"}, Method: "appendleft",
		Args: []hir.Expr{hir.Name{ID: "v"}}}
	assert.Equal(t, "dq.push_front(v)", mustLower(t, c, left))

	pop := hir.MethodCall{Receiver: hir.Name{ID: "dq"}, Method: "popleft"}
	assert.Equal(t, "dq.pop_front().unwrap()", mustLower(t, c, pop))
}

func TestThreadingConstructors(t *testing.T) {
	c := testContext(intVars("n"))
	assert.Equal(t, "std::sync::Mutex::new(())",
		mustLower(t, c, moduleCall("threading", "Lock")))

	// No std counterpart exists for a counting semaphore; the count lives
	// behind a mutex and the reduced confidence flags it for audit.
	c = testContext(intVars("n"))
	assert.Equal(t, "std::sync::Mutex::new(n)",
		mustLower(t, c, moduleCall("threading", "Semaphore", hir.Name{ID: "n"})))
	d := c.Sink.Decisions()[0]
	assert.Equal(t, "mutex-count", d.Chosen)
	assert.Equal(t, 0.7, d.Confidence)

	c = testContext(intVars("n"))
	assert.Equal(t, "std::sync::Mutex::new(1i64)",
		mustLower(t, c, moduleCall("threading", "Semaphore")))
}

func TestQueueAndDequeConstructors(t *testing.T) {
	c := testContext(evidence.NewBuilder().
		Var("xs", evidence.ListOf(evidence.IntTag())).
		Var("n", evidence.IntTag()).
		Freeze())
	assert.Equal(t, "std::collections::VecDeque::new()",
		mustLower(t, c, moduleCall("queue", "Queue")))
	assert.Equal(t, "std::collections::VecDeque::new()",
		mustLower(t, c, moduleCall("collections", "deque")))
	assert.Equal(t, "std::collections::VecDeque::from(xs)",
		mustLower(t, c, moduleCall("collections", "deque", hir.Name{ID: "xs"})))

	// maxsize degrades to a capacity hint; the target type is unbounded.
	c = testContext(intVars("n"))
	assert.Equal(t, "std::collections::VecDeque::with_capacity(n as usize)",
		mustLower(t, c, moduleCall("queue", "Queue", hir.Name{ID: "n"})))
	assert.Equal(t, 0.7, c.Sink.Decisions()[0].Confidence)
}

func TestClassMethodReceiver(t *testing.T) {
	c := testContext(intVars("a"))
	c.InClassMethod = true
	call := hir.MethodCall{Receiver: hir.Name{ID: "cls"}, Method: "create",
		Args: []hir.Expr{hir.Name{ID: "a"}}}
	assert.Equal(t, "Self::create(a)", mustLower(t, c, call))

	// Outside a classmethod, cls is just a receiver.
	c = testContext(intVars("a"))
	assert.Equal(t, "cls.create(a)", mustLower(t, c, call))
}

func TestUppercaseReceiverAssociatedCall(t *testing.T) {
	c := testContext(evidence.NewBuilder().Freeze())
	call := hir.MethodCall{Receiver: hir.Name{ID: "Color"}, Method: "from_hex",
		Args: []hir.Expr{hir.StringLit{Value: "fff"}}}
	assert.Equal(t, `Color::from_hex("fff")`, mustLower(t, c, call))

	d := c.Sink.Decisions()[0]
	assert.Equal(t, "Color.from_hex", d.Name)
	assert.Equal(t, "associated-call", d.Chosen)
}

func TestGenericMethodFallback(t *testing.T) {
	c := testContext(intVars("a"))
	call := hir.MethodCall{Receiver: hir.Name{ID: "obj"}, Method: "compute",
		Args: []hir.Expr{hir.Name{ID: "a"}}}
	assert.Equal(t, "obj.compute(a)", mustLower(t, c, call))
	assert.Empty(t, c.Sink.Decisions())

	// Keyword method names get the raw-identifier escape.
	kw := hir.MethodCall{Receiver: hir.Name{ID: "obj"}, Method: "match"}
	assert.Equal(t, "obj.r#match()", mustLower(t, c, kw))
}

func TestMethodCallErrors(t *testing.T) {
	c := testContext(intVars("a"))

	_, err := Lower(c, hir.MethodCall{Receiver: hir.Name{ID: "obj"}})
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrMalformedOperand, lerr.Kind)

	_, err = Lower(c, hir.MethodCall{Receiver: hir.Name{ID: "obj"}, Method: "not-valid"})
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrInvalidIdentifier, lerr.Kind)

	// Arity violations name the method.
	_, err = Lower(c, hir.MethodCall{Receiver: hir.Name{ID: "xs"}, Method: "appendleft"})
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrUnsupportedArity, lerr.Kind)
}
