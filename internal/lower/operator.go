package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// taggedTraitMethod maps arithmetic operators to the tagged-value trait
// surface.
var taggedTraitMethod = map[hir.BinOp]string{
	hir.OpAdd: "py_add",
	hir.OpSub: "py_sub",
	hir.OpMul: "py_mul",
	hir.OpDiv: "py_div",
	hir.OpMod: "py_mod",
}

// lowerBinary chooses between typed native ops, coercive casts, container
// ops, and tagged-value trait ops for a binary operator application.
func (c *Context) lowerBinary(n hir.Binary) (rust.Expr, error) {
	// List-repetition shortcut fires before any tagged-value wrapping so a
	// static list size never regresses into runtime values.
	if n.Op == hir.OpMul {
		if out, ok, err := c.listRepeat(n.Left, n.Right); ok || err != nil {
			return out, err
		}
	}

	lt, rt := c.typeOf(n.Left), c.typeOf(n.Right)

	// Tagged-value fast path: arithmetic only, never comparisons. Preferred
	// in minimal-runtime mode even when typed native ops would work, and in
	// full mode when an operand flows out of a tagged container.
	if method, ok := taggedTraitMethod[n.Op]; ok && c.wantTagged(n.Left, n.Right, lt, rt) {
		return c.taggedArith(n, method)
	}

	switch n.Op {
	case hir.OpAdd:
		return c.lowerAdd(n, lt, rt)
	case hir.OpSub:
		return c.lowerSub(n, lt, rt)
	case hir.OpMul:
		return c.lowerMul(n, lt, rt)
	case hir.OpDiv:
		return c.lowerDiv(n, lt, rt)
	case hir.OpFloorDiv:
		return c.lowerFloorDiv(n, lt, rt)
	case hir.OpPow:
		return c.lowerPow(n, lt, rt)
	case hir.OpMod:
		return c.nativeBinary("%", n.Left, n.Right, lt, rt)
	case hir.OpBitOr, hir.OpBitAnd, hir.OpBitXor:
		return c.lowerSetOrBitwise(n, lt, rt)
	case hir.OpShl:
		return c.nativeBinary("<<", n.Left, n.Right, lt, rt)
	case hir.OpShr:
		return c.nativeBinary(">>", n.Left, n.Right, lt, rt)
	}
	return rust.Expr{}, errInternal("unknown binary operator %q", string(n.Op))
}

// wantTagged decides the trait-dispatch path. Containers, strings, and
// paths keep their dedicated lowerings in every mode.
func (c *Context) wantTagged(l, r hir.Expr, lt, rt evidence.Tag) bool {
	structural := func(t evidence.Tag) bool {
		switch t.Kind {
		case evidence.KindList, evidence.KindTuple, evidence.KindSet,
			evidence.KindDict, evidence.KindStr, evidence.KindBytes,
			evidence.KindPathLike:
			return true
		}
		return false
	}
	if structural(lt) || structural(rt) {
		return false
	}
	if c.MinimalRuntime {
		return true
	}
	return c.fromTaggedContainer(l, lt) || c.fromTaggedContainer(r, rt)
}

// fromTaggedContainer reports a subscript of a dict whose value type never
// refined, i.e. an expression that is a tagged value at runtime.
func (c *Context) fromTaggedContainer(e hir.Expr, t evidence.Tag) bool {
	if t.IsKnown() {
		return false
	}
	sub, ok := e.(hir.Subscript)
	return ok && c.typeOf(sub.Receiver).Kind == evidence.KindDict
}

// taggedArith emits lhs.py_op(rhs). Integer literals get a width suffix;
// an inner trait result gets an explicit type ascription so chained
// operations anchor inference.
func (c *Context) taggedArith(n hir.Binary, method string) (rust.Expr, error) {
	lhs, err := c.taggedOperand(n.Left)
	if err != nil {
		return rust.Expr{}, err
	}
	rhs, err := c.taggedOperand(n.Right)
	if err != nil {
		return rust.Expr{}, err
	}
	c.record(trace.CategoryOperator, "arith_"+method, "tagged-trait",
		altNames("tagged-trait", "native-infix"), 0.9)
	out := rust.MethodCall(lhs, method, rhs)
	// Tagged division in an int-returning function converts back to int.
	if method == "py_div" && c.ReturnType.Kind == evidence.KindInt {
		c.record(trace.CategoryCoercion, "tagged_div_to_int", "as_int",
			altNames("as_int", "leave-tagged"), 0.9)
		out = rust.MethodCall(out, "as_int")
	}
	return out, nil
}

func (c *Context) taggedOperand(e hir.Expr) (rust.Expr, error) {
	if lit, ok := e.(hir.IntLit); ok {
		return intSuffixed(lit.Value), nil
	}
	out, err := c.lower(e)
	if err != nil {
		return rust.Expr{}, err
	}
	out = c.propagate(e, out)
	// Chained trait dispatch: ascribe the inner result.
	if inner, ok := e.(hir.Binary); ok {
		if _, tagged := taggedTraitMethod[inner.Op]; tagged && c.wantTagged(inner.Left, inner.Right, c.typeOf(inner.Left), c.typeOf(inner.Right)) {
			out = rust.Ascribe(out, "Value")
		}
	}
	return out, nil
}

// listRepeat handles `[e] * n` and `n * [e]`.
func (c *Context) listRepeat(l, r hir.Expr) (rust.Expr, bool, error) {
	list, count := l, r
	if _, ok := count.(hir.ListLit); ok {
		list, count = r, l
	}
	lit, ok := list.(hir.ListLit)
	if !ok || len(lit.Elems) != 1 {
		return rust.Expr{}, false, nil
	}
	if !c.typeOf(count).IsNumeric() && !c.typeOf(count).IsKnown() {
		return rust.Expr{}, false, nil
	}
	elem, err := c.lower(lit.Elems[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	var size rust.Expr
	if n, isLit := count.(hir.IntLit); isLit && n.Value >= 0 {
		size = rust.Atomf("%d", n.Value)
	} else {
		counted, err := c.lower(count)
		if err != nil {
			return rust.Expr{}, true, err
		}
		// Negative counts clamp to zero before the usize conversion.
		size = rust.Cast(rust.MethodCall(counted, "max", rust.Atom("0")), "usize")
	}
	c.record(trace.CategoryOperator, "mul_list_repeat", "vec-of-n-copies",
		altNames("vec-of-n-copies", "generic-mul"), 1.0)
	return rust.VecRepeat(elem, size), true, nil
}

func (c *Context) lowerAdd(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	switch {
	case lt.Kind == evidence.KindList || rt.Kind == evidence.KindList:
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "add_list_concat", "chain-collect",
			altNames("chain-collect", "tagged-trait"), 1.0)
		chained := rust.MethodCall(
			rust.MethodCall(rust.MethodCall(lhs, "iter"), "cloned"),
			"chain",
			rust.MethodCall(rust.MethodCall(rhs, "iter"), "cloned"),
		)
		return rust.TypedMethodCall(chained, "collect", "Vec<_>"), nil
	case lt.Kind == evidence.KindStr || rt.Kind == evidence.KindStr ||
		c.isCharIterName(n.Left) || c.isCharIterName(n.Right):
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "add_string_concat", "format-macro",
			altNames("format-macro", "push_str"), 1.0)
		return rust.MacroCall("format", rust.Atom(`"{}{}"`), lhs, rhs), nil
	case lt.Kind == evidence.KindPathLike && rt.Kind == evidence.KindStr:
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.MethodCall(lhs, "join", rhs), nil
	}
	return c.nativeBinary("+", n.Left, n.Right, lt, rt)
}

func (c *Context) lowerSub(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	// len(x) has an unsigned target type; subtraction saturates instead of
	// underflowing.
	if isLenCall(n.Left) {
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "sub_from_len", "saturating-sub",
			altNames("saturating-sub", "native-sub"), 1.0)
		return rust.MethodCall(lhs, "saturating_sub", rhs), nil
	}
	return c.nativeBinary("-", n.Left, n.Right, lt, rt)
}

func (c *Context) lowerMul(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	// String and byte-string repetition; the list case fired earlier.
	str, count := n.Left, n.Right
	if !isStringLit(str) {
		if _, ok := str.(hir.BytesLit); !ok {
			str, count = n.Right, n.Left
		}
	}
	if c.typeOf(count).Kind == evidence.KindInt {
		switch s := str.(type) {
		case hir.StringLit:
			counted, err := c.lower(count)
			if err != nil {
				return rust.Expr{}, err
			}
			c.record(trace.CategoryOperator, "mul_string_repeat", "repeat",
				altNames("repeat", "generic-mul"), 1.0)
			return rust.MethodCall(rust.StrLit(s.Value), "repeat",
				rust.Cast(rust.MethodCall(counted, "max", rust.Atom("0")), "usize")), nil
		case hir.BytesLit:
			counted, err := c.lower(count)
			if err != nil {
				return rust.Expr{}, err
			}
			return rust.MethodCall(rust.ByteStrLit(s.Value), "repeat",
				rust.Cast(rust.MethodCall(counted, "max", rust.Atom("0")), "usize")), nil
		}
	}
	return c.nativeBinary("*", n.Left, n.Right, lt, rt)
}

func (c *Context) lowerDiv(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	if lt.Kind == evidence.KindPathLike && rt.Kind == evidence.KindStr {
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "div_path_join", "path-join",
			altNames("path-join", "native-div"), 1.0)
		return rust.MethodCall(lhs, "join", rhs), nil
	}
	wantsFloat := lt.Kind == evidence.KindFloat || rt.Kind == evidence.KindFloat ||
		c.ReturnType.Kind == evidence.KindFloat
	if wantsFloat {
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "div_float", "cast-both-f64",
			altNames("cast-both-f64", "native-div"), 1.0)
		return rust.Binary("/", c.castFloat(n.Left, lhs, lt), c.castFloat(n.Right, rhs, rt)), nil
	}
	return c.nativeBinary("/", n.Left, n.Right, lt, rt)
}

func (c *Context) castFloat(e hir.Expr, emitted rust.Expr, t evidence.Tag) rust.Expr {
	if t.Kind == evidence.KindFloat {
		return emitted
	}
	if lit, ok := e.(hir.IntLit); ok {
		return rust.Atom(floatLitText(lit.Value))
	}
	return rust.Cast(emitted, "f64")
}

// lowerFloorDiv emits the mathematically-correct floor; native truncation
// disagrees with the source on negative quotients.
func (c *Context) lowerFloorDiv(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
	if err != nil {
		return rust.Expr{}, err
	}
	if lt.Kind == evidence.KindFloat || rt.Kind == evidence.KindFloat {
		c.record(trace.CategoryOperator, "floordiv_float", "div-then-floor",
			altNames("div-then-floor", "div_euclid"), 1.0)
		quotient := rust.Binary("/", c.castFloat(n.Left, lhs, lt), c.castFloat(n.Right, rhs, rt))
		return rust.MethodCall(quotient, "floor"), nil
	}
	// div_euclid floors toward the dividend sign, not the divisor's, so it
	// drifts from the source on negative divisors (7 // -2). Truncate, then
	// pull the quotient back one when the remainder and signs disagree.
	c.record(trace.CategoryOperator, "floordiv_int", "trunc-and-adjust",
		altNames("trunc-and-adjust", "div_euclid", "native-trunc-div"), 1.0)
	adjusted := rust.IfElse(
		rust.Raw("__a % __b != 0 && (__a < 0) != (__b < 0)", rust.PrecAnd),
		rust.Atom("__q - 1"),
		rust.Atom("__q"),
	)
	return rust.Block([]string{
		"let (__a, __b) = (" + lhs.Render() + ", " + rhs.Render() + ");",
		"let __q = __a / __b;",
	}, adjusted), nil
}

func (c *Context) lowerPow(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	lhs, err := c.lowerOperand(n.Left)
	if err != nil {
		return rust.Expr{}, err
	}
	floaty := lt.Kind == evidence.KindFloat || rt.Kind == evidence.KindFloat

	if exp, ok := n.Right.(hir.IntLit); ok && !floaty {
		if exp.Value >= 0 {
			c.record(trace.CategoryOperator, "pow_int_literal", "checked-pow",
				altNames("checked-pow", "float-pow"), 1.0)
			return rust.MethodCall(
				rust.MethodCall(lhs, "checked_pow", rust.Atomf("%du32", exp.Value)),
				"expect", rust.Atom(`"integer power overflow"`)), nil
		}
		c.record(trace.CategoryOperator, "pow_negative_literal", "float-pow",
			altNames("checked-pow", "float-pow"), 1.0)
		return rust.MethodCall(rust.Cast(lhs, "f64"), "powf",
			rust.Atom(floatLitText(exp.Value))), nil
	}

	rhs, err := c.lowerOperand(n.Right)
	if err != nil {
		return rust.Expr{}, err
	}
	if floaty {
		c.record(trace.CategoryOperator, "pow_float", "float-pow",
			altNames("float-pow"), 1.0)
		return rust.MethodCall(c.castFloat(n.Left, lhs, lt), "powf",
			c.castFloat(n.Right, rhs, rt)), nil
	}
	// Non-literal exponent: runtime choice between integer and float power
	// based on sign and overflow bound, yielding the float type.
	c.record(trace.CategoryOperator, "pow_dynamic", "runtime-choice",
		altNames("runtime-choice", "checked-pow", "float-pow"), 0.7)
	choice := rust.IfElse(
		rust.Raw("__e >= 0 && __e <= u32::MAX as i64", rust.PrecAnd),
		rust.Cast(rust.MethodCall(
			rust.MethodCall(rust.Paren(lhs), "checked_pow", rust.Atom("__e as u32")),
			"expect", rust.Atom(`"integer power overflow"`)), "f64"),
		rust.MethodCall(rust.Cast(lhs, "f64"), "powf", rust.Atom("__e as f64")),
	)
	return rust.Block([]string{"let __e = " + rhs.Render() + ";"}, choice), nil
}

// lowerSetOrBitwise resolves the |, &, ^ family: set algebra when both
// sides are evidently sets, dict merge for `|` with a dict side, native
// bitwise otherwise.
func (c *Context) lowerSetOrBitwise(n hir.Binary, lt, rt evidence.Tag) (rust.Expr, error) {
	if lt.Kind == evidence.KindSet && rt.Kind == evidence.KindSet {
		return c.lowerSetOp(n)
	}
	if n.Op == hir.OpBitOr && (lt.Kind == evidence.KindDict || rt.Kind == evidence.KindDict) {
		lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
		if err != nil {
			return rust.Expr{}, err
		}
		confidence := 1.0
		if lt.Kind != evidence.KindDict || rt.Kind != evidence.KindDict {
			// Mixed operands fall through to dict merge with reduced
			// confidence; audits review these.
			confidence = 0.7
		}
		c.record(trace.CategoryOperator, "bitor_dict_merge", "clone-extend",
			altNames("clone-extend", "set-union", "native-bitor"), confidence)
		merged := rust.Block([]string{
			"let mut __m = " + rust.MethodCall(lhs, "clone").Render() + ";",
			rust.MethodCall(rust.Atom("__m"), "extend", rust.MethodCall(rhs, "clone")).Render() + ";",
		}, rust.Atom("__m"))
		return merged, nil
	}
	if (lt.Kind == evidence.KindSet) != (rt.Kind == evidence.KindSet) {
		// One evidently-set operand against a non-set one: keep the native
		// bitwise form but log it at reduced confidence for audits.
		c.record(trace.CategoryOperator, "bitop_mixed_set", "native-bitwise",
			altNames("native-bitwise", "set-op"), 0.7)
	}
	return c.nativeBinary(string(n.Op), n.Left, n.Right, lt, rt)
}

func (c *Context) lowerSetOp(n hir.Binary) (rust.Expr, error) {
	lhs, rhs, err := c.lowerOperands(n.Left, n.Right)
	if err != nil {
		return rust.Expr{}, err
	}
	var method string
	switch n.Op {
	case hir.OpBitOr:
		method = "union"
	case hir.OpBitAnd:
		method = "intersection"
	case hir.OpBitXor:
		method = "symmetric_difference"
	default:
		return rust.Expr{}, errInternal("set operator %q has no container op", string(n.Op))
	}
	c.record(trace.CategoryOperator, "set_"+method, "container-op",
		altNames("container-op", "native-bitwise"), 1.0)
	out := rust.MethodCall(rust.MethodCall(lhs, method, rust.Ref(rhs)), "cloned")
	return rust.TypedMethodCall(out, "collect", "HashSet<_>"), nil
}

// nativeBinary is the final fallback: native infix with precedence-aware
// parenthesization and int↔float coercion.
func (c *Context) nativeBinary(op string, l, r hir.Expr, lt, rt evidence.Tag) (rust.Expr, error) {
	lhs, rhs, err := c.lowerOperands(l, r)
	if err != nil {
		return rust.Expr{}, err
	}
	lhs = c.coerceNumeric(l, lhs, rt)
	rhs = c.coerceNumeric(r, rhs, lt)
	return rust.Binary(op, lhs, rhs), nil
}

// lowerOperand lowers one operand and applies fallibility propagation.
func (c *Context) lowerOperand(e hir.Expr) (rust.Expr, error) {
	out, err := c.lower(e)
	if err != nil {
		return rust.Expr{}, err
	}
	return c.propagate(e, out), nil
}

func (c *Context) lowerOperands(l, r hir.Expr) (rust.Expr, rust.Expr, error) {
	lhs, err := c.lowerOperand(l)
	if err != nil {
		return rust.Expr{}, rust.Expr{}, err
	}
	rhs, err := c.lowerOperand(r)
	if err != nil {
		return rust.Expr{}, rust.Expr{}, err
	}
	return lhs, rhs, nil
}

// lowerUnary lowers -, +, ~ and not.
func (c *Context) lowerUnary(n hir.Unary) (rust.Expr, error) {
	operand, err := c.lowerOperand(n.Operand)
	if err != nil {
		return rust.Expr{}, err
	}
	switch n.Op {
	case hir.OpNeg:
		return rust.Unary("-", operand), nil
	case hir.OpUAdd:
		return operand, nil
	case hir.OpInvert:
		return rust.Unary("!", operand), nil
	case hir.OpNot:
		if c.typeOf(n.Operand).Kind == evidence.KindBool {
			return rust.Unary("!", operand), nil
		}
		c.record(trace.CategoryOperator, "not_truthiness", "is_true-negation",
			altNames("is_true-negation", "native-not"), 1.0)
		return rust.Unary("!", rust.MethodCall(operand, "is_true")), nil
	}
	return rust.Expr{}, errInternal("unknown unary operator %q", string(n.Op))
}

// lowerCompare lowers a possibly-chained comparison to &&-joined pairwise
// tests; middle operands are re-emitted (the input is restricted to pure
// expressions).
func (c *Context) lowerCompare(n hir.Compare) (rust.Expr, error) {
	if len(n.Ops) == 0 || len(n.Ops) != len(n.Rest) {
		return rust.Expr{}, errInternal("comparison with %d operators and %d operands", len(n.Ops), len(n.Rest))
	}
	out, err := c.lowerCmpPair(n.Ops[0], n.Left, n.Rest[0])
	if err != nil {
		return rust.Expr{}, err
	}
	for i := 1; i < len(n.Ops); i++ {
		next, err := c.lowerCmpPair(n.Ops[i], n.Rest[i-1], n.Rest[i])
		if err != nil {
			return rust.Expr{}, err
		}
		out = rust.Binary("&&", out, next)
	}
	return out, nil
}

func (c *Context) lowerCmpPair(op hir.CmpOp, l, r hir.Expr) (rust.Expr, error) {
	switch op {
	case hir.CmpIn, hir.CmpNotIn:
		return c.lowerContains(op, l, r)
	case hir.CmpIs, hir.CmpIsNot:
		return c.lowerIdentity(op, l, r)
	}

	// Comparison against an empty-list literal becomes an emptiness test;
	// comparing against an untyped empty vector is ambiguous on the target.
	if isEmptyListLit(r) && (op == hir.CmpEq || op == hir.CmpNe) {
		lhs, err := c.lowerOperand(l)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "cmp_empty_list", "is_empty",
			altNames("is_empty", "native-eq"), 1.0)
		test := rust.MethodCall(lhs, "is_empty")
		if op == hir.CmpNe {
			test = rust.Unary("!", test)
		}
		return test, nil
	}

	lt, rt := c.typeOf(l), c.typeOf(r)

	// Exactly one Optional side unwraps with a side-appropriate default.
	if lt.Kind == evidence.KindOptional && rt.Kind != evidence.KindOptional {
		lhs, rhs, err := c.lowerOperands(l, r)
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.Binary(string(op), c.unwrapOptional(lhs, lt.Elem(0), op), rhs), nil
	}
	if rt.Kind == evidence.KindOptional && lt.Kind != evidence.KindOptional {
		lhs, rhs, err := c.lowerOperands(l, r)
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.Binary(string(op), lhs, c.unwrapOptional(rhs, rt.Elem(0), op.Negate())), nil
	}

	// Char-iteration variables compared to single-character literals use a
	// char literal on the other side.
	if c.isCharIterName(l) {
		if r0, ok := singleCharLit(r); ok {
			lhs, err := c.lowerOperand(l)
			if err != nil {
				return rust.Expr{}, err
			}
			c.record(trace.CategoryCoercion, "char_literal_comparison", "char-literal",
				altNames("char-literal", "string-slice"), 1.0)
			return rust.Binary(string(op), lhs, rust.CharLit(r0)), nil
		}
	}
	if c.isCharIterName(r) {
		if l0, ok := singleCharLit(l); ok {
			rhs, err := c.lowerOperand(r)
			if err != nil {
				return rust.Expr{}, err
			}
			return rust.Binary(string(op), rust.CharLit(l0), rhs), nil
		}
	}

	lhs, rhs, err := c.lowerOperands(l, r)
	if err != nil {
		return rust.Expr{}, err
	}

	// String comparisons go through the string-slice form on both sides.
	if lt.Kind == evidence.KindStr && rt.Kind == evidence.KindStr {
		return rust.Binary(string(op), asStrSlice(l, lhs), asStrSlice(r, rhs)), nil
	}

	lhs = c.derefBorrowed(l, lhs)
	rhs = c.derefBorrowed(r, rhs)
	lhs = c.coerceNumeric(l, lhs, rt)
	rhs = c.coerceNumeric(r, rhs, lt)
	return rust.Binary(string(op), lhs, rhs), nil
}

// lowerIdentity lowers `is`/`is not`. Identity against the none literal is
// an Option test; other identity comparisons fall back to equality.
func (c *Context) lowerIdentity(op hir.CmpOp, l, r hir.Expr) (rust.Expr, error) {
	operand, noneRight := l, true
	if _, ok := r.(hir.NoneLit); !ok {
		if _, ok := l.(hir.NoneLit); ok {
			operand, noneRight = r, true
		} else {
			noneRight = false
		}
	}
	if noneRight {
		emitted, err := c.lowerOperand(operand)
		if err != nil {
			return rust.Expr{}, err
		}
		method := "is_none"
		if op == hir.CmpIsNot {
			method = "is_some"
		}
		c.record(trace.CategoryOperator, "identity_none", method,
			altNames("is_none", "is_some", "native-eq"), 1.0)
		return rust.MethodCall(emitted, method), nil
	}
	eq := hir.CmpEq
	if op == hir.CmpIsNot {
		eq = hir.CmpNe
	}
	c.record(trace.CategoryOperator, "identity_as_equality", string(eq),
		altNames("native-eq", "pointer-identity"), 0.7)
	return c.lowerCmpPair(eq, l, r)
}

// lowerBoolOp compiles the value-returning `and`/`or`.
func (c *Context) lowerBoolOp(n hir.BoolOp) (rust.Expr, error) {
	if len(n.Values) < 2 {
		return rust.Expr{}, errInternal("boolean operator with %d operands", len(n.Values))
	}
	out, err := c.lowerBoolPair(n.Op, n.Values[0], n.Values[1])
	if err != nil {
		return rust.Expr{}, err
	}
	for _, next := range n.Values[2:] {
		// Chains re-associate left; the left value is already lowered, so
		// the generic block form applies from here on.
		rhs, err := c.lowerOperand(next)
		if err != nil {
			return rust.Expr{}, err
		}
		out = c.truthyBlock(n.Op, out, rhs)
	}
	return out, nil
}

func (c *Context) lowerBoolPair(op hir.BoolOpKind, l, r hir.Expr) (rust.Expr, error) {
	lt, rt := c.typeOf(l), c.typeOf(r)

	// some_option or default collapses to the option-with-default form.
	if op == hir.BoolOr && lt.Kind == evidence.KindOptional {
		lhs, err := c.lowerOperand(l)
		if err != nil {
			return rust.Expr{}, err
		}
		rhs, err := c.lowerOperand(r)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "or_option_default", "unwrap_or_else",
			altNames("unwrap_or_else", "truthiness-block"), 1.0)
		if lit, ok := r.(hir.StringLit); ok {
			return rust.MethodCall(lhs, "unwrap_or_else",
				rust.Closure(nil, rust.MethodCall(rust.StrLit(lit.Value), "to_string"), false)), nil
		}
		return rust.MethodCall(lhs, "unwrap_or_else", rust.Closure(nil, rhs, false)), nil
	}

	// maybe_empty_string or fallback collapses to an emptiness-guarded
	// conditional returning the string type.
	if op == hir.BoolOr && lt.Kind == evidence.KindStr {
		lhs, err := c.lowerOperand(l)
		if err != nil {
			return rust.Expr{}, err
		}
		rhs, err := c.lowerOperand(r)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryOperator, "or_string_fallback", "is_empty-conditional",
			altNames("is_empty-conditional", "truthiness-block"), 1.0)
		return rust.IfElse(
			rust.MethodCall(lhs, "is_empty"),
			ownedString(r, rhs),
			ownedString(l, lhs),
		), nil
	}

	if lt.Kind == evidence.KindBool && rt.Kind == evidence.KindBool {
		lhs, rhs, err := c.lowerOperands(l, r)
		if err != nil {
			return rust.Expr{}, err
		}
		native := "&&"
		if op == hir.BoolOr {
			native = "||"
		}
		return rust.Binary(native, lhs, rhs), nil
	}

	lhs, rhs, err := c.lowerOperands(l, r)
	if err != nil {
		return rust.Expr{}, err
	}
	c.record(trace.CategoryOperator, "boolop_value_returning", "truthiness-block",
		altNames("truthiness-block", "native-shortcircuit"), 1.0)
	return c.truthyBlock(op, lhs, rhs), nil
}

// truthyBlock binds the left value and yields it or the right expression
// by truthiness, preserving "or returns the first truthy value" and "and
// returns the first falsy value".
func (c *Context) truthyBlock(op hir.BoolOpKind, lhs, rhs rust.Expr) rust.Expr {
	test := rust.MethodCall(rust.Atom("__t"), "is_true")
	if op == hir.BoolAnd {
		test = rust.Unary("!", test)
	}
	return rust.Block(
		[]string{"let __t = " + lhs.Render() + ";"},
		rust.IfElse(test, rust.Atom("__t"), rhs),
	)
}
