package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// lowerSubscript lowers receiver[index].
func (c *Context) lowerSubscript(n hir.Subscript) (rust.Expr, error) {
	recvTag := c.typeOf(n.Receiver)
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, err
	}

	if recvTag.Kind == evidence.KindDict {
		return c.lowerDictIndex(n, recv, recvTag)
	}

	// Negative literal index on a sequence computes from the end with a
	// saturating subtraction, never underflowing the unsigned length.
	if lit, ok := n.Index.(hir.IntLit); ok && lit.Value < 0 {
		c.record(trace.CategoryContainment, "index_negative", "len-saturating-sub",
			altNames("len-saturating-sub", "signed-index"), 1.0)
		at := rust.MethodCall(rust.MethodCall(recv, "len"),
			"saturating_sub", rust.Atomf("%d", -lit.Value))
		return rust.Index(recv, at), nil
	}

	idx, err := c.lowerOperand(n.Index)
	if err != nil {
		return rust.Expr{}, err
	}
	if c.typeOf(n.Index).Kind == evidence.KindInt {
		if _, isLit := n.Index.(hir.IntLit); !isLit {
			idx = rust.Cast(idx, "usize")
		}
	}
	return rust.Index(recv, idx), nil
}

// lowerDictIndex emits dict.get with tagged key wrapping when the value
// type never refined, unwrapping to the none value as the default.
func (c *Context) lowerDictIndex(n hir.Subscript, recv rust.Expr, recvTag evidence.Tag) (rust.Expr, error) {
	taggedDict := !recvTag.Value().IsKnown()

	var key rust.Expr
	switch idx := n.Index.(type) {
	case hir.IntLit:
		if taggedDict {
			key = rust.Call(rust.Atom("Value::Int"), rust.Atomf("%d", idx.Value))
		} else {
			key = rust.Atomf("%d", idx.Value)
		}
	case hir.StringLit:
		if taggedDict {
			key = rust.Call(rust.Atom("Value::Str"),
				rust.MethodCall(rust.StrLit(idx.Value), "to_string"))
		} else {
			key = rust.StrLit(idx.Value)
		}
	default:
		lowered, err := c.lowerOperand(n.Index)
		if err != nil {
			return rust.Expr{}, err
		}
		key = lowered
	}

	get := rust.MethodCall(rust.MethodCall(recv, "get", rust.Ref(key)), "cloned")
	if taggedDict {
		c.record(trace.CategoryContainment, "index_tagged_dict", "get-unwrap-none",
			altNames("get-unwrap-none", "index-op"), 1.0)
		return rust.MethodCall(get, "unwrap_or", rust.Atom("Value::None")), nil
	}
	c.record(trace.CategoryContainment, "index_typed_dict", "get-unwrap",
		altNames("get-unwrap", "index-op"), 1.0)
	return rust.MethodCall(get, "unwrap"), nil
}

// lowerSlice lowers receiver[a:b] and receiver[a:b:c] with len-based bound
// normalization; out-of-range bounds clamp to empty instead of panicking.
// A step that is not a positive integer literal is rejected here.
func (c *Context) lowerSlice(n hir.SliceExpr) (rust.Expr, error) {
	step := int64(1)
	if n.Step != nil {
		lit, ok := n.Step.(hir.IntLit)
		if !ok {
			return rust.Expr{}, errMalformed("slice step must be an integer literal")
		}
		if lit.Value <= 0 {
			return rust.Expr{}, errMalformed("slice step must be positive, got %d", lit.Value)
		}
		step = lit.Value
	}

	recvTag := c.typeOf(n.Receiver)
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, err
	}

	lo, err := c.sliceBound(n.Low, rust.Atom("0"))
	if err != nil {
		return rust.Expr{}, err
	}
	hi, err := c.sliceBound(n.High, rust.Atom("__n"))
	if err != nil {
		return rust.Expr{}, err
	}

	stmts := []string{
		"let __n = " + rust.Cast(rust.MethodCall(recv, "len"), "i64").Render() + ";",
		"let __a = " + normalizeBound(lo).Render() + ";",
		"let __b = " + rust.MethodCall(normalizeBound(hi), "max", rust.Atom("__a")).Render() + ";",
	}

	var body rust.Expr
	if recvTag.Kind == evidence.KindStr {
		c.record(trace.CategoryContainment, "slice_string", "chars-skip-take",
			altNames("chars-skip-take", "byte-range"), 0.9)
		body = rust.MethodCall(
			rust.MethodCall(rust.MethodCall(recv, "chars"),
				"skip", rust.Atom("__a as usize")),
			"take", rust.Atom("(__b - __a) as usize"))
		body = sliceStepped(body, step)
		body = rust.TypedMethodCall(body, "collect", "String")
	} else {
		c.record(trace.CategoryContainment, "slice_sequence", "normalized-range",
			altNames("normalized-range", "native-range"), 1.0)
		ranged := rust.Index(recv, rust.Raw("__a as usize..__b as usize", rust.PrecRange))
		if step == 1 {
			body = rust.MethodCall(ranged, "to_vec")
		} else {
			body = sliceStepped(rust.MethodCall(rust.MethodCall(ranged, "iter"), "cloned"), step)
			body = rust.TypedMethodCall(body, "collect", "Vec<_>")
		}
	}
	return rust.Block(stmts, body), nil
}

func sliceStepped(iter rust.Expr, step int64) rust.Expr {
	if step == 1 {
		return iter
	}
	return rust.MethodCall(iter, "step_by", rust.Atomf("%d", step))
}

func (c *Context) sliceBound(e hir.Expr, absent rust.Expr) (rust.Expr, error) {
	if e == nil {
		return absent, nil
	}
	return c.lowerOperand(e)
}

// normalizeBound maps a possibly-negative bound to len-relative space and
// clamps into [0, len] without branches that could panic.
func normalizeBound(bound rust.Expr) rust.Expr {
	adjusted := rust.IfElse(
		rust.Binary("<", rust.Paren(bound), rust.Atom("0")),
		rust.Binary("+", bound, rust.Atom("__n")),
		bound,
	)
	return rust.MethodCall(adjusted, "clamp", rust.Atom("0"), rust.Atom("__n"))
}
