package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// lowerList emits a typed vector when every element refines to one
// concrete type, and a vector of tagged values otherwise; the fallback
// type never leaks when evidence is sufficient.
func (c *Context) lowerList(n hir.ListLit) (rust.Expr, error) {
	if len(n.Elems) == 0 {
		return rust.VecLit(), nil
	}
	if c.elemTag(n.Elems).IsKnown() {
		elems, err := c.lowerAll(n.Elems)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryTypeMapping, "list_literal", "typed-vec",
			altNames("typed-vec", "tagged-vec"), 1.0)
		return rust.VecLit(elems...), nil
	}
	elems, err := c.lowerAllTagged(n.Elems)
	if err != nil {
		return rust.Expr{}, err
	}
	c.record(trace.CategoryTypeMapping, "list_literal", "tagged-vec",
		altNames("typed-vec", "tagged-vec"), 1.0)
	return rust.VecLit(elems...), nil
}

// lowerSet emits a typed hash set for homogeneous elements and a set of
// tagged values otherwise.
func (c *Context) lowerSet(n hir.SetLit) (rust.Expr, error) {
	homogeneous := c.elemTag(n.Elems).IsKnown()
	var elems []rust.Expr
	var err error
	if homogeneous {
		elems, err = c.lowerAll(n.Elems)
	} else {
		elems, err = c.lowerAllTagged(n.Elems)
	}
	if err != nil {
		return rust.Expr{}, err
	}
	chosen := "typed-set"
	if !homogeneous {
		chosen = "tagged-set"
	}
	c.record(trace.CategoryTypeMapping, "set_literal", chosen,
		altNames("typed-set", "tagged-set"), 1.0)
	return rust.Call(rust.Atom("HashSet::from"), rust.ArrayLit(elems...)), nil
}

// lowerDict emits a typed hash map when key and value types are uniform
// and a tagged-value map otherwise.
func (c *Context) lowerDict(n hir.DictLit) (rust.Expr, error) {
	if len(n.Keys) != len(n.Values) {
		return rust.Expr{}, errInternal("dict literal with %d keys and %d values", len(n.Keys), len(n.Values))
	}
	if len(n.Keys) == 0 {
		return rust.Call(rust.Atom("HashMap::new")), nil
	}

	if c.elemTag(n.Keys).IsKnown() && c.elemTag(n.Values).IsKnown() {
		pairs := make([]rust.Expr, len(n.Keys))
		for i := range n.Keys {
			k, err := c.lowerOperand(n.Keys[i])
			if err != nil {
				return rust.Expr{}, err
			}
			if lit, ok := n.Keys[i].(hir.StringLit); ok {
				k = rust.MethodCall(rust.StrLit(lit.Value), "to_string")
			}
			v, err := c.lowerOperand(n.Values[i])
			if err != nil {
				return rust.Expr{}, err
			}
			if lit, ok := n.Values[i].(hir.StringLit); ok {
				v = rust.MethodCall(rust.StrLit(lit.Value), "to_string")
			}
			pairs[i] = rust.Tuple(k, v)
		}
		c.record(trace.CategoryTypeMapping, "dict_literal", "typed-map",
			altNames("typed-map", "tagged-map"), 1.0)
		return rust.Call(rust.Atom("HashMap::from"), rust.ArrayLit(pairs...)), nil
	}

	pairs := make([]rust.Expr, len(n.Keys))
	for i := range n.Keys {
		k, err := c.lowerTagged(n.Keys[i])
		if err != nil {
			return rust.Expr{}, err
		}
		v, err := c.lowerTagged(n.Values[i])
		if err != nil {
			return rust.Expr{}, err
		}
		pairs[i] = rust.Tuple(k, v)
	}
	c.record(trace.CategoryTypeMapping, "dict_literal", "tagged-map",
		altNames("typed-map", "tagged-map"), 1.0)
	return rust.Call(rust.Atom("Value::Dict"), rust.VecLit(pairs...)), nil
}

// lowerTuple emits a target tuple.
func (c *Context) lowerTuple(n hir.TupleLit) (rust.Expr, error) {
	elems, err := c.lowerAll(n.Elems)
	if err != nil {
		return rust.Expr{}, err
	}
	return rust.Tuple(elems...), nil
}

func (c *Context) lowerAll(elems []hir.Expr) ([]rust.Expr, error) {
	out := make([]rust.Expr, len(elems))
	for i, e := range elems {
		lowered, err := c.lowerOperand(e)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

func (c *Context) lowerAllTagged(elems []hir.Expr) ([]rust.Expr, error) {
	out := make([]rust.Expr, len(elems))
	for i, e := range elems {
		lowered, err := c.lowerTagged(e)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

// lowerTagged lowers an element and wraps it into the tagged value type
// based on literal shape or type evidence. Expressions with no evidence
// pass through unchanged: at runtime they are tagged already.
func (c *Context) lowerTagged(e hir.Expr) (rust.Expr, error) {
	switch lit := e.(type) {
	case hir.IntLit:
		return rust.Call(rust.Atom("Value::Int"), rust.Atomf("%d", lit.Value)), nil
	case hir.FloatLit:
		return rust.Call(rust.Atom("Value::Float"), rust.Atom(floatText(lit))), nil
	case hir.StringLit:
		return rust.Call(rust.Atom("Value::Str"),
			rust.MethodCall(rust.StrLit(lit.Value), "to_string")), nil
	case hir.BoolLit:
		if lit.Value {
			return rust.Call(rust.Atom("Value::Bool"), rust.Atom("true")), nil
		}
		return rust.Call(rust.Atom("Value::Bool"), rust.Atom("false")), nil
	case hir.NoneLit:
		return rust.Atom("Value::None"), nil
	}
	out, err := c.lowerOperand(e)
	if err != nil {
		return rust.Expr{}, err
	}
	switch c.typeOf(e).Kind {
	case evidence.KindInt, evidence.KindFloat, evidence.KindBool:
		return rust.Call(rust.Atom("Value::from"), out), nil
	case evidence.KindStr:
		return rust.Call(rust.Atom("Value::from"), rust.MethodCall(out, "clone")), nil
	}
	return out, nil
}
