package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// lowerContains handles `in` and `not in`. The decision order of needles
// and haystacks is fixed; every branch records why it won.
func (c *Context) lowerContains(op hir.CmpOp, needle, haystack hir.Expr) (rust.Expr, error) {
	out, err := c.containsPositive(needle, haystack)
	if err != nil {
		return rust.Expr{}, err
	}
	if op == hir.CmpNotIn {
		return rust.Unary("!", out), nil
	}
	return out, nil
}

func (c *Context) containsPositive(needle, haystack hir.Expr) (rust.Expr, error) {
	// Membership in the environment namespace is an env-var presence test.
	if attrPath(haystack) == "os.environ" {
		key, err := c.lowerOperand(needle)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_environ", "env-var-is-set",
			altNames("env-var-is-set", "dict-get"), 1.0)
		return rust.MethodCall(
			rust.Call(rust.Atom("std::env::var"), key), "is_ok"), nil
	}

	ht := c.typeOf(haystack)

	// A mutable option-of-dict parameter force-unwraps before the query.
	if ht.Kind == evidence.KindOptional && ht.Elem(0).Kind == evidence.KindDict {
		hs, key, err := c.containsOperands(needle, haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_optional_dict", "unwrap-then-get",
			altNames("unwrap-then-get", "map-contains"), 0.9)
		unwrapped := rust.MethodCall(rust.MethodCall(hs, "as_ref"), "unwrap")
		return rust.MethodCall(rust.MethodCall(unwrapped, "get", rust.Ref(key)), "is_some"), nil
	}

	// Dict-shaped receivers prefer get().is_some(): polymorphic across
	// hash maps and generic JSON-value types.
	if ht.Kind == evidence.KindDict {
		hs, key, err := c.containsOperands(needle, haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_dict", "get-is-some",
			altNames("get-is-some", "contains-key"), 1.0)
		return rust.MethodCall(rust.MethodCall(hs, "get", rust.Ref(key)), "is_some"), nil
	}

	// Tuples wrap into an array slice and use contains.
	if tup, ok := haystack.(hir.TupleLit); ok {
		elems := make([]rust.Expr, len(tup.Elems))
		for i, e := range tup.Elems {
			lowered, err := c.lowerOperand(e)
			if err != nil {
				return rust.Expr{}, err
			}
			elems[i] = lowered
		}
		key, err := c.lowerOperand(needle)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_tuple", "array-slice-contains",
			altNames("array-slice-contains", "chained-eq"), 1.0)
		return rust.MethodCall(rust.ArrayLit(elems...), "contains", rust.Ref(key)), nil
	}

	// Lists of strings bridge the owned/borrowed mismatch with iter().any.
	if list, ok := haystack.(hir.ListLit); ok && len(list.Elems) > 0 && isStringLit(list.Elems[0]) {
		hs, key, err := c.containsOperands(needle, haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_string_list", "iter-any",
			altNames("iter-any", "contains"), 1.0)
		pred := rust.Closure([]string{"s"}, rust.Binary("==", rust.Atom("s"), key), false)
		return rust.MethodCall(rust.MethodCall(hs, "iter"), "any", pred), nil
	}

	// Sets and strings use contains with the appropriate borrow shape.
	if ht.Kind == evidence.KindSet || ht.Kind == evidence.KindStr {
		hs, err := c.lowerOperand(haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		key, err := c.containsNeedle(needle, ht)
		if err != nil {
			return rust.Expr{}, err
		}
		c.record(trace.CategoryContainment, "in_"+ht.Kind.String(), "contains",
			altNames("contains", "iter-any"), 1.0)
		return rust.MethodCall(hs, "contains", key), nil
	}

	// Plain lists: contains(&x), or contains(x) when x is already a
	// borrowed str.
	if ht.Kind == evidence.KindList {
		hs, err := c.lowerOperand(haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		needleOut, err := c.lowerOperand(needle)
		if err != nil {
			return rust.Expr{}, err
		}
		if n, ok := needle.(hir.Name); ok && c.Evidence.IsBorrowed(n.ID) && c.typeOf(needle).Kind == evidence.KindStr {
			c.record(trace.CategoryContainment, "in_list", "contains-borrowed",
				altNames("contains-borrowed", "contains-ref"), 1.0)
			return rust.MethodCall(hs, "contains", needleOut), nil
		}
		c.record(trace.CategoryContainment, "in_list", "contains-ref",
			altNames("contains-borrowed", "contains-ref"), 1.0)
		return rust.MethodCall(hs, "contains", rust.Ref(needleOut)), nil
	}

	// Substring-in-string on an unknown haystack: a string needle swaps the
	// call onto the haystack.
	if c.typeOf(needle).Kind == evidence.KindStr {
		hs, err := c.lowerOperand(haystack)
		if err != nil {
			return rust.Expr{}, err
		}
		needleOut, err := c.lowerOperand(needle)
		if err != nil {
			return rust.Expr{}, err
		}
		if !isStringLit(needle) {
			needleOut = rust.Reborrow(needleOut)
		}
		c.record(trace.CategoryContainment, "in_unknown_string_needle", "haystack-contains",
			altNames("haystack-contains", "contains-ref"), 0.8)
		return rust.MethodCall(hs, "contains", needleOut), nil
	}

	hs, key, err := c.containsOperands(needle, haystack)
	if err != nil {
		return rust.Expr{}, err
	}
	c.record(trace.CategoryContainment, "in_generic", "contains-ref",
		altNames("contains-ref"), 0.7)
	return rust.MethodCall(hs, "contains", rust.Ref(key)), nil
}

// containsNeedle shapes the needle for set/string contains: literals stay
// literals, char-iteration variables pass as chars, everything else
// reborrows.
func (c *Context) containsNeedle(needle hir.Expr, haystack evidence.Tag) (rust.Expr, error) {
	if lit, ok := needle.(hir.StringLit); ok {
		return rust.StrLit(lit.Value), nil
	}
	out, err := c.lowerOperand(needle)
	if err != nil {
		return rust.Expr{}, err
	}
	if c.isCharIterName(needle) {
		return out, nil
	}
	return rust.Reborrow(out), nil
}

func (c *Context) containsOperands(needle, haystack hir.Expr) (rust.Expr, rust.Expr, error) {
	hs, err := c.lowerOperand(haystack)
	if err != nil {
		return rust.Expr{}, rust.Expr{}, err
	}
	key, err := c.lowerOperand(needle)
	if err != nil {
		return rust.Expr{}, rust.Expr{}, err
	}
	return hs, key, nil
}
