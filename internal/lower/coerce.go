package lower

import (
	"strconv"
	"strings"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// floatLitText renders an integer literal in target float form ("3" → "3.0").
func floatLitText(v int64) string {
	return strconv.FormatInt(v, 10) + ".0"
}

// floatText renders a float literal, preserving the source spelling when
// one was recorded and forcing a decimal point otherwise so the target
// always reads it as a float.
func floatText(lit hir.FloatLit) string {
	if lit.Text != "" {
		return lit.Text
	}
	s := strconv.FormatFloat(lit.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// coerceNumeric applies the int↔float coercion rules to one side of a
// binary operator: when the other side is evidently float, an integer
// literal on this side is rewritten in float form and an integer
// non-literal gets an explicit cast.
func (c *Context) coerceNumeric(e hir.Expr, emitted rust.Expr, otherTag evidence.Tag) rust.Expr {
	if otherTag.Kind != evidence.KindFloat {
		return emitted
	}
	if lit, ok := e.(hir.IntLit); ok {
		c.record(trace.CategoryCoercion, "int_literal_to_float", "float-literal",
			altNames("float-literal", "cast"), 1.0)
		return rust.Atom(floatLitText(lit.Value))
	}
	if c.typeOf(e).Kind == evidence.KindInt {
		c.record(trace.CategoryCoercion, "int_expr_to_float", "cast",
			altNames("float-literal", "cast"), 1.0)
		return rust.Cast(emitted, "f64")
	}
	return emitted
}

// derefBorrowed auto-dereferences identifiers flagged as borrowed
// references, avoiding &T vs T mismatches at comparison sites.
func (c *Context) derefBorrowed(e hir.Expr, emitted rust.Expr) rust.Expr {
	if n, ok := e.(hir.Name); ok && c.Evidence.IsBorrowed(n.ID) {
		return rust.Deref(emitted)
	}
	return emitted
}

// unwrapOptional unwraps the Optional side of a comparison with a
// side-appropriate default: max for "<", min for ">", the neutral default
// for equality. A missing value then never wins an ordering test.
func (c *Context) unwrapOptional(emitted rust.Expr, elem evidence.Tag, op hir.CmpOp) rust.Expr {
	var def string
	switch op {
	case hir.CmpLt, hir.CmpLe:
		def = maxOf(elem)
	case hir.CmpGt, hir.CmpGe:
		def = minOf(elem)
	default:
		return rust.MethodCall(emitted, "unwrap_or_default")
	}
	c.record(trace.CategoryCoercion, "optional_comparison_unwrap", def,
		altNames("unwrap_or_default", def), 0.9)
	return rust.MethodCall(emitted, "unwrap_or", rust.Atom(def))
}

func maxOf(t evidence.Tag) string {
	if t.Kind == evidence.KindFloat {
		return "f64::INFINITY"
	}
	return "i64::MAX"
}

func minOf(t evidence.Tag) string {
	if t.Kind == evidence.KindFloat {
		return "f64::NEG_INFINITY"
	}
	return "i64::MIN"
}

// propagate applies the short-circuit error-propagation form to a
// sub-expression that may fail, inside a fallible function. Cast operands
// are parenthesized by the builder before `?` is attached ("cast then
// propagate" parses incorrectly otherwise).
func (c *Context) propagate(e hir.Expr, emitted rust.Expr) rust.Expr {
	if c.Fallible && c.isFallibleExpr(e) {
		return rust.Try(emitted)
	}
	return emitted
}

// ownedString lifts an emitted string-typed expression to the owned
// string form: literals gain .to_string(), everything else defers to
// to_string() as well so both arms of a conditional agree on one type.
func ownedString(e hir.Expr, emitted rust.Expr) rust.Expr {
	return rust.MethodCall(emitted, "to_string")
}

// singleCharLit reports a one-character string literal and its rune, the
// shape that rewrites into a target char literal when compared against a
// char-iteration variable.
func singleCharLit(e hir.Expr) (rune, bool) {
	lit, ok := e.(hir.StringLit)
	if !ok {
		return 0, false
	}
	runes := []rune(lit.Value)
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}

// isEmptyListLit reports a `[]` literal operand.
func isEmptyListLit(e hir.Expr) bool {
	l, ok := e.(hir.ListLit)
	return ok && len(l.Elems) == 0
}

// isStringLit reports any string literal operand.
func isStringLit(e hir.Expr) bool {
	_, ok := e.(hir.StringLit)
	return ok
}

// isLenCall reports the `len(x)` builtin call shape; its lowering has an
// unsigned target type, so subtraction from it must saturate.
func isLenCall(e hir.Expr) bool {
	call, ok := e.(hir.Call)
	if !ok {
		return false
	}
	name, ok := call.Func.(hir.Name)
	return ok && name.ID == "len" && len(call.Args) == 1
}

// intSuffixed renders an integer literal with an explicit width suffix,
// anchoring inference where several trait implementations could apply.
func intSuffixed(v int64) rust.Expr {
	return rust.Atom(strconv.FormatInt(v, 10) + "i64")
}

// isCharIterName reports a char-iteration identifier.
func (c *Context) isCharIterName(e hir.Expr) bool {
	n, ok := e.(hir.Name)
	return ok && c.Evidence.IsCharIter(n.ID)
}

// asStrSlice converts a string-typed operand to the string-slice form for
// comparisons: literals are already slices; other expressions call
// .as_str().
func asStrSlice(e hir.Expr, emitted rust.Expr) rust.Expr {
	if isStringLit(e) {
		return emitted
	}
	return rust.MethodCall(emitted, "as_str")
}

// fstringEscape doubles literal braces for the target format macro.
func fstringEscape(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}
