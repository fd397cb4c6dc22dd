// Package rust is the thin builder for target-language expression trees.
//
// The lowering core composes expressions through the constructors here and
// never inspects the result; parenthesization is decided at construction
// time from the target operator precedence, so every emitted expression is
// self-contained. Render returns the final text.
package rust

import (
	"fmt"
	"strings"
)

// Prec is a target-side operator precedence level. Higher binds tighter.
type Prec int

const (
	PrecLowest  Prec = 0  // return/closure bodies
	PrecAssign  Prec = 2  // = += ...
	PrecRange   Prec = 4  // .. ..=
	PrecOr      Prec = 6  // ||
	PrecAnd     Prec = 8  // &&
	PrecCompare Prec = 10 // == != < > <= >= (non-associative)
	PrecBitOr   Prec = 12
	PrecBitXor  Prec = 14
	PrecBitAnd  Prec = 16
	PrecShift   Prec = 18
	PrecAdd     Prec = 20
	PrecMul     Prec = 22
	PrecCast    Prec = 24 // as
	PrecUnary   Prec = 26 // - ! * &
	PrecPostfix Prec = 28 // call, method call, field, index, ?
	PrecAtom    Prec = 30 // literals, paths, parenthesized/block forms
)

// binaryPrec maps target infix operators to their precedence.
var binaryPrec = map[string]Prec{
	"||": PrecOr,
	"&&": PrecAnd,
	"==": PrecCompare, "!=": PrecCompare,
	"<": PrecCompare, "<=": PrecCompare, ">": PrecCompare, ">=": PrecCompare,
	"|": PrecBitOr, "^": PrecBitXor, "&": PrecBitAnd,
	"<<": PrecShift, ">>": PrecShift,
	"+": PrecAdd, "-": PrecAdd,
	"*": PrecMul, "/": PrecMul, "%": PrecMul,
}

// Expr is an opaque target expression: rendered text plus the precedence
// of its outermost operator and a cast marker for the cast-then-dot and
// cast-then-? misparse rules.
type Expr struct {
	text   string
	prec   Prec
	isCast bool
}

// Render returns the target source text of the expression.
func (e Expr) Render() string { return e.text }

// IsZero reports whether the expression was never built.
func (e Expr) IsZero() bool { return e.text == "" }

// Atom wraps already-atomic target text: a literal, a path, or any form
// that never needs parentheses.
func Atom(text string) Expr { return Expr{text: text, prec: PrecAtom} }

// Atomf is Atom with formatting.
func Atomf(format string, args ...any) Expr {
	return Atom(fmt.Sprintf(format, args...))
}

// Raw wraps arbitrary target text at an explicit precedence, for composed
// forms the other constructors do not cover.
func Raw(text string, prec Prec) Expr { return Expr{text: text, prec: prec} }

// Paren wraps the expression in explicit parentheses, producing an atom.
func Paren(e Expr) Expr { return Expr{text: "(" + e.text + ")", prec: PrecAtom} }

// parenIfBelow parenthesizes e when its outer operator binds looser than
// min, so the target parser reassociates exactly as the source did.
func parenIfBelow(e Expr, min Prec) string {
	if e.prec < min {
		return "(" + e.text + ")"
	}
	return e.text
}

// parenIfAtMost parenthesizes e when its precedence is at or below min;
// used for right operands of left-associative operators and for the
// non-associative comparison family.
func parenIfAtMost(e Expr, min Prec) string {
	if e.prec <= min {
		return "(" + e.text + ")"
	}
	return e.text
}

// Binary builds `left op right` with precedence-aware parenthesization.
func Binary(op string, left, right Expr) Expr {
	p, ok := binaryPrec[op]
	if !ok {
		p = PrecLowest
	}
	l := parenIfBelow(left, p)
	var r string
	if p == PrecCompare {
		// Comparison does not chain in the target; both sides are kept
		// strictly tighter.
		l = parenIfAtMost(left, p)
		r = parenIfAtMost(right, p)
	} else {
		r = parenIfAtMost(right, p)
	}
	return Expr{text: l + " " + op + " " + r, prec: p}
}

// Unary builds a prefix operator application, e.g. `-x` or `!x`.
func Unary(op string, operand Expr) Expr {
	return Expr{text: op + parenIfBelow(operand, PrecUnary), prec: PrecUnary}
}

// Ref borrows the operand: `&x`.
func Ref(operand Expr) Expr { return Unary("&", operand) }

// RefMut mutably borrows the operand: `&mut x`.
func RefMut(operand Expr) Expr {
	return Expr{text: "&mut " + parenIfBelow(operand, PrecUnary), prec: PrecUnary}
}

// Deref dereferences the operand: `*x`.
func Deref(operand Expr) Expr { return Unary("*", operand) }

// Reborrow produces `&*x`, the canonical reborrow shape.
func Reborrow(operand Expr) Expr {
	return Expr{text: "&*" + parenIfBelow(operand, PrecUnary), prec: PrecUnary}
}

// Cast builds `operand as ty`. The result remembers it is a cast so that
// method-call and try positions can re-wrap it (the target parses
// `x as T.m()` and `x as T?` the wrong way).
func Cast(operand Expr, ty string) Expr {
	return Expr{
		text:   parenIfBelow(operand, PrecCast) + " as " + ty,
		prec:   PrecCast,
		isCast: true,
	}
}

// receiverText renders e for postfix position, wrapping casts and any
// looser-binding form in parentheses.
func receiverText(e Expr) string {
	if e.isCast || e.prec < PrecPostfix {
		return "(" + e.text + ")"
	}
	return e.text
}

// MethodCall builds `recv.name(args...)`; the receiver is cast-wrapped
// when needed.
func MethodCall(recv Expr, name string, args ...Expr) Expr {
	return Expr{
		text: receiverText(recv) + "." + name + "(" + joinArgs(args) + ")",
		prec: PrecPostfix,
	}
}

// TypedMethodCall builds `recv.name::<ty>(args...)`, the turbofish form
// used when the target cannot infer the result type of collect, parse,
// or sum.
func TypedMethodCall(recv Expr, name, ty string, args ...Expr) Expr {
	return Expr{
		text: receiverText(recv) + "." + name + "::<" + ty + ">(" + joinArgs(args) + ")",
		prec: PrecPostfix,
	}
}

// Field builds `recv.name`.
func Field(recv Expr, name string) Expr {
	return Expr{text: receiverText(recv) + "." + name, prec: PrecPostfix}
}

// Call builds `fn(args...)`.
func Call(fn Expr, args ...Expr) Expr {
	return Expr{text: receiverText(fn) + "(" + joinArgs(args) + ")", prec: PrecPostfix}
}

// Index builds `recv[idx]`.
func Index(recv Expr, idx Expr) Expr {
	return Expr{text: receiverText(recv) + "[" + idx.text + "]", prec: PrecPostfix}
}

// Try builds `operand?`, the short-circuit error-propagation form, with the
// cast-wrap rule applied.
func Try(operand Expr) Expr {
	return Expr{text: receiverText(operand) + "?", prec: PrecPostfix}
}

// Tuple builds `(a, b, ...)`; a one-element tuple keeps the trailing comma.
func Tuple(elems ...Expr) Expr {
	if len(elems) == 1 {
		return Expr{text: "(" + elems[0].text + ",)", prec: PrecAtom}
	}
	return Expr{text: "(" + joinArgs(elems) + ")", prec: PrecAtom}
}

// MacroCall builds `name!(args...)`.
func MacroCall(name string, args ...Expr) Expr {
	return Expr{text: name + "!(" + joinArgs(args) + ")", prec: PrecAtom}
}

// VecRepeat builds `vec![elem; n]`.
func VecRepeat(elem, n Expr) Expr {
	return Expr{text: "vec![" + elem.text + "; " + n.text + "]", prec: PrecAtom}
}

// VecLit builds `vec![a, b, ...]`.
func VecLit(elems ...Expr) Expr {
	return Expr{text: "vec![" + joinArgs(elems) + "]", prec: PrecAtom}
}

// ArrayLit builds `[a, b, ...]`.
func ArrayLit(elems ...Expr) Expr {
	return Expr{text: "[" + joinArgs(elems) + "]", prec: PrecAtom}
}

// Block wraps statements and a tail expression into a block expression.
// Statements are rendered verbatim, each terminated by the caller.
func Block(stmts []string, tail Expr) Expr {
	var b strings.Builder
	b.WriteString("{ ")
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteString(" ")
	}
	b.WriteString(tail.text)
	b.WriteString(" }")
	// Block-like expressions need parens in operand and postfix position.
	return Expr{text: b.String(), prec: PrecLowest}
}

// IfElse builds the expression form `if cond { then } else { els }`.
func IfElse(cond, then, els Expr) Expr {
	return Expr{
		text: "if " + cond.text + " { " + then.text + " } else { " + els.text + " }",
		prec: PrecLowest,
	}
}

// Closure builds `|params| body` (or `move |params| body`).
func Closure(params []string, body Expr, capture bool) Expr {
	prefix := ""
	if capture {
		prefix = "move "
	}
	return Expr{
		text: prefix + "|" + strings.Join(params, ", ") + "| " + body.text,
		prec: PrecLowest,
	}
}

// Ascribe builds a typed let-binding block `{ let t: ty = e; t }` used to
// anchor inference on intermediate trait-dispatched results.
func Ascribe(e Expr, ty string) Expr {
	return Expr{
		text: "{ let __t: " + ty + " = " + e.text + "; __t }",
		prec: PrecLowest,
	}
}

// StrLit renders a target string literal with escaping.
func StrLit(s string) Expr { return Atom(QuoteStr(s)) }

// CharLit renders a target char literal.
func CharLit(r rune) Expr {
	switch r {
	case '\'':
		return Atom(`'\''`)
	case '\\':
		return Atom(`'\\'`)
	case '\n':
		return Atom(`'\n'`)
	case '\r':
		return Atom(`'\r'`)
	case '\t':
		return Atom(`'\t'`)
	}
	return Atomf("'%c'", r)
}

// ByteStrLit renders a target byte-string literal.
func ByteStrLit(b []byte) Expr {
	return Atom("b" + QuoteStr(string(b)))
}

// QuoteStr escapes s as a double-quoted target string literal.
func QuoteStr(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func joinArgs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.text
	}
	return strings.Join(parts, ", ")
}
