package tagged

import "math"

// Arithmetic on tagged values is total: non-applicable operand combinations
// yield None, division by zero yields None. Int op Float promotes to Float.

// Add adds numbers, concatenates strings, and yields None otherwise.
func (v Value) Add(o Value) Value {
	switch {
	case v.kind == KInt && o.kind == KInt:
		return Int(v.i + o.i)
	case v.isNumber() && o.isNumber():
		return Float(v.AsFloat() + o.AsFloat())
	case v.kind == KStr && o.kind == KStr:
		return Str(v.s + o.s)
	}
	return None
}

// Sub subtracts numbers and yields None otherwise.
func (v Value) Sub(o Value) Value {
	switch {
	case v.kind == KInt && o.kind == KInt:
		return Int(v.i - o.i)
	case v.isNumber() && o.isNumber():
		return Float(v.AsFloat() - o.AsFloat())
	}
	return None
}

// Mul multiplies numbers and yields None otherwise.
func (v Value) Mul(o Value) Value {
	switch {
	case v.kind == KInt && o.kind == KInt:
		return Int(v.i * o.i)
	case v.isNumber() && o.isNumber():
		return Float(v.AsFloat() * o.AsFloat())
	}
	return None
}

// Div divides numbers; division by zero yields None.
func (v Value) Div(o Value) Value {
	if !v.isNumber() || !o.isNumber() {
		return None
	}
	if v.kind == KInt && o.kind == KInt {
		if o.i == 0 {
			return None
		}
		return Int(v.i / o.i)
	}
	d := o.AsFloat()
	if d == 0 {
		return None
	}
	return Float(v.AsFloat() / d)
}

// Mod takes the remainder; a zero divisor yields None.
func (v Value) Mod(o Value) Value {
	if !v.isNumber() || !o.isNumber() {
		return None
	}
	if v.kind == KInt && o.kind == KInt {
		if o.i == 0 {
			return None
		}
		return Int(v.i % o.i)
	}
	d := o.AsFloat()
	if d == 0 {
		return None
	}
	return Float(math.Mod(v.AsFloat(), d))
}

// Neg negates numbers and yields None otherwise.
func (v Value) Neg() Value {
	switch v.kind {
	case KInt:
		return Int(-v.i)
	case KFloat:
		return Float(-v.f)
	case KBool:
		return Int(-int64(btoi(v.b)))
	}
	return None
}

// Not is logical negation of truthiness; it always produces a Bool.
func (v Value) Not() Value { return Bool(!v.IsTrue()) }

// Bitwise operators apply on the int variant only; other combinations
// yield None.

func (v Value) BitAnd(o Value) Value {
	if v.kind == KInt && o.kind == KInt {
		return Int(v.i & o.i)
	}
	return None
}

func (v Value) BitOr(o Value) Value {
	if v.kind == KInt && o.kind == KInt {
		return Int(v.i | o.i)
	}
	return None
}

func (v Value) BitXor(o Value) Value {
	if v.kind == KInt && o.kind == KInt {
		return Int(v.i ^ o.i)
	}
	return None
}
