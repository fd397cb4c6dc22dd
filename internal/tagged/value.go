// Package tagged models the runtime value representation the transpiler
// emits into target code when no static type is known.
//
// The Go model here is the reference semantics: equality, hashing, ordering,
// arithmetic, truthiness, and iteration follow exactly the laws the emitted
// runtime implements. The dispatcher uses it to classify literals and the
// property tests use it to check the laws; the emitted runtime itself lives
// in the embedded sources returned by RuntimeSource.
package tagged

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// Kind is the value discriminant.
type Kind uint8

const (
	KNone Kind = iota
	KBool
	KInt
	KFloat
	KStr
	KList
	KTuple
	KDict
)

// Pair is a dict entry. Dicts preserve insertion order.
type Pair struct {
	Key Value
	Val Value
}

// Value is the closed sum standing in for a heterogeneous source value.
// The zero Value is None.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	b     bool
	s     string
	elems []Value
	pairs []Pair
}

// None is the none value.
var None = Value{}

func Bool(b bool) Value      { return Value{kind: KBool, b: b} }
func Int(i int64) Value      { return Value{kind: KInt, i: i} }
func Float(f float64) Value  { return Value{kind: KFloat, f: f} }
func Str(s string) Value     { return Value{kind: KStr, s: s} }
func List(vs ...Value) Value { return Value{kind: KList, elems: vs} }
func Tuple(vs ...Value) Value {
	return Value{kind: KTuple, elems: vs}
}

// Dict builds a dict from pairs, keeping insertion order and replacing
// earlier entries on key collision.
func Dict(pairs ...Pair) Value {
	d := Value{kind: KDict}
	for _, p := range pairs {
		d.setKey(p.Key, p.Val)
	}
	return d
}

// Kind returns the discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports the none variant.
func (v Value) IsNone() bool { return v.kind == KNone }

// Equal is structural per variant. Float equality compares bit patterns,
// so NaN equals NaN. Cross-variant comparison is false, with no Int↔Float
// bridging: equality must agree with Hash.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KNone:
		return true
	case KBool:
		return v.b == o.b
	case KInt:
		return v.i == o.i
	case KFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KStr:
		return v.s == o.s
	case KList, KTuple:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KDict:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for _, p := range v.pairs {
			got, ok := o.lookup(p.Key)
			if !ok || !got.Equal(p.Val) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash includes the discriminant; floats hash by bit pattern; a dict
// contributes only its discriminant (coarse but law-abiding).
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	v.feed(h)
	return h.Sum64()
}

type hasher interface{ Write(p []byte) (int, error) }

func (v Value) feed(h hasher) {
	h.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KBool:
		if v.b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KInt:
		writeU64(h, uint64(v.i))
	case KFloat:
		writeU64(h, math.Float64bits(v.f))
	case KStr:
		h.Write([]byte(v.s))
	case KList, KTuple:
		for _, e := range v.elems {
			e.feed(h)
		}
	case KDict:
		// discriminant only
	}
}

func writeU64(h hasher, u uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	h.Write(buf[:])
}

// Cmp is a total order within compatible variants: Int↔Float compare via
// float, None is least; across incompatible variants the order is
// undefined and ties to 0.
func (v Value) Cmp(o Value) int {
	if v.kind == KNone && o.kind == KNone {
		return 0
	}
	if v.kind == KNone {
		return -1
	}
	if o.kind == KNone {
		return 1
	}
	if v.isNumber() && o.isNumber() {
		a, b := v.AsFloat(), o.AsFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	if v.kind == KStr && o.kind == KStr {
		return strings.Compare(v.s, o.s)
	}
	if (v.kind == KList && o.kind == KList) || (v.kind == KTuple && o.kind == KTuple) {
		n := len(v.elems)
		if len(o.elems) < n {
			n = len(o.elems)
		}
		for i := 0; i < n; i++ {
			if c := v.elems[i].Cmp(o.elems[i]); c != 0 {
				return c
			}
		}
		return len(v.elems) - len(o.elems)
	}
	if v.kind == KBool && o.kind == KBool {
		return btoi(v.b) - btoi(o.b)
	}
	return 0
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (v Value) isNumber() bool {
	return v.kind == KInt || v.kind == KFloat || v.kind == KBool
}

// AsInt coerces: Int as-is, Float truncates, Bool 1/0, Str parsed decimal
// or 0, everything else 0.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KInt:
		return v.i
	case KFloat:
		return int64(v.f)
	case KBool:
		return int64(btoi(v.b))
	case KStr:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return n
		}
		return 0
	}
	return 0
}

// AsFloat coerces: Int and Float as-is, Bool 1.0/0.0, Str parsed or 0.0,
// everything else 0.0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KInt:
		return float64(v.i)
	case KFloat:
		return v.f
	case KBool:
		return float64(btoi(v.b))
	case KStr:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f
		}
		return 0
	}
	return 0
}

// IsTrue is the truthiness predicate: zero numbers, empty containers and
// strings, and None are falsy.
func (v Value) IsTrue() bool {
	switch v.kind {
	case KNone:
		return false
	case KBool:
		return v.b
	case KInt:
		return v.i != 0
	case KFloat:
		return v.f != 0
	case KStr:
		return v.s != ""
	case KList, KTuple:
		return len(v.elems) != 0
	case KDict:
		return len(v.pairs) != 0
	}
	return true
}

// Len is the length of Str/List/Tuple/Dict; other variants yield 0.
func (v Value) Len() int {
	switch v.kind {
	case KStr:
		return len([]rune(v.s))
	case KList, KTuple:
		return len(v.elems)
	case KDict:
		return len(v.pairs)
	}
	return 0
}

// IndexSeq returns element i of a sequence. Out-of-bounds access panics
// with a contextual message; this mirrors the single deliberate panic
// surface of the emitted runtime.
func (v Value) IndexSeq(i int) Value {
	if v.kind != KList && v.kind != KTuple {
		return None
	}
	if i < 0 || i >= len(v.elems) {
		panic(fmt.Sprintf("tagged: index %d out of range for len %d", i, len(v.elems)))
	}
	return v.elems[i]
}

// Get returns the dict value for key, reporting presence.
func (v Value) Get(key Value) (Value, bool) {
	if v.kind != KDict {
		return None, false
	}
	return v.lookup(key)
}

func (v Value) lookup(key Value) (Value, bool) {
	for _, p := range v.pairs {
		if p.Key.Equal(key) {
			return p.Val, true
		}
	}
	return None, false
}

func (v *Value) setKey(key, val Value) {
	for i, p := range v.pairs {
		if p.Key.Equal(key) {
			v.pairs[i].Val = val
			return
		}
	}
	v.pairs = append(v.pairs, Pair{Key: key, Val: val})
}

// Iter yields elements for List/Tuple, keys for Dict, single-character
// strings for Str, and nothing for scalars.
func (v Value) Iter() []Value {
	switch v.kind {
	case KList, KTuple:
		out := make([]Value, len(v.elems))
		copy(out, v.elems)
		return out
	case KDict:
		out := make([]Value, len(v.pairs))
		for i, p := range v.pairs {
			out[i] = p.Key
		}
		return out
	case KStr:
		var out []Value
		for _, r := range v.s {
			out = append(out, Str(string(r)))
		}
		return out
	}
	return nil
}

// String renders scalars canonically and containers in a debug-like form.
func (v Value) String() string {
	switch v.kind {
	case KNone:
		return "None"
	case KBool:
		if v.b {
			return "True"
		}
		return "False"
	case KInt:
		return strconv.FormatInt(v.i, 10)
	case KFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KStr:
		return v.s
	case KList, KTuple:
		open, close := "[", "]"
		if v.kind == KTuple {
			open, close = "(", ")"
		}
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.debug()
		}
		return open + strings.Join(parts, ", ") + close
	case KDict:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = p.Key.debug() + ": " + p.Val.debug()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "None"
}

func (v Value) debug() string {
	if v.kind == KStr {
		return strconv.Quote(v.s)
	}
	return v.String()
}
