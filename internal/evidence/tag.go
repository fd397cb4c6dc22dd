package evidence

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a statically known type.
type Kind int

const (
	// KindUnknown means no evidence exists; every lookup miss resolves here.
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindBytes
	KindNone
	KindList
	KindDict
	KindSet
	KindTuple
	KindOptional
	KindPathLike
	KindDate
	KindDateTime
	KindTimeDelta
	KindRegexMatch
	KindNativeArray
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindInt:         "int",
	KindFloat:       "float",
	KindBool:        "bool",
	KindStr:         "str",
	KindBytes:       "bytes",
	KindNone:        "none",
	KindList:        "list",
	KindDict:        "dict",
	KindSet:         "set",
	KindTuple:       "tuple",
	KindOptional:    "optional",
	KindPathLike:    "path",
	KindDate:        "date",
	KindDateTime:    "datetime",
	KindTimeDelta:   "timedelta",
	KindRegexMatch:  "regexmatch",
	KindNativeArray: "nativearray",
}

// String returns the canonical lowercase name used in CUE documents and
// decision records.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Tag is a type assertion about an identifier, attribute, or subexpression.
// Container kinds carry element tags; Tuple carries one tag per position.
//
// Tags are values, copied freely, never mutated after construction.
type Tag struct {
	Kind Kind
	// Elems holds element tags: one for List/Set/Optional, two (key, value)
	// for Dict, one per position for Tuple. Empty for scalars.
	Elems []Tag
}

// Unknown is the conservative default returned on every evidence miss.
var Unknown = Tag{Kind: KindUnknown}

// Scalar constructors. Container tags are built with ListOf and friends so
// the element arity is always right.

func IntTag() Tag       { return Tag{Kind: KindInt} }
func FloatTag() Tag     { return Tag{Kind: KindFloat} }
func BoolTag() Tag      { return Tag{Kind: KindBool} }
func StrTag() Tag       { return Tag{Kind: KindStr} }
func BytesTag() Tag     { return Tag{Kind: KindBytes} }
func NoneTag() Tag      { return Tag{Kind: KindNone} }
func PathTag() Tag      { return Tag{Kind: KindPathLike} }
func DateTag() Tag      { return Tag{Kind: KindDate} }
func DateTimeTag() Tag  { return Tag{Kind: KindDateTime} }
func TimeDeltaTag() Tag { return Tag{Kind: KindTimeDelta} }

// ListOf returns a list tag with the given element tag.
func ListOf(elem Tag) Tag { return Tag{Kind: KindList, Elems: []Tag{elem}} }

// SetOf returns a set tag with the given element tag.
func SetOf(elem Tag) Tag { return Tag{Kind: KindSet, Elems: []Tag{elem}} }

// DictOf returns a dict tag with the given key and value tags.
func DictOf(key, val Tag) Tag { return Tag{Kind: KindDict, Elems: []Tag{key, val}} }

// TupleOf returns a tuple tag with one tag per position.
func TupleOf(elems ...Tag) Tag { return Tag{Kind: KindTuple, Elems: elems} }

// OptionalOf returns an optional tag wrapping elem.
func OptionalOf(elem Tag) Tag { return Tag{Kind: KindOptional, Elems: []Tag{elem}} }

// Elem returns the element tag at position i, or Unknown when absent.
func (t Tag) Elem(i int) Tag {
	if i < 0 || i >= len(t.Elems) {
		return Unknown
	}
	return t.Elems[i]
}

// Key returns the key tag of a dict, or Unknown.
func (t Tag) Key() Tag { return t.Elem(0) }

// Value returns the value tag of a dict, or Unknown.
func (t Tag) Value() Tag {
	if t.Kind == KindDict {
		return t.Elem(1)
	}
	return Unknown
}

// Is reports whether the tag has the given kind.
func (t Tag) Is(k Kind) bool { return t.Kind == k }

// IsKnown reports whether any evidence exists at all.
func (t Tag) IsKnown() bool { return t.Kind != KindUnknown }

// IsNumeric reports int or float evidence.
func (t Tag) IsNumeric() bool { return t.Kind == KindInt || t.Kind == KindFloat }

// IsSequence reports list or tuple evidence.
func (t Tag) IsSequence() bool { return t.Kind == KindList || t.Kind == KindTuple }

// Equal reports structural tag equality.
func (t Tag) Equal(o Tag) bool {
	if t.Kind != o.Kind || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// String renders the tag in the form used by decision records, e.g.
// "list[str]" or "dict[str,int]".
func (t Tag) String() string {
	if len(t.Elems) == 0 {
		return t.Kind.String()
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return t.Kind.String() + "[" + strings.Join(parts, ",") + "]"
}

// ParseKind maps a canonical name back to its Kind. Unrecognized names
// resolve to KindUnknown rather than failing; evidence is advisory.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// ParseTag parses the canonical syntax produced by Tag.String, e.g.
// "list[str]" or "dict[str,int]". Malformed input degrades to Unknown;
// evidence is advisory, never load-bearing for correctness.
func ParseTag(s string) Tag {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return Tag{Kind: ParseKind(s)}
	}
	if !strings.HasSuffix(s, "]") {
		return Unknown
	}
	k := ParseKind(s[:open])
	if k == KindUnknown {
		return Unknown
	}
	var elems []Tag
	for _, part := range splitTopLevel(s[open+1 : len(s)-1]) {
		elems = append(elems, ParseTag(part))
	}
	return Tag{Kind: k, Elems: elems}
}

// splitTopLevel splits on commas outside nested brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	return parts
}
