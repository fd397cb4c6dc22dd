package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagString(t *testing.T) {
	assert.Equal(t, "int", IntTag().String())
	assert.Equal(t, "list[str]", ListOf(StrTag()).String())
	assert.Equal(t, "dict[str,int]", DictOf(StrTag(), IntTag()).String())
	assert.Equal(t, "tuple[int,str,bool]", TupleOf(IntTag(), StrTag(), BoolTag()).String())
	assert.Equal(t, "optional[str]", OptionalOf(StrTag()).String())
	assert.Equal(t, "list[list[int]]", ListOf(ListOf(IntTag())).String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestParseTagRoundTrip(t *testing.T) {
	for _, tag := range []Tag{
		IntTag(),
		FloatTag(),
		StrTag(),
		PathTag(),
		ListOf(IntTag()),
		SetOf(StrTag()),
		DictOf(StrTag(), ListOf(IntTag())),
		TupleOf(IntTag(), StrTag()),
		OptionalOf(DictOf(StrTag(), IntTag())),
	} {
		parsed := ParseTag(tag.String())
		assert.True(t, parsed.Equal(tag), "round trip of %s gave %s", tag, parsed)
	}
}

func TestParseTagMalformed(t *testing.T) {
	assert.True(t, ParseTag("").Equal(Unknown))
	assert.True(t, ParseTag("list[str").Equal(Unknown))
	assert.True(t, ParseTag("frobnicator").Equal(Unknown))
	assert.True(t, ParseTag("nosuch[int]").Equal(Unknown))
}

func TestParseTagWhitespace(t *testing.T) {
	assert.True(t, ParseTag("  int ").Equal(IntTag()))
	assert.True(t, ParseTag("dict[str, int]").Equal(DictOf(StrTag(), IntTag())))
}

func TestTagAccessors(t *testing.T) {
	d := DictOf(StrTag(), IntTag())
	assert.True(t, d.Key().Is(KindStr))
	assert.True(t, d.Value().Is(KindInt))

	l := ListOf(FloatTag())
	assert.True(t, l.Elem(0).Is(KindFloat))
	assert.True(t, l.Elem(1).Equal(Unknown))
	assert.True(t, l.Elem(-1).Equal(Unknown))

	// Value on a non-dict is Unknown, not the first element.
	assert.True(t, l.Value().Equal(Unknown))
}

func TestTagPredicates(t *testing.T) {
	assert.True(t, IntTag().IsNumeric())
	assert.True(t, FloatTag().IsNumeric())
	assert.False(t, StrTag().IsNumeric())

	assert.True(t, ListOf(Unknown).IsSequence())
	assert.True(t, TupleOf().IsSequence())
	assert.False(t, SetOf(Unknown).IsSequence())

	assert.False(t, Unknown.IsKnown())
	assert.True(t, NoneTag().IsKnown())
}

func TestTagEqual(t *testing.T) {
	assert.True(t, ListOf(IntTag()).Equal(ListOf(IntTag())))
	assert.False(t, ListOf(IntTag()).Equal(ListOf(StrTag())))
	assert.False(t, ListOf(IntTag()).Equal(SetOf(IntTag())))
	assert.False(t, TupleOf(IntTag()).Equal(TupleOf(IntTag(), IntTag())))
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindPathLike, ParseKind("path"))
	assert.Equal(t, KindNativeArray, ParseKind("nativearray"))
	assert.Equal(t, KindUnknown, ParseKind("whatever"))
}
