package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalEmpty(t *testing.T) {
	data, err := MarshalCanonical(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMarshalCanonicalFixedKeyOrder(t *testing.T) {
	data, err := MarshalCanonical([]Decision{{
		Category:     CategoryMethod,
		Name:         "str.upper",
		Chosen:       "to_uppercase",
		Alternatives: []string{"to_uppercase", "generic-method"},
		Confidence:   1.0,
	}})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"alternatives":["to_uppercase","generic-method"],"category":"MethodRewrite","chosen":"to_uppercase","confidence_bp":100,"name":"str.upper"}]`,
		string(data))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// Decomposed e + combining acute normalizes to the precomposed form.
	data, err := MarshalCanonical([]Decision{{
		Category:   CategoryCoercion,
		Name:       "é",
		Chosen:     "x",
		Confidence: 0.5,
	}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "é")
	assert.NotContains(t, string(data), "é")
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical([]Decision{{
		Category:   CategoryOperator,
		Name:       "cmp",
		Chosen:     "a < b && c > d",
		Confidence: 1.0,
	}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a < b && c > d"`)
	assert.NotContains(t, string(data), `\u003c`)
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	decisions := []Decision{
		{Category: CategoryTypeMapping, Name: "x", Chosen: "i64", Alternatives: []string{"i64", "i32"}, Confidence: 0.9},
		{Category: CategoryContainment, Name: "in_list", Chosen: "contains", Confidence: 1.0},
	}
	a, err := MarshalCanonical(decisions)
	require.NoError(t, err)
	b, err := MarshalCanonical(decisions)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConfidenceBasisPoints(t *testing.T) {
	assert.Equal(t, 100, ConfidenceBasisPoints(1.0))
	assert.Equal(t, 70, ConfidenceBasisPoints(0.7))
	assert.Equal(t, 50, ConfidenceBasisPoints(0.5))
	assert.Equal(t, 0, ConfidenceBasisPoints(-0.2))
	assert.Equal(t, 100, ConfidenceBasisPoints(1.7))
}
