package trace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderUnitToken(t *testing.T) {
	r := NewRecorder()
	token, err := uuid.Parse(r.Unit())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), token.Version())

	// Fresh recorders get fresh tokens.
	assert.NotEqual(t, r.Unit(), NewRecorder().Unit())
}

func TestRecorderAppendsInOrder(t *testing.T) {
	r := NewRecorder()
	r.Record(CategoryOperator, "add", "native-infix", []string{"native-infix"}, 1.0)
	r.Record(CategoryMethod, "list.append", "push", []string{"push", "generic"}, 1.0)
	r.Record(CategoryCoercion, "int_to_float", "cast-f64", nil, 0.9)

	decisions := r.Decisions()
	require.Len(t, decisions, 3)
	assert.Equal(t, "add", decisions[0].Name)
	assert.Equal(t, "list.append", decisions[1].Name)
	assert.Equal(t, "int_to_float", decisions[2].Name)
	assert.InDelta(t, 0.9, decisions[2].Confidence, 1e-9)
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	r.Record(CategoryOperator, "x", "y", nil, 1.0)
	assert.Empty(t, r.Decisions())
	assert.Equal(t, "", r.Unit())
}
