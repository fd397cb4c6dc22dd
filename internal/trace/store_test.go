package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func recordedUnit() *Recorder {
	r := NewRecorder()
	r.Record(CategoryOperator, "add_string_concat", "format-macro", []string{"format-macro", "push_str"}, 1.0)
	r.Record(CategoryMethod, "json.loads", "stub-json_loads", []string{"stub-json_loads", "serde_json"}, 0.5)
	return r
}

func TestStoreFlushAndReadUnit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := recordedUnit()
	require.NoError(t, s.Flush(ctx, r))

	decisions, err := s.ReadUnit(ctx, r.Unit())
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	assert.Equal(t, CategoryOperator, decisions[0].Category)
	assert.Equal(t, "add_string_concat", decisions[0].Name)
	assert.Equal(t, "format-macro", decisions[0].Chosen)
	assert.Equal(t, []string{"format-macro", "push_str"}, decisions[0].Alternatives)
	assert.InDelta(t, 1.0, decisions[0].Confidence, 1e-9)

	assert.Equal(t, "json.loads", decisions[1].Name)
	assert.InDelta(t, 0.5, decisions[1].Confidence, 1e-9)
}

func TestStoreFlushIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := recordedUnit()
	require.NoError(t, s.Flush(ctx, r))
	require.NoError(t, s.Flush(ctx, r))

	decisions, err := s.ReadUnit(ctx, r.Unit())
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}

func TestStoreFlushNilRecorder(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Flush(context.Background(), nil))
}

func TestStoreReadUnknownUnit(t *testing.T) {
	s := openTestStore(t)
	decisions, err := s.ReadUnit(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.NotNil(t, decisions)
	assert.Empty(t, decisions)
}

func TestStoreCategoryCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r1 := recordedUnit()
	require.NoError(t, s.Flush(ctx, r1))

	r2 := NewRecorder()
	r2.Record(CategoryOperator, "floordiv_int", "trunc-and-adjust", nil, 1.0)
	require.NoError(t, s.Flush(ctx, r2))

	counts, err := s.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[CategoryOperator])
	assert.Equal(t, 1, counts[CategoryMethod])
	assert.Zero(t, counts[CategoryCoercion])
}

func TestStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	r := recordedUnit()
	require.NoError(t, s.Flush(ctx, r))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	decisions, err := s2.ReadUnit(ctx, r.Unit())
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}
