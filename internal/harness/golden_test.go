package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	dir := t.TempDir()
	unitPath := writeTempFile(t, dir, "add_one.cue", addOneUnit)

	scenario := &Scenario{
		Name:        "golden-basic",
		Description: "pins the snapshot format",
		Units:       []string{unitPath},
		Expect:      []ExpectClause{{Unit: "add_one", Rust: "a + 1"}},
	}

	require.NoError(t, RunWithGolden(t, scenario))
}

func TestBuildSnapshotSkipsDecisionsOnError(t *testing.T) {
	r := NewResult()
	r.Units = append(r.Units, UnitOutcome{Name: "bad", Err: "MALFORMED_OPERAND: boom"})

	snapshot, err := buildSnapshot("errors", r)
	require.NoError(t, err)
	require.Len(t, snapshot.Units, 1)
	assert.Equal(t, "MALFORMED_OPERAND: boom", snapshot.Units[0].Error)
	assert.Nil(t, snapshot.Units[0].Decisions)
}
