package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "add_one.cue", addOneUnit)
	writeTempFile(t, dir, "passing.yaml", `
name: passing
description: native int addition
units:
  - add_one.cue
expect:
  - unit: add_one
    rust: "a + 1"
`)
	writeTempFile(t, dir, "failing.yaml", `
name: failing
description: deliberately wrong expectation
units:
  - add_one.cue
expect:
  - unit: add_one
    rust: "a + 9"
`)

	result, err := RunDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].ScenarioPath, "failing.yaml")
}

func TestRunDirEmpty(t *testing.T) {
	_, err := RunDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files found")
}
