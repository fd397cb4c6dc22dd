package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "units.cue", goodUnits)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ok: 2 unit(s) in 1 file(s)")
}

func TestValidateCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "units.cue", `package units

units: {
	fine: {expr: {kind: "int", value: 1}}
	bad_name: {expr: {kind: "name", id: "a-b"}}
}
`)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "bad_name [E104]")
	assert.Contains(t, out.String(), "1 passed, 1 failed")
}
