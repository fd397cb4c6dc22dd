package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUnitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const goodUnits = `package units

units: {
	zebra: {
		evidence: vars: a: "int"
		expr: {
			kind: "binary", op: "+"
			left: {kind: "name", id: "a"}
			right: {kind: "int", value: 1}
		}
	}
	alpha: {
		expr: {kind: "str", value: "hi"}
	}
}
`

func TestLoadUnits(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "units.cue", goodUnits)

	result, errs := LoadUnits(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 1, result.FileCount)

	// Units come back name-sorted regardless of declaration order.
	require.Len(t, result.Units, 2)
	assert.Equal(t, "alpha", result.Units[0].Name)
	assert.Equal(t, "zebra", result.Units[1].Name)
}

func TestLoadUnitsMissingDir(t *testing.T) {
	_, errs := LoadUnits(filepath.Join(t.TempDir(), "absent"), LoadModeFailFast)
	require.Len(t, errs, 1)
	le, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadUnitsPathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "units.cue", goodUnits)
	_, errs := LoadUnits(path, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not a directory")
}

func TestLoadUnitsNoCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "README.md", "nothing here")
	_, errs := LoadUnits(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	le := errs[0].(*LoadError)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadUnitsNoUnitsStruct(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "other.cue", "package units\n\nother: 1\n")
	_, errs := LoadUnits(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "expected a top-level units struct")
}

const badKindUnits = `package units

units: {
	first_bad: {
		expr: {kind: "walrus"}
	}
	second_bad: {
		expr: {kind: "walrus"}
	}
	fine: {
		expr: {kind: "int", value: 1}
	}
}
`

func TestLoadUnitsErrorModes(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "units.cue", badKindUnits)

	// Fail-fast stops at the first bad unit.
	_, errs := LoadUnits(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	le := errs[0].(*LoadError)
	assert.Equal(t, ErrCodeUnitKind, le.Code)

	// Collect-all keeps going and still loads the good unit.
	result, errs := LoadUnits(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
	require.Len(t, result.Units, 1)
	assert.Equal(t, "fine", result.Units[0].Name)
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeUnitFile(t, dir, "a.cue", "package units\n")
	writeUnitFile(t, sub, "b.cue", "package units\n")
	writeUnitFile(t, dir, "ignored.txt", "")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnitExpr, MapFieldToErrorCode("expr"))
	assert.Equal(t, ErrCodeUnitExpr, MapFieldToErrorCode("expr.dict"))
	assert.Equal(t, ErrCodeUnitKind, MapFieldToErrorCode("expr.kind"))
	assert.Equal(t, ErrCodeUnitEvidence, MapFieldToErrorCode("evidence.attrs"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("cue"))
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found"}
	assert.Equal(t, "E003: no CUE files found", err.Error())
}
