package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-lang/ferrous/internal/trace"
)

// seedTraceDB writes one unit with two decisions and returns the
// database path and the unit token.
func seedTraceDB(t *testing.T) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ferrous.db")
	st, err := trace.Open(path)
	require.NoError(t, err)
	defer st.Close()

	rec := trace.NewRecorder()
	rec.Record(trace.CategoryMethod, "str.upper", "to_uppercase", nil, 1.0)
	rec.Record(trace.CategoryOperator, "arith_py_add", "+", []string{"py_add"}, 0.9)
	require.NoError(t, st.Flush(context.Background(), rec))

	return path, rec.Unit()
}

func TestTraceCommandSummary(t *testing.T) {
	path, _ := seedTraceDB(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"trace", "--db", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Decision counts by category:")
	assert.Contains(t, out.String(), "MethodRewrite")
	assert.Contains(t, out.String(), "OperatorLowering")
	assert.Contains(t, out.String(), "total")
}

func TestTraceCommandUnitDump(t *testing.T) {
	path, token := seedTraceDB(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--verbose", "trace", "--db", path, "--unit", token})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "MethodRewrite str.upper -> to_uppercase (1.00)")
	assert.Contains(t, out.String(), "OperatorLowering arith_py_add -> + (0.90)")
	assert.Contains(t, out.String(), "rejected: py_add")
}

func TestTraceCommandCanonicalOutput(t *testing.T) {
	path, token := seedTraceDB(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"trace", "--db", path, "--unit", token, "--canonical"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"confidence_bp":100`)
	assert.Contains(t, out.String(), `"chosen":"to_uppercase"`)
}

func TestTraceCommandUnknownUnit(t *testing.T) {
	path, _ := seedTraceDB(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"trace", "--db", path, "--unit", "does-not-exist"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No decisions recorded for unit")
}
