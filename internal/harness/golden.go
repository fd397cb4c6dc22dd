package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ferrous-lang/ferrous/internal/trace"
)

// unitSnapshot is the golden-file view of one unit outcome. Decisions are
// embedded as canonical JSON bytes so the snapshot pins the audit trail
// byte-for-byte, not just semantically.
type unitSnapshot struct {
	Name      string          `json:"name"`
	Rust      string          `json:"rust,omitempty"`
	Decisions json.RawMessage `json:"decisions,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// TraceSnapshot captures the complete output for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Units        []unitSnapshot `json:"units"`
}

func buildSnapshot(scenarioName string, result *Result) (*TraceSnapshot, error) {
	snapshot := &TraceSnapshot{ScenarioName: scenarioName}
	for _, outcome := range result.Units {
		unit := unitSnapshot{
			Name:  outcome.Name,
			Rust:  outcome.Rust,
			Error: outcome.Err,
		}
		if outcome.Err == "" {
			canonical, err := trace.MarshalCanonical(outcome.Decisions)
			if err != nil {
				return nil, err
			}
			unit.Decisions = canonical
		}
		snapshot.Units = append(snapshot.Units, unit)
	}
	return snapshot, nil
}

// RunWithGolden executes a scenario and compares the outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails outright; assertion and
// golden mismatches fail the test via t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	for _, msg := range result.Errors {
		t.Error(msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := buildSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	// Struct field order is fixed, so MarshalIndent is deterministic here.
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
