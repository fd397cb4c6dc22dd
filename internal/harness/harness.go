package harness

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/ferrous-lang/ferrous/internal/compiler"
	"github.com/ferrous-lang/ferrous/internal/lower"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile every unit file listed in the scenario
// 2. Lower each unit with a fresh recorder
// 3. Match expect clauses against the per-unit outcomes
// 4. Evaluate trace and output assertions
//
// Compile and lowering errors do not abort the run; they become the
// unit's outcome so scenarios can assert on expected failures.
func Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	minimalRuntime := false
	backends := lower.DefaultBackends(false)
	if scenario.Config != nil {
		minimalRuntime = scenario.Config.MinimalRuntime
		backends = resolveBackends(scenario.Config)
	}

	for _, path := range scenario.Units {
		units, err := compileUnitFile(path)
		if err != nil {
			return nil, fmt.Errorf("unit file %s: %w", path, err)
		}

		for _, unit := range units {
			outcome := UnitOutcome{Name: unit.Name}

			sink := trace.NewRecorder()
			ctx := lower.NewContext(unit.Evidence, sink, minimalRuntime)
			ctx.ReturnType = unit.Returns
			ctx.Fallible = unit.Fallible
			ctx.Backends = backends

			rendered, lowerErr := lower.LowerString(ctx, unit.Expr)
			if lowerErr != nil {
				outcome.Err = lowerErr.Error()
			} else {
				outcome.Rust = rendered
				outcome.Decisions = sink.Decisions()
			}

			result.Units = append(result.Units, outcome)
		}
	}
	sort.Slice(result.Units, func(i, j int) bool { return result.Units[i].Name < result.Units[j].Name })

	evaluateExpectations(result, scenario.Expect)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// resolveBackends fills unset backend fields from the runtime-mode default.
func resolveBackends(cfg *ScenarioConfig) lower.Backends {
	backends := cfg.Backends
	defaults := lower.DefaultBackends(cfg.MinimalRuntime)
	if backends.Regex == "" {
		backends.Regex = defaults.Regex
	}
	if backends.Codec == "" {
		backends.Codec = defaults.Codec
	}
	if backends.JSON == "" {
		backends.JSON = defaults.JSON
	}
	if backends.Random == "" {
		backends.Random = defaults.Random
	}
	if backends.Time == "" {
		backends.Time = defaults.Time
	}
	return backends
}

// compileUnitFile compiles one CUE file and returns its units in
// declaration order. A file holds a top-level "units" struct, one field
// per unit, same as the CLI loader's directory format.
func compileUnitFile(path string) ([]*compiler.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit file: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}

	unitsVal := value.LookupPath(cue.ParsePath("units"))
	if !unitsVal.Exists() {
		return nil, fmt.Errorf("no top-level units struct")
	}

	iter, err := unitsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating units: %w", err)
	}

	var units []*compiler.Unit
	for iter.Next() {
		unit, err := compiler.CompileUnit(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", iter.Label(), err)
		}
		if unit.Name == "" {
			unit.Name = iter.Label()
		}
		units = append(units, unit)
	}
	return units, nil
}

// evaluateExpectations matches expect clauses against unit outcomes.
func evaluateExpectations(result *Result, expects []ExpectClause) {
	for _, clause := range expects {
		outcome := result.Unit(clause.Unit)
		if outcome == nil {
			result.AddError(fmt.Sprintf("expect: unit %q not found in scenario output", clause.Unit))
			continue
		}

		if clause.Rust != "" {
			if outcome.Err != "" {
				result.AddError(fmt.Sprintf("expect: unit %q failed to lower: %s", clause.Unit, outcome.Err))
				continue
			}
			if outcome.Rust != clause.Rust {
				result.AddError(fmt.Sprintf("expect: unit %q rendered %q, want %q", clause.Unit, outcome.Rust, clause.Rust))
			}
			continue
		}

		// Error clause: the unit must fail with a matching message.
		if outcome.Err == "" {
			result.AddError(fmt.Sprintf("expect: unit %q lowered to %q, want error containing %q", clause.Unit, outcome.Rust, clause.Error))
			continue
		}
		if !strings.Contains(outcome.Err, clause.Error) {
			result.AddError(fmt.Sprintf("expect: unit %q failed with %q, want error containing %q", clause.Unit, outcome.Err, clause.Error))
		}
	}
}
