package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ferrous-lang/ferrous/internal/lower"
)

// Scenario defines a conformance test scenario.
// Scenarios compile a set of units, lower them, and assert on the
// rendered Rust and the recorded decision trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Units lists paths to CUE unit files to compile and lower.
	// Paths are relative to the scenario file location.
	Units []string `yaml:"units"`

	// Config overrides the default lowering configuration.
	// If nil, full-runtime defaults (library backends) apply.
	Config *ScenarioConfig `yaml:"config,omitempty"`

	// Expect lists per-unit expected outcomes.
	// Each clause is matched against the unit with the same name.
	Expect []ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the decision traces and rendered output.
	// Supported types: decision_contains, decision_order, decision_count,
	// rust_contains, low_confidence.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig mirrors the CLI configuration surface for scenarios.
type ScenarioConfig struct {
	MinimalRuntime bool           `yaml:"minimal_runtime"`
	Backends       lower.Backends `yaml:"backends"`
}

// ExpectClause specifies the expected outcome for one unit.
type ExpectClause struct {
	// Unit is the unit name this clause applies to.
	Unit string `yaml:"unit"`

	// Rust is the exact expected rendered expression.
	// If empty, the rendered output is not checked here.
	Rust string `yaml:"rust,omitempty"`

	// Error is a substring expected in the lowering error.
	// Mutually exclusive with Rust: a unit either lowers or fails.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the decision trace or rendered output of a unit.
type Assertion struct {
	// Type specifies the assertion type:
	// - "decision_contains": a decision with the given category/name/chosen exists
	// - "decision_order": decision names appear in lowering order
	// - "decision_count": a decision name appears exactly N times
	// - "rust_contains": rendered output contains a substring
	// - "low_confidence": exactly N decisions at or below the threshold
	Type string `yaml:"type"`

	// Unit is the unit name to assert against. Required for all types
	// except low_confidence, where an empty unit means all units.
	Unit string `yaml:"unit,omitempty"`

	// Category is the expected decision category (decision_contains).
	Category string `yaml:"category,omitempty"`

	// Name is the decision name (decision_contains, decision_count).
	Name string `yaml:"name,omitempty"`

	// Chosen is the expected chosen form (decision_contains).
	Chosen string `yaml:"chosen,omitempty"`

	// Names is the expected decision-name order (decision_order).
	Names []string `yaml:"names,omitempty"`

	// Count is the expected number of occurrences
	// (decision_count, low_confidence).
	Count int `yaml:"count,omitempty"`

	// Contains is the expected substring (rust_contains).
	Contains string `yaml:"contains,omitempty"`

	// Threshold is the confidence ceiling for low_confidence.
	// Decisions with confidence <= threshold are counted.
	Threshold float64 `yaml:"threshold,omitempty"`
}

// Assertion type constants.
const (
	AssertDecisionContains = "decision_contains"
	AssertDecisionOrder    = "decision_order"
	AssertDecisionCount    = "decision_count"
	AssertRustContains     = "rust_contains"
	AssertLowConfidence    = "low_confidence"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving unit paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, unitPath := range scenario.Units {
		if !filepath.IsAbs(unitPath) && basePath != "" {
			scenario.Units[i] = filepath.Join(basePath, unitPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Units) == 0 {
		return fmt.Errorf("units list is required and must be non-empty")
	}

	for _, unitPath := range s.Units {
		if _, err := os.Stat(unitPath); os.IsNotExist(err) {
			return fmt.Errorf("unit file not found: %s", unitPath)
		}
	}

	for i, clause := range s.Expect {
		if clause.Unit == "" {
			return fmt.Errorf("expect[%d]: unit is required", i)
		}
		if clause.Rust != "" && clause.Error != "" {
			return fmt.Errorf("expect[%d]: rust and error are mutually exclusive", i)
		}
		if clause.Rust == "" && clause.Error == "" {
			return fmt.Errorf("expect[%d]: one of rust or error is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDecisionContains:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for decision_contains", index)
		}
		if a.Name == "" && a.Chosen == "" && a.Category == "" {
			return fmt.Errorf("assertions[%d]: at least one of category, name, chosen is required for decision_contains", index)
		}
	case AssertDecisionOrder:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for decision_order", index)
		}
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for decision_order", index)
		}
	case AssertDecisionCount:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for decision_count", index)
		}
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for decision_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for decision_count", index)
		}
	case AssertRustContains:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for rust_contains", index)
		}
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for rust_contains", index)
		}
	case AssertLowConfidence:
		if a.Threshold <= 0 || a.Threshold > 1 {
			return fmt.Errorf("assertions[%d]: threshold must be in (0,1] for low_confidence", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for low_confidence", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
