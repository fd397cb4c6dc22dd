package harness

import (
	"fmt"
	"strings"

	"github.com/ferrous-lang/ferrous/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes the unit's decision trace to help debug the failure.
type AssertionError struct {
	Type      string           // Assertion type for categorization
	Expected  string           // Human-readable expected outcome
	Actual    string           // Human-readable actual outcome
	Decisions []trace.Decision // Decision trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Decisions) > 0 {
		fmt.Fprintf(&buf, "\nDecision trace:\n")
		for i, d := range e.Decisions {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s (%.2f)\n", i, d.Category, d.Name, d.Chosen, d.Confidence)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns error messages for failed assertions; an empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if assertion.Type == AssertLowConfidence {
			err = assertLowConfidence(result, assertion)
		} else {
			outcome := result.Unit(assertion.Unit)
			if outcome == nil {
				errors = append(errors, fmt.Sprintf("assertion %d: unit %q not found in scenario output", i, assertion.Unit))
				continue
			}
			if outcome.Err != "" {
				errors = append(errors, fmt.Sprintf("assertion %d: unit %q failed to lower: %s", i, assertion.Unit, outcome.Err))
				continue
			}

			switch assertion.Type {
			case AssertDecisionContains:
				err = assertDecisionContains(outcome, assertion)
			case AssertDecisionOrder:
				err = assertDecisionOrder(outcome, assertion)
			case AssertDecisionCount:
				err = assertDecisionCount(outcome, assertion)
			case AssertRustContains:
				err = assertRustContains(outcome, assertion)
			default:
				err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errors
}

// assertDecisionContains checks that a decision matching the specified
// category, name and chosen form exists. Empty fields match anything.
func assertDecisionContains(outcome *UnitOutcome, assertion Assertion) error {
	for _, d := range outcome.Decisions {
		if assertion.Category != "" && string(d.Category) != assertion.Category {
			continue
		}
		if assertion.Name != "" && d.Name != assertion.Name {
			continue
		}
		if assertion.Chosen != "" && d.Chosen != assertion.Chosen {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:      AssertDecisionContains,
		Expected:  fmt.Sprintf("decision category=%q name=%q chosen=%q", assertion.Category, assertion.Name, assertion.Chosen),
		Actual:    "not found in trace",
		Decisions: outcome.Decisions,
	}
}

// assertDecisionOrder checks that decision names appear in the given
// order. Names don't need to be consecutive.
func assertDecisionOrder(outcome *UnitOutcome, assertion Assertion) error {
	positions := make(map[string]int)
	for i, d := range outcome.Decisions {
		for _, name := range assertion.Names {
			if d.Name == name && positions[name] == 0 {
				positions[name] = i + 1 // 1-indexed so zero means absent
			}
		}
	}

	for _, name := range assertion.Names {
		if positions[name] == 0 {
			return &AssertionError{
				Type:      AssertDecisionOrder,
				Expected:  fmt.Sprintf("all decisions present: %v", assertion.Names),
				Actual:    fmt.Sprintf("missing decision: %s", name),
				Decisions: outcome.Decisions,
			}
		}
	}

	for i := 1; i < len(assertion.Names); i++ {
		prev := assertion.Names[i-1]
		curr := assertion.Names[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertDecisionOrder,
				Expected: fmt.Sprintf("decisions in order: %v", assertion.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Decisions: outcome.Decisions,
			}
		}
	}

	return nil
}

// assertDecisionCount checks that the decision name appears exactly the
// specified number of times.
func assertDecisionCount(outcome *UnitOutcome, assertion Assertion) error {
	count := 0
	for _, d := range outcome.Decisions {
		if d.Name == assertion.Name {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:      AssertDecisionCount,
			Expected:  fmt.Sprintf("decision %q appears %d time(s)", assertion.Name, assertion.Count),
			Actual:    fmt.Sprintf("appears %d time(s)", count),
			Decisions: outcome.Decisions,
		}
	}

	return nil
}

// assertRustContains checks that the rendered output contains a substring.
func assertRustContains(outcome *UnitOutcome, assertion Assertion) error {
	if !strings.Contains(outcome.Rust, assertion.Contains) {
		return &AssertionError{
			Type:      AssertRustContains,
			Expected:  fmt.Sprintf("rendered output contains %q", assertion.Contains),
			Actual:    outcome.Rust,
			Decisions: outcome.Decisions,
		}
	}
	return nil
}

// assertLowConfidence counts decisions at or below the threshold across
// the named unit, or across all units when the unit field is empty.
// Audits use this to pin down exactly which rewrites need review.
func assertLowConfidence(result *Result, assertion Assertion) error {
	count := 0
	var inspected []trace.Decision
	for _, outcome := range result.Units {
		if assertion.Unit != "" && outcome.Name != assertion.Unit {
			continue
		}
		inspected = append(inspected, outcome.Decisions...)
		for _, d := range outcome.Decisions {
			if d.Confidence <= assertion.Threshold {
				count++
			}
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:      AssertLowConfidence,
			Expected:  fmt.Sprintf("%d decision(s) with confidence <= %.2f", assertion.Count, assertion.Threshold),
			Actual:    fmt.Sprintf("%d decision(s)", count),
			Decisions: inspected,
		}
	}

	return nil
}
