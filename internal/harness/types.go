package harness

import "github.com/ferrous-lang/ferrous/internal/trace"

// UnitOutcome is the lowering result for one compilation unit.
// Exactly one of Rust or Err is set.
type UnitOutcome struct {
	// Name is the unit name from the CUE source.
	Name string `json:"name"`

	// Rust is the rendered target expression.
	Rust string `json:"rust,omitempty"`

	// Decisions is the recorded decision sequence in lowering order.
	Decisions []trace.Decision `json:"decisions,omitempty"`

	// Err is the lowering or compile error message, if any.
	Err string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Units holds per-unit outcomes, sorted by unit name.
	Units []UnitOutcome `json:"units"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Units:  []UnitOutcome{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Unit returns the outcome for the named unit, or nil if absent.
func (r *Result) Unit(name string) *UnitOutcome {
	for i := range r.Units {
		if r.Units[i].Name == name {
			return &r.Units[i]
		}
	}
	return nil
}
