// Package trace is the decision sink: a structured record of every
// non-obvious lowering choice, append-only within a compilation unit.
//
// Records enumerate expression nodes in lowering order (a pre-order walk of
// the input), which makes traces byte-comparable across runs; the canonical
// serialization in this package guarantees that comparability across
// platforms. Persistence to the audit database is optional and lives in
// store.go.
package trace

import "github.com/google/uuid"

// Category classifies a lowering decision.
type Category string

const (
	CategoryTypeMapping Category = "TypeMapping"
	CategoryMethod      Category = "MethodRewrite"
	CategoryOperator    Category = "OperatorLowering"
	CategoryContainment Category = "ContainmentLowering"
	CategoryCoercion    Category = "CoercionChoice"
)

// Decision is one recorded lowering choice.
type Decision struct {
	Category     Category
	Name         string
	Chosen       string
	Alternatives []string
	// Confidence is 0.0–1.0; mixed-evidence fallthrough cases record at
	// or below 0.7 so audits can find them.
	Confidence float64
}

// Recorder accumulates decisions for a single compilation unit.
// It is not safe for concurrent use; each unit owns its own recorder.
type Recorder struct {
	unit      string
	decisions []Decision
}

// NewRecorder returns a recorder with a fresh UUIDv7 unit token.
// Uses github.com/google/uuid; v7 keeps tokens time-ordered in the store.
func NewRecorder() *Recorder {
	return &Recorder{unit: uuid.Must(uuid.NewV7()).String()}
}

// Unit returns the compilation-unit token.
func (r *Recorder) Unit() string {
	if r == nil {
		return ""
	}
	return r.unit
}

// Record appends one decision. Safe on a nil recorder (no-op), so lowering
// paths never need to guard the sink.
func (r *Recorder) Record(cat Category, name, chosen string, alternatives []string, confidence float64) {
	if r == nil {
		return
	}
	r.decisions = append(r.decisions, Decision{
		Category:     cat,
		Name:         name,
		Chosen:       chosen,
		Alternatives: alternatives,
		Confidence:   confidence,
	})
}

// Decisions exposes the records in lowering order. The returned slice is
// the recorder's own backing array; callers must treat it as read-only.
func (r *Recorder) Decisions() []Decision {
	if r == nil {
		return nil
	}
	return r.decisions
}
