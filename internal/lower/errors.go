package lower

import "fmt"

// ErrorKind categorizes lowering failures. The set is closed; fidelity
// trade-offs are not errors, they go to the decision sink instead.
type ErrorKind string

const (
	// ErrInvalidIdentifier means a method or field name does not satisfy
	// the target identifier grammar.
	ErrInvalidIdentifier ErrorKind = "INVALID_IDENTIFIER"

	// ErrMalformedOperand means a structurally invalid input, e.g. a slice
	// with zero step or an empty method name.
	ErrMalformedOperand ErrorKind = "MALFORMED_OPERAND"

	// ErrUnsupportedArity means a stdlib rewrite was invoked with the
	// wrong number of arguments.
	ErrUnsupportedArity ErrorKind = "UNSUPPORTED_ARITY"

	// ErrInternalInvariant indicates a bug in the lowering core itself.
	// Drivers are expected to fail the compilation unit.
	ErrInternalInvariant ErrorKind = "INTERNAL_INVARIANT"
)

// Error is the closed error type every lowering entry point returns.
// Span is a source-span hint when the driver supplied one; the core never
// fabricates spans.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    string
}

// Error renders the single-line diagnostic: kind plus a one-phrase
// description with any relevant receiver/method names.
func (e *Error) Error() string {
	if e.Span != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errInvalidIdent(name string) error {
	return &Error{Kind: ErrInvalidIdentifier, Message: fmt.Sprintf("name %q is not a legal target identifier", name)}
}

func errMalformed(format string, args ...any) error {
	return &Error{Kind: ErrMalformedOperand, Message: fmt.Sprintf(format, args...)}
}

func errArity(method string, want string, got int) error {
	return &Error{
		Kind:    ErrUnsupportedArity,
		Message: fmt.Sprintf("method %q takes %s arguments, got %d", method, want, got),
	}
}

func errInternal(format string, args ...any) error {
	return &Error{Kind: ErrInternalInvariant, Message: fmt.Sprintf(format, args...)}
}
