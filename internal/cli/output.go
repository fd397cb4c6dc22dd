package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes. Lowering and validation failures are ExitFailure so scripts
// can distinguish "the units are bad" from "the command was misused".
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // one or more units failed to lower or validate
	ExitCommandError = 2 // bad paths, unreadable config, database errors
)

// ExitError carries the process exit code alongside the error message.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without an underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and context to an underlying error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode finds the ExitError in err's chain and returns its code,
// defaulting to ExitFailure for plain errors.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Envelope is the JSON shape every command emits in --format json mode.
// Exactly one of Data and Error is set.
type Envelope struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error half of an Envelope.
type ErrorBody struct {
	Code    string      `json:"code"` // "E001" through "E104"
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OutputFormatter renders command results as JSON or human-readable text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer when nil
	Verbose   bool
}

// Success writes a result payload in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Envelope{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a coded error in the configured format. Details are only
// shown in text mode when verbose is on.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Envelope{
			Status: "error",
			Error:  &ErrorBody{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose is on. Diagnostics go
// to ErrWriter so they never interleave with JSON on stdout.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
