package tagged

import (
	_ "embed"
	"strings"
)

//go:embed runtime/value.rs
var valueRS string

//go:embed runtime/wrappers.rs
var wrappersRS string

//go:embed runtime/stubs.rs
var stubsRS string

// RuntimeSource returns the target-language support module a driver writes
// into the generated crate. The value type and the date/time/regex-match
// wrappers ship always; the literal-only regex, codec and JSON stand-ins
// ship only in minimal-runtime mode (full mode delegates those to target
// crates instead).
func RuntimeSource(minimalRuntime bool) string {
	var b strings.Builder
	b.WriteString(valueRS)
	b.WriteString("\n")
	b.WriteString(wrappersRS)
	if minimalRuntime {
		b.WriteString("\n")
		b.WriteString(stubsRS)
	}
	return b.String()
}
