package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical serializes decisions as canonical JSON (RFC 8785 rules:
// NFC-normalized strings, no HTML escaping, fixed key order). The same
// decision sequence marshals to the same bytes on every platform, which is
// what golden traces and the audit store compare against.
//
// Floats are forbidden in canonical JSON, so Confidence is carried in basis
// points (integer hundredths): 0.70 → 70.
func MarshalCanonical(decisions []Decision) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range decisions {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalDecision(&buf, d); err != nil {
			return nil, fmt.Errorf("decision %d (%s): %w", i, d.Name, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Keys are emitted in a fixed order; with a closed record shape that is
// trivially also the UTF-16 canonical order.
func marshalDecision(buf *bytes.Buffer, d Decision) error {
	buf.WriteByte('{')

	buf.WriteString(`"alternatives":[`)
	for i, a := range d.Alternatives {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, a); err != nil {
			return err
		}
	}
	buf.WriteString(`],`)

	buf.WriteString(`"category":`)
	if err := writeCanonicalString(buf, string(d.Category)); err != nil {
		return err
	}
	buf.WriteByte(',')

	buf.WriteString(`"chosen":`)
	if err := writeCanonicalString(buf, d.Chosen); err != nil {
		return err
	}
	buf.WriteByte(',')

	fmt.Fprintf(buf, `"confidence_bp":%d,`, ConfidenceBasisPoints(d.Confidence))

	buf.WriteString(`"name":`)
	if err := writeCanonicalString(buf, d.Name); err != nil {
		return err
	}

	buf.WriteByte('}')
	return nil
}

// ConfidenceBasisPoints converts a 0.0–1.0 confidence to integer
// hundredths, clamped to [0,100].
func ConfidenceBasisPoints(c float64) int {
	bp := int(math.Round(c * 100))
	if bp < 0 {
		bp = 0
	}
	if bp > 100 {
		bp = 100
	}
	return bp
}

// writeCanonicalString emits an NFC-normalized JSON string without HTML
// escaping. U+2028/U+2029 stay unescaped; only control characters,
// backslash and quote are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	// Encoder appends a newline; strip it.
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
