package extraction

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Validator — literal grounding of extracted spans
// ---------------------------------------------------------------------------

// errEmptyOutput is reported when the extractor produced no structured
// output at all. It is distinct from a valid output with zero spans, which
// is vacuously grounded.
const errEmptyOutput = "output empty or invalid"

// Validate checks every span against the source text it claims to come
// from. A span fails iff its text is not an exact, case-sensitive substring
// of the source. The returned slice is empty for fully-grounded input;
// every element describes one failed span, suitable for embedding in a
// refinement instruction.
func Validate(text string, spans []Span) []string {
	var errs []string
	for _, span := range spans {
		if !strings.Contains(text, span.Text) {
			errs = append(errs, fmt.Sprintf(
				"validation error: the extracted span %q was not found in the original text", span.Text))
		}
	}
	return errs
}

// ValidateOutput validates a structured extractor output: a nil output is
// the distinct "output empty or invalid" failure, otherwise the flattened
// spans are validated against text. On success it returns the grounded
// spans and a nil error list.
func ValidateOutput(text string, out StructuredOutput) ([]Span, []string) {
	if out == nil {
		return nil, []string{errEmptyOutput}
	}
	spans := Flatten(out)
	if errs := Validate(text, spans); len(errs) > 0 {
		return nil, errs
	}
	return spans, nil
}
