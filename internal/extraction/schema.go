package extraction

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Schema — the closed description of the extraction request
// ---------------------------------------------------------------------------

// Multiplicity states whether a schema field holds one value or many.
type Multiplicity string

const (
	// One means the field carries a single string value.
	One Multiplicity = "one"
	// Many means the field carries a list of string values.
	Many Multiplicity = "many"
)

// FieldSpec describes a single entity-type field requested from the
// extractor: a human-readable description used for prompt construction and
// the field's multiplicity.
type FieldSpec struct {
	Description  string       `json:"description"`
	Multiplicity Multiplicity `json:"multiplicity"`
}

// Schema maps extraction field names (e.g. "person", "location") to their
// specifications. A Schema is validated once at engine construction, never
// per call; concurrent runs with different schemas cannot interfere because
// each engine owns its own immutable copy.
type Schema map[string]FieldSpec

// Validate checks the schema for structural consistency.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeUnsupportedInput, "schema must declare at least one field")
	}
	for name, spec := range s {
		if strings.TrimSpace(name) == "" {
			return errors.New(errors.ErrCodeUnsupportedInput, "schema field name must not be empty")
		}
		switch spec.Multiplicity {
		case One, Many:
		default:
			return errors.New(errors.ErrCodeUnsupportedInput,
				"schema field "+name+" has invalid multiplicity "+string(spec.Multiplicity))
		}
	}
	return nil
}

// FieldNames returns the schema's field names in sorted order, so that
// prompt construction and flattening are deterministic.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint returns a stable textual identity for the schema, used as a
// cache-key component. Two schemas with the same fields, descriptions, and
// multiplicities produce the same fingerprint.
func (s Schema) Fingerprint() string {
	var b strings.Builder
	for _, name := range s.FieldNames() {
		spec := s[name]
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(string(spec.Multiplicity))
		b.WriteByte(':')
		b.WriteString(spec.Description)
		b.WriteByte(';')
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// StructuredOutput — the extractor's raw, JSON-shaped result
// ---------------------------------------------------------------------------

// StructuredOutput is the decoded JSON object returned by the extractor
// adapter: a mapping from schema field name to a string, a list of strings,
// or null. The pipeline treats it opaquely except for shape checking and
// flattening.
type StructuredOutput map[string]any

// CheckShape verifies that out conforms to the schema: every present field
// must be declared, and its value must be null, a string, or a list whose
// elements are strings or nulls. A violation is a shape error — fatal and
// never retried, since refinement only corrects content grounding.
func CheckShape(schema Schema, out StructuredOutput) error {
	for field, value := range out {
		if _, ok := schema[field]; !ok {
			return errors.New(errors.ErrCodeShape, "extractor returned undeclared field "+field)
		}
		switch v := value.(type) {
		case nil, string:
		case []any:
			for _, elem := range v {
				switch elem.(type) {
				case nil, string:
				default:
					return errors.New(errors.ErrCodeShape,
						"field "+field+" contains a non-string list element")
				}
			}
		case []string:
		default:
			return errors.New(errors.ErrCodeShape,
				"field "+field+" has unsupported value type")
		}
	}
	return nil
}

// Flatten converts a structured output into a flat span list: for every
// field (in sorted order for determinism) the value is normalised to a list,
// and every non-empty string element becomes a Span typed by the capitalised
// field name. Non-string and empty elements, including nulls, are skipped
// silently. Spans with empty text are dropped here, at construction, never
// later during merge.
func Flatten(out StructuredOutput) []Span {
	if len(out) == 0 {
		return nil
	}

	fields := make([]string, 0, len(out))
	for field := range out {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var spans []Span
	for _, field := range fields {
		entityType := capitalize(field)
		for _, elem := range normalizeToList(out[field]) {
			text, ok := elem.(string)
			if !ok || text == "" {
				continue
			}
			spans = append(spans, Span{Type: entityType, Text: text})
		}
	}
	return spans
}

func normalizeToList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// capitalize upper-cases the first rune and lower-cases the remainder,
// so "person" and "LOCATION" both become entity types "Person" and
// "Location".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
