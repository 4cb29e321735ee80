package extraction

import (
	"strings"

	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Output encodings
// ---------------------------------------------------------------------------

// Supported output encodings for a tagged document.
const (
	// EncodingCoNLL keeps the token-level tag sequence as-is.
	EncodingCoNLL = "conll"
	// EncodingEntities reduces the tag sequence back to entity spans.
	EncodingEntities = "entities"
)

// ValidateEncoding checks an encoding selector before any model work is
// done. Unknown selectors are an unsupported-input error.
func ValidateEncoding(encoding string) error {
	switch encoding {
	case EncodingCoNLL, EncodingEntities:
		return nil
	default:
		return errors.New(errors.ErrCodeUnsupportedInput,
			"unsupported output encoding: "+encoding)
	}
}

// EntitiesFromTags is the inverse of tagging: it scans the token sequence
// for S- singletons and well-formed B- … E- runs and emits one span per
// run, joining the constituent token texts with single spaces. Malformed
// runs (an I- or E- without a matching open B- of the same type, or a B-
// that never closes) are discarded rather than guessed at, so the function
// never fails on inconsistent input.
func EntitiesFromTags(tagged []TaggedToken) []Span {
	var (
		spans    []Span
		openType string
		parts    []string
	)
	reset := func() {
		openType = ""
		parts = parts[:0]
	}

	for _, tt := range tagged {
		prefix, entType := splitTag(tt.Tag)
		switch prefix {
		case "S":
			reset()
			spans = append(spans, Span{Type: entType, Text: tt.Token})
		case "B":
			reset()
			openType = entType
			parts = append(parts, tt.Token)
		case "I":
			if openType == "" || openType != entType {
				reset()
				continue
			}
			parts = append(parts, tt.Token)
		case "E":
			if openType == "" || openType != entType {
				reset()
				continue
			}
			parts = append(parts, tt.Token)
			spans = append(spans, Span{Type: entType, Text: strings.Join(parts, " ")})
			reset()
		default:
			reset()
		}
	}
	return spans
}

// splitTag splits "B-Person" into ("B", "Person"); the bare outside tag
// and anything unparseable yield an empty prefix.
func splitTag(tag string) (prefix, entType string) {
	if tag == TagOutside {
		return "", ""
	}
	i := strings.IndexByte(tag, '-')
	if i <= 0 || i == len(tag)-1 {
		return "", ""
	}
	return tag[:i], tag[i+1:]
}
