package extraction

import (
	"sort"

	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
)

// ---------------------------------------------------------------------------
// Tagger — entity spans to token-level positional tags
// ---------------------------------------------------------------------------

// Tagger converts a document plus its resolved entities into a token-level
// tag sequence. Tags carry positional prefixes: S- for a single-token
// entity, B-/I-/E- for the begin, interior, and end tokens of a multi-token
// entity, and the bare "O" for tokens outside any entity.
type Tagger struct {
	tokenizer Tokenizer
	logger    logging.Logger
}

// NewTagger constructs a Tagger. A nil tokenizer selects the default
// word tokenizer.
func NewTagger(tokenizer Tokenizer, logger logging.Logger) *Tagger {
	if tokenizer == nil {
		tokenizer = NewWordTokenizer()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Tagger{tokenizer: tokenizer, logger: logger}
}

// Tag tokenizes text and assigns one tag per token. Entities are applied in
// descending order of surface-form length so longer matches win contested
// tokens; every literal occurrence of each entity's text is tagged, not just
// the resolved one, keeping identical mentions consistently labelled. An
// occurrence whose boundaries do not land exactly on token boundaries is
// skipped with a diagnostic rather than partially tagged. Tagging never
// fails: the worst case is an all-"O" sequence.
func (t *Tagger) Tag(text string, entities []ResolvedEntity) []TaggedToken {
	tokens := t.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	tags := make([]string, len(tokens))
	for i := range tags {
		tags[i] = TagOutside
	}

	// Exact alignment lookup: token start/end byte offset to token index.
	startIdx := make(map[int]int, len(tokens))
	endIdx := make(map[int]int, len(tokens))
	for i, tok := range tokens {
		startIdx[tok.Start] = i
		endIdx[tok.End] = i
	}

	ordered := make([]ResolvedEntity, len(entities))
	copy(ordered, entities)
	sort.SliceStable(ordered, func(i, j int) bool {
		li, lj := len(ordered[i].Text), len(ordered[j].Text)
		if li != lj {
			return li > lj
		}
		return ordered[i].Confidence > ordered[j].Confidence
	})

	claimed := make([]bool, len(tokens))
	for _, ent := range ordered {
		if ent.Text == "" {
			continue
		}
		for _, start := range findOccurrences(text, ent.Text) {
			end := start + len(ent.Text)
			first, okStart := startIdx[start]
			last, okEnd := endIdx[end]
			if !okStart || !okEnd || last < first {
				t.logger.Debug("entity occurrence does not align with token boundaries, skipping",
					logging.String("text", ent.Text),
					logging.Int("offset", start))
				continue
			}
			if anyClaimed(claimed, first, last) {
				continue
			}
			applyTags(tags, claimed, first, last, ent.Type)
		}
	}

	out := make([]TaggedToken, len(tokens))
	for i, tok := range tokens {
		out[i] = TaggedToken{Token: tok.Text, Tag: tags[i]}
	}
	return out
}

func anyClaimed(claimed []bool, first, last int) bool {
	for i := first; i <= last; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func applyTags(tags []string, claimed []bool, first, last int, entityType string) {
	if first == last {
		tags[first] = "S-" + entityType
		claimed[first] = true
		return
	}
	tags[first] = "B-" + entityType
	tags[last] = "E-" + entityType
	claimed[first] = true
	claimed[last] = true
	for i := first + 1; i < last; i++ {
		tags[i] = "I-" + entityType
		claimed[i] = true
	}
}
