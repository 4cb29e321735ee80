// Package extraction implements the core NER pipeline: chunking long
// documents with overlap, validating and refining LLM extraction output,
// merging per-chunk entity sets into a document-level entity set, and
// converting the result into token-aligned BIOSES tags.
package extraction

import "fmt"

// ---------------------------------------------------------------------------
// Core data structures
// ---------------------------------------------------------------------------

// Span is a typed literal string claimed by the extractor to be an entity
// occurrence. It carries no offsets; offsets are recovered later by literal
// substring search against the source text.
type Span struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ChunkOffset pairs a chunk of the source document with the byte offset at
// which it begins. Invariant: Start+len(Text) <= len(document).
type ChunkOffset struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
}

// End returns the half-open end offset of the chunk in the source document.
func (c ChunkOffset) End() int { return c.Start + len(c.Text) }

// String returns a debug representation, e.g. Chunk[120:2120](2000 bytes).
func (c ChunkOffset) String() string {
	return fmt.Sprintf("Chunk[%d:%d](%d bytes)", c.Start, c.End(), len(c.Text))
}

// ChunkResult holds the spans extracted from one chunk together with that
// chunk's half-open character range in the source document.
type ChunkResult struct {
	Spans []Span `json:"spans"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ResolvedEntity is a span anchored to one concrete occurrence in the full
// document. Confidence is used only for tie-breaking during merge and
// tagging priority; it is not part of the observable contract.
type ResolvedEntity struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Token is a single token of the source document with its half-open byte
// range, as produced by a Tokenizer over the whole document.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// TagOutside is the tag assigned to tokens not covered by any entity.
const TagOutside = "O"

// TaggedToken pairs a token's text with its BIOSES tag. Tag is either
// TagOutside or one of "B-", "I-", "S-", "E-" followed by the entity type.
type TaggedToken struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
}
