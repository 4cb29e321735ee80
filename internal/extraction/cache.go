package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ---------------------------------------------------------------------------
// ResultCache — optional per-chunk result cache contract
// ---------------------------------------------------------------------------

// ResultCache stores the validated span list of a single chunk extraction,
// keyed by ChunkKey. Only intermediate chunk results are cached; merged
// document-level results are never persisted. Implementations must treat
// every error as a miss-equivalent condition: the engine logs cache errors
// and proceeds to the extractor.
type ResultCache interface {
	GetChunk(ctx context.Context, key string) ([]Span, bool, error)
	SetChunk(ctx context.Context, key string, spans []Span) error
}

type noopCache struct{}

func (noopCache) GetChunk(context.Context, string) ([]Span, bool, error) { return nil, false, nil }
func (noopCache) SetChunk(context.Context, string, []Span) error         { return nil }

// NewNoopCache returns a ResultCache that never hits and never stores.
func NewNoopCache() ResultCache { return noopCache{} }

// ChunkKey derives the cache key for one chunk: a SHA-256 over the chunk
// text, the schema fingerprint, and the run mode, so any change to the
// text, the schema, or the extraction mode invalidates the entry.
func ChunkKey(chunkText string, schema Schema, mode string) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(schema.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(len(chunkText))))
	h.Write([]byte{0})
	h.Write([]byte(chunkText))
	return "entitag:chunk:" + hex.EncodeToString(h.Sum(nil))
}
