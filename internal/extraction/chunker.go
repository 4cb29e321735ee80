package extraction

import (
	"strings"
	"unicode/utf8"

	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
)

// ---------------------------------------------------------------------------
// Chunker — overlapping document splitting with offset recovery
// ---------------------------------------------------------------------------

// chunkSeparators is the boundary hierarchy tried in order when splitting:
// paragraph, line, sentence, word, and finally a hard rune-boundary cut.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits a document into overlapping pieces of approximately Size
// bytes with approximately Overlap bytes shared between neighbours, then
// recovers every piece's true offset by locating it as a literal substring
// of the document. Pieces that cannot be located (the splitter trims
// whitespace, so this can happen for pathological inputs) are dropped with
// a diagnostic rather than given a fabricated offset: a missing chunk
// degrades coverage, it never crashes the pipeline.
type Chunker struct {
	Size    int
	Overlap int

	logger  logging.Logger
	metrics Metrics
}

// NewChunker constructs a Chunker. Overlap is clamped below Size.
func NewChunker(size, overlap int, logger logging.Logger, metrics Metrics) *Chunker {
	if size <= 0 {
		size = 2000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &Chunker{Size: size, Overlap: overlap, logger: logger, metrics: metrics}
}

// Chunk splits text into located chunks. Empty or whitespace-only input
// yields nil. Text no longer than the chunk size is returned as a single
// chunk at offset 0.
func (c *Chunker) Chunk(text string) []ChunkOffset {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []ChunkOffset{{Text: text, Start: 0}}
	}

	pieces := mergePieces(splitRecursive(text, c.Size, chunkSeparators), c.Size, c.Overlap)

	chunks := make([]ChunkOffset, 0, len(pieces))
	searchFrom := 0
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		idx := strings.Index(text[searchFrom:], piece)
		if idx < 0 {
			c.logger.Warn("could not reliably locate chunk in source text, dropping it",
				logging.Int("chunk_bytes", len(piece)),
				logging.Int("search_from", searchFrom))
			c.metrics.RecordChunkDropped()
			continue
		}
		start := searchFrom + idx
		chunks = append(chunks, ChunkOffset{Text: piece, Start: start})
		// Advance only one byte so the next chunk may begin inside the
		// overlap region of this one.
		searchFrom = start + 1
	}
	return chunks
}

// splitRecursive breaks text into fragments no longer than size, preferring
// the earliest separator in seps that produces progress and falling back to
// a hard cut on a rune boundary.
func splitRecursive(text string, size int, seps []string) []string {
	if len(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(seps) == 0 {
		return hardCut(text, size)
	}

	sep := seps[0]
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// Separator absent; try the next finer one.
		return splitRecursive(text, size, seps[1:])
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= size {
			out = append(out, part)
		} else {
			out = append(out, splitRecursive(part, size, seps[1:])...)
		}
	}
	return out
}

// hardCut slices text into size-byte fragments, never splitting inside a
// UTF-8 sequence.
func hardCut(text string, size int) []string {
	var out []string
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// mergePieces greedily packs fragments into chunks of at most size bytes.
// When a chunk is flushed, trailing fragments totalling at most overlap
// bytes are carried into the next chunk so neighbours share context.
func mergePieces(fragments []string, size, overlap int) []string {
	var (
		chunks  []string
		current []string
		curLen  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// Retain the overlap tail.
		var kept []string
		keptLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			if keptLen+len(current[i]) > overlap {
				break
			}
			keptLen += len(current[i])
			kept = append([]string{current[i]}, kept...)
		}
		current = kept
		curLen = keptLen
	}

	for _, frag := range fragments {
		if curLen+len(frag) > size && curLen > 0 {
			flush()
		}
		current = append(current, frag)
		curLen += len(frag)
	}
	if curLen > 0 {
		chunk := strings.TrimSpace(strings.Join(current, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
