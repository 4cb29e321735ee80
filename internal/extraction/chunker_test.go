package extraction

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_EmptyAndWhitespaceInput(t *testing.T) {
	c := NewChunker(100, 10, nil, nil)

	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\t  "))
}

func TestChunker_ShortTextIsSingleChunk(t *testing.T) {
	c := NewChunker(100, 10, nil, nil)

	chunks := c.Chunk("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
}

func TestChunker_OffsetsAreExact(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	c := NewChunker(200, 40, nil, nil)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, ch.Text, text[ch.Start:ch.End()],
			"chunk text must be the exact substring at its recorded offset")
	}
}

func TestChunker_ChunksRespectSizeAndCoverText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Paragraph %d about entity extraction and named entities in long documents.\n\n", i)
	}
	text := b.String()
	c := NewChunker(300, 50, nil, nil)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 300)
	}

	// Chunks must appear in document order and leave no uncovered gap larger
	// than the separators trimmed at chunk edges.
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].Start, chunks[i-1].Start)
		assert.LessOrEqual(t, chunks[i].Start, chunks[i-1].End()+2,
			"consecutive chunks must overlap or nearly touch")
	}
	assert.LessOrEqual(t, len(text)-chunks[len(chunks)-1].End(), 2)
}

func TestChunker_NeighboursShareOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Sentence %d with alpha beta gamma delta epsilon zeta. ", i)
	}
	text := b.String()
	c := NewChunker(200, 60, nil, nil)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].Start, chunks[i-1].End(),
			"chunk %d must begin inside its predecessor", i)
	}
}

func TestChunker_HardCutIsRuneSafe(t *testing.T) {
	// No separators at all, multi-byte runes throughout.
	text := strings.Repeat("日本語テキスト", 100)
	c := NewChunker(50, 0, nil, nil)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk must not split a UTF-8 sequence")
		assert.Equal(t, ch.Text, text[ch.Start:ch.End()])
	}
}

func TestChunker_OverlapClampedBelowSize(t *testing.T) {
	c := NewChunker(100, 100, nil, nil)
	assert.Equal(t, 50, c.Overlap)

	c = NewChunker(0, -1, nil, nil)
	assert.Equal(t, 2000, c.Size)
	assert.Equal(t, 0, c.Overlap)
}
