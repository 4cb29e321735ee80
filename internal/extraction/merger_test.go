package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerger_DuplicateAcrossOverlapCollapses(t *testing.T) {
	text := "Dr. Alice Smith works at the university. Dr. Alice Smith is a professor."
	m := NewMerger(nil)

	// Two overlapping chunks both extracted the same first occurrence.
	results := []ChunkResult{
		{Spans: []Span{{Type: "Person", Text: "Dr. Alice Smith"}}, Start: 0, End: 45},
		{Spans: []Span{{Type: "Person", Text: "Dr. Alice Smith"}}, Start: 30, End: len(text)},
	}

	ents := m.Merge(text, results)
	require.Len(t, ents, 2, "two text occurrences, each accepted once")
	assert.Equal(t, 0, ents[0].Start)
	assert.Equal(t, 41, ents[1].Start)
	for _, e := range ents {
		assert.Equal(t, "Dr. Alice Smith", text[e.Start:e.End])
	}
}

func TestMerger_LongerEntitySubsumesNested(t *testing.T) {
	text := "She studied at New York University last year."
	m := NewMerger(nil)

	results := []ChunkResult{{
		Spans: []Span{
			{Type: "Gpe", Text: "New York"},
			{Type: "Org", Text: "New York University"},
		},
		Start: 0,
		End:   len(text),
	}}

	ents := m.Merge(text, results)
	require.Len(t, ents, 1)
	assert.Equal(t, "Org", ents[0].Type)
	assert.Equal(t, "New York University", ents[0].Text)
}

func TestMerger_EqualLengthConflictFallsToConfidence(t *testing.T) {
	text := "xxxx target yyyy"
	m := NewMerger(nil)

	// Same span text proposed by two chunks; the occurrence sits at the far
	// edge of the first chunk and centrally in the second, so the second
	// chunk's type assignment must win.
	results := []ChunkResult{
		{Spans: []Span{{Type: "Edge", Text: "target"}}, Start: 0, End: 9},
		{Spans: []Span{{Type: "Center", Text: "target"}}, Start: 0, End: len(text)},
	}

	ents := m.Merge(text, results)
	require.Len(t, ents, 1)
	assert.Equal(t, "Center", ents[0].Type)
}

func TestMerger_SkipsEmptySpanText(t *testing.T) {
	text := "some text"
	m := NewMerger(nil)

	ents := m.Merge(text, []ChunkResult{{
		Spans: []Span{{Type: "Person", Text: ""}},
		Start: 0,
		End:   len(text),
	}})
	assert.Empty(t, ents)
}

func TestMerger_UnmatchableSpanYieldsNothing(t *testing.T) {
	text := "some text"
	m := NewMerger(nil)

	ents := m.Merge(text, []ChunkResult{{
		Spans: []Span{{Type: "Person", Text: "Cupertino"}},
		Start: 0,
		End:   len(text),
	}})
	assert.Empty(t, ents, "spans with no literal occurrence produce no entities")
}

func TestMerger_ResultSortedByStart(t *testing.T) {
	text := "Bob met Alice. Then Alice met Bob."
	m := NewMerger(nil)

	ents := m.Merge(text, []ChunkResult{{
		Spans: []Span{
			{Type: "Person", Text: "Alice"},
			{Type: "Person", Text: "Bob"},
		},
		Start: 0,
		End:   len(text),
	}})
	require.Len(t, ents, 4)
	for i := 1; i < len(ents); i++ {
		assert.Greater(t, ents[i].Start, ents[i-1].Start)
	}
}

func TestMerger_DeterministicAcrossResultOrder(t *testing.T) {
	text := "Alpha Corp hired Alice Smith. Alice Smith joined Alpha Corp."
	m := NewMerger(nil)

	a := []ChunkResult{
		{Spans: []Span{{Type: "Org", Text: "Alpha Corp"}}, Start: 0, End: 30},
		{Spans: []Span{{Type: "Person", Text: "Alice Smith"}}, Start: 20, End: len(text)},
	}
	b := []ChunkResult{a[1], a[0]}

	assert.Equal(t, m.Merge(text, a), m.Merge(text, b))
}

func TestChunkCentrality(t *testing.T) {
	// Mid-chunk occurrence scores 1.0.
	assert.InDelta(t, 1.0, chunkCentrality(45, 55, 0, 100), 0.01)
	// Edge occurrence scores near zero.
	assert.Less(t, chunkCentrality(0, 4, 0, 100), 0.1)
	// Zero-length chunk scores exactly zero.
	assert.Equal(t, 0.0, chunkCentrality(0, 4, 10, 10))
	// Occurrence outside the chunk clamps to zero.
	assert.Equal(t, 0.0, chunkCentrality(200, 210, 0, 100))
	// Always within [0, 1].
	assert.Equal(t, 1.0, chunkCentrality(50, 50, 0, 100))
}

func TestFindOccurrences(t *testing.T) {
	assert.Equal(t, []int{0, 2}, findOccurrences("aaa", "aa"), "overlapping matches count")
	assert.Equal(t, []int{4}, findOccurrences("the cat", "cat"))
	assert.Empty(t, findOccurrences("the cat", "dog"))
}
