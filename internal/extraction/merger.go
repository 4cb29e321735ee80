package extraction

import (
	"sort"
	"strings"

	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
)

// ---------------------------------------------------------------------------
// Merger — reconcile per-chunk entity lists into one document-level list
// ---------------------------------------------------------------------------

// Merger resolves span texts proposed by overlapping chunks to concrete
// occurrences in the full document and settles duplicates, nesting, and
// conflicts into a single consistent entity list.
//
// Known limitation: an entity whose surface form is split across a chunk
// boundary, so that no single chunk ever saw it whole, cannot be
// reconstructed — merging only recombines entities that some chunk
// extracted as a complete string.
type Merger struct {
	logger logging.Logger
}

// NewMerger constructs a Merger.
func NewMerger(logger logging.Logger) *Merger {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Merger{logger: logger}
}

// Merge runs both phases: occurrence resolution with centrality-based
// confidence scoring, then greedy longest-first conflict resolution over
// character positions. The result is deterministic for the same set of
// chunk results regardless of the order in which chunks completed, provided
// the caller passes them in chunk order (the engine indexes results by
// chunk, so completion order never leaks in).
func (m *Merger) Merge(fullText string, results []ChunkResult) []ResolvedEntity {
	candidates := m.resolveCandidates(fullText, results)
	return resolveConflicts(fullText, candidates)
}

// resolveCandidates is phase A: every literal occurrence of every proposed
// span text in the full document becomes a candidate entity, scored by how
// centrally the occurrence falls within the chunk that proposed it. An
// occurrence near a chunk edge is likely an artifact of overlap-induced
// truncation and scores low; one deep inside the chunk scores high.
func (m *Merger) resolveCandidates(fullText string, results []ChunkResult) []ResolvedEntity {
	var candidates []ResolvedEntity
	for _, cr := range results {
		for _, span := range cr.Spans {
			if span.Text == "" {
				m.logger.Warn("skipping span with empty text during merge",
					logging.String("type", span.Type))
				continue
			}
			for _, start := range findOccurrences(fullText, span.Text) {
				end := start + len(span.Text)
				candidates = append(candidates, ResolvedEntity{
					Type:       span.Type,
					Text:       span.Text,
					Start:      start,
					End:        end,
					Confidence: chunkCentrality(start, end, cr.Start, cr.End),
				})
			}
		}
	}
	return candidates
}

// resolveConflicts is phase B: candidates are ordered by descending text
// length, then descending confidence, with discovery order as the final,
// stable tie-break, and accepted greedily unless any character position in
// their range is already claimed. Longer entities therefore subsume nested
// shorter ones, duplicate detections across overlapping chunks collapse to
// one accepted instance, and equal-length conflicts fall to confidence.
func resolveConflicts(fullText string, candidates []ResolvedEntity) []ResolvedEntity {
	sort.SliceStable(candidates, func(i, j int) bool {
		li, lj := len(candidates[i].Text), len(candidates[j].Text)
		if li != lj {
			return li > lj
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	claimed := make([]bool, len(fullText))
	var accepted []ResolvedEntity
	for _, cand := range candidates {
		if cand.Start < 0 || cand.End > len(claimed) {
			continue
		}
		free := true
		for pos := cand.Start; pos < cand.End; pos++ {
			if claimed[pos] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for pos := cand.Start; pos < cand.End; pos++ {
			claimed[pos] = true
		}
		accepted = append(accepted, cand)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}

// findOccurrences returns the start offset of every literal occurrence of
// needle in haystack, including overlapping ones.
func findOccurrences(haystack, needle string) []int {
	var offsets []int
	from := 0
	for {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return offsets
		}
		offsets = append(offsets, from+idx)
		from += idx + 1
	}
}

// chunkCentrality scores an occurrence by its midpoint's distance to the
// nearest edge of the proposing chunk, normalised to [0,1]: 1.0 at the
// chunk centre, approaching 0.0 at the edges, exactly 0.0 for a zero-length
// chunk or an occurrence outside it. Any monotone function of
// distance-from-edge satisfies the contract; only the resulting ranking is
// observable.
func chunkCentrality(start, end, chunkStart, chunkEnd int) float64 {
	length := chunkEnd - chunkStart
	if length <= 0 {
		return 0.0
	}
	mid := float64(start+end) / 2.0
	dLeft := mid - float64(chunkStart)
	dRight := float64(chunkEnd) - mid
	d := dLeft
	if dRight < d {
		d = dRight
	}
	conf := d / (float64(length) / 2.0)
	if conf < 0 {
		return 0.0
	}
	if conf > 1 {
		return 1.0
	}
	return conf
}
