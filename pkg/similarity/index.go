package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"subsidy-intake-be/internal/metrics"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/store"
)

var (
	// ErrDimensionMismatch is returned when two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector is returned when a vector has no magnitude.
	ErrZeroVector = errors.New("zero magnitude vector")
)

// CosineSimilarity computes dot(a,b) / (|a|*|b|)
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp float drift so identical vectors never report 1.0000000002
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// Index is an immutable in-memory corpus ranked by cosine similarity
type Index struct {
	entries []store.Candidate
	byID    map[string]int
	logger  logger.ILogger
}

// NewIndex copies the entries; the index never changes afterwards
func NewIndex(entries []store.Candidate, log logger.ILogger) *Index {
	copied := make([]store.Candidate, len(entries))
	byID := make(map[string]int, len(entries))
	dims := make(map[int]int)

	for i, e := range entries {
		copied[i] = store.Candidate{
			ID:      e.ID,
			Name:    e.Name,
			Summary: e.Summary,
			Vector:  append([]float32(nil), e.Vector...),
		}
		byID[e.ID] = i
		dims[len(e.Vector)]++
	}

	if len(dims) > 1 {
		log.Warn("Similarity", "Corpus has mixed vector dimensions", map[string]interface{}{
			"dimensions": dims,
		})
	}

	return &Index{
		entries: copied,
		byID:    byID,
		logger:  log,
	}
}

// Len returns the corpus size
func (i *Index) Len() int {
	return len(i.entries)
}

// Lookup returns a corpus entry by id
func (i *Index) Lookup(id string) (store.Candidate, bool) {
	idx, ok := i.byID[id]
	if !ok {
		return store.Candidate{}, false
	}
	return i.entries[idx], true
}

// Rank scores every corpus entry against query and returns the best topN.
// Entries that cannot be compared are skipped, never scored as zero.
func (i *Index) Rank(query []float32, topN int) []store.RankedResult {
	results := make([]store.RankedResult, 0, len(i.entries))
	if topN <= 0 || len(i.entries) == 0 {
		return results
	}

	for _, e := range i.entries {
		sim, err := CosineSimilarity(query, e.Vector)
		if err != nil {
			reason := "dimension_mismatch"
			if errors.Is(err, ErrZeroVector) {
				reason = "zero_vector"
			}
			metrics.RecordRankingSkip(reason)
			i.logger.Debug("Similarity", "Skipping corpus entry", map[string]interface{}{
				"candidate_id": e.ID,
				"query_dim":    len(query),
				"entry_dim":    len(e.Vector),
				"error":        err.Error(),
			})
			continue
		}

		results = append(results, store.RankedResult{
			CandidateID:   e.ID,
			CandidateName: e.Name,
			Similarity:    sim,
		})
	}

	// Stable keeps corpus order for ties
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results
}
