package similarity

import (
	"testing"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr error
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 1}, b: []float32{-1, -1}, want: -1},
		{name: "scaled", a: []float32{2, 0}, b: []float32{5, 0}, want: 1},
		{name: "dimension mismatch", a: []float32{1, 0}, b: []float32{1, 0, 0}, wantErr: ErrDimensionMismatch},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, wantErr: ErrZeroVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	pairs := [][2][]float32{
		{{0.3, -1.2, 4}, {2, 0.5, -0.7}},
		{{1, 2}, {3, 4}},
		{{-0.1, 0.9, 0.2, 0.4}, {0.7, 0.1, -0.3, 0.05}},
	}
	for _, p := range pairs {
		ab, err := CosineSimilarity(p[0], p[1])
		require.NoError(t, err)
		ba, err := CosineSimilarity(p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, ab, ba)

		self, err := CosineSimilarity(p[0], p[0])
		require.NoError(t, err)
		assert.InDelta(t, 1.0, self, 1e-9)
	}
}

func TestRankScenario(t *testing.T) {
	idx := NewIndex([]store.Candidate{
		{ID: "s1", Name: "Solar", Vector: []float32{1, 0}},
		{ID: "s2", Name: "Childcare", Vector: []float32{0, 1}},
	}, logger.NewNopLogger())

	got := idx.Rank([]float32{1, 0}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].CandidateID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
	assert.Equal(t, "s2", got[1].CandidateID)
	assert.InDelta(t, 0.0, got[1].Similarity, 1e-9)
}

func TestRankTruncatesAndSorts(t *testing.T) {
	idx := NewIndex([]store.Candidate{
		{ID: "a", Vector: []float32{0, 1}},
		{ID: "b", Vector: []float32{1, 1}},
		{ID: "c", Vector: []float32{1, 0}},
		{ID: "d", Vector: []float32{1, 0.2}},
	}, logger.NewNopLogger())

	got := idx.Rank([]float32{1, 0}, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "d", "b"}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	idx := NewIndex([]store.Candidate{
		{ID: "first", Vector: []float32{1, 0}},
		{ID: "second", Vector: []float32{2, 0}},
		{ID: "third", Vector: []float32{3, 0}},
	}, logger.NewNopLogger())

	got := idx.Rank([]float32{1, 0}, 3)

	assert.Equal(t, []string{"first", "second", "third"}, ids(got))
}

func TestRankSkipsMismatchedEntries(t *testing.T) {
	idx := NewIndex([]store.Candidate{
		{ID: "short", Vector: []float32{1}},
		{ID: "ok", Vector: []float32{0, 1}},
		{ID: "empty", Vector: []float32{0, 0}},
	}, logger.NewNopLogger())

	got := idx.Rank([]float32{0, 1}, 5)

	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].CandidateID)
}

func TestRankEmptyCorpusAndTopN(t *testing.T) {
	empty := NewIndex(nil, logger.NewNopLogger())
	assert.Empty(t, empty.Rank([]float32{1, 0}, 3))
	assert.Equal(t, 0, empty.Len())

	idx := NewIndex([]store.Candidate{{ID: "x", Vector: []float32{1, 0}}}, logger.NewNopLogger())
	assert.Empty(t, idx.Rank([]float32{1, 0}, 0))
}

func TestIndexIsImmutable(t *testing.T) {
	entries := []store.Candidate{{ID: "x", Name: "X", Vector: []float32{1, 0}}}
	idx := NewIndex(entries, logger.NewNopLogger())

	entries[0].Vector[0] = 0
	entries[0].Name = "changed"

	c, ok := idx.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "X", c.Name)
	assert.Equal(t, float32(1), c.Vector[0])
}

func ids(results []store.RankedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.CandidateID
	}
	return out
}
