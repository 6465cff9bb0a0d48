package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/recall/pkg/memory"
)

func unit(id string) memory.Unit { return memory.Unit{ID: id} }

func TestIndexDocumentsRejectsLengthMismatch(t *testing.T) {
	s := New()
	err := s.IndexDocuments([]string{"a", "b"}, []memory.Unit{unit("1")})
	require.Error(t, err)
}

func TestHybridSearchFallsBackToVectorOnlyWhenNotIndexed(t *testing.T) {
	s := New()
	vecResults := []VectorResult{{Memory: unit("1"), Score: 0.9}, {Memory: unit("2"), Score: 0.5}}
	results := s.HybridSearch("anything", vecResults, 10, FusionWeighted, 0.5, 60)

	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].Memory.ID)
	assert.Equal(t, 0.0, results[0].BM25Score)
}

// S2/S3-adjacent corpus used across fusion tests.
func buildTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	s := New()
	docs := []string{
		"authentication user login system",
		"database connection pool manager",
		"user authentication handler function",
		"configuration file parser",
	}
	units := []memory.Unit{unit("d1"), unit("d2"), unit("d3"), unit("d4")}
	require.NoError(t, s.IndexDocuments(docs, units))
	return s
}

// S3 — weighted fusion with alpha=1.0 returns memories in the same
// order as vector_results.
func TestWeightedFusionAlphaOnePreservesVectorOrder(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{
		{Memory: unit("d4"), Score: 0.9},
		{Memory: unit("d2"), Score: 0.7},
		{Memory: unit("d1"), Score: 0.3},
	}
	results := s.HybridSearch("authentication user", vecResults, 10, FusionWeighted, 1.0, 60)

	require.Len(t, results, 4) // d3 appears via bm25-only contribution
	assert.Equal(t, "d4", results[0].Memory.ID)
	assert.Equal(t, "d2", results[1].Memory.ID)
	assert.Equal(t, "d1", results[2].Memory.ID)
}

// When every BM25 score ties (here: all zero, no query token matches
// any document), min-max normalization maps every value to 1.0 rather
// than dividing by a zero range.
func TestWeightedFusionAllEqualScoresMapToOne(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{
		{Memory: unit("d1"), Score: 0.5},
		{Memory: unit("d2"), Score: 0.5},
	}
	results := s.HybridSearch("zzz_no_match_tokens", vecResults, 10, FusionWeighted, 0.5, 60)
	for _, r := range results {
		if r.Memory.ID == "d1" || r.Memory.ID == "d2" {
			assert.Equal(t, 1.0, r.TotalScore) // vecNorm and bm25Norm both collapse to 1.0
		}
	}
}

func TestRRFFusionOrdersByRankSum(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{
		{Memory: unit("d1"), Score: 0.9},
		{Memory: unit("d3"), Score: 0.8},
	}
	results := s.HybridSearch("authentication user", vecResults, 10, FusionRRF, 0.5, 60)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, FusionRRF, r.FusionMethod)
	}
}

func TestCascadeFusionTakesBM25FirstThenBackfillsVector(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{
		{Memory: unit("d4"), Score: 0.9},
		{Memory: unit("d1"), Score: 0.1},
	}
	results := s.HybridSearch("authentication user", vecResults, 3, FusionCascade, 0.5, 60)
	require.LessOrEqual(t, len(results), 3)

	for _, r := range results {
		if r.RankBM25 != nil {
			assert.Greater(t, r.BM25Score, 0.0)
			assert.Equal(t, 0.0, r.VectorScore)
		}
	}
}

func TestCascadeFusionSkipsDuplicatesFromVectorBackfill(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{{Memory: unit("d1"), Score: 0.9}}
	results := s.HybridSearch("authentication", vecResults, 10, FusionCascade, 0.5, 60)

	seen := make(map[string]int)
	for _, r := range results {
		seen[r.Memory.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s appeared %d times", id, count)
	}
}

func TestHybridSearchRespectsLimit(t *testing.T) {
	s := buildTestSearcher(t)
	vecResults := []VectorResult{{Memory: unit("d1"), Score: 0.9}, {Memory: unit("d2"), Score: 0.2}}
	results := s.HybridSearch("authentication user", vecResults, 1, FusionWeighted, 0.5, 60)
	assert.Len(t, results, 1)
}
