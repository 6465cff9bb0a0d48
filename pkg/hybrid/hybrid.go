// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hybrid merges BM25 keyword scores with vector similarity
// scores using one of three fusion strategies: weighted blend,
// reciprocal-rank fusion, or BM25-first cascade.
package hybrid

import (
	"fmt"
	"sort"

	"github.com/kraklabs/recall/pkg/bm25"
	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/memory"
)

// FusionMethod names the strategy used to combine BM25 and vector scores.
type FusionMethod string

const (
	FusionWeighted FusionMethod = "weighted"
	FusionRRF      FusionMethod = "rrf"
	FusionCascade  FusionMethod = "cascade"
)

// VectorResult is one entry from the vector store side of a search,
// already ranked by the caller (best first).
type VectorResult struct {
	Memory memory.Unit
	Score  float64
}

// Result is one fused row returned by HybridSearch.
type Result struct {
	Memory       memory.Unit
	TotalScore   float64
	VectorScore  float64
	BM25Score    float64
	RankVector   *int
	RankBM25     *int
	FusionMethod FusionMethod
}

// Searcher indexes a document corpus with BM25 and fuses it against
// externally supplied vector results.
type Searcher struct {
	index     *bm25.Index
	documents []string
	units     []memory.Unit
	indexed   bool
}

// New returns an empty Searcher.
func New() *Searcher {
	return &Searcher{index: bm25.New()}
}

// IndexDocuments builds the BM25 index over documents and stores the
// parallel memory-unit side. documents and memoryUnits must be the
// same length.
func (s *Searcher) IndexDocuments(documents []string, units []memory.Unit) error {
	if len(documents) != len(units) {
		return corerr.NewValidationError(fmt.Sprintf("documents and memory_units must have the same length: %d vs %d", len(documents), len(units)))
	}
	s.index.Fit(documents)
	s.documents = documents
	s.units = units
	s.indexed = len(documents) > 0
	return nil
}

// HybridSearch fuses vectorResults with the indexed BM25 corpus using
// method, returning at most limit rows. If no documents are indexed,
// it falls back to returning vectorResults verbatim with BM25Score = 0.
func (s *Searcher) HybridSearch(query string, vectorResults []VectorResult, limit int, method FusionMethod, alpha float64, rrfK int) []Result {
	if !s.indexed {
		out := make([]Result, 0, len(vectorResults))
		for i, v := range vectorResults {
			rank := i
			out = append(out, Result{
				Memory: v.Memory, TotalScore: v.Score, VectorScore: v.Score,
				RankVector: &rank, FusionMethod: FusionMethod(""),
			})
		}
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	bm25Scores := s.index.GetScores(query)
	bm25Results := make([]bm25Hit, 0, len(s.units))
	for i, score := range bm25Scores {
		if i >= len(s.units) {
			break
		}
		bm25Results = append(bm25Results, bm25Hit{unit: s.units[i], score: score})
	}
	sort.SliceStable(bm25Results, func(i, j int) bool { return bm25Results[i].score > bm25Results[j].score })

	switch method {
	case FusionRRF:
		return fuseRRF(vectorResults, bm25Results, limit, rrfK)
	case FusionCascade:
		return fuseCascade(vectorResults, bm25Results, limit)
	default:
		return fuseWeighted(vectorResults, bm25Results, limit, alpha)
	}
}

type bm25Hit struct {
	unit  memory.Unit
	score float64
}
