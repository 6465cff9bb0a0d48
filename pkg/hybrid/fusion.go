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

package hybrid

import "sort"

// fuseWeighted min-max normalizes both score lists to [0,1] (mapping
// every value to 1.0 if all values in a list are equal), then blends
// total = alpha*vec_norm + (1-alpha)*bm25_norm per memory id.
func fuseWeighted(vectorResults []VectorResult, bm25Results []bm25Hit, limit int, alpha float64) []Result {
	vecNorm := normalizeVector(vectorResults)
	bmNorm := normalizeBM25(bm25Results)

	merged := make(map[string]*Result)
	order := make([]string, 0, len(vectorResults)+len(bm25Results))

	for i, v := range vectorResults {
		id := v.Memory.ID
		rank := i
		merged[id] = &Result{Memory: v.Memory, VectorScore: v.Score, RankVector: &rank}
		order = append(order, id)
	}
	for i, b := range bm25Results {
		id := b.unit.ID
		rank := i
		if existing, ok := merged[id]; ok {
			existing.BM25Score = b.score
			existing.RankBM25 = &rank
		} else {
			merged[id] = &Result{Memory: b.unit, BM25Score: b.score, RankBM25: &rank}
			order = append(order, id)
		}
	}

	for _, id := range order {
		r := merged[id]
		vn := vecNorm[id]
		bn := bmNorm[id]
		r.TotalScore = alpha*vn + (1-alpha)*bn
		r.FusionMethod = FusionWeighted
	}

	return topN(merged, order, limit)
}

func normalizeVector(results []VectorResult) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.Memory.ID] = r.Score
	}
	return minMaxNormalize(scores)
}

func normalizeBM25(results []bm25Hit) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.unit.ID] = r.score
	}
	return minMaxNormalize(scores)
}

func minMaxNormalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	min, max := minMax(scores)
	out := make(map[string]float64, len(scores))
	if min == max {
		for id := range scores {
			out[id] = 1.0
		}
		return out
	}
	for id, v := range scores {
		out[id] = (v - min) / (max - min)
	}
	return out
}

func minMax(scores map[string]float64) (float64, float64) {
	first := true
	var min, max float64
	for _, v := range scores {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// fuseRRF scores each memory id by the sum of 1/(k + rank + 1) over
// every list it appears in, ranks being 0-origin.
func fuseRRF(vectorResults []VectorResult, bm25Results []bm25Hit, limit, k int) []Result {
	merged := make(map[string]*Result)
	order := make([]string, 0, len(vectorResults)+len(bm25Results))

	for i, v := range vectorResults {
		id := v.Memory.ID
		rank := i
		merged[id] = &Result{Memory: v.Memory, VectorScore: v.Score, RankVector: &rank}
		merged[id].TotalScore += 1.0 / float64(k+rank+1)
		order = append(order, id)
	}
	for i, b := range bm25Results {
		id := b.unit.ID
		rank := i
		contribution := 1.0 / float64(k+rank+1)
		if existing, ok := merged[id]; ok {
			existing.BM25Score = b.score
			existing.RankBM25 = &rank
			existing.TotalScore += contribution
		} else {
			r := &Result{Memory: b.unit, BM25Score: b.score, RankBM25: &rank, TotalScore: contribution}
			merged[id] = r
			order = append(order, id)
		}
	}

	for _, id := range order {
		merged[id].FusionMethod = FusionRRF
	}

	return topN(merged, order, limit)
}

// fuseCascade takes top BM25 results with strictly positive score up
// to limit, then backfills from vectorResults (preserving order) for
// memories not already present, until limit is reached.
func fuseCascade(vectorResults []VectorResult, bm25Results []bm25Hit, limit int) []Result {
	var out []Result
	seen := make(map[string]struct{})

	for i, b := range bm25Results {
		if len(out) >= limit {
			break
		}
		if b.score <= 0 {
			break
		}
		rank := i
		out = append(out, Result{
			Memory: b.unit, BM25Score: b.score, TotalScore: b.score,
			RankBM25: &rank, FusionMethod: FusionCascade,
		})
		seen[b.unit.ID] = struct{}{}
	}

	for i, v := range vectorResults {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[v.Memory.ID]; dup {
			continue
		}
		rank := i
		out = append(out, Result{
			Memory: v.Memory, VectorScore: v.Score, TotalScore: v.Score,
			RankVector: &rank, FusionMethod: FusionCascade,
		})
		seen[v.Memory.ID] = struct{}{}
	}

	return out
}

func topN(merged map[string]*Result, order []string, limit int) []Result {
	out := make([]Result, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
