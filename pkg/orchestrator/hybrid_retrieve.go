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

package orchestrator

import (
	"context"
	"time"

	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/hybrid"
	"github.com/kraklabs/recall/pkg/qdrant"
)

// HybridRetrieveArgs bundles hybrid_retrieve's parameters.
type HybridRetrieveArgs struct {
	Query   string
	Project string
	// K is the candidate count pulled from the vector store before
	// fusion (spec.md §4.9 suggests 50 as a default).
	K      int
	Limit  int
	Method hybrid.FusionMethod
	Alpha  float64
	RRFK   int
}

// HybridRetrieve embeds the query, vector-searches the memory
// collection for up to K candidates, lazily builds the project's BM25
// corpus, fuses the two result sets, and applies any registered
// pattern predicates.
func (o *Orchestrator) HybridRetrieve(ctx context.Context, args HybridRetrieveArgs) (Envelope, error) {
	start := time.Now()
	if args.K <= 0 {
		args.K = 50
	}

	vector, err := o.embedQuery(ctx, args.Query)
	if err != nil {
		return Envelope{}, err
	}

	client, err := o.pool.Acquire(ctx)
	if err != nil {
		return Envelope{}, err
	}
	defer o.pool.Release(client)

	hits, err := client.Search(ctx, o.memoryCollection, vector, args.K, "project_name", args.Project)
	if err != nil {
		return Envelope{}, err
	}
	vectorResults := make([]hybrid.VectorResult, 0, len(hits))
	for _, hit := range hits {
		vectorResults = append(vectorResults, hybrid.VectorResult{
			Memory: unitFromPayload(hit.ID, hit.Payload),
			Score:  float64(hit.Score),
		})
	}

	searcher, err := o.searcherFor(ctx, client, args.Project)
	if err != nil {
		return Envelope{}, err
	}

	results := searcher.HybridSearch(args.Query, vectorResults, args.Limit, args.Method, args.Alpha, args.RRFK)
	results = o.applyPatterns(results)

	return Envelope{
		Inputs: map[string]any{
			"query": args.Query, "project": args.Project, "k": args.K,
			"limit": args.Limit, "method": args.Method, "alpha": args.Alpha, "rrf_k": args.RRFK,
		},
		Results: results,
		Counts:  map[string]int{"total": len(results), "candidates": len(vectorResults)},
		AnalysisTimeMs: timed(start),
	}, nil
}

// searcherFor returns the cached Searcher for project, building it
// (and indexing the project's full corpus) on first use.
func (o *Orchestrator) searcherFor(ctx context.Context, client qdrant.Client, project string) (*hybrid.Searcher, error) {
	o.mu.Lock()
	if s, ok := o.searchers[project]; ok {
		o.mu.Unlock()
		return s, nil
	}
	o.mu.Unlock()

	documents, units, err := o.loadCorpus(ctx, client, project)
	if err != nil {
		return nil, err
	}
	searcher := hybrid.New()
	if err := searcher.IndexDocuments(documents, units); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.searchers[project] = searcher
	o.mu.Unlock()
	return searcher, nil
}

func (o *Orchestrator) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if o.embedCache != nil {
		if v, ok := o.embedCache.Get(query); ok {
			return v, nil
		}
	}
	if o.embedder == nil {
		return nil, corerr.NewEmbeddingError("no embedder configured")
	}
	vector, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if o.embedCache != nil {
		o.embedCache.Put(query, vector)
	}
	return vector, nil
}

// applyPatterns filters/boosts fused results by every registered
// pattern, evaluated against the memory content of each result.
func (o *Orchestrator) applyPatterns(results []hybrid.Result) []hybrid.Result {
	o.mu.Lock()
	patterns := append([]RegisteredPattern(nil), o.patterns...)
	o.mu.Unlock()
	if len(patterns) == 0 {
		return results
	}

	out := make([]hybrid.Result, 0, len(results))
	for _, r := range results {
		keep := true
		boost := 1.0
		for _, p := range patterns {
			matched, err := o.matcher.Match(p.Pattern, r.Memory.Content)
			if err != nil {
				continue
			}
			switch p.Mode {
			case PatternFilter, PatternRequire:
				if !matched {
					keep = false
				}
			case PatternBoost:
				if matched {
					score, err := o.matcher.CalculatePatternScore(r.Memory.Content, p.Pattern, r.Memory.Category)
					if err == nil {
						boost += score
					}
				}
			}
		}
		if !keep {
			continue
		}
		r.TotalScore *= boost
		out = append(out, r)
	}
	return out
}
