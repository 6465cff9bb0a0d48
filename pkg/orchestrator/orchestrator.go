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
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kraklabs/recall/pkg/callgraph"
	"github.com/kraklabs/recall/pkg/callgraphstore"
	"github.com/kraklabs/recall/pkg/hybrid"
	"github.com/kraklabs/recall/pkg/memory"
	"github.com/kraklabs/recall/pkg/pattern"
	"github.com/kraklabs/recall/pkg/vectorpool"
)

// DependencyService is the external file-dependency collaborator that
// find_dependencies/find_dependents delegate to; computing the
// dependency graph itself is out of core scope (spec.md §4.9).
type DependencyService interface {
	FindDependencies(ctx context.Context, filePath, project string, depth int, includeTransitive bool) ([]Dependency, error)
	FindDependents(ctx context.Context, filePath, project string, depth int, includeTransitive bool) ([]Dependency, error)
}

// Orchestrator composes pkg/callgraph, pkg/callgraphstore, pkg/hybrid,
// and pkg/vectorpool behind the structural and hybrid retrieval
// operations. Each call-graph and hybrid retrieval call acquires and
// releases exactly one pool connection; find_dependencies and
// find_dependents delegate to DependencyService and acquire none.
type Orchestrator struct {
	pool                *vectorpool.Pool
	callGraphCollection string
	vectorSize          uint64
	memoryCollection    string
	deps                DependencyService
	embedder            memory.Embedder
	embedCache          memory.EmbeddingCache
	matcher             *pattern.Matcher
	logger              *slog.Logger

	mu        sync.Mutex
	searchers map[string]*hybrid.Searcher
	patterns  []RegisteredPattern
}

// PatternMode controls how a registered pattern influences hybrid_retrieve.
type PatternMode string

const (
	// PatternFilter drops results whose content does not match.
	PatternFilter PatternMode = "filter"
	// PatternRequire behaves like PatternFilter but signals the pattern
	// is load-bearing: an empty match set is itself a meaningful result,
	// not a fallback condition. Kept distinct from PatternFilter for
	// callers that want to branch on which predicates actually gated
	// the result set.
	PatternRequire PatternMode = "require"
	// PatternBoost multiplies TotalScore by (1 + pattern score) for
	// matching results, without dropping non-matching ones.
	PatternBoost PatternMode = "boost"
)

// RegisteredPattern is one pattern predicate applied during hybrid_retrieve.
type RegisteredPattern struct {
	Pattern string
	Mode    PatternMode
}

// New builds an Orchestrator. deps, embedder, and embedCache may be
// nil; find_dependencies/find_dependents return an error if deps is
// nil, and hybrid_retrieve returns an EmbeddingError if embedder is
// nil and the query is not already in embedCache.
func New(pool *vectorpool.Pool, callGraphCollection, memoryCollection string, vectorSize uint64, deps DependencyService, embedder memory.Embedder, embedCache memory.EmbeddingCache, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		pool:                pool,
		callGraphCollection: callGraphCollection,
		memoryCollection:    memoryCollection,
		vectorSize:          vectorSize,
		deps:                deps,
		embedder:            embedder,
		embedCache:          embedCache,
		matcher:             pattern.New(),
		logger:              logger,
		searchers:           make(map[string]*hybrid.Searcher),
	}
}

// RegisterPattern adds a pattern predicate consulted by hybrid_retrieve.
func (o *Orchestrator) RegisterPattern(p RegisteredPattern) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.patterns = append(o.patterns, p)
}

func (o *Orchestrator) loadGraph(ctx context.Context, project string) (*callgraph.CallGraph, error) {
	client, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer o.pool.Release(client)

	store := callgraphstore.New(client, o.callGraphCollection, o.vectorSize)
	return store.LoadCallGraph(ctx, project, nil)
}

func timed(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// FindCallers returns every caller of functionName, flattened into call
// sites, per spec.md §4.9.
func (o *Orchestrator) FindCallers(ctx context.Context, functionName, project string, includeIndirect bool, maxDepth, limit int) (Envelope, error) {
	start := time.Now()
	graph, err := o.loadGraph(ctx, project)
	if err != nil {
		return Envelope{}, err
	}

	callerNodes := graph.FindCallers(functionName, includeIndirect, maxDepth)
	direct := graph.ReverseIndex[functionName]

	var rows []CallerRow
	directCount := 0
	for _, caller := range callerNodes {
		isDirect := false
		if _, ok := direct[caller.QualifiedName]; ok {
			isDirect = true
		}
		for _, site := range graph.GetCallSitesForCaller(caller.QualifiedName) {
			if site.CalleeFunction != functionName {
				continue
			}
			rows = append(rows, CallerRow{
				CallerFunction: site.CallerFunction,
				CallerFile:     site.CallerFile,
				CallerLine:     site.CallerLine,
				CallType:       site.CallType,
				Language:       caller.Language,
				IsAsync:        caller.IsAsync,
			})
			if isDirect {
				directCount++
			}
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	return Envelope{
		Inputs: map[string]any{
			"function_name": functionName, "project": project,
			"include_indirect": includeIndirect, "max_depth": maxDepth, "limit": limit,
		},
		Results: rows,
		Counts: map[string]int{
			"total":            len(rows),
			"direct_callers":   directCount,
			"indirect_callers": len(rows) - directCount,
		},
		AnalysisTimeMs: timed(start),
	}, nil
}

// FindCallees is symmetric to FindCallers over the forward adjacency index.
func (o *Orchestrator) FindCallees(ctx context.Context, functionName, project string, includeIndirect bool, maxDepth, limit int) (Envelope, error) {
	start := time.Now()
	graph, err := o.loadGraph(ctx, project)
	if err != nil {
		return Envelope{}, err
	}

	direct := graph.ForwardIndex[functionName]
	var rows []CalleeRow
	seen := make(map[string]bool)

	for _, site := range graph.GetCallSitesForCaller(functionName) {
		if seen[site.CalleeFunction] {
			continue
		}
		seen[site.CalleeFunction] = true
		callee := graph.Nodes[site.CalleeFunction]
		rows = append(rows, CalleeRow{
			CalleeFunction: site.CalleeFunction,
			CalleeFile:     site.CalleeFile,
			CallSiteLine:   site.CallerLine,
			CallType:       site.CallType,
			Language:       callee.Language,
			IsAsync:        callee.IsAsync,
		})
	}

	if includeIndirect {
		for _, callee := range graph.FindCallees(functionName, true, maxDepth) {
			if seen[callee.QualifiedName] {
				continue
			}
			seen[callee.QualifiedName] = true
			rows = append(rows, CalleeRow{
				CalleeFunction: callee.QualifiedName,
				CalleeFile:     callee.FilePath,
				CallSiteLine:   0,
				CallType:       callgraph.CallIndirect,
				Language:       callee.Language,
				IsAsync:        callee.IsAsync,
			})
		}
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	directCount := 0
	for _, r := range rows {
		if _, ok := direct[r.CalleeFunction]; ok {
			directCount++
		}
	}

	return Envelope{
		Inputs: map[string]any{
			"function_name": functionName, "project": project,
			"include_indirect": includeIndirect, "max_depth": maxDepth, "limit": limit,
		},
		Results: rows,
		Counts: map[string]int{
			"total":            len(rows),
			"direct_callees":   directCount,
			"indirect_callees": len(rows) - directCount,
		},
		AnalysisTimeMs: timed(start),
	}, nil
}

// FindImplementations queries the call-graph store directly for
// implementations of interfaceName, filtering by language
// case-insensitively if given.
func (o *Orchestrator) FindImplementations(ctx context.Context, interfaceName, project, language string, limit int) (Envelope, error) {
	start := time.Now()

	client, err := o.pool.Acquire(ctx)
	if err != nil {
		return Envelope{}, err
	}
	store := callgraphstore.New(client, o.callGraphCollection, o.vectorSize)
	impls, err := store.GetImplementations(ctx, interfaceName, project)
	o.pool.Release(client)
	if err != nil {
		return Envelope{}, err
	}

	languageSet := make(map[string]bool)
	var rows []ImplementationRow
	for _, impl := range impls {
		if language != "" && !strings.EqualFold(impl.Language, language) {
			continue
		}
		rows = append(rows, ImplementationRow{
			ClassName:   impl.ImplementationName,
			FilePath:    impl.FilePath,
			Language:    impl.Language,
			Methods:     impl.Methods,
			MethodCount: len(impl.Methods),
		})
		languageSet[impl.Language] = true
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return Envelope{
		Inputs: map[string]any{
			"interface_name": interfaceName, "project": project,
			"language": language, "limit": limit,
		},
		Results: ImplementationsResult{Implementations: rows, Languages: languages},
		Counts:  map[string]int{"total": len(rows)},
		AnalysisTimeMs: timed(start),
	}, nil
}

// GetCallChain runs FindCallChain on the graph and attaches the
// matching call site to each edge of each returned path.
func (o *Orchestrator) GetCallChain(ctx context.Context, from, to, project string, maxPaths, maxDepth int) (Envelope, error) {
	start := time.Now()
	graph, err := o.loadGraph(ctx, project)
	if err != nil {
		return Envelope{}, err
	}

	rawPaths := graph.FindCallChain(from, to, maxDepth, maxPaths)

	paths := make([][]CallChainEdge, 0, len(rawPaths))
	shortest, longest := -1, -1
	for _, p := range rawPaths {
		edges := make([]CallChainEdge, 0, len(p)-1)
		for i := 0; i < len(p)-1; i++ {
			caller, callee := p[i], p[i+1]
			edge := CallChainEdge{Caller: caller, Callee: callee}
			for _, site := range graph.GetCallSitesForCaller(caller) {
				if site.CalleeFunction == callee {
					edge.File = site.CallerFile
					edge.Line = site.CallerLine
					edge.CallType = site.CallType
					break
				}
			}
			edges = append(edges, edge)
		}
		paths = append(paths, edges)
		if shortest == -1 || len(p) < shortest {
			shortest = len(p)
		}
		if len(p) > longest {
			longest = len(p)
		}
	}
	if shortest == -1 {
		shortest, longest = 0, 0
	}

	return Envelope{
		Inputs: map[string]any{
			"from": from, "to": to, "project": project,
			"max_paths": maxPaths, "max_depth": maxDepth,
		},
		Results: CallChainResult{Paths: paths, ShortestPathLength: shortest, LongestPathLength: longest},
		Counts:  map[string]int{"total": len(paths)},
		AnalysisTimeMs: timed(start),
	}, nil
}
