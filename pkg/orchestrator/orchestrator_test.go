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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/recall/pkg/callgraph"
	"github.com/kraklabs/recall/pkg/callgraphstore"
	"github.com/kraklabs/recall/pkg/hybrid"
	"github.com/kraklabs/recall/pkg/memory"
	"github.com/kraklabs/recall/pkg/qdrant"
	"github.com/kraklabs/recall/pkg/vectorpool"
)

const testCallGraphCollection = "code_call_graph"
const testMemoryCollection = "memories"

type zeroEmbedder struct{ dim int }

func (e zeroEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, e.dim), nil
}

type fakeDeps struct {
	dependencies []Dependency
	dependents   []Dependency
}

func (d *fakeDeps) FindDependencies(ctx context.Context, filePath, project string, depth int, includeTransitive bool) ([]Dependency, error) {
	return d.dependencies, nil
}

func (d *fakeDeps) FindDependents(ctx context.Context, filePath, project string, depth int, includeTransitive bool) ([]Dependency, error) {
	return d.dependents, nil
}

// newTestOrchestrator wires a single-connection pool around a shared
// fakeClient instance so data written through one orchestrator call is
// visible to the next (mirroring one real backing store).
func newTestOrchestrator(t *testing.T, client *fakeClient, deps DependencyService) *Orchestrator {
	t.Helper()
	cfg := vectorpool.DefaultConfig(1, 1, 2*time.Second, time.Hour)
	pool, err := vectorpool.New("orchestrator-test", cfg, func() (qdrant.Client, error) { return client, nil }, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	return New(pool, testCallGraphCollection, testMemoryCollection, 4, deps, zeroEmbedder{dim: 4}, nil, nil)
}

func seedCallGraph(t *testing.T, client *fakeClient, project string) {
	t.Helper()
	store := callgraphstore.New(client, testCallGraphCollection, 4)
	ctx := context.Background()

	nodes := []callgraph.FunctionNode{
		{Name: "main", QualifiedName: "main", FilePath: "s1.py", Language: "python"},
		{Name: "process", QualifiedName: "process", FilePath: "s1.py", Language: "python"},
		{Name: "validate", QualifiedName: "validate", FilePath: "s1.py", Language: "python"},
		{Name: "helper", QualifiedName: "helper", FilePath: "s1.py", Language: "python"},
	}
	for _, n := range nodes {
		_, err := store.StoreFunctionNode(ctx, n, project, nil, nil)
		require.NoError(t, err)
	}

	calls := map[string][]callgraph.CallSite{
		"main":     {{CallerFunction: "main", CallerFile: "s1.py", CallerLine: 2, CalleeFunction: "process", CallType: callgraph.CallDirect}},
		"process":  {{CallerFunction: "process", CallerFile: "s1.py", CallerLine: 5, CalleeFunction: "validate", CallType: callgraph.CallDirect}},
		"validate": {{CallerFunction: "validate", CallerFile: "s1.py", CallerLine: 8, CalleeFunction: "helper", CallType: callgraph.CallDirect}},
	}
	for caller, sites := range calls {
		require.NoError(t, store.StoreCallSites(ctx, caller, sites, project))
	}

	impls := []callgraph.InterfaceImplementation{
		{InterfaceName: "Shape", ImplementationName: "Circle", FilePath: "shapes.py", Language: "python", Methods: []string{"area"}},
		{InterfaceName: "Shape", ImplementationName: "square", FilePath: "shapes.js", Language: "javascript", Methods: []string{"area"}},
	}
	require.NoError(t, store.StoreImplementations(ctx, "Shape", impls, project))
}

func TestFindCallersDirect(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.FindCallers(context.Background(), "process", "proj", false, 1, 10)
	require.NoError(t, err)

	rows, ok := env.Results.([]CallerRow)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "main", rows[0].CallerFunction)
	assert.Equal(t, 1, env.Counts["direct_callers"])
	assert.Equal(t, 0, env.Counts["indirect_callers"])
}

func TestFindCalleesWithIndirect(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.FindCallees(context.Background(), "main", "proj", true, 3, 10)
	require.NoError(t, err)

	rows, ok := env.Results.([]CalleeRow)
	require.True(t, ok)

	names := make(map[string]CalleeRow)
	for _, r := range rows {
		names[r.CalleeFunction] = r
	}
	require.Contains(t, names, "process")
	assert.Equal(t, callgraph.CallDirect, names["process"].CallType)
	require.Contains(t, names, "validate")
	assert.Equal(t, callgraph.CallIndirect, names["validate"].CallType)
	assert.Equal(t, 0, names["validate"].CallSiteLine)
}

func TestFindImplementationsFiltersByLanguage(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.FindImplementations(context.Background(), "Shape", "proj", "python", 10)
	require.NoError(t, err)

	result, ok := env.Results.(ImplementationsResult)
	require.True(t, ok)
	require.Len(t, result.Implementations, 1)
	assert.Equal(t, "Circle", result.Implementations[0].ClassName)
	assert.Equal(t, []string{"python"}, result.Languages)
}

func TestFindImplementationsNoLanguageFilterReturnsAll(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.FindImplementations(context.Background(), "Shape", "proj", "", 10)
	require.NoError(t, err)

	result := env.Results.(ImplementationsResult)
	assert.Len(t, result.Implementations, 2)
	assert.Equal(t, []string{"javascript", "python"}, result.Languages)
}

func TestGetCallChainAttachesCallSites(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.GetCallChain(context.Background(), "main", "helper", "proj", 5, 10)
	require.NoError(t, err)

	result := env.Results.(CallChainResult)
	require.Len(t, result.Paths, 1)
	path := result.Paths[0]
	require.Len(t, path, 3)
	assert.Equal(t, "main", path[0].Caller)
	assert.Equal(t, "process", path[0].Callee)
	assert.Equal(t, 2, path[0].Line)
	assert.Equal(t, 4, result.ShortestPathLength)
	assert.Equal(t, 4, result.LongestPathLength)
}

func TestGetCallChainNoPathReturnsEmpty(t *testing.T) {
	client := newFakeClient()
	seedCallGraph(t, client, "proj")
	o := newTestOrchestrator(t, client, nil)

	env, err := o.GetCallChain(context.Background(), "helper", "main", "proj", 5, 10)
	require.NoError(t, err)
	result := env.Results.(CallChainResult)
	assert.Empty(t, result.Paths)
	assert.Equal(t, 0, result.ShortestPathLength)
}

func TestFindDependenciesRequiresService(t *testing.T) {
	o := newTestOrchestrator(t, newFakeClient(), nil)
	_, err := o.FindDependencies(context.Background(), "a.go", "proj", 1, false)
	require.Error(t, err)
}

func TestFindDependentsImpactRadiusBucketing(t *testing.T) {
	cases := []struct {
		count int
		want  ImpactRadius
	}{
		{5, ImpactLow},
		{10, ImpactMedium},
		{20, ImpactMedium},
		{21, ImpactHigh},
	}
	for _, tc := range cases {
		deps := make([]Dependency, tc.count)
		for i := range deps {
			deps[i] = Dependency{FilePath: "x.go", DependsOn: "y.go"}
		}
		o := newTestOrchestrator(t, newFakeClient(), &fakeDeps{dependents: deps})
		env, err := o.FindDependents(context.Background(), "y.go", "proj", 1, false)
		require.NoError(t, err)
		result := env.Results.(DependentsResult)
		assert.Equal(t, tc.want, result.ImpactRadius, "count=%d", tc.count)
	}
}

func seedMemory(t *testing.T, client *fakeClient, project string, units []memory.Unit) {
	t.Helper()
	points := make([]qdrant.Point, 0, len(units))
	for _, u := range units {
		points = append(points, qdrant.Point{
			ID:     u.ID,
			Vector: make([]float32, 4),
			Payload: map[string]any{
				"content":      u.Content,
				"category":     u.Category,
				"project_name": project,
			},
		})
	}
	require.NoError(t, client.Upsert(context.Background(), testMemoryCollection, points))
}

func TestHybridRetrieveFusesVectorAndBM25(t *testing.T) {
	client := newFakeClient()
	units := []memory.Unit{
		{ID: "1", Content: "authentication user login system"},
		{ID: "2", Content: "database connection pool manager"},
		{ID: "3", Content: "user authentication handler function"},
		{ID: "4", Content: "configuration file parser"},
	}
	seedMemory(t, client, "proj", units)
	o := newTestOrchestrator(t, client, nil)

	env, err := o.HybridRetrieve(context.Background(), HybridRetrieveArgs{
		Query: "authentication user", Project: "proj", K: 10, Limit: 4,
	})
	require.NoError(t, err)

	results, ok := env.Results.([]hybrid.Result)
	require.True(t, ok)
	assert.NotEmpty(t, results)
	assert.Equal(t, 4, env.Counts["candidates"])
}

func TestHybridRetrievePatternFilterDropsNonMatching(t *testing.T) {
	client := newFakeClient()
	units := []memory.Unit{
		{ID: "1", Content: "authentication user login system"},
		{ID: "2", Content: "database connection pool manager"},
	}
	seedMemory(t, client, "proj", units)
	o := newTestOrchestrator(t, client, nil)
	o.RegisterPattern(RegisteredPattern{Pattern: "authentication", Mode: PatternFilter})

	env, err := o.HybridRetrieve(context.Background(), HybridRetrieveArgs{
		Query: "user", Project: "proj", K: 10, Limit: 10,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, env.Counts["total"], env.Counts["candidates"])
}
