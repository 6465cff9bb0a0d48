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

package callgraphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/recall/pkg/callgraph"
	"github.com/kraklabs/recall/pkg/corerr"
)

func s1Nodes() []callgraph.FunctionNode {
	return []callgraph.FunctionNode{
		{Name: "main", QualifiedName: "main", FilePath: "s1.py", Language: "python", StartLine: 1, EndLine: 3},
		{Name: "process", QualifiedName: "process", FilePath: "s1.py", Language: "python", StartLine: 4, EndLine: 6},
		{Name: "validate", QualifiedName: "validate", FilePath: "s1.py", Language: "python", StartLine: 7, EndLine: 8},
		{Name: "helper", QualifiedName: "helper", FilePath: "s1.py", Language: "python", StartLine: 9, EndLine: 10},
		{Name: "clean", QualifiedName: "clean", FilePath: "s1.py", Language: "python", StartLine: 11, EndLine: 12},
	}
}

func s1Calls() []callgraph.CallSite {
	return []callgraph.CallSite{
		{CallerFunction: "main", CallerFile: "s1.py", CallerLine: 2, CalleeFunction: "process", CallType: callgraph.CallDirect},
		{CallerFunction: "process", CallerFile: "s1.py", CallerLine: 5, CalleeFunction: "validate", CallType: callgraph.CallDirect},
		{CallerFunction: "process", CallerFile: "s1.py", CallerLine: 6, CalleeFunction: "clean", CallType: callgraph.CallDirect},
		{CallerFunction: "validate", CallerFile: "s1.py", CallerLine: 8, CalleeFunction: "helper", CallType: callgraph.CallDirect},
	}
}

func TestStoreFunctionNodeThenFindByName(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()

	id, err := s.StoreFunctionNode(ctx, s1Nodes()[0], "proj", []string{"process"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	node, err := s.FindFunctionByName(ctx, "main", "proj")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "main", node.Name)
	assert.Equal(t, "s1.py", node.FilePath)
}

func TestStoreFunctionNodeUpsertsByProjectAndQualifiedName(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()

	id1, err := s.StoreFunctionNode(ctx, s1Nodes()[0], "proj", nil, nil)
	require.NoError(t, err)
	updated := s1Nodes()[0]
	updated.EndLine = 99
	id2, err := s.StoreFunctionNode(ctx, updated, "proj", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	node, err := s.FindFunctionByName(ctx, "main", "proj")
	require.NoError(t, err)
	assert.Equal(t, 99, node.EndLine)
}

func TestFindFunctionByNameMissingReturnsNilNoError(t *testing.T) {
	s := New(newMemClient(), "", 4)
	node, err := s.FindFunctionByName(context.Background(), "nope", "proj")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestStoreCallSitesFailsWhenNodeMissing(t *testing.T) {
	s := New(newMemClient(), "", 4)
	err := s.StoreCallSites(context.Background(), "missing", s1Calls(), "proj")
	require.Error(t, err)
	assert.True(t, corerr.IsMemoryNotFound(err))
}

func TestStoreCallSitesPreservedAcrossNodeReupsert(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()

	_, err := s.StoreFunctionNode(ctx, s1Nodes()[0], "proj", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.StoreCallSites(ctx, "main", []callgraph.CallSite{s1Calls()[0]}, "proj"))

	_, err = s.StoreFunctionNode(ctx, s1Nodes()[0], "proj", nil, nil)
	require.NoError(t, err)

	sites, err := s.GetCallSitesForCaller(ctx, "main", "proj")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "process", sites[0].CalleeFunction)
}

func TestStoreImplementationsCreatesAnchorRecord(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()

	impls := []callgraph.InterfaceImplementation{
		{InterfaceName: "Shape", ImplementationName: "Circle", FilePath: "shapes.py", Language: "python", Methods: []string{"area"}},
	}
	require.NoError(t, s.StoreImplementations(ctx, "Shape", impls, "proj"))

	got, err := s.GetImplementations(ctx, "Shape", "proj")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Circle", got[0].ImplementationName)
}

// Round-trip law: load_call_graph after inserting function nodes +
// call sites + implementations yields a graph with the same node set,
// the same multiset of call sites, and the same implementations.
func TestLoadCallGraphRoundTrip(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()
	project := "proj"

	for _, node := range s1Nodes() {
		_, err := s.StoreFunctionNode(ctx, node, project, nil, nil)
		require.NoError(t, err)
	}
	byCaller := make(map[string][]callgraph.CallSite)
	for _, c := range s1Calls() {
		byCaller[c.CallerFunction] = append(byCaller[c.CallerFunction], c)
	}
	for caller, sites := range byCaller {
		require.NoError(t, s.StoreCallSites(ctx, caller, sites, project))
	}
	impls := []callgraph.InterfaceImplementation{
		{InterfaceName: "Shape", ImplementationName: "Circle", FilePath: "shapes.py", Language: "python", Methods: []string{"area"}},
	}
	require.NoError(t, s.StoreImplementations(ctx, "Shape", impls, project))

	graph, err := s.LoadCallGraph(ctx, project, nil)
	require.NoError(t, err)

	assert.Len(t, graph.Nodes, len(s1Nodes()))
	assert.Len(t, graph.Calls, len(s1Calls()))
	assert.Len(t, graph.GetImplementations("Shape"), 1)

	for _, n := range s1Nodes() {
		got, ok := graph.Nodes[n.QualifiedName]
		require.True(t, ok)
		assert.Equal(t, n.FilePath, got.FilePath)
	}
}

func TestLoadCallGraphScopedToProject(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()

	_, err := s.StoreFunctionNode(ctx, s1Nodes()[0], "proj-a", nil, nil)
	require.NoError(t, err)
	_, err = s.StoreFunctionNode(ctx, s1Nodes()[1], "proj-b", nil, nil)
	require.NoError(t, err)

	graph, err := s.LoadCallGraph(ctx, "proj-a", nil)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 1)
	_, ok := graph.Nodes["main"]
	assert.True(t, ok)
}

func TestDeleteProjectCallGraphReturnsCountRemoved(t *testing.T) {
	s := New(newMemClient(), "", 4)
	ctx := context.Background()
	for _, node := range s1Nodes() {
		_, err := s.StoreFunctionNode(ctx, node, "proj", nil, nil)
		require.NoError(t, err)
	}

	count, err := s.DeleteProjectCallGraph(ctx, "proj")
	require.NoError(t, err)
	assert.EqualValues(t, len(s1Nodes()), count)

	graph, err := s.LoadCallGraph(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
}
