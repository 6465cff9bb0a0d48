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

package callgraph

// CallGraph is the in-memory composite described in spec.md §3. All
// operations are pure mutations/reads over in-memory state and never fail.
type CallGraph struct {
	Nodes           map[string]FunctionNode
	Calls           []CallSite
	ForwardIndex    map[string]map[string]struct{}
	ReverseIndex    map[string]map[string]struct{}
	Implementations map[string][]InterfaceImplementation
}

// New returns an empty CallGraph.
func New() *CallGraph {
	return &CallGraph{
		Nodes:           make(map[string]FunctionNode),
		ForwardIndex:    make(map[string]map[string]struct{}),
		ReverseIndex:    make(map[string]map[string]struct{}),
		Implementations: make(map[string][]InterfaceImplementation),
	}
}

// AddFunction overwrites any existing node with the same QualifiedName.
func (g *CallGraph) AddFunction(node FunctionNode) {
	g.Nodes[node.QualifiedName] = node
}

// AddCall appends the call site and updates both adjacency indexes.
// Duplicate identical calls add another CallSite: multiplicity is preserved.
func (g *CallGraph) AddCall(site CallSite) {
	g.Calls = append(g.Calls, site)

	if g.ForwardIndex[site.CallerFunction] == nil {
		g.ForwardIndex[site.CallerFunction] = make(map[string]struct{})
	}
	g.ForwardIndex[site.CallerFunction][site.CalleeFunction] = struct{}{}

	if g.ReverseIndex[site.CalleeFunction] == nil {
		g.ReverseIndex[site.CalleeFunction] = make(map[string]struct{})
	}
	g.ReverseIndex[site.CalleeFunction][site.CallerFunction] = struct{}{}
}

// AddImplementation appends to Implementations[interfaceName].
func (g *CallGraph) AddImplementation(impl InterfaceImplementation) {
	g.Implementations[impl.InterfaceName] = append(g.Implementations[impl.InterfaceName], impl)
}

// GetCallSitesForCaller returns every call site whose CallerFunction matches name.
func (g *CallGraph) GetCallSitesForCaller(name string) []CallSite {
	var out []CallSite
	for _, c := range g.Calls {
		if c.CallerFunction == name {
			out = append(out, c)
		}
	}
	return out
}

// GetCallSitesForCallee returns every call site whose CalleeFunction matches name.
func (g *CallGraph) GetCallSitesForCallee(name string) []CallSite {
	var out []CallSite
	for _, c := range g.Calls {
		if c.CalleeFunction == name {
			out = append(out, c)
		}
	}
	return out
}

// GetImplementations returns the implementations registered for interfaceName.
func (g *CallGraph) GetImplementations(interfaceName string) []InterfaceImplementation {
	return g.Implementations[interfaceName]
}

// GetStatistics returns counts of functions, calls, interfaces, and implementations.
func (g *CallGraph) GetStatistics() Statistics {
	implCount := 0
	for _, impls := range g.Implementations {
		implCount += len(impls)
	}
	return Statistics{
		FunctionCount:       len(g.Nodes),
		CallCount:           len(g.Calls),
		InterfaceCount:      len(g.Implementations),
		ImplementationCount: implCount,
	}
}
