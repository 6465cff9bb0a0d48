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

// Package orchestrator exposes the user-facing structural and hybrid
// retrieval operations, composing the call graph, its store, the
// connection pool, and the hybrid searcher behind one result envelope.
package orchestrator

import "github.com/kraklabs/recall/pkg/callgraph"

// Envelope is the common result shape returned by every operation:
// the normalized inputs, the result rows, summary counts, and timing.
type Envelope struct {
	Inputs        map[string]any `json:"inputs"`
	Results       any            `json:"results"`
	Counts        map[string]int `json:"counts"`
	AnalysisTimeMs float64       `json:"analysis_time_ms"`
}

// CallerRow is one row of find_callers' result set.
type CallerRow struct {
	CallerFunction string           `json:"caller_function"`
	CallerFile     string           `json:"caller_file"`
	CallerLine     int              `json:"caller_line"`
	CallType       callgraph.CallType `json:"call_type"`
	Language       string           `json:"language"`
	IsAsync        bool             `json:"is_async"`
}

// CalleeRow is one row of find_callees' result set.
type CalleeRow struct {
	CalleeFunction string             `json:"callee_function"`
	CalleeFile     string             `json:"callee_file"`
	CallSiteLine   int                `json:"call_site_line"`
	CallType       callgraph.CallType `json:"call_type"`
	Language       string             `json:"language"`
	IsAsync        bool               `json:"is_async"`
}

// ImplementationRow is one row of find_implementations' result set.
type ImplementationRow struct {
	ClassName   string   `json:"class_name"`
	FilePath    string   `json:"file_path"`
	Language    string   `json:"language"`
	Methods     []string `json:"methods"`
	MethodCount int      `json:"method_count"`
}

// ImplementationsResult is the full find_implementations payload: the
// matching rows plus the sorted distinct languages they span.
type ImplementationsResult struct {
	Implementations []ImplementationRow `json:"implementations"`
	Languages       []string            `json:"languages"`
}

// ImpactRadius buckets a dependents count per spec.md §4.9.
type ImpactRadius string

const (
	ImpactLow    ImpactRadius = "low"
	ImpactMedium ImpactRadius = "medium"
	ImpactHigh   ImpactRadius = "high"
)

// classifyImpact buckets count: <10 low, 10-20 medium, >20 high.
func classifyImpact(count int) ImpactRadius {
	switch {
	case count > 20:
		return ImpactHigh
	case count >= 10:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Dependency is one file-level dependency edge normalized from the
// external file-dependency service.
type Dependency struct {
	FilePath  string `json:"file_path"`
	DependsOn string `json:"depends_on"`
	Depth     int    `json:"depth"`
}

// DependentsResult is find_dependents' payload: the dependent edges
// plus the computed impact radius.
type DependentsResult struct {
	Dependents   []Dependency `json:"dependents"`
	ImpactRadius ImpactRadius `json:"impact_radius"`
}

// CallChainEdge annotates one hop of a call-chain path with its call site.
type CallChainEdge struct {
	Caller   string             `json:"caller"`
	Callee   string             `json:"callee"`
	File     string             `json:"file"`
	Line     int                `json:"line"`
	CallType callgraph.CallType `json:"call_type"`
}

// CallChainResult is get_call_chain's payload.
type CallChainResult struct {
	Paths              [][]CallChainEdge `json:"paths"`
	ShortestPathLength int               `json:"shortest_path_length"`
	LongestPathLength  int               `json:"longest_path_length"`
}
