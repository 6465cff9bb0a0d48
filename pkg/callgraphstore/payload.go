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
	"time"

	"github.com/kraklabs/recall/pkg/callgraph"
)

// record is the decoded shape of one point's payload, mirroring
// spec.md §4.7's schema.
type record struct {
	FunctionNode    callgraph.FunctionNode
	CallsTo         []string
	CalledBy        []string
	CallSites       []callgraph.CallSite
	Implementations []callgraph.InterfaceImplementation
	ProjectName     string
	QualifiedName   string
	IndexedAt       time.Time
}

func encodeFunctionNode(n callgraph.FunctionNode) map[string]any {
	return map[string]any{
		"name":           n.Name,
		"qualified_name": n.QualifiedName,
		"file_path":      n.FilePath,
		"language":       n.Language,
		"start_line":     int64(n.StartLine),
		"end_line":       int64(n.EndLine),
		"is_exported":    n.IsExported,
		"is_async":       n.IsAsync,
		"parameters":     stringsToAny(n.Parameters),
		"return_type":    n.ReturnType,
	}
}

func decodeFunctionNode(m map[string]any) callgraph.FunctionNode {
	return callgraph.FunctionNode{
		Name:          asString(m["name"]),
		QualifiedName: asString(m["qualified_name"]),
		FilePath:      asString(m["file_path"]),
		Language:      asString(m["language"]),
		StartLine:     int(asInt(m["start_line"])),
		EndLine:       int(asInt(m["end_line"])),
		IsExported:    asBool(m["is_exported"]),
		IsAsync:       asBool(m["is_async"]),
		Parameters:    anyToStrings(m["parameters"]),
		ReturnType:    asString(m["return_type"]),
	}
}

func encodeCallSite(c callgraph.CallSite) map[string]any {
	return map[string]any{
		"caller_function": c.CallerFunction,
		"caller_file":     c.CallerFile,
		"caller_line":     int64(c.CallerLine),
		"callee_function": c.CalleeFunction,
		"callee_file":     c.CalleeFile,
		"call_type":       string(c.CallType),
	}
}

func decodeCallSite(m map[string]any) callgraph.CallSite {
	return callgraph.CallSite{
		CallerFunction: asString(m["caller_function"]),
		CallerFile:     asString(m["caller_file"]),
		CallerLine:     int(asInt(m["caller_line"])),
		CalleeFunction: asString(m["callee_function"]),
		CalleeFile:     asString(m["callee_file"]),
		CallType:       callgraph.CallType(asString(m["call_type"])),
	}
}

func encodeImplementation(i callgraph.InterfaceImplementation) map[string]any {
	return map[string]any{
		"interface_name":      i.InterfaceName,
		"implementation_name": i.ImplementationName,
		"file_path":           i.FilePath,
		"language":            i.Language,
		"methods":             stringsToAny(i.Methods),
	}
}

func decodeImplementation(m map[string]any) callgraph.InterfaceImplementation {
	return callgraph.InterfaceImplementation{
		InterfaceName:      asString(m["interface_name"]),
		ImplementationName: asString(m["implementation_name"]),
		FilePath:           asString(m["file_path"]),
		Language:           asString(m["language"]),
		Methods:            anyToStrings(m["methods"]),
	}
}

func encodeRecord(r record) map[string]any {
	callSites := make([]any, 0, len(r.CallSites))
	for _, cs := range r.CallSites {
		callSites = append(callSites, encodeCallSite(cs))
	}
	impls := make([]any, 0, len(r.Implementations))
	for _, impl := range r.Implementations {
		impls = append(impls, encodeImplementation(impl))
	}
	return map[string]any{
		"function_node":   encodeFunctionNode(r.FunctionNode),
		"calls_to":        stringsToAny(r.CallsTo),
		"called_by":       stringsToAny(r.CalledBy),
		"call_sites":      callSites,
		"implementations": impls,
		"project_name":    r.ProjectName,
		"qualified_name":  r.QualifiedName,
		"indexed_at":      r.IndexedAt.UTC().Format(time.RFC3339),
	}
}

func decodeRecord(payload map[string]any) record {
	r := record{
		ProjectName:   asString(payload["project_name"]),
		QualifiedName: asString(payload["qualified_name"]),
		CallsTo:       anyToStrings(payload["calls_to"]),
		CalledBy:      anyToStrings(payload["called_by"]),
	}
	if fn, ok := payload["function_node"].(map[string]any); ok {
		r.FunctionNode = decodeFunctionNode(fn)
	}
	if sites, ok := payload["call_sites"].([]any); ok {
		for _, s := range sites {
			if m, ok := s.(map[string]any); ok {
				r.CallSites = append(r.CallSites, decodeCallSite(m))
			}
		}
	}
	if impls, ok := payload["implementations"].([]any); ok {
		for _, i := range impls {
			if m, ok := i.(map[string]any); ok {
				r.Implementations = append(r.Implementations, decodeImplementation(m))
			}
		}
	}
	if ts, ok := payload["indexed_at"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			r.IndexedAt = parsed
		}
	}
	return r
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func anyToStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
