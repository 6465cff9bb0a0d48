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

// FindCallers returns the functions that (transitively, if
// includeIndirect) call functionName. Names not present in Nodes are
// skipped for direct neighbor queries; for transitive queries they
// still participate in the walk (the adjacency indexes may reference
// unresolved external names).
func (g *CallGraph) FindCallers(functionName string, includeIndirect bool, maxDepth int) []FunctionNode {
	return g.neighbors(g.ReverseIndex, functionName, includeIndirect, maxDepth)
}

// FindCallees is the forward-adjacency symmetric counterpart of FindCallers.
func (g *CallGraph) FindCallees(functionName string, includeIndirect bool, maxDepth int) []FunctionNode {
	return g.neighbors(g.ForwardIndex, functionName, includeIndirect, maxDepth)
}

func (g *CallGraph) neighbors(index map[string]map[string]struct{}, start string, includeIndirect bool, maxDepth int) []FunctionNode {
	if maxDepth == 0 {
		return nil
	}

	if !includeIndirect || maxDepth == 1 {
		names := index[start]
		out := make([]FunctionNode, 0, len(names))
		for name := range names {
			if node, ok := g.Nodes[name]; ok {
				out = append(out, node)
			}
		}
		return out
	}

	type frontierEntry struct {
		name  string
		depth int
	}

	visited := map[string]struct{}{start: {}}
	queue := []frontierEntry{{start, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for next := range index[cur.name] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, frontierEntry{next, cur.depth + 1})
		}
	}

	delete(visited, start)

	out := make([]FunctionNode, 0, len(visited))
	for name := range visited {
		if node, ok := g.Nodes[name]; ok {
			out = append(out, node)
		}
	}
	return out
}

// FindCallChain enumerates up to maxPaths simple paths from "from" to
// "to" of at most maxDepth vertices, breadth-first, breaking cycles by
// skipping any callee already present in the path so far. If "from"
// or "to" is unknown, returns no paths. If from == to and from is a
// known node, returns a single one-element path.
func (g *CallGraph) FindCallChain(from, to string, maxDepth, maxPaths int) [][]string {
	if _, ok := g.Nodes[from]; !ok {
		return nil
	}
	if _, ok := g.Nodes[to]; !ok {
		return nil
	}

	if from == to {
		return [][]string{{from}}
	}

	type frontierEntry struct {
		current string
		path    []string
	}

	var paths [][]string
	queue := []frontierEntry{{from, []string{from}}}

	for len(queue) > 0 && len(paths) < maxPaths {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path) >= maxDepth {
			continue
		}

		for next := range g.ForwardIndex[cur.current] {
			if containsString(cur.path, next) {
				continue
			}
			newPath := append(append([]string{}, cur.path...), next)
			if next == to {
				paths = append(paths, newPath)
				if len(paths) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, frontierEntry{next, newPath})
		}
	}

	return paths
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
