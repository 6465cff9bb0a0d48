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

// Package main wires pkg/config, pkg/qdrant, pkg/vectorpool, and
// pkg/orchestrator into a single runnable binary. It is glue, not a
// subcommand tree: recall reads one JSON request object from stdin,
// dispatches it to the matching orchestrator operation, and writes the
// resulting envelope to stdout.
//
// Usage:
//
//	echo '{"operation":"find_callers","args":{"function_name":"process","project":"demo"}}' | recall --config recall.yaml
//
// Supported operation names: find_callers, find_callees,
// find_implementations, find_dependencies, find_dependents,
// get_call_chain, hybrid_retrieve.
//
// Environment variables:
//
//	OLLAMA_HOST        Ollama API URL, for hybrid_retrieve's query
//	                   embedding step (default: http://localhost:11434)
//	OLLAMA_EMBED_MODEL Embedding model (default: nomic-embed-text)
package main
