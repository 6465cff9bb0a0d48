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

// Package memory defines the MemoryUnit record shared by the hybrid
// searcher and the query orchestrator.
package memory

import (
	"context"
	"time"
)

// MaxContentLength is the hard ceiling on Unit.Content.
const MaxContentLength = 50_000

// Unit is a single retrievable memory record.
type Unit struct {
	ID           string
	Content      string
	Category     string
	ContextLevel string
	Scope        string
	ProjectName  string
	Importance   float64
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Embedder turns text into a dense vector for similarity search.
// Implementations are expected to cache by content hash where
// recomputation is expensive.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache memoizes Embedder calls. Get reports whether the
// vector was present; Put stores (or replaces) the cached vector.
type EmbeddingCache interface {
	Get(key string) ([]float32, bool)
	Put(key string, vector []float32)
}
