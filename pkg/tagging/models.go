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

// Package tagging is the hierarchical tag/collection side-store: a
// transactional relational schema (modernc.org/sqlite) holding tags,
// collections, and their junctions against memory records, plus a
// regex/keyword-driven auto-tagger.
package tagging

import "time"

// MaxTagDepth bounds a tag's level (root = 0).
const MaxTagDepth = 3

// Tag is one node in the tag hierarchy.
type Tag struct {
	ID       int64
	Name     string
	ParentID *int64
	Level    int
	FullPath string
}

// TagFilterOp combines a collection's tag predicate.
type TagFilterOp string

const (
	TagFilterAND TagFilterOp = "AND"
	TagFilterOR  TagFilterOp = "OR"
)

// TagFilter restricts a collection to memories carrying a set of tags.
type TagFilter struct {
	Tags []string
	Op   TagFilterOp
}

// Collection is a named, optionally auto-generated grouping of memories.
type Collection struct {
	ID            int64
	Name          string
	Description   string
	AutoGenerated bool
	TagFilter     *TagFilter
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MemoryTag is the memory<->tag junction row.
type MemoryTag struct {
	MemoryID      string
	TagID         int64
	Confidence    float64
	AutoGenerated bool
	CreatedAt     time.Time
}

// CollectionMemory is the collection<->memory junction row.
type CollectionMemory struct {
	CollectionID int64
	MemoryID     string
	AddedAt      time.Time
}

// TagCandidate is one suggestion emitted by the auto-tagger.
type TagCandidate struct {
	TagName    string
	Confidence float64
}
