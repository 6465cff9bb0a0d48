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

package tagging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kraklabs/recall/pkg/corerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS tags (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  name      TEXT NOT NULL,
  parent_id INTEGER REFERENCES tags(id),
  level     INTEGER NOT NULL,
  full_path TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_tags_parent ON tags(parent_id);

CREATE TABLE IF NOT EXISTS collections (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  name           TEXT NOT NULL UNIQUE,
  description    TEXT,
  auto_generated INTEGER NOT NULL DEFAULT 0,
  tag_filter     TEXT,
  created_at     TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS memory_tags (
  memory_id      TEXT NOT NULL,
  tag_id         INTEGER NOT NULL REFERENCES tags(id),
  confidence     REAL NOT NULL,
  auto_generated INTEGER NOT NULL DEFAULT 0,
  created_at     TEXT NOT NULL,
  PRIMARY KEY (memory_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_memory_tags_tag ON memory_tags(tag_id);

CREATE TABLE IF NOT EXISTS collection_memories (
  collection_id INTEGER NOT NULL REFERENCES collections(id),
  memory_id     TEXT NOT NULL,
  added_at      TEXT NOT NULL,
  PRIMARY KEY (collection_id, memory_id)
);
`

// Store is the ACID single-writer relational side-store backing the
// tag hierarchy and collections.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) the sqlite database at dbPath and
// initializes its schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, corerr.NewStorageError("create tagging store directory").WithCause(err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, corerr.NewStorageError("open tagging store").WithCause(err)
	}
	db.SetMaxOpenConns(1) // single-writer semantics per spec
	if _, err := db.Exec(schema); err != nil {
		return nil, corerr.NewStorageError("init tagging schema").WithCause(err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------------
// Tag normalization
// ---------------------------------------------------------------------------

func normalizeTagName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", corerr.NewValidationError("tag name must not be empty")
	}
	for _, r := range n {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return "", corerr.NewValidationError(fmt.Sprintf("tag name %q contains invalid character %q", name, r))
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// CreateTag
// ---------------------------------------------------------------------------

// CreateTag normalizes name, computes level/full_path from parentID,
// and inserts the row. Depth above MaxTagDepth, an unknown parent, or
// a duplicate full_path are rejected.
func (s *Store) CreateTag(name string, parentID *int64) (*Tag, error) {
	normalized, err := normalizeTagName(name)
	if err != nil {
		return nil, err
	}

	level := 0
	fullPath := normalized
	if parentID != nil {
		parent, err := s.GetTag(*parentID)
		if err != nil {
			return nil, corerr.NewValidationError(fmt.Sprintf("unknown parent_id %d", *parentID))
		}
		level = parent.Level + 1
		fullPath = parent.FullPath + "/" + normalized
	}
	if level > MaxTagDepth {
		return nil, corerr.NewValidationError(fmt.Sprintf("tag depth %d exceeds maximum %d", level, MaxTagDepth))
	}

	res, err := s.db.Exec(
		`INSERT INTO tags (name, parent_id, level, full_path) VALUES (?, ?, ?, ?)`,
		normalized, nullableInt64(parentID), level, fullPath,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, &corerr.Error{Kind: corerr.KindStorage, Message: "Tag already exists", Cause: err}
		}
		return nil, corerr.NewStorageError("insert tag").WithCause(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, corerr.NewStorageError("read tag id").WithCause(err)
	}

	return &Tag{ID: id, Name: normalized, ParentID: parentID, Level: level, FullPath: fullPath}, nil
}

// GetTag loads a tag by id.
func (s *Store) GetTag(id int64) (*Tag, error) {
	row := s.db.QueryRow(`SELECT id, name, parent_id, level, full_path FROM tags WHERE id = ?`, id)
	return scanTag(row)
}

// GetTagByPath loads a tag by its full_path.
func (s *Store) GetTagByPath(path string) (*Tag, error) {
	row := s.db.QueryRow(`SELECT id, name, parent_id, level, full_path FROM tags WHERE full_path = ?`, path)
	return scanTag(row)
}

func scanTag(row *sql.Row) (*Tag, error) {
	var t Tag
	var parentID sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &parentID, &t.Level, &t.FullPath); err != nil {
		if err == sql.ErrNoRows {
			return nil, corerr.NewMemoryNotFoundError("tag")
		}
		return nil, corerr.NewStorageError("scan tag").WithCause(err)
	}
	if parentID.Valid {
		v := parentID.Int64
		t.ParentID = &v
	}
	return &t, nil
}

// ListTags returns tags filtered by parentID and/or a full_path prefix,
// ordered by full_path. A nil parentID applies no parent filter.
func (s *Store) ListTags(parentID *int64, prefix string) ([]Tag, error) {
	query := `SELECT id, name, parent_id, level, full_path FROM tags WHERE 1=1`
	var args []any
	if parentID != nil {
		query += ` AND parent_id = ?`
		args = append(args, *parentID)
	}
	if prefix != "" {
		query += ` AND full_path LIKE ?`
		args = append(args, prefix+"%")
	}
	query += ` ORDER BY full_path`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, corerr.NewStorageError("list tags").WithCause(err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		var parent sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Name, &parent, &t.Level, &t.FullPath); err != nil {
			return nil, corerr.NewStorageError("scan tag row").WithCause(err)
		}
		if parent.Valid {
			v := parent.Int64
			t.ParentID = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetAncestors returns the chain from root to parent, excluding id itself.
func (s *Store) GetAncestors(id int64) ([]Tag, error) {
	tag, err := s.GetTag(id)
	if err != nil {
		return nil, err
	}
	segments := strings.Split(tag.FullPath, "/")
	var ancestors []Tag
	for i := 1; i < len(segments); i++ {
		path := strings.Join(segments[:i], "/")
		anc, err := s.GetTagByPath(path)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, *anc)
	}
	return ancestors, nil
}

// GetDescendants returns every tag whose full_path starts with
// self.full_path + "/".
func (s *Store) GetDescendants(id int64) ([]Tag, error) {
	tag, err := s.GetTag(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, name, parent_id, level, full_path FROM tags WHERE full_path LIKE ? ORDER BY full_path`,
		tag.FullPath+"/%",
	)
	if err != nil {
		return nil, corerr.NewStorageError("query descendants").WithCause(err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		var parent sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Name, &parent, &t.Level, &t.FullPath); err != nil {
			return nil, corerr.NewStorageError("scan descendant").WithCause(err)
		}
		if parent.Valid {
			v := parent.Int64
			t.ParentID = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTag removes id. With cascade=false, it fails if descendants
// exist. With cascade=true, it deletes id, all descendants, and every
// memory<->tag row referencing any of them, atomically.
func (s *Store) DeleteTag(id int64, cascade bool) error {
	descendants, err := s.GetDescendants(id)
	if err != nil {
		return err
	}
	if !cascade && len(descendants) > 0 {
		return corerr.NewValidationError("tag has descendants; cascade required")
	}

	ids := make([]int64, 0, len(descendants)+1)
	ids = append(ids, id)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return corerr.NewStorageError("begin delete tag tx").WithCause(err)
	}
	for _, tid := range ids {
		if _, err := tx.Exec(`DELETE FROM memory_tags WHERE tag_id = ?`, tid); err != nil {
			_ = tx.Rollback()
			return corerr.NewStorageError("delete memory_tags for tag").WithCause(err)
		}
		if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, tid); err != nil {
			_ = tx.Rollback()
			return corerr.NewStorageError("delete tag").WithCause(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return corerr.NewStorageError("commit delete tag tx").WithCause(err)
	}
	return nil
}

// MergeTags ensures every memory tagged with sourceID is also tagged
// with targetID (collapsing duplicates), then deletes sourceID. Atomic.
func (s *Store) MergeTags(sourceID, targetID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return corerr.NewStorageError("begin merge tx").WithCause(err)
	}

	rows, err := tx.Query(`SELECT memory_id, confidence, auto_generated FROM memory_tags WHERE tag_id = ?`, sourceID)
	if err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("query source memory_tags").WithCause(err)
	}
	type row struct {
		memoryID string
		conf     float64
		auto     bool
	}
	var sourceRows []row
	for rows.Next() {
		var r row
		var autoInt int
		if err := rows.Scan(&r.memoryID, &r.conf, &autoInt); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return corerr.NewStorageError("scan source memory_tag").WithCause(err)
		}
		r.auto = autoInt != 0
		sourceRows = append(sourceRows, r)
	}
	rows.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range sourceRows {
		if _, err := tx.Exec(
			`INSERT INTO memory_tags (memory_id, tag_id, confidence, auto_generated, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(memory_id, tag_id) DO UPDATE SET confidence = excluded.confidence`,
			r.memoryID, targetID, r.conf, boolToInt(r.auto), now,
		); err != nil {
			_ = tx.Rollback()
			return corerr.NewStorageError("upsert merged memory_tag").WithCause(err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM memory_tags WHERE tag_id = ?`, sourceID); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("delete source memory_tags").WithCause(err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, sourceID); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("delete source tag").WithCause(err)
	}

	if err := tx.Commit(); err != nil {
		return corerr.NewStorageError("commit merge tx").WithCause(err)
	}
	return nil
}

// TagMemory upserts the junction row by (memory_id, tag_id).
func (s *Store) TagMemory(memoryID string, tagID int64, confidence float64, autoGenerated bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO memory_tags (memory_id, tag_id, confidence, auto_generated, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(memory_id, tag_id) DO UPDATE SET confidence = excluded.confidence, auto_generated = excluded.auto_generated`,
		memoryID, tagID, confidence, boolToInt(autoGenerated), now,
	)
	if err != nil {
		return corerr.NewStorageError("tag memory").WithCause(err)
	}
	return nil
}

// UntagMemory removes the (memory_id, tag_id) junction row, if present.
func (s *Store) UntagMemory(memoryID string, tagID int64) error {
	if _, err := s.db.Exec(`DELETE FROM memory_tags WHERE memory_id = ? AND tag_id = ?`, memoryID, tagID); err != nil {
		return corerr.NewStorageError("untag memory").WithCause(err)
	}
	return nil
}

// GetMemoryTags returns every tag attached to memoryID.
func (s *Store) GetMemoryTags(memoryID string) ([]MemoryTag, error) {
	rows, err := s.db.Query(
		`SELECT memory_id, tag_id, confidence, auto_generated, created_at FROM memory_tags WHERE memory_id = ?`,
		memoryID,
	)
	if err != nil {
		return nil, corerr.NewStorageError("query memory tags").WithCause(err)
	}
	defer rows.Close()

	var out []MemoryTag
	for rows.Next() {
		var mt MemoryTag
		var autoInt int
		var created string
		if err := rows.Scan(&mt.MemoryID, &mt.TagID, &mt.Confidence, &autoInt, &created); err != nil {
			return nil, corerr.NewStorageError("scan memory tag").WithCause(err)
		}
		mt.AutoGenerated = autoInt != 0
		mt.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, mt)
	}
	return out, rows.Err()
}

// GetOrCreateTag walks full_path's segments left to right, creating
// any missing ancestor before the leaf, and returns the leaf tag.
func (s *Store) GetOrCreateTag(fullPath string) (*Tag, error) {
	segments := strings.Split(strings.ToLower(strings.TrimSpace(fullPath)), "/")

	var parentID *int64
	var current *Tag
	built := ""
	for _, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built += "/" + seg
		}
		existing, err := s.GetTagByPath(built)
		if err == nil {
			current = existing
			id := existing.ID
			parentID = &id
			continue
		}
		created, err := s.CreateTag(seg, parentID)
		if err != nil {
			return nil, err
		}
		current = created
		id := created.ID
		parentID = &id
	}
	return current, nil
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

// CreateCollection inserts a new collection; name must be unique.
func (s *Store) CreateCollection(name, description string, filter *TagFilter) (*Collection, error) {
	filterJSON, err := encodeTagFilter(filter)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	res, err := s.db.Exec(
		`INSERT INTO collections (name, description, auto_generated, tag_filter, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?, ?)`,
		name, description, filterJSON, nowStr, nowStr,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, &corerr.Error{Kind: corerr.KindStorage, Message: "Collection already exists", Cause: err}
		}
		return nil, corerr.NewStorageError("insert collection").WithCause(err)
	}
	id, _ := res.LastInsertId()
	return &Collection{
		ID: id, Name: name, Description: description, TagFilter: filter,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// GetCollection loads a collection by id.
func (s *Store) GetCollection(id int64) (*Collection, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, auto_generated, tag_filter, created_at, updated_at FROM collections WHERE id = ?`,
		id,
	)
	return scanCollection(row)
}

func scanCollection(row *sql.Row) (*Collection, error) {
	var c Collection
	var desc sql.NullString
	var filterJSON sql.NullString
	var autoInt int
	var created, updated string
	if err := row.Scan(&c.ID, &c.Name, &desc, &autoInt, &filterJSON, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, corerr.NewMemoryNotFoundError("collection")
		}
		return nil, corerr.NewStorageError("scan collection").WithCause(err)
	}
	c.Description = desc.String
	c.AutoGenerated = autoInt != 0
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	if filterJSON.Valid && filterJSON.String != "" {
		var tf TagFilter
		if err := json.Unmarshal([]byte(filterJSON.String), &tf); err == nil {
			c.TagFilter = &tf
		}
	}
	return &c, nil
}

// ListCollections returns every collection, ordered by name.
func (s *Store) ListCollections() ([]Collection, error) {
	rows, err := s.db.Query(`SELECT id, name, description, auto_generated, tag_filter, created_at, updated_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, corerr.NewStorageError("list collections").WithCause(err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		var desc, filterJSON sql.NullString
		var autoInt int
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Name, &desc, &autoInt, &filterJSON, &created, &updated); err != nil {
			return nil, corerr.NewStorageError("scan collection row").WithCause(err)
		}
		c.Description = desc.String
		c.AutoGenerated = autoInt != 0
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		if filterJSON.Valid && filterJSON.String != "" {
			var tf TagFilter
			if err := json.Unmarshal([]byte(filterJSON.String), &tf); err == nil {
				c.TagFilter = &tf
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCollection removes the collection and its memory associations.
func (s *Store) DeleteCollection(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return corerr.NewStorageError("begin delete collection tx").WithCause(err)
	}
	if _, err := tx.Exec(`DELETE FROM collection_memories WHERE collection_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("delete collection memories").WithCause(err)
	}
	if _, err := tx.Exec(`DELETE FROM collections WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("delete collection").WithCause(err)
	}
	return tx.Commit()
}

// AddToCollection associates memoryIDs with collectionID and bumps
// the collection's updated_at.
func (s *Store) AddToCollection(collectionID int64, memoryIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return corerr.NewStorageError("begin add-to-collection tx").WithCause(err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, mid := range memoryIDs {
		if _, err := tx.Exec(
			`INSERT INTO collection_memories (collection_id, memory_id, added_at) VALUES (?, ?, ?)
			 ON CONFLICT(collection_id, memory_id) DO NOTHING`,
			collectionID, mid, now,
		); err != nil {
			_ = tx.Rollback()
			return corerr.NewStorageError("insert collection_memory").WithCause(err)
		}
	}
	if _, err := tx.Exec(`UPDATE collections SET updated_at = ? WHERE id = ?`, now, collectionID); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("touch collection updated_at").WithCause(err)
	}
	return tx.Commit()
}

// RemoveFromCollection disassociates memoryIDs from collectionID and
// bumps the collection's updated_at.
func (s *Store) RemoveFromCollection(collectionID int64, memoryIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return corerr.NewStorageError("begin remove-from-collection tx").WithCause(err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, mid := range memoryIDs {
		if _, err := tx.Exec(
			`DELETE FROM collection_memories WHERE collection_id = ? AND memory_id = ?`,
			collectionID, mid,
		); err != nil {
			_ = tx.Rollback()
			return corerr.NewStorageError("delete collection_memory").WithCause(err)
		}
	}
	if _, err := tx.Exec(`UPDATE collections SET updated_at = ? WHERE id = ?`, now, collectionID); err != nil {
		_ = tx.Rollback()
		return corerr.NewStorageError("touch collection updated_at").WithCause(err)
	}
	return tx.Commit()
}

// DefaultAutoCollectionPatterns is the built-in (name -> tags) map
// used by AutoGenerateCollections when patterns is nil.
func DefaultAutoCollectionPatterns() map[string][]string {
	return map[string][]string{
		"python-code":      {"language/python"},
		"javascript-code":  {"language/javascript"},
		"authentication":   {"domain/auth"},
		"database-access":  {"domain/database"},
		"test-suites":      {"domain/testing"},
		"async-components": {"pattern/async"},
	}
}

// AutoGenerateCollections creates an auto-generated collection for
// every (name, tags) pair in patterns (or the defaults), with
// tag_filter = {tags, AND}, unless a collection with that name
// already exists.
func (s *Store) AutoGenerateCollections(patterns map[string][]string) ([]Collection, error) {
	if patterns == nil {
		patterns = DefaultAutoCollectionPatterns()
	}

	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	var created []Collection
	for _, name := range names {
		existing := s.db.QueryRow(`SELECT id FROM collections WHERE name = ?`, name)
		var existingID int64
		if scanErr := existing.Scan(&existingID); scanErr == nil {
			continue
		} else if scanErr != sql.ErrNoRows {
			return nil, corerr.NewStorageError("check existing collection").WithCause(scanErr)
		}

		filter := &TagFilter{Tags: patterns[name], Op: TagFilterAND}
		filterJSON, err := encodeTagFilter(filter)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		nowStr := now.Format(time.RFC3339Nano)
		res, err := s.db.Exec(
			`INSERT INTO collections (name, description, auto_generated, tag_filter, created_at, updated_at)
			 VALUES (?, '', 1, ?, ?, ?)`,
			name, filterJSON, nowStr, nowStr,
		)
		if err != nil {
			return nil, corerr.NewStorageError("insert auto collection").WithCause(err)
		}
		id, _ := res.LastInsertId()
		created = append(created, Collection{
			ID: id, Name: name, AutoGenerated: true, TagFilter: filter,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	return created, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func encodeTagFilter(filter *TagFilter) (string, error) {
	if filter == nil {
		return "", nil
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return "", corerr.NewStorageError("encode tag_filter").WithCause(err)
	}
	return string(b), nil
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
