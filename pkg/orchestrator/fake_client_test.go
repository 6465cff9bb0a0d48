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
	"sort"
	"sync"

	"github.com/kraklabs/recall/pkg/qdrant"
)

// fakeClient is an in-process, multi-collection stand-in for
// qdrant.Client, partitioned by collection name so call-graph and
// memory records never cross-contaminate during a Scroll/Search.
type fakeClient struct {
	mu          sync.Mutex
	collections map[string]map[string]qdrant.Point
}

func newFakeClient() *fakeClient {
	return &fakeClient{collections: make(map[string]map[string]qdrant.Point)}
}

func (c *fakeClient) bucket(collection string) map[string]qdrant.Point {
	b, ok := c.collections[collection]
	if !ok {
		b = make(map[string]qdrant.Point)
		c.collections[collection] = b
	}
	return b
}

func (c *fakeClient) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	return nil
}
func (c *fakeClient) CollectionExists(ctx context.Context, name string) (bool, error) { return true, nil }

func (c *fakeClient) Upsert(ctx context.Context, collection string, points []qdrant.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucket(collection)
	for _, p := range points {
		b[p.ID] = p
	}
	return nil
}

func (c *fakeClient) Get(ctx context.Context, collection string, id string) (qdrant.Point, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.bucket(collection)[id]
	return p, ok, nil
}

func (c *fakeClient) Scroll(ctx context.Context, collection, key, value string, limit int, offset string) (qdrant.ScrollPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucket(collection)
	var ids []string
	for id, p := range b {
		if key != "" && asString(p.Payload[key]) != value {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if offset != "" {
		for i, id := range ids {
			if id > offset {
				start = i
				break
			}
			start = i + 1
		}
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	if start > len(ids) {
		start = len(ids)
	}

	page := qdrant.ScrollPage{}
	for _, id := range ids[start:end] {
		page.Points = append(page.Points, b[id])
	}
	if end < len(ids) {
		page.HasMore = true
		page.NextOffset = ids[end-1]
	}
	return page, nil
}

// Search ignores the query vector's direction and ranks by id for
// determinism: tests seed scores indirectly via result ordering, not
// by asserting a particular similarity value.
func (c *fakeClient) Search(ctx context.Context, collection string, vector []float32, limit int, key, value string) ([]qdrant.ScoredPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucket(collection)
	var ids []string
	for id, p := range b {
		if key != "" && asString(p.Payload[key]) != value {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	hits := make([]qdrant.ScoredPoint, 0, len(ids))
	for i, id := range ids {
		hits = append(hits, qdrant.ScoredPoint{Point: b[id], Score: float32(len(ids) - i)})
	}
	return hits, nil
}

func (c *fakeClient) Count(ctx context.Context, collection, key, value string) (int64, error) {
	page, err := c.Scroll(ctx, collection, key, value, 1<<30, "")
	if err != nil {
		return 0, err
	}
	return int64(len(page.Points)), nil
}

func (c *fakeClient) Delete(ctx context.Context, collection string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucket(collection)
	for _, id := range ids {
		delete(b, id)
	}
	return nil
}

func (c *fakeClient) DeleteByPayload(ctx context.Context, collection, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucket(collection)
	for id, p := range b {
		if asString(p.Payload[key]) == value {
			delete(b, id)
		}
	}
	return nil
}

func (c *fakeClient) Ping(ctx context.Context) error { return nil }

func (c *fakeClient) ListCollections(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	return names, nil
}

func (c *fakeClient) Close() error { return nil }
