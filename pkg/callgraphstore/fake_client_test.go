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
	"sort"
	"sync"

	"github.com/kraklabs/recall/pkg/qdrant"
)

// memClient is an in-process, single-collection stand-in for
// qdrant.Client: a plain map keyed by point id, with the payload
// filtering Store relies on implemented directly over that map. No
// network I/O, fully deterministic ordering for tests.
type memClient struct {
	mu     sync.Mutex
	points map[string]qdrant.Point
}

func newMemClient() *memClient {
	return &memClient{points: make(map[string]qdrant.Point)}
}

func (c *memClient) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	return nil
}
func (c *memClient) CollectionExists(ctx context.Context, name string) (bool, error) { return true, nil }

func (c *memClient) Upsert(ctx context.Context, collection string, points []qdrant.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range points {
		c.points[p.ID] = p
	}
	return nil
}

func (c *memClient) Get(ctx context.Context, collection string, id string) (qdrant.Point, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.points[id]
	return p, ok, nil
}

func (c *memClient) Scroll(ctx context.Context, collection, key, value string, limit int, offset string) (qdrant.ScrollPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	for id := range c.points {
		if key != "" && c.points[id].Payload[key] != value {
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
		page.Points = append(page.Points, c.points[id])
	}
	if end < len(ids) {
		page.HasMore = true
		page.NextOffset = ids[end-1]
	}
	return page, nil
}

func (c *memClient) Search(ctx context.Context, collection string, vector []float32, limit int, key, value string) ([]qdrant.ScoredPoint, error) {
	return nil, nil
}

func (c *memClient) Count(ctx context.Context, collection, key, value string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, p := range c.points {
		if key == "" || p.Payload[key] == value {
			n++
		}
	}
	return n, nil
}

func (c *memClient) Delete(ctx context.Context, collection string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.points, id)
	}
	return nil
}

func (c *memClient) DeleteByPayload(ctx context.Context, collection, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.points {
		if p.Payload[key] == value {
			delete(c.points, id)
		}
	}
	return nil
}

func (c *memClient) Ping(ctx context.Context) error { return nil }

func (c *memClient) ListCollections(ctx context.Context) ([]string, error) {
	return []string{"code_call_graph"}, nil
}

func (c *memClient) Close() error { return nil }
