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

	"github.com/kraklabs/recall/pkg/memory"
	"github.com/kraklabs/recall/pkg/qdrant"
)

const corpusScrollBatch = 200

// loadCorpus scrolls every memory unit for project out of the memory
// collection, returning parallel documents/units slices suitable for
// hybrid.Searcher.IndexDocuments.
func (o *Orchestrator) loadCorpus(ctx context.Context, client qdrant.Client, project string) ([]string, []memory.Unit, error) {
	var documents []string
	var units []memory.Unit
	offset := ""
	for {
		page, err := client.Scroll(ctx, o.memoryCollection, "project_name", project, corpusScrollBatch, offset)
		if err != nil {
			return nil, nil, err
		}
		for _, pt := range page.Points {
			unit := unitFromPayload(pt.ID, pt.Payload)
			documents = append(documents, unit.Content)
			units = append(units, unit)
		}
		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}
	return documents, units, nil
}

func unitFromPayload(id string, payload map[string]any) memory.Unit {
	return memory.Unit{
		ID:           id,
		Content:      asString(payload["content"]),
		Category:     asString(payload["category"]),
		ContextLevel: asString(payload["context_level"]),
		Scope:        asString(payload["scope"]),
		ProjectName:  asString(payload["project_name"]),
		Importance:   asFloat(payload["importance"]),
		Tags:         asStringSlice(payload["tags"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
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
