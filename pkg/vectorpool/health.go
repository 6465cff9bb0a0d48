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

package vectorpool

import (
	"context"
	"time"

	"github.com/kraklabs/recall/pkg/qdrant"
)

// healthBudgets are the spec's default per-level time budgets.
var healthBudgets = map[HealthLevel]time.Duration{
	HealthFast:   50 * time.Millisecond,
	HealthMedium: 100 * time.Millisecond,
	HealthDeep:   200 * time.Millisecond,
}

// checkHealth runs one tiered health check against client, each
// level wrapped in its own timeout. Any timeout, connection error, or
// unexpected response yields healthy = false with Error populated.
func checkHealth(client qdrant.Client, level HealthLevel) HealthCheckResult {
	start := time.Now()
	budget := healthBudgets[level]
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	var err error
	switch level {
	case HealthFast:
		err = client.Ping(ctx)
	case HealthMedium:
		_, err = client.ListCollections(ctx)
	case HealthDeep:
		var collections []string
		collections, err = client.ListCollections(ctx)
		if err == nil && len(collections) > 0 {
			_, err = client.Count(ctx, collections[0], "", "")
		}
	}

	result := HealthCheckResult{Level: level, Latency: time.Since(start)}
	if err != nil {
		result.Healthy = false
		result.Error = err.Error()
		return result
	}
	if ctx.Err() != nil {
		result.Healthy = false
		result.Error = ctx.Err().Error()
		return result
	}
	result.Healthy = true
	return result
}
