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
	"time"

	"github.com/kraklabs/recall/pkg/corerr"
)

// FindDependencies delegates to the configured DependencyService and
// normalizes its result into the standard envelope.
func (o *Orchestrator) FindDependencies(ctx context.Context, filePath, project string, depth int, includeTransitive bool) (Envelope, error) {
	start := time.Now()
	if o.deps == nil {
		return Envelope{}, corerr.NewStorageError("no file-dependency service configured")
	}
	deps, err := o.deps.FindDependencies(ctx, filePath, project, depth, includeTransitive)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Inputs: map[string]any{
			"file_path": filePath, "project": project,
			"depth": depth, "include_transitive": includeTransitive,
		},
		Results: deps,
		Counts:  map[string]int{"total": len(deps)},
		AnalysisTimeMs: timed(start),
	}, nil
}

// FindDependents delegates to the configured DependencyService and
// computes the impact_radius bucket for the result (spec.md §4.9:
// >20 high, 10-20 medium, <10 low).
func (o *Orchestrator) FindDependents(ctx context.Context, filePath, project string, depth int, includeTransitive bool) (Envelope, error) {
	start := time.Now()
	if o.deps == nil {
		return Envelope{}, corerr.NewStorageError("no file-dependency service configured")
	}
	dependents, err := o.deps.FindDependents(ctx, filePath, project, depth, includeTransitive)
	if err != nil {
		return Envelope{}, err
	}

	result := DependentsResult{
		Dependents:   dependents,
		ImpactRadius: classifyImpact(len(dependents)),
	}

	return Envelope{
		Inputs: map[string]any{
			"file_path": filePath, "project": project,
			"depth": depth, "include_transitive": includeTransitive,
		},
		Results: result,
		Counts:  map[string]int{"total": len(dependents)},
		AnalysisTimeMs: timed(start),
	}, nil
}
