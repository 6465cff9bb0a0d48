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

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/hybrid"
	"github.com/kraklabs/recall/pkg/orchestrator"
)

// request is the one JSON object recall reads from stdin.
type request struct {
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args"`
}

func dispatch(ctx context.Context, o *orchestrator.Orchestrator, req request) (orchestrator.Envelope, error) {
	switch req.Operation {
	case "find_callers":
		var a struct {
			FunctionName    string `json:"function_name"`
			Project         string `json:"project"`
			IncludeIndirect bool   `json:"include_indirect"`
			MaxDepth        int    `json:"max_depth"`
			Limit           int    `json:"limit"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.FindCallers(ctx, a.FunctionName, a.Project, a.IncludeIndirect, a.MaxDepth, a.Limit)

	case "find_callees":
		var a struct {
			FunctionName    string `json:"function_name"`
			Project         string `json:"project"`
			IncludeIndirect bool   `json:"include_indirect"`
			MaxDepth        int    `json:"max_depth"`
			Limit           int    `json:"limit"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.FindCallees(ctx, a.FunctionName, a.Project, a.IncludeIndirect, a.MaxDepth, a.Limit)

	case "find_implementations":
		var a struct {
			InterfaceName string `json:"interface_name"`
			Project       string `json:"project"`
			Language      string `json:"language"`
			Limit         int    `json:"limit"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.FindImplementations(ctx, a.InterfaceName, a.Project, a.Language, a.Limit)

	case "find_dependencies":
		var a struct {
			FilePath          string `json:"file_path"`
			Project           string `json:"project"`
			Depth             int    `json:"depth"`
			IncludeTransitive bool   `json:"include_transitive"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.FindDependencies(ctx, a.FilePath, a.Project, a.Depth, a.IncludeTransitive)

	case "find_dependents":
		var a struct {
			FilePath          string `json:"file_path"`
			Project           string `json:"project"`
			Depth             int    `json:"depth"`
			IncludeTransitive bool   `json:"include_transitive"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.FindDependents(ctx, a.FilePath, a.Project, a.Depth, a.IncludeTransitive)

	case "get_call_chain":
		var a struct {
			From     string `json:"from"`
			To       string `json:"to"`
			Project  string `json:"project"`
			MaxPaths int    `json:"max_paths"`
			MaxDepth int    `json:"max_depth"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		return o.GetCallChain(ctx, a.From, a.To, a.Project, a.MaxPaths, a.MaxDepth)

	case "hybrid_retrieve":
		var a struct {
			Query  string  `json:"query"`
			Project string `json:"project"`
			K      int     `json:"k"`
			Limit  int     `json:"limit"`
			Method string  `json:"method"`
			Alpha  float64 `json:"alpha"`
			RRFK   int     `json:"rrf_k"`
		}
		if err := unmarshalArgs(req.Args, &a); err != nil {
			return orchestrator.Envelope{}, err
		}
		method := hybrid.FusionMethod(a.Method)
		if method == "" {
			method = hybrid.FusionWeighted
		}
		return o.HybridRetrieve(ctx, orchestrator.HybridRetrieveArgs{
			Query: a.Query, Project: a.Project, K: a.K, Limit: a.Limit,
			Method: method, Alpha: a.Alpha, RRFK: a.RRFK,
		})

	default:
		return orchestrator.Envelope{}, corerr.NewValidationError(fmt.Sprintf("unknown operation %q", req.Operation))
	}
}

func unmarshalArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return corerr.NewValidationError("request is missing \"args\"")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return corerr.NewValidationError("malformed \"args\": " + err.Error()).WithCause(err)
	}
	return nil
}
