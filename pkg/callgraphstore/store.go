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

// Package callgraphstore persists a callgraph.CallGraph's function
// nodes, call sites, and interface implementations over a vector
// store: one record per function, keyed by a deterministic point id
// derived from (project, qualified_name).
package callgraphstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/recall/pkg/callgraph"
	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/qdrant"
)

// DefaultCollection is the collection name used when the caller does
// not configure one explicitly.
const DefaultCollection = "code_call_graph"

const scrollBatchSize = 100

// Store persists call-graph records through a qdrant.Client. It does
// not own a connection pool: callers acquire a client from
// pkg/vectorpool, construct or reuse a Store around it, and release
// the client when done — one acquire/release per public operation, per
// spec.md §4.9.
type Store struct {
	client     qdrant.Client
	collection string
	vectorSize uint64
}

// New wraps client for reads/writes against collection. vectorSize is
// the embedding width used only to satisfy the store's vector schema
// (records carry a zero vector; retrieval is purely payload-filtered).
func New(client qdrant.Client, collection string, vectorSize uint64) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, collection: collection, vectorSize: vectorSize}
}

// EnsureCollection creates the backing collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	return s.client.EnsureCollection(ctx, s.collection, s.vectorSize)
}

// pointID derives a deterministic point id from (project,
// qualifiedName) so repeated calls resolve to the same record,
// resolving spec.md §9's open question in favor of upsert semantics.
func pointID(project, qualifiedName string) string {
	sum := sha256.Sum256([]byte(project + "\x00" + qualifiedName))
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// unreachable: sum[:16] is always exactly 16 bytes
		return uuid.New().String()
	}
	return id.String()
}

func (s *Store) zeroVector() []float32 {
	return make([]float32, s.vectorSize)
}

// StoreFunctionNode upserts the function node record for project,
// returning its point id.
func (s *Store) StoreFunctionNode(ctx context.Context, node callgraph.FunctionNode, project string, callsTo, calledBy []string) (string, error) {
	id := pointID(project, node.QualifiedName)
	existing, err := s.fetchRecord(ctx, id)
	if err != nil && !corerr.IsMemoryNotFound(err) {
		return "", err
	}

	r := record{
		FunctionNode:  node,
		CallsTo:       callsTo,
		CalledBy:      calledBy,
		ProjectName:   project,
		QualifiedName: node.QualifiedName,
		IndexedAt:     time.Now(),
	}
	if existing != nil {
		r.CallSites = existing.CallSites
		r.Implementations = existing.Implementations
	}

	if err := s.put(ctx, id, r); err != nil {
		return "", err
	}
	return id, nil
}

// StoreCallSites replaces the call_sites payload of the one record
// matching qualifiedName in project: read-modify-write, not locked.
func (s *Store) StoreCallSites(ctx context.Context, qualifiedName string, sites []callgraph.CallSite, project string) error {
	id := pointID(project, qualifiedName)
	r, err := s.fetchRecord(ctx, id)
	if err != nil {
		return err
	}
	r.CallSites = sites
	return s.put(ctx, id, *r)
}

// StoreImplementations replaces the implementations payload of the
// record for interfaceName, creating an anchor record with an empty
// function-node stub if none exists.
func (s *Store) StoreImplementations(ctx context.Context, interfaceName string, impls []callgraph.InterfaceImplementation, project string) error {
	id := pointID(project, interfaceName)
	r, err := s.fetchRecord(ctx, id)
	if err != nil {
		if !corerr.IsMemoryNotFound(err) {
			return err
		}
		r = &record{
			FunctionNode:  callgraph.FunctionNode{QualifiedName: interfaceName},
			ProjectName:   project,
			QualifiedName: interfaceName,
			IndexedAt:     time.Now(),
		}
	}
	r.Implementations = impls
	return s.put(ctx, id, *r)
}

// LoadCallGraph scrolls every record for project and replays it into a
// fresh CallGraph. bar, if non-nil, is advanced once per record (the
// caller owns its lifecycle; typically github.com/schollz/progressbar/v3).
func (s *Store) LoadCallGraph(ctx context.Context, project string, bar *progressbar.ProgressBar) (*callgraph.CallGraph, error) {
	graph := callgraph.New()
	offset := ""
	for {
		page, err := s.client.Scroll(ctx, s.collection, "project_name", project, scrollBatchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, pt := range page.Points {
			r := decodeRecord(pt.Payload)
			if r.FunctionNode.QualifiedName != "" && r.FunctionNode.Name != "" {
				graph.AddFunction(r.FunctionNode)
			}
			for _, site := range r.CallSites {
				graph.AddCall(site)
			}
			for _, impl := range r.Implementations {
				graph.AddImplementation(impl)
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}
	return graph, nil
}

// FindFunctionByName returns the function node for qualifiedName in
// project, or nil if no such record exists.
func (s *Store) FindFunctionByName(ctx context.Context, qualifiedName, project string) (*callgraph.FunctionNode, error) {
	r, err := s.fetchRecord(ctx, pointID(project, qualifiedName))
	if err != nil {
		if corerr.IsMemoryNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	node := r.FunctionNode
	return &node, nil
}

// GetCallSitesForCaller returns the stored call sites for qualifiedName.
func (s *Store) GetCallSitesForCaller(ctx context.Context, qualifiedName, project string) ([]callgraph.CallSite, error) {
	r, err := s.fetchRecord(ctx, pointID(project, qualifiedName))
	if err != nil {
		if corerr.IsMemoryNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.CallSites, nil
}

// GetImplementations returns the implementations registered on the
// anchor record for (project, interfaceName).
func (s *Store) GetImplementations(ctx context.Context, interfaceName, project string) ([]callgraph.InterfaceImplementation, error) {
	r, err := s.fetchRecord(ctx, pointID(project, interfaceName))
	if err != nil {
		if corerr.IsMemoryNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.Implementations, nil
}

// DeleteProjectCallGraph removes every record belonging to project,
// returning the count of points removed.
func (s *Store) DeleteProjectCallGraph(ctx context.Context, project string) (int64, error) {
	count, err := s.client.Count(ctx, s.collection, "project_name", project)
	if err != nil {
		return 0, err
	}
	if err := s.client.DeleteByPayload(ctx, s.collection, "project_name", project); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) fetchRecord(ctx context.Context, id string) (*record, error) {
	pt, found, err := s.client.Get(ctx, s.collection, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, corerr.NewMemoryNotFoundError(id)
	}
	r := decodeRecord(pt.Payload)
	return &r, nil
}

func (s *Store) put(ctx context.Context, id string, r record) error {
	point := qdrant.Point{
		ID:      id,
		Vector:  s.zeroVector(),
		Payload: encodeRecord(r),
	}
	if err := s.client.Upsert(ctx, s.collection, []qdrant.Point{point}); err != nil {
		return fmt.Errorf("callgraphstore: upsert %s: %w", id, err)
	}
	return nil
}
