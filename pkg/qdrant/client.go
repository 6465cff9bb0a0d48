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

// Package qdrant is a thin wrapper over the Qdrant gRPC client,
// narrowed to the operations the call-graph store and hybrid
// retrieval path need: collection lifecycle, batched upsert, filtered
// scroll/count/delete.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kraklabs/recall/pkg/corerr"
)

// Point is a vector record with an opaque string id and an arbitrary
// JSON-shaped payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScrollPage is one page of a paginated scroll.
type ScrollPage struct {
	Points     []Point
	NextOffset string
	HasMore    bool
}

// ScoredPoint is a Point annotated with its similarity score against a
// query vector, as returned by Search.
type ScoredPoint struct {
	Point
	Score float32
}

// Client is the narrow surface pkg/callgraphstore and pkg/vectorpool
// depend on; GRPCClient is the concrete Qdrant-backed implementation.
type Client interface {
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	Upsert(ctx context.Context, collection string, points []Point) error
	// Get retrieves a single point by id. found is false if no point
	// with that id exists.
	Get(ctx context.Context, collection string, id string) (point Point, found bool, err error)
	Scroll(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string, limit int, offset string) (ScrollPage, error)
	// Search runs a cosine-similarity nearest-neighbor query, optionally
	// narrowed to records whose payload[filterPayloadKey] ==
	// filterPayloadValue, returning at most limit hits ranked best first.
	Search(ctx context.Context, collection string, vector []float32, limit int, filterPayloadKey, filterPayloadValue string) ([]ScoredPoint, error)
	Count(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string) (int64, error)
	Delete(ctx context.Context, collection string, ids []string) error
	DeleteByPayload(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string) error
	// Ping is the cheapest possible liveness call, used for FAST
	// health checks by the connection pool.
	Ping(ctx context.Context) error
	// ListCollections is used for MEDIUM/DEEP health checks by the
	// connection pool.
	ListCollections(ctx context.Context) ([]string, error)
	Close() error
}

// GRPCClient implements Client over github.com/qdrant/go-client.
type GRPCClient struct {
	conn *qdrant.Client
	url  string
}

// Dial opens a gRPC connection to a Qdrant instance at host:port.
func Dial(host string, port int, apiKey string, useTLS bool) (*GRPCClient, error) {
	conn, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, corerr.NewQdrantConnectionError(fmt.Sprintf("%s:%d", host, port), err)
	}
	return &GRPCClient{conn: conn, url: fmt.Sprintf("%s:%d", host, port)}, nil
}

func (c *GRPCClient) Close() error { return c.conn.Close() }

// EnsureCollection creates the collection with HNSW indexing and int8
// scalar quantization if it does not already exist.
func (c *GRPCClient) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	exists, err := c.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	quantile := float32(0.99)
	_, err = c.conn.GetCollectionsClient().Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
		HnswConfig: &qdrant.HnswConfigDiff{
			M:           qdrant.PtrOf(uint64(16)),
			EfConstruct: qdrant.PtrOf(uint64(100)),
		},
		QuantizationConfig: qdrant.NewQuantizationScalar(&qdrant.ScalarQuantization{
			Type:      qdrant.QuantizationType_Int8,
			Quantile:  &quantile,
			AlwaysRam: qdrant.PtrOf(true),
		}),
	})
	if err != nil {
		return corerr.NewStorageError(fmt.Sprintf("create collection %q", name)).WithCause(err)
	}
	return nil
}

// CollectionExists reports whether name is a known collection.
func (c *GRPCClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.conn.GetCollectionsClient().CollectionExists(ctx, &qdrant.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, corerr.NewQdrantConnectionError(c.url, err)
	}
	return resp.GetResult().GetExists(), nil
}

// Upsert batch-writes points into collection.
func (c *GRPCClient) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	converted := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		converted = append(converted, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload),
		})
	}
	_, err := c.conn.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         converted,
	})
	if err != nil {
		return corerr.NewStorageError(fmt.Sprintf("upsert %d points into %q", len(points), collection)).WithCause(err)
	}
	return nil
}

// Get retrieves a single point by id.
func (c *GRPCClient) Get(ctx context.Context, collection string, id string) (Point, bool, error) {
	resp, err := c.conn.GetPointsClient().Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayloadInclude([]string{}),
		WithVectors:    qdrant.NewWithVectorsEnable(true),
	})
	if err != nil {
		return Point{}, false, corerr.NewStorageError(fmt.Sprintf("get point %q from %q", id, collection)).WithCause(err)
	}
	results := resp.GetResult()
	if len(results) == 0 {
		return Point{}, false, nil
	}
	pt := results[0]
	return Point{
		ID:      pointIDString(pt.GetId()),
		Vector:  pt.GetVectors().GetVector().GetData(),
		Payload: payloadToMap(pt.GetPayload()),
	}, true, nil
}

// Scroll pages through collection, optionally filtered to records
// whose payload[filterPayloadKey] == filterPayloadValue.
func (c *GRPCClient) Scroll(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string, limit int, offset string) (ScrollPage, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayloadInclude([]string{}),
		WithVectors:    qdrant.NewWithVectorsEnable(true),
	}
	if filterPayloadKey != "" {
		req.Filter = matchFilter(filterPayloadKey, filterPayloadValue)
	}
	if offset != "" {
		req.Offset = qdrant.NewID(offset)
	}

	resp, err := c.conn.GetPointsClient().Scroll(ctx, req)
	if err != nil {
		return ScrollPage{}, corerr.NewStorageError(fmt.Sprintf("scroll %q", collection)).WithCause(err)
	}

	page := ScrollPage{}
	for _, pt := range resp.GetResult() {
		page.Points = append(page.Points, Point{
			ID:      pointIDString(pt.GetId()),
			Vector:  pt.GetVectors().GetVector().GetData(),
			Payload: payloadToMap(pt.GetPayload()),
		})
	}
	if next := resp.GetNextPageOffset(); next != nil {
		page.NextOffset = pointIDString(next)
		page.HasMore = true
	}
	return page, nil
}

// Search runs a cosine-similarity nearest-neighbor query against vector.
func (c *GRPCClient) Search(ctx context.Context, collection string, vector []float32, limit int, filterPayloadKey, filterPayloadValue string) ([]ScoredPoint, error) {
	req := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    qdrant.NewWithPayloadInclude([]string{}),
		WithVectors:    qdrant.NewWithVectorsEnable(true),
	}
	if filterPayloadKey != "" {
		req.Filter = matchFilter(filterPayloadKey, filterPayloadValue)
	}

	resp, err := c.conn.GetPointsClient().Search(ctx, req)
	if err != nil {
		return nil, corerr.NewStorageError(fmt.Sprintf("search %q", collection)).WithCause(err)
	}

	hits := make([]ScoredPoint, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		hits = append(hits, ScoredPoint{
			Point: Point{
				ID:      pointIDString(sp.GetId()),
				Vector:  sp.GetVectors().GetVector().GetData(),
				Payload: payloadToMap(sp.GetPayload()),
			},
			Score: sp.GetScore(),
		})
	}
	return hits, nil
}

// Count returns the number of records in collection, optionally
// filtered to payload[filterPayloadKey] == filterPayloadValue.
func (c *GRPCClient) Count(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string) (int64, error) {
	req := &qdrant.CountPoints{CollectionName: collection}
	if filterPayloadKey != "" {
		req.Filter = matchFilter(filterPayloadKey, filterPayloadValue)
	}
	resp, err := c.conn.GetPointsClient().Count(ctx, req)
	if err != nil {
		return 0, corerr.NewStorageError(fmt.Sprintf("count %q", collection)).WithCause(err)
	}
	return int64(resp.GetResult().GetCount()), nil
}

// Delete removes points by id.
func (c *GRPCClient) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}
	_, err := c.conn.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return corerr.NewStorageError(fmt.Sprintf("delete %d points from %q", len(ids), collection)).WithCause(err)
	}
	return nil
}

// DeleteByPayload removes every record matching
// payload[filterPayloadKey] == filterPayloadValue.
func (c *GRPCClient) DeleteByPayload(ctx context.Context, collection string, filterPayloadKey, filterPayloadValue string) error {
	_, err := c.conn.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(matchFilter(filterPayloadKey, filterPayloadValue)),
	})
	if err != nil {
		return corerr.NewStorageError(fmt.Sprintf("delete by payload from %q", collection)).WithCause(err)
	}
	return nil
}

// Ping issues the cheapest call the client exposes: a health-check
// RPC against the Qdrant server, with no collection lookup involved.
func (c *GRPCClient) Ping(ctx context.Context) error {
	_, err := c.conn.HealthCheck(ctx)
	if err != nil {
		return corerr.NewQdrantConnectionError(c.url, err)
	}
	return nil
}

// ListCollections returns the names of every collection on the server.
func (c *GRPCClient) ListCollections(ctx context.Context) ([]string, error) {
	resp, err := c.conn.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, corerr.NewQdrantConnectionError(c.url, err)
	}
	names := make([]string, 0, len(resp.GetCollections()))
	for _, col := range resp.GetCollections() {
		names = append(names, col.GetName())
	}
	return names, nil
}

func matchFilter(key, value string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(key, value),
		},
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToGo(v)
	}
	return out
}

// valueToGo converts a Qdrant protobuf Value into a plain Go value
// (string, float64, int64, bool, map[string]any, []any, or nil).
func valueToGo(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch {
	case v.GetStringValue() != "":
		return v.GetStringValue()
	case v.GetStructValue() != nil:
		fields := v.GetStructValue().GetFields()
		out := make(map[string]any, len(fields))
		for k, fv := range fields {
			out[k] = valueToGo(fv)
		}
		return out
	case v.GetListValue() != nil:
		values := v.GetListValue().GetValues()
		out := make([]any, len(values))
		for i, lv := range values {
			out[i] = valueToGo(lv)
		}
		return out
	case v.GetIntegerValue() != 0:
		return v.GetIntegerValue()
	case v.GetDoubleValue() != 0:
		return v.GetDoubleValue()
	case v.GetBoolValue():
		return true
	default:
		return nil
	}
}
