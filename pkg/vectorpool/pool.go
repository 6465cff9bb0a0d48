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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/qdrant"
)

// Pool is a bounded pool of qdrant.Client connections. The zero value
// is not usable; construct with New.
//
// Locking discipline: mu guards createdCount, active, the tracking
// map, and the stats counters. It is never held across client
// creation, a health check, an idle-queue wait, or a client close.
type Pool struct {
	cfg     Config
	factory *resilientFactory
	logger  *slog.Logger
	metrics *metrics

	mu          sync.Mutex
	createdCount int
	active       int
	closed       bool
	initialized  bool
	tracking     map[string]*PooledConnection

	totalAcquires       int64
	totalReleases       int64
	totalTimeouts       int64
	totalHealthFailures int64
	connectionsCreated  int64
	connectionsRecycled int64
	connectionsFailed   int64

	idle chan *PooledConnection

	window *rollingWindow

	monitorCancel context.CancelFunc
	monitorWG     sync.WaitGroup
	alerts        *alertHistory
	history       *statsHistory
	alertFunc     AlertFunc
}

// New builds a pool and eagerly creates min_size connections.
func New(name string, cfg Config, factory Factory, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSize < 1 {
		return nil, corerr.NewValidationError("vectorpool: max_size must be >= 1")
	}
	if cfg.MinSize < 0 || cfg.MinSize > cfg.MaxSize {
		return nil, corerr.NewValidationError("vectorpool: min_size must be in [0, max_size]")
	}
	if cfg.Timeout <= 0 {
		return nil, corerr.NewValidationError("vectorpool: timeout must be > 0")
	}
	if cfg.Recycle <= 0 {
		return nil, corerr.NewValidationError("vectorpool: recycle must be > 0")
	}

	p := &Pool{
		cfg:      cfg,
		factory:  newResilientFactory(name, factory),
		logger:   logger,
		metrics:  newMetrics(cfg.MetricsNamespace),
		tracking: make(map[string]*PooledConnection),
		idle:     make(chan *PooledConnection, cfg.MaxSize),
		window:   newRollingWindow(),
		alerts:   newAlertHistory(1000),
		history:  newStatsHistory(1000),
	}
	if err := p.initialize(); err != nil {
		return nil, err
	}
	if cfg.EnableMonitoring {
		p.StartMonitor(nil)
	}
	return p, nil
}

// initialize eagerly fills the pool to min_size.
func (p *Pool) initialize() error {
	for i := 0; i < p.cfg.MinSize; i++ {
		pooled, _, ok := p.tryCreateNew(context.Background())
		if ok {
			if pooled == nil {
				continue // creation failed; proceed with fewer than min_size
			}
			p.idle <- pooled
		}
	}
	p.mu.Lock()
	p.initialized = true
	p.mu.Unlock()
	return nil
}

// clientKey returns a stable identity key for a client interface
// value, used as the tracking-map key.
func clientKey(c qdrant.Client) string {
	return fmt.Sprintf("%p", c)
}

// Acquire implements the pool's 9-step acquisition algorithm.
func (p *Pool) Acquire(ctx context.Context) (qdrant.Client, error) {
	start := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, corerr.NewValidationError("vectorpool: acquire on a closed pool")
	}
	if !p.initialized {
		p.mu.Unlock()
		return nil, corerr.NewValidationError("vectorpool: pool is not initialized")
	}
	p.mu.Unlock()

	pooled, err := p.obtain(ctx)
	if err != nil {
		return nil, err
	}

	pooled, err = p.maybeRecycleForAge(ctx, pooled)
	if err != nil {
		return nil, err
	}

	if p.cfg.EnableHealthChecks {
		pooled, err = p.ensureHealthy(ctx, pooled)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	p.mu.Lock()
	pooled.LastUsed = now
	pooled.UseCount++
	p.tracking[clientKey(pooled.Client)] = pooled
	p.active++
	p.totalAcquires++
	p.mu.Unlock()

	elapsed := time.Since(start)
	p.window.add(float64(elapsed.Milliseconds()))
	p.metrics.acquires.Inc()
	p.metrics.acquireDuration.Observe(elapsed.Seconds())
	p.syncGauges()

	return pooled.Client, nil
}

// obtain implements steps 3-5: non-blocking take, reserve-and-create,
// then a timed wait on the idle queue.
func (p *Pool) obtain(ctx context.Context) (*PooledConnection, error) {
	select {
	case pooled := <-p.idle:
		return pooled, nil
	default:
	}

	if pooled, err, ok := p.tryCreateNew(ctx); ok {
		return pooled, err
	}

	timer := time.NewTimer(p.cfg.Timeout)
	defer timer.Stop()
	select {
	case pooled := <-p.idle:
		return pooled, nil
	case <-timer.C:
		p.mu.Lock()
		p.totalTimeouts++
		active, maxSize := p.active, p.cfg.MaxSize
		p.mu.Unlock()
		p.metrics.timeouts.Inc()
		return nil, corerr.NewPoolExhaustedError(active, maxSize, p.cfg.Timeout.Seconds())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// tryCreateNew reserves a creation slot under the lock then creates
// the client outside it; ok reports whether a slot was available to
// attempt (regardless of whether creation itself succeeded). If ctx
// is cancelled before the underlying factory produces a client
// (including mid-retry-backoff), the reservation is rolled back under
// the lock just like any other creation failure.
func (p *Pool) tryCreateNew(ctx context.Context) (*PooledConnection, error, bool) {
	p.mu.Lock()
	if p.createdCount >= p.cfg.MaxSize {
		p.mu.Unlock()
		return nil, nil, false
	}
	p.createdCount++
	p.mu.Unlock()

	client, err := p.factory.create(ctx)
	if err != nil {
		p.mu.Lock()
		p.createdCount--
		p.connectionsFailed++
		p.mu.Unlock()
		p.metrics.connectionsFailed.Inc()
		return nil, err, true
	}

	p.mu.Lock()
	p.connectionsCreated++
	p.mu.Unlock()
	p.metrics.connectionsMade.Inc()

	now := time.Now()
	return &PooledConnection{ID: uuid.NewString(), Client: client, CreatedAt: now, LastUsed: now}, nil, true
}

// maybeRecycleForAge implements step 6: a connection older than
// Recycle is closed and replaced by repeating step 4 (falling back to
// the full obtain algorithm if no slot is free, which should not
// normally happen since recycling frees one).
func (p *Pool) maybeRecycleForAge(ctx context.Context, pooled *PooledConnection) (*PooledConnection, error) {
	if pooled.age() <= p.cfg.Recycle {
		return pooled, nil
	}
	p.recycle(pooled)
	return p.replacementAfterRecycle(ctx)
}

// ensureHealthy implements step 7: a FAST health check, with one
// recycle-and-retry on failure before giving up.
func (p *Pool) ensureHealthy(ctx context.Context, pooled *PooledConnection) (*PooledConnection, error) {
	result := checkHealth(pooled.Client, HealthFast)
	p.recordHealthCheck(result)
	if result.Healthy {
		return pooled, nil
	}

	p.recycle(pooled)
	replacement, err := p.replacementAfterRecycle(ctx)
	if err != nil {
		return nil, err
	}

	result = checkHealth(replacement.Client, HealthFast)
	p.recordHealthCheck(result)
	if !result.Healthy {
		return nil, corerr.NewHealthCheckFailedError(result.Error, 2)
	}
	return replacement, nil
}

func (p *Pool) replacementAfterRecycle(ctx context.Context) (*PooledConnection, error) {
	if pooled, err, ok := p.tryCreateNew(ctx); ok {
		return pooled, err
	}
	return p.obtain(ctx)
}

func (p *Pool) recycle(pooled *PooledConnection) {
	_ = pooled.Client.Close()
	p.mu.Lock()
	p.createdCount--
	p.connectionsRecycled++
	p.mu.Unlock()
	p.metrics.connectionsRecyc.Inc()
}

func (p *Pool) recordHealthCheck(result HealthCheckResult) {
	if result.Healthy {
		return
	}
	p.mu.Lock()
	p.totalHealthFailures++
	p.mu.Unlock()
	p.metrics.healthFailures.Inc()
}

// Release returns client to the idle queue. Releasing on a closed
// pool is a no-op (the client is effectively orphaned). Releasing an
// untracked client (one this pool did not lend out, or one already
// released) logs a warning and re-wraps it as a fresh entry rather
// than failing the caller.
func (p *Pool) Release(client qdrant.Client) {
	key := clientKey(client)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("release called on closed pool; client orphaned")
		return
	}
	pooled, ok := p.tracking[key]
	if ok {
		delete(p.tracking, key)
	} else {
		p.logger.Warn("release called with untracked client", "client_key", key)
		pooled = &PooledConnection{ID: uuid.NewString(), Client: client, CreatedAt: time.Now()}
	}
	pooled.LastUsed = time.Now()
	p.active--
	p.totalReleases++
	p.mu.Unlock()

	select {
	case p.idle <- pooled:
	default:
		_ = pooled.Client.Close()
		p.mu.Lock()
		p.createdCount--
		p.mu.Unlock()
	}

	p.metrics.releases.Inc()
	p.syncGauges()
}

// IsHealthy is a cheap, synchronous predicate: not closed,
// initialized, the active count matching the tracking map, and not
// fully exhausted with nothing idle or active (either mismatch would
// indicate a corrupted tracking state).
func (p *Pool) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.initialized {
		return false
	}
	if p.active != len(p.tracking) {
		return false
	}
	exhausted := p.createdCount == p.cfg.MaxSize && len(p.idle) == 0 && p.active == 0
	return !exhausted
}

// Close is idempotent: it closes every live client (tracked and
// queued), drains the idle queue, clears counters, and stops the
// monitor.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	tracked := make([]*PooledConnection, 0, len(p.tracking))
	for _, pooled := range p.tracking {
		tracked = append(tracked, pooled)
	}
	p.tracking = make(map[string]*PooledConnection)
	p.createdCount = 0
	p.active = 0
	p.mu.Unlock()

	p.stopMonitorLocked()

	for _, pooled := range tracked {
		_ = pooled.Client.Close()
	}
	for {
		select {
		case pooled := <-p.idle:
			_ = pooled.Client.Close()
		default:
			return nil
		}
	}
}

// Reset recovers from corrupted pool state: under the lock, close
// everything and clear state; then, outside the lock, if the pool was
// previously initialized, re-initialize to min_size. The lock is
// never held across initialization to avoid deadlocking with
// connection creation.
func (p *Pool) Reset() error {
	p.mu.Lock()
	wasInitialized := p.initialized
	tracked := make([]*PooledConnection, 0, len(p.tracking))
	for _, pooled := range p.tracking {
		tracked = append(tracked, pooled)
	}
	p.tracking = make(map[string]*PooledConnection)
	p.createdCount = 0
	p.active = 0
	p.initialized = false
	p.closed = false
	p.mu.Unlock()

	for _, pooled := range tracked {
		_ = pooled.Client.Close()
	}
drain:
	for {
		select {
		case pooled := <-p.idle:
			_ = pooled.Client.Close()
		default:
			break drain
		}
	}

	if wasInitialized {
		return p.initialize()
	}
	return nil
}

// Stats returns a point-in-time snapshot of pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	avg, p95, max := p.window.snapshot()
	return PoolStats{
		PoolSize:            p.createdCount,
		Active:              p.active,
		Idle:                len(p.idle),
		TotalAcquires:       p.totalAcquires,
		TotalReleases:       p.totalReleases,
		TotalTimeouts:       p.totalTimeouts,
		TotalHealthFailures: p.totalHealthFailures,
		ConnectionsCreated:  p.connectionsCreated,
		ConnectionsRecycled: p.connectionsRecycled,
		ConnectionsFailed:   p.connectionsFailed,
		AvgAcquireTimeMs:    avg,
		P95AcquireTimeMs:    p95,
		MaxAcquireTimeMs:    max,
	}
}

func (p *Pool) syncGauges() {
	s := p.Stats()
	p.metrics.poolSize.Set(float64(s.PoolSize))
	p.metrics.active.Set(float64(s.Active))
	p.metrics.idle.Set(float64(s.Idle))
}
