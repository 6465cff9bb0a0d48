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

// Package vectorpool manages a bounded pool of vector-store clients:
// acquire with timeout, release, age-based recycling, tiered health
// checks, a background monitor, and corrupted-state recovery.
package vectorpool

import (
	"time"

	"github.com/kraklabs/recall/pkg/qdrant"
)

// Factory creates a new vector-store client. The pool calls it
// outside its lock on every connection creation/recycle.
type Factory func() (qdrant.Client, error)

// Config is the pool's immutable construction-time configuration.
type Config struct {
	MinSize             int
	MaxSize             int
	Timeout             time.Duration
	Recycle             time.Duration
	EnableHealthChecks  bool
	EnableMonitoring    bool
	CollectionInterval  time.Duration
	ExhaustionThreshold float64
	LatencyThresholdMs  float64
	MetricsNamespace    string
}

// DefaultConfig returns the spec's documented defaults overlaid with
// the caller's min/max/timeout/recycle.
func DefaultConfig(minSize, maxSize int, timeout, recycle time.Duration) Config {
	return Config{
		MinSize:             minSize,
		MaxSize:             maxSize,
		Timeout:             timeout,
		Recycle:             recycle,
		EnableHealthChecks:  true,
		EnableMonitoring:    false,
		CollectionInterval:  30 * time.Second,
		ExhaustionThreshold: 0.9,
		LatencyThresholdMs:  100,
		MetricsNamespace:    "recall",
	}
}

// PooledConnection wraps a client with pool bookkeeping. ID is a
// synthetic identity assigned at creation; the pool's tracking map is
// keyed by the client's address (clientKey), not by ID.
type PooledConnection struct {
	ID        string
	Client    qdrant.Client
	CreatedAt time.Time
	LastUsed  time.Time
	UseCount  int64
}

func (pc *PooledConnection) age() time.Duration { return time.Since(pc.CreatedAt) }

// PoolStats is a point-in-time snapshot of pool counters.
type PoolStats struct {
	PoolSize             int
	Active               int
	Idle                 int
	TotalAcquires        int64
	TotalReleases        int64
	TotalTimeouts        int64
	TotalHealthFailures  int64
	ConnectionsCreated   int64
	ConnectionsRecycled  int64
	ConnectionsFailed    int64
	AvgAcquireTimeMs     float64
	P95AcquireTimeMs     float64
	MaxAcquireTimeMs     float64
}

// HealthLevel selects how thorough a health check is.
type HealthLevel string

const (
	HealthFast   HealthLevel = "fast"
	HealthMedium HealthLevel = "medium"
	HealthDeep   HealthLevel = "deep"
)

// HealthCheckResult is the outcome of one tiered health check.
type HealthCheckResult struct {
	Healthy bool
	Level   HealthLevel
	Latency time.Duration
	Error   string
}

// AlertSeverity classifies a monitor alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is one monitor observation emitted when a threshold is crossed.
type Alert struct {
	Severity  AlertSeverity
	Message   string
	Stats     PoolStats
	Timestamp time.Time
}

// AlertFunc is an optional async sink for Alerts raised by the monitor.
type AlertFunc func(Alert)
