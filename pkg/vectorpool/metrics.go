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

import "github.com/prometheus/client_golang/prometheus"

// metrics mirrors PoolStats onto a private Prometheus registry, one
// per pool instance, so multiple pools (e.g. in tests) never collide
// on global registration.
type metrics struct {
	registry          *prometheus.Registry
	poolSize          prometheus.Gauge
	active            prometheus.Gauge
	idle              prometheus.Gauge
	acquires          prometheus.Counter
	releases          prometheus.Counter
	timeouts          prometheus.Counter
	healthFailures    prometheus.Counter
	connectionsMade   prometheus.Counter
	connectionsRecyc  prometheus.Counter
	connectionsFailed prometheus.Counter
	acquireDuration   prometheus.Histogram
}

func newMetrics(namespace string) *metrics {
	registry := prometheus.NewRegistry()
	m := &metrics{
		registry: registry,
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pool_size", Help: "Connections currently created.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pool_active", Help: "Connections currently lent out.",
		}),
		idle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pool_idle", Help: "Connections currently idle.",
		}),
		acquires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_acquires_total", Help: "Total successful acquisitions.",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_releases_total", Help: "Total releases.",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_timeouts_total", Help: "Total acquire timeouts.",
		}),
		healthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_health_failures_total", Help: "Total health check failures.",
		}),
		connectionsMade: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_connections_created_total", Help: "Total connections created.",
		}),
		connectionsRecyc: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_connections_recycled_total", Help: "Total connections recycled by age or failed health check.",
		}),
		connectionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_connections_failed_total", Help: "Total connection creation failures.",
		}),
		acquireDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pool_acquire_duration_seconds", Help: "Acquire latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(
		m.poolSize, m.active, m.idle, m.acquires, m.releases, m.timeouts,
		m.healthFailures, m.connectionsMade, m.connectionsRecyc, m.connectionsFailed, m.acquireDuration,
	)
	return m
}
