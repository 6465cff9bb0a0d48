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

	"github.com/sony/gobreaker"

	"github.com/kraklabs/recall/pkg/backoff"
	"github.com/kraklabs/recall/pkg/corerr"
	"github.com/kraklabs/recall/pkg/qdrant"
)

const maxCreateAttempts = 3

// resilientFactory wraps a Factory with exponential-backoff retry
// for up to three attempts (waiting 1s, then 2s), and a circuit breaker that
// opens after a sustained run of failures so a dead vector store
// fails every acquire fast instead of each one paying three slow
// retries in a row.
type resilientFactory struct {
	underlying Factory
	breaker    *gobreaker.CircuitBreaker
	sleep      func(ctx context.Context, d time.Duration) error
}

func newResilientFactory(name string, underlying Factory) *resilientFactory {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures == counts.Requests
		},
	})
	return &resilientFactory{underlying: underlying, breaker: breaker, sleep: sleepCtx}
}

// sleepCtx waits for d, returning early with ctx.Err() if ctx is
// cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *resilientFactory) create(ctx context.Context) (qdrant.Client, error) {
	result, err := f.breaker.Execute(func() (any, error) {
		return f.createWithRetry(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, corerr.NewConnectionCreationFailedError("vector store", err)
		}
		return nil, err
	}
	return result.(qdrant.Client), nil
}

func (f *resilientFactory) createWithRetry(ctx context.Context) (qdrant.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		client, err := f.underlying()
		if err == nil {
			return client, nil
		}
		lastErr = err
		if attempt < maxCreateAttempts {
			if err := f.sleep(ctx, backoff.Delay(attempt, time.Second)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}
