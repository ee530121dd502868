package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

// CounterStore is the atomic record-and-count primitive backing the
// sliding-window log. Implementations must, in a single atomic step:
// record one event for key at the given instant, refresh the key's expiry
// to the window period, and return the number of events whose timestamp
// falls within [at-period, at], including the event just recorded.
// Concurrent calls for the same key must never observe a stale count.
type CounterStore interface {
	RecordAndCount(ctx context.Context, key string, at time.Time, period time.Duration) (int64, error)
}

// Limiter enforces a per-client sliding-window request limit.
type Limiter struct {
	store  CounterStore
	limit  int64
	period time.Duration
}

// NewLimiter returns a Limiter allowing limit events per period per client.
func NewLimiter(store CounterStore, limit int64, period time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, period: period}
}

// Admit records one event for clientID and returns the observed count for
// the trailing window. Returns models.ErrRateLimited when the count exceeds
// the limit; the event has already been recorded by then, so rejected calls
// still consume window capacity. A store failure is fatal for admission.
func (l *Limiter) Admit(ctx context.Context, clientID string) (int64, error) {
	count, err := l.store.RecordAndCount(ctx, clientID, time.Now(), l.period)
	if err != nil {
		return 0, fmt.Errorf("rate counter store: %w", err)
	}
	if count > l.limit {
		return count, models.ErrRateLimited
	}
	return count, nil
}
