package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on a Redis sorted set per
// client. Events are members scored by their unix-millisecond timestamp;
// the member value carries a UUID suffix so two events landing in the same
// millisecond stay distinct instead of collapsing into one ZADD upsert.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore returns a store backed by the given client. The
// caller owns the client's lifecycle.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// RecordAndCount runs ZADD, ZREMRANGEBYSCORE, EXPIRE and ZCOUNT in one
// MULTI/EXEC transaction, so concurrent requests from the same client
// serialize on the store rather than racing a read-modify-write in the
// process. The trim keeps busy keys from accumulating events older than
// the window; EXPIRE reclaims idle clients entirely.
func (s *RedisCounterStore) RecordAndCount(ctx context.Context, key string, at time.Time, period time.Duration) (int64, error) {
	now := at.UnixMilli()
	windowStart := now - period.Milliseconds()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart-1, 10))
	pipe.Expire(ctx, key, period)
	count := pipe.ZCount(ctx, key, strconv.FormatInt(windowStart, 10), strconv.FormatInt(now, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis record-and-count: %w", err)
	}

	return count.Val(), nil
}

// Ping reports whether the store is reachable. Used by the health handler.
func (s *RedisCounterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
