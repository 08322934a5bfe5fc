package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/tshirtstore/internal/ports"
)

const keyPrefix = "tshirtstore:lockout:"

// RedisLockoutStore keeps failure counters in Redis hashes. A counter lives for one
// window from its first failure, so it also serves as a fixed-window rate limit.
type RedisLockoutStore struct {
	client redis.Cmdable
}

func NewRedisLockoutStore(client redis.Cmdable) *RedisLockoutStore {
	return &RedisLockoutStore{client: client}
}

func (s *RedisLockoutStore) Get(ctx context.Context, key string) (ports.LockoutState, error) {
	data, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return ports.LockoutState{}, err
	}
	return decodeState(data), nil
}

func (s *RedisLockoutStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	redisKey := keyPrefix + key

	count, err := s.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return ports.LockoutState{}, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, lockoutWindow).Err(); err != nil {
			return ports.LockoutState{}, err
		}
	}

	state := ports.LockoutState{FailedCount: int(count)}
	if threshold > 0 && int(count) >= threshold {
		lockedUntil := now.Add(lockoutWindow).UTC()
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, redisKey, "locked_until", lockedUntil.Unix())
			p.Expire(ctx, redisKey, lockoutWindow)
			return nil
		})
		if err != nil {
			return ports.LockoutState{}, err
		}
		state.LockedUntil = &lockedUntil
	}
	return state, nil
}

func (s *RedisLockoutStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

func decodeState(data map[string]string) ports.LockoutState {
	state := ports.LockoutState{}
	if raw, ok := data["failed_count"]; ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			state.FailedCount = n
		}
	}
	if raw, ok := data["locked_until"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			state.LockedUntil = &t
		}
	}
	return state
}
