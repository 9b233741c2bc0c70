package validator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLockoutStore implements LockoutStore using Redis, so several hosts
// share one lockout state.
type RedisLockoutStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLockoutStore creates a new Redis-based lockout store.
func NewRedisLockoutStore(client redis.UniversalClient, prefix string) *RedisLockoutStore {
	if prefix == "" {
		prefix = "kayan:login:lockout:"
	}
	return &RedisLockoutStore{client: client, prefix: prefix}
}

func (s *RedisLockoutStore) failureKey(username string) string {
	return s.prefix + "failures:" + username
}

func (s *RedisLockoutStore) lockKey(username string) string {
	return s.prefix + "locked:" + username
}

var incrExpire = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

func (s *RedisLockoutStore) RecordFailure(ctx context.Context, username string, ttl time.Duration) (int, error) {
	count, err := incrExpire.Run(ctx, s.client, []string{s.failureKey(username)}, ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("redis lockout: record failure failed: %w", err)
	}
	return count, nil
}

func (s *RedisLockoutStore) ClearFailures(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, s.failureKey(username)).Err(); err != nil {
		return fmt.Errorf("redis lockout: clear failures failed: %w", err)
	}
	return nil
}

func (s *RedisLockoutStore) Lock(ctx context.Context, username string, duration time.Duration) error {
	lockedUntil := time.Now().Add(duration).Unix()
	if err := s.client.Set(ctx, s.lockKey(username), lockedUntil, duration).Err(); err != nil {
		return fmt.Errorf("redis lockout: lock failed: %w", err)
	}
	return s.ClearFailures(ctx, username)
}

func (s *RedisLockoutStore) IsLocked(ctx context.Context, username string) (bool, time.Time, error) {
	result, err := s.client.Get(ctx, s.lockKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("redis lockout: check lock failed: %w", err)
	}

	sec, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("redis lockout: parse lock time failed: %w", err)
	}
	until := time.Unix(sec, 0)
	if time.Now().After(until) {
		return false, time.Time{}, nil
	}
	return true, until, nil
}
