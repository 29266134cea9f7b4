package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore[T any] struct {
	cli    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to url and stores JSON-encoded values under
// "<prefix>:<user id>". A positive ttl is refreshed on every Put.
func NewRedisStore[T any](ctx context.Context, url, prefix string, ttl time.Duration) (Store[T], error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore[T]{cli: cli, prefix: prefix, ttl: ttl}, nil
}

func (r *redisStore[T]) key(userID int64) string {
	return r.prefix + ":" + strconv.FormatInt(userID, 10)
}

func (r *redisStore[T]) Get(ctx context.Context, userID int64) (T, bool, error) {
	var v T
	data, err := r.cli.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode session %d: %w", userID, err)
	}
	return v, true, nil
}

func (r *redisStore[T]) Put(ctx context.Context, userID int64, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.cli.Set(ctx, r.key(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisStore[T]) Delete(ctx context.Context, userID int64) error {
	if err := r.cli.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *redisStore[T]) Len(ctx context.Context) (int, error) {
	var (
		n      int
		cursor uint64
	)
	for {
		keys, next, err := r.cli.Scan(ctx, cursor, r.prefix+":*", 200).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan: %w", err)
		}
		n += len(keys)
		if next == 0 {
			return n, nil
		}
		cursor = next
	}
}

func (r *redisStore[T]) Close() error {
	return r.cli.Close()
}
