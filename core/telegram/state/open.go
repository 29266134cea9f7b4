package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/cowinbot/core/config"
	"github.com/m3rciful/cowinbot/core/logger"
)

// Open builds the store selected by cfg.Backend.
func Open[T any](ctx context.Context, cfg coreconfig.SessionConfig) (Store[T], error) {
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	start := time.Now()

	var (
		store Store[T]
		err   error
	)
	switch cfg.Backend {
	case "", coreconfig.SessionBackendMemory:
		store = NewMemoryStore[T](ttl)
	case coreconfig.SessionBackendRedis:
		store, err = NewRedisStore[T](ctx, cfg.RedisURL, cfg.KeyPrefix, ttl)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.open",
		slog.String("status", logger.Status(err)),
		slog.String("backend", cfg.Backend),
		slog.Duration("ttl", ttl),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return nil, err
	}
	return store, nil
}
