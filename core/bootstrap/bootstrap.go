package bootstrap

import (
	"context"
	"fmt"

	coreconfig "github.com/m3rciful/cowinbot/core/config"
	"github.com/m3rciful/cowinbot/core/logger"
	"github.com/m3rciful/cowinbot/core/telegram/state"
)

// Options control the generic bootstrap pipeline shared between bots.
// T is the per-user session value kept by the store.
type Options[T any] struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(context.Context, coreconfig.SessionConfig) (state.Store[T], error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result[T any] struct {
	Store state.Store[T]
}

// Run initializes the logger and opens the session store.
func Run[T any](ctx context.Context, opts Options[T]) (*Result[T], error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	open := opts.OpenStore
	if open == nil {
		open = state.Open[T]
	}
	store, err := open(ctx, opts.Config.Session)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store init failed: %w", err)
	}

	return &Result[T]{Store: store}, nil
}
