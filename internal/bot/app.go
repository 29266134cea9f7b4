// Package bot connects the login conversation to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/cowinbot/core/logger"
	tg "github.com/m3rciful/cowinbot/core/telegram"
	"github.com/m3rciful/cowinbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/cowinbot/core/telegram/helpers"
	"github.com/m3rciful/cowinbot/core/telegram/router"
	tgsender "github.com/m3rciful/cowinbot/core/telegram/sender"
	"github.com/m3rciful/cowinbot/core/telegram/state"
	"github.com/m3rciful/cowinbot/core/telegram/ui"
	"github.com/m3rciful/cowinbot/internal/config"
	"github.com/m3rciful/cowinbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

const (
	textDownloading     = "Trying to download the certificate..."
	textUnsupported     = "Unsupported action"
	textAdminOnly       = "This command is not available"
	textSessionsSummary = "active sessions: %d"
	textSlowDown        = "Too many requests, slow down"
)

// App is the Telegram front end of the session machine.
type App struct {
	cfg      *config.Config
	machine  *session.Machine
	store    state.Store[session.Session]
	registry *tg.Registry
}

// New registers the bot commands and callbacks. store is closed by Close.
func New(cfg *config.Config, machine *session.Machine, store state.Store[session.Session]) (*App, error) {
	if cfg == nil || machine == nil {
		return nil, errors.New("bot: config and machine are required")
	}
	a := &App{cfg: cfg, machine: machine, store: store, registry: tg.NewRegistry()}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	cmds := map[string]commands.Command{
		"/start": {
			Description: "Show what the bot does",
			Handler:     a.command(session.CommandStart),
		},
		"/login": {
			Description: "Login with your phone number",
			Handler:     a.command(session.CommandLogin),
		},
		"/cancel": {
			Description: "Cancel the current process",
			Handler:     a.command(session.CommandCancel),
			Aliases:     []string{session.CommandCancel},
		},
		"/logout": {
			Description: "End the session",
			Handler:     a.command(session.CommandLogout),
		},
		"/sessions": {
			Description: "Count active sessions",
			Handler:     a.onSessions,
			AdminOnly:   true,
			Hidden:      true,
		},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	cbs := map[string]tele.HandlerFunc{
		session.ActionBeneficiary: a.onBeneficiary,
		session.ActionCertificate: a.onCertificate,
		session.ActionBack:        a.button(session.ActionBack),
		session.ActionLogout:      a.button(session.ActionLogout),
	}
	for key, h := range cbs {
		if err := a.registry.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	return nil
}

// TelegramRunOptions wires middlewares, routes and the sender for core/telegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	var fb ui.FallbackProvider = a
	mws := tg.DefaultMiddlewares(core, tg.MiddlewareOptions{
		OnLimited:      a.onLimited,
		SerializeUsers: true,
	})

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, textAdminOnly, &tele.SendOptions{})
		},
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{NotFound: fb.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a, a.registry, router.TextOptions{UnknownText: fb.UnknownText()})...)

	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			QueueSize:  core.Sender.QueueSize,
			Workers:    1,
			MaxRetries: core.Sender.MaxRetries,
		},
		Middlewares: mws,
		Routes:      routes,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			n, err := a.machine.Count(ctx)
			logger.LogEvent(ctx, logger.Session, slog.LevelInfo, "sessions.left",
				slog.String("status", logger.Status(err)),
				slog.Int("count", n),
			)
			return nil
		},
	}, nil
}

// Close releases the session store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
