package router

import (
	"context"
	"time"

	tg "github.com/m3rciful/cowinbot/core/telegram"
	tghelpers "github.com/m3rciful/cowinbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine fed with free text and shared contacts.
type FSM interface {
	InProgress(ctx context.Context, userID int64) bool
	HandleUpdate(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates outside a conversation.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds handlers for text and contact routing.
// Text matching a command alias runs that command; otherwise an active
// conversation gets the update, then the registry and option fallbacks.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inProgress := func(c tele.Context) bool {
		return fsm != nil && c.Sender() != nil && fsm.InProgress(tghelpers.BuildContext(c), c.Sender().ID)
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if inProgress(c) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsm.HandleUpdate(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	contactHandler := func(c tele.Context) error {
		start := time.Now()
		if fsm == nil {
			logHandlerSummary(c, "contact", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "fsm_contact", start, func() error {
			return fsm.HandleUpdate(c)
		})
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: textHandler},
		{Endpoint: tele.OnContact, Handler: contactHandler},
	}
}
