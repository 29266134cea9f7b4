package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/cowinbot/core/logger"
	"github.com/m3rciful/cowinbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("cause", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, opts *tele.SendOptions) error {
	countOutbound(c, opts)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if opts != nil {
			return c.Send(text, opts)
		}
		return c.Send(text)
	})
}

// EditText replaces the message that carried the pressed button.
// It falls back to a new message when the update has no such message.
func EditText(c tele.Context, text string, opts *tele.SendOptions) error {
	if c.Callback() == nil {
		return SendText(c, text, opts)
	}
	countOutbound(c, opts)
	return sendAsync(c, "send.edit", "editMessageText", func() error {
		var err error
		if opts != nil {
			err = c.Edit(text, opts)
		} else {
			err = c.Edit(text)
		}
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		return err
	})
}

// SendDocument delivers a file produced by prepare. prepare runs inside the
// send job, so a retried job prepares again; release is always called once
// the attempt is over.
func SendDocument(c tele.Context, prepare func() (doc *tele.Document, release func(), err error)) error {
	countOutbound(c, nil)
	return sendAsync(c, "send.document", "sendDocument", func() error {
		doc, release, err := prepare()
		if release != nil {
			defer release()
		}
		if err != nil {
			return err
		}
		return c.Send(doc)
	})
}
