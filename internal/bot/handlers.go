package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/cowinbot/core/logger"
	"github.com/m3rciful/cowinbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/cowinbot/core/telegram/helpers"
	"github.com/m3rciful/cowinbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func (a *App) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev := session.Command{Name: name}
		if s := c.Sender(); s != nil {
			ev.FirstName = s.FirstName
		}
		return a.dispatch(c, ev)
	}
}

func (a *App) button(action string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.dispatch(c, session.Button{Action: action})
	}
}

func (a *App) onBeneficiary(c tele.Context) error {
	id, err := callbacks.PayloadID(c)
	if err != nil {
		return a.rejectPayload(c, err)
	}
	return a.dispatch(c, session.Button{Action: session.ActionBeneficiary, BeneficiaryID: id})
}

func (a *App) onCertificate(c tele.Context) error {
	id, err := callbacks.PayloadID(c)
	if err != nil {
		return a.rejectPayload(c, err)
	}
	if a.showDownloading(c) {
		if err := tghelpers.EditText(c, textDownloading, &tele.SendOptions{}); err != nil {
			logger.Warn(tghelpers.BuildContext(c), "tg", "cert.pending",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	return a.dispatch(c, session.Button{Action: session.ActionCertificate, BeneficiaryID: id})
}

// showDownloading reports whether the pending-download edit applies: only
// a logged-in user reaches the certificate request.
func (a *App) showDownloading(c tele.Context) bool {
	s := c.Sender()
	return s != nil && a.machine.LoggedIn(tghelpers.BuildContext(c), s.ID)
}

func (a *App) rejectPayload(c tele.Context, err error) error {
	logger.Warn(tghelpers.BuildContext(c), "tg", "callback.payload",
		slog.String("status", "fail"),
		slog.String("cb_key", callbacks.CallbackKey(c)),
		slog.String("err", err.Error()),
	)
	return tghelpers.Answer(c, &tele.CallbackResponse{Text: textUnsupported})
}

// onLimited answers throttled button presses so the client stops spinning.
func (a *App) onLimited(c tele.Context) error {
	return tghelpers.Answer(c, &tele.CallbackResponse{Text: textSlowDown})
}

func (a *App) onSessions(c tele.Context) error {
	n, err := a.machine.Count(tghelpers.BuildContext(c))
	if err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(textSessionsSummary, n), &tele.SendOptions{})
}

// InProgress reports whether the user is inside the login conversation.
func (a *App) InProgress(ctx context.Context, userID int64) bool {
	return a.machine.Active(ctx, userID)
}

// HandleUpdate feeds a text or contact message to the machine.
func (a *App) HandleUpdate(c tele.Context) error {
	return a.dispatch(c, messageEvent(c.Message()))
}

// UnknownText lets the machine answer text outside the conversation with a hint.
func (a *App) UnknownText() tele.HandlerFunc {
	return a.HandleUpdate
}

// UnknownCallback answers buttons no handler is registered for.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.Answer(c, &tele.CallbackResponse{Text: textUnsupported})
	}
}

func messageEvent(m *tele.Message) session.Event {
	if m == nil {
		return session.TextInput{}
	}
	if m.Contact != nil {
		return session.ContactShared{Phone: m.Contact.PhoneNumber, UserID: m.Contact.UserID}
	}
	return session.TextInput{Text: m.Text}
}

// dispatch runs ev through the machine and performs the resulting actions.
func (a *App) dispatch(c tele.Context, ev session.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	out, err := a.machine.Handle(tghelpers.BuildContext(c), sender.ID, ev)
	if derr := a.deliver(c, out); derr != nil {
		err = errors.Join(err, derr)
	}
	return err
}
