package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/m3rciful/cowinbot/core/logger"
	tghelpers "github.com/m3rciful/cowinbot/core/telegram/helpers"
	"github.com/m3rciful/cowinbot/core/telegram/keyboard"
	"github.com/m3rciful/cowinbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func (a *App) deliver(c tele.Context, out []session.Outbound) error {
	var errs []error
	for _, o := range out {
		var err error
		switch v := o.(type) {
		case session.Reply:
			opts := &tele.SendOptions{ReplyMarkup: markup(v.Keyboard)}
			if v.Quote && c.Message() != nil && c.Callback() == nil {
				opts.ReplyTo = c.Message()
			}
			err = tghelpers.SendText(c, v.Text, opts)
		case session.Edit:
			err = tghelpers.EditText(c, v.Text, &tele.SendOptions{ReplyMarkup: markup(v.Keyboard)})
		case session.Notice:
			err = tghelpers.Answer(c, &tele.CallbackResponse{Text: v.Text, ShowAlert: v.Alert})
		case session.Document:
			err = tghelpers.SendDocument(c, certificateFile(a.cfg.Certificates.TempDir, v))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.OutboundKind(), err))
		}
	}
	return errors.Join(errs...)
}

// markup converts a keyboard to Telegram markup; KeyboardNone yields nil.
func markup(kb session.Keyboard) *tele.ReplyMarkup {
	switch kb.Kind {
	case session.KeyboardInline:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]keyboard.InlineBtn, 0, len(row))
			for _, k := range row {
				btns = append(btns, keyboard.InlineBtn{Text: k.Label, Unique: k.Action, Data: k.Payload})
			}
			rows = append(rows, btns)
		}
		return keyboard.InlineButtonsRows(rows...)
	case session.KeyboardReply:
		rows := make([][]keyboard.ReplyBtn, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]keyboard.ReplyBtn, 0, len(row))
			for _, k := range row {
				btns = append(btns, keyboard.ReplyBtn{Text: k.Label, Contact: k.RequestContact})
			}
			rows = append(rows, btns)
		}
		return keyboard.ReplyButtons(keyboard.ReplyOptions{OneTime: kb.OneTime, Placeholder: kb.Placeholder}, rows...)
	case session.KeyboardForceReply:
		return keyboard.ForceReply(kb.Placeholder)
	case session.KeyboardRemove:
		return keyboard.RemoveKeyboard()
	}
	return nil
}

// certificateFile stages doc in dir under a random name. The file is removed
// once the send attempt is over, whatever its outcome.
func certificateFile(dir string, doc session.Document) func() (*tele.Document, func(), error) {
	return func() (*tele.Document, func(), error) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("certificate dir: %w", err)
		}
		path := filepath.Join(dir, uuid.NewString()+".pdf")
		release := func() { removeFile(path) }
		if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
			return nil, release, fmt.Errorf("write certificate: %w", err)
		}
		return &tele.Document{
			File:     tele.FromDisk(path),
			FileName: doc.Name,
			MIME:     doc.MIME,
		}, release, nil
	}
}

func removeFile(path string) {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return
	}
	logger.Warn(logger.Background(), "tg", "cert.cleanup",
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
}
