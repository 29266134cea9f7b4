package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tg "github.com/m3rciful/cowinbot/core/telegram"
	"github.com/m3rciful/cowinbot/core/telegram/state"
	"github.com/m3rciful/cowinbot/internal/config"
	"github.com/m3rciful/cowinbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store := state.NewMemoryStore[session.Session](0)
	cfg := &config.Config{}
	cfg.Telegram.AdminID = 7
	cfg.Certificates.TempDir = t.TempDir()
	app, err := New(cfg, session.NewMachine(nil, store, "secret"), store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app
}

func TestNewRegistersCommandsAndCallbacks(t *testing.T) {
	app := newTestApp(t)

	visible := app.registry.ListCommands(true)
	if len(visible) != 4 {
		t.Fatalf("visible commands = %v", visible)
	}
	for _, c := range visible {
		if c.Text == "sessions" {
			t.Fatalf("admin command leaked into the menu")
		}
	}
	if _, cmd, ok := app.registry.LookupCommand("Cancel"); !ok || cmd.Handler == nil {
		t.Fatalf("cancel label must resolve to /cancel")
	}
	want := []string{"back", "ben", "cert", "logout"}
	got := app.registry.ListCallbacks()
	if len(got) != len(want) {
		t.Fatalf("callbacks = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("callbacks = %v, want %v", got, want)
		}
	}
}

func TestNewRequiresMachine(t *testing.T) {
	if _, err := New(&config.Config{}, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTelegramRunOptions(t *testing.T) {
	app := newTestApp(t)
	app.cfg.Sender.Workers = 8
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	if opts.DispatcherOptions.Workers != 1 {
		t.Fatalf("workers = %d, want 1", opts.DispatcherOptions.Workers)
	}
	if opts.Config != app.cfg.CoreConfig() {
		t.Fatalf("core config not passed through")
	}
	last := opts.Middlewares[len(opts.Middlewares)-1]
	if last.Name != "serialize" || last.Use == nil {
		t.Fatalf("last middleware = %q", last.Name)
	}

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, ep := range []any{"/start", "/login", "/cancel", "/logout", "/sessions", tele.OnCallback, tele.OnText, tele.OnContact} {
		if !endpoints[ep] {
			t.Fatalf("missing route %v", ep)
		}
	}
	if err := opts.OnStop(context.Background(), tg.Runtime{}); err != nil {
		t.Fatalf("OnStop: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMarkup(t *testing.T) {
	if markup(session.Keyboard{}) != nil {
		t.Fatalf("no keyboard must give nil markup")
	}

	inline := markup(session.Keyboard{Kind: session.KeyboardInline, Rows: [][]session.Key{
		{{Label: "A - 0001", Action: session.ActionBeneficiary, Payload: "BEN0001"}},
		{{Label: "Logout", Action: session.ActionLogout}},
	}})
	if len(inline.InlineKeyboard) != 2 {
		t.Fatalf("inline rows = %d", len(inline.InlineKeyboard))
	}
	if b := inline.InlineKeyboard[0][0]; b.Unique != "ben" || b.Data != "BEN0001" || b.Text != "A - 0001" {
		t.Fatalf("inline button = %#v", b)
	}

	reply := markup(session.Keyboard{Kind: session.KeyboardReply, OneTime: true, Placeholder: "p", Rows: [][]session.Key{
		{{Label: "share", RequestContact: true}, {Label: "manual"}},
	}})
	if !reply.OneTimeKeyboard || reply.Placeholder != "p" || len(reply.ReplyKeyboard) != 1 {
		t.Fatalf("reply markup = %#v", reply)
	}
	if !reply.ReplyKeyboard[0][0].Contact || reply.ReplyKeyboard[0][1].Contact {
		t.Fatalf("contact flags = %#v", reply.ReplyKeyboard[0])
	}

	if m := markup(session.Keyboard{Kind: session.KeyboardForceReply, Placeholder: "otp"}); !m.ForceReply || m.Placeholder != "otp" {
		t.Fatalf("force reply = %#v", m)
	}
	if m := markup(session.Keyboard{Kind: session.KeyboardRemove}); !m.RemoveKeyboard {
		t.Fatalf("remove = %#v", m)
	}
}

func TestMessageEvent(t *testing.T) {
	contact := messageEvent(&tele.Message{Contact: &tele.Contact{PhoneNumber: "+919876543210", UserID: 5}})
	if contact != (session.ContactShared{Phone: "+919876543210", UserID: 5}) {
		t.Fatalf("contact event = %#v", contact)
	}
	if ev := messageEvent(&tele.Message{Text: "1234"}); ev != (session.TextInput{Text: "1234"}) {
		t.Fatalf("text event = %#v", ev)
	}
	if ev := messageEvent(nil); ev != (session.TextInput{}) {
		t.Fatalf("nil message event = %#v", ev)
	}
}

func TestCertificateFileIsRemoved(t *testing.T) {
	dir := t.TempDir()
	prepare := certificateFile(dir, session.Document{Name: "certificate-0001.pdf", MIME: "application/pdf", Data: []byte("%PDF-1.4")})

	doc, release, err := prepare()
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if doc.FileName != "certificate-0001.pdf" || doc.MIME != "application/pdf" {
		t.Fatalf("document = %#v", doc)
	}
	data, err := os.ReadFile(doc.File.FileLocal)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("staged file = %q, %v", data, err)
	}
	if filepath.Dir(doc.File.FileLocal) != dir || filepath.Ext(doc.File.FileLocal) != ".pdf" {
		t.Fatalf("staged path = %s", doc.File.FileLocal)
	}

	release()
	if _, err := os.Stat(doc.File.FileLocal); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file survived release: %v", err)
	}
	release()
}

func TestCertificateFileNamesAreUnique(t *testing.T) {
	dir := t.TempDir()
	prepare := certificateFile(dir, session.Document{Name: "c.pdf", Data: []byte("x")})
	a, releaseA, _ := prepare()
	b, releaseB, _ := prepare()
	defer releaseA()
	defer releaseB()
	if a.File.FileLocal == b.File.FileLocal {
		t.Fatalf("two attempts share %s", a.File.FileLocal)
	}
}

func TestCertificateFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pdfs", "nested")
	doc, release, err := certificateFile(dir, session.Document{Name: "c.pdf", Data: []byte("x")})()
	if err != nil {
		t.Fatalf("prepare into missing dir: %v", err)
	}
	defer release()
	if filepath.Dir(doc.File.FileLocal) != dir {
		t.Fatalf("staged path = %s", doc.File.FileLocal)
	}
}

func TestCertificateFileWriteError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	_, release, err := certificateFile(blocker, session.Document{Data: []byte("x")})()
	if err == nil {
		t.Fatalf("expected error when the dir is a regular file")
	}
	if release != nil {
		release()
	}
}

func TestShowDownloadingOnlyWhenLoggedIn(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_ = app.store.Put(ctx, 1, session.Session{UserID: 1, State: session.AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}})
	_ = app.store.Put(ctx, 2, session.Session{UserID: 2, State: session.Authenticated{Token: "tok"}})

	if app.machine.LoggedIn(ctx, 1) {
		t.Fatalf("a user waiting for the OTP must not see the download notice")
	}
	if !app.machine.LoggedIn(ctx, 2) {
		t.Fatalf("an authenticated user must see the download notice")
	}
}
