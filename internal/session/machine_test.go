package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"
	"testing"

	"github.com/m3rciful/cowinbot/internal/cowin"
)

func texts(out []Outbound) []string {
	var res []string
	for _, o := range out {
		switch v := o.(type) {
		case Reply:
			res = append(res, v.Text)
		case Edit:
			res = append(res, v.Text)
		case Notice:
			res = append(res, v.Text)
		case Document:
			res = append(res, "document:"+v.Name)
		}
	}
	return res
}

func mustHandle(t *testing.T, m *Machine, userID int64, ev Event) []Outbound {
	t.Helper()
	out, err := m.Handle(context.Background(), userID, ev)
	if err != nil {
		t.Fatalf("Handle(%#v): %v", ev, err)
	}
	return out
}

func stored(t *testing.T, m *Machine, userID int64) (Session, bool) {
	t.Helper()
	s, ok, err := m.store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	return s, ok
}

func TestLoginPresentsInputMethods(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	out := mustHandle(t, m, 1, Command{Name: CommandLogin})

	s, ok := stored(t, m, 1)
	if !ok || s.Current() != (AwaitingPhone{}) {
		t.Fatalf("state = %#v", s.State)
	}
	r, isReply := out[0].(Reply)
	if len(out) != 1 || !isReply || r.Keyboard.Kind != KeyboardReply {
		t.Fatalf("out = %#v", out)
	}
	if !r.Keyboard.Rows[0][0].RequestContact || r.Keyboard.Rows[0][1].Label != LabelEnterManual {
		t.Fatalf("keyboard = %#v", r.Keyboard)
	}
}

func TestManualEntryPrompt(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	mustHandle(t, m, 1, Command{Name: CommandLogin})
	out := mustHandle(t, m, 1, TextInput{Text: "enter the number manually"})

	s, _ := stored(t, m, 1)
	if s.Current() != (AwaitingPhone{Manual: true}) {
		t.Fatalf("state = %#v", s.State)
	}
	if r := out[0].(Reply); r.Keyboard.Kind != KeyboardForceReply || r.Keyboard.Placeholder == "" {
		t.Fatalf("out = %#v", out)
	}
}

func TestPhoneValidationGatesOTPRequest(t *testing.T) {
	inputs := map[string]bool{
		"9876543210":    true,
		" 9876543210 ":  true,
		"987654321":     false,
		"98765432101":   false,
		"98765x3210":    false,
		"+919876543210": false,
		"":              false,
	}
	for input, valid := range inputs {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			api := &fakeAPI{txnID: "T1"}
			m, _ := newTestMachine(api)
			s := Session{UserID: 1, State: AwaitingPhone{Manual: true}}

			next, out := m.Transition(context.Background(), s, TextInput{Text: input})
			_, awaitingOTP := next.Current().(AwaitingOTP)
			if awaitingOTP != valid {
				t.Fatalf("state = %#v, want AwaitingOTP=%v", next.State, valid)
			}
			if !valid {
				if len(api.calls) != 0 {
					t.Fatalf("API called for invalid phone")
				}
				if r := out[0].(Reply); r.Text != textInvalidPhone || !r.Quote {
					t.Fatalf("out = %#v", out)
				}
				if !reflect.DeepEqual(next, s) {
					t.Fatalf("session changed on invalid input")
				}
			}
		})
	}
}

func TestPhoneScenario(t *testing.T) {
	api := &fakeAPI{txnID: "T1"}
	m, _ := newTestMachine(api)
	mustHandle(t, m, 1, Command{Name: CommandLogin})
	mustHandle(t, m, 1, TextInput{Text: LabelEnterManual})
	out := mustHandle(t, m, 1, TextInput{Text: "9876543210"})

	s, _ := stored(t, m, 1)
	want := AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}
	if s.Current() != want {
		t.Fatalf("state = %#v, want %#v", s.State, want)
	}
	if api.lastMob != "9876543210" || api.lastSec != "shared-secret" {
		t.Fatalf("GenerateOTP got %q/%q", api.lastMob, api.lastSec)
	}
	if got := texts(out); len(got) != 1 || !strings.Contains(got[0], "+919876543210") {
		t.Fatalf("out = %v", got)
	}
}

func TestContactSharedStripsPrefix(t *testing.T) {
	cases := []struct {
		phone string
		want  string
		ok    bool
	}{
		{"+91 98765 43210", "9876543210", true},
		{"919876543210", "9876543210", true},
		{"9876543210", "9876543210", true},
		{"+91 1234", "", false},
	}
	for _, tc := range cases {
		api := &fakeAPI{txnID: "T1"}
		m, _ := newTestMachine(api)
		s := Session{UserID: 5, State: AwaitingPhone{}}
		next, _ := m.Transition(context.Background(), s, ContactShared{Phone: tc.phone, UserID: 5})
		st, ok := next.Current().(AwaitingOTP)
		if ok != tc.ok || (ok && st.Phone != tc.want) {
			t.Fatalf("contact %q -> %#v", tc.phone, next.State)
		}
	}
}

func TestContactOfAnotherUserRejected(t *testing.T) {
	api := &fakeAPI{txnID: "T1"}
	m, _ := newTestMachine(api)
	s := Session{UserID: 5, State: AwaitingPhone{}}
	next, out := m.Transition(context.Background(), s, ContactShared{Phone: "+919876543210", UserID: 6})
	if next.Current() != (AwaitingPhone{}) || len(api.calls) != 0 {
		t.Fatalf("state = %#v calls = %v", next.State, api.calls)
	}
	if got := texts(out); got[0] != textForeignContact {
		t.Fatalf("out = %v", got)
	}
}

func TestContactOutsideLoginIgnored(t *testing.T) {
	api := &fakeAPI{txnID: "T1"}
	m, _ := newTestMachine(api)
	next, out := m.Transition(context.Background(), Session{UserID: 5}, ContactShared{Phone: "9876543210", UserID: 5})
	if next.Active() || len(api.calls) != 0 || texts(out)[0] != textHintLogin {
		t.Fatalf("state = %#v out = %v", next.State, texts(out))
	}
}

func TestOTPValidationGatesConfirm(t *testing.T) {
	inputs := map[string]bool{
		"1234":   true,
		"000000": true,
		"12a4":   false,
		"":       false,
		"12 34":  false,
		"-1234":  false,
	}
	for input, valid := range inputs {
		api := &fakeAPI{token: "tok", list: testBeneficiaries}
		m, _ := newTestMachine(api)
		s := Session{UserID: 1, State: AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}}
		next, out := m.Transition(context.Background(), s, TextInput{Text: input})

		attempted := len(api.calls) > 0 && api.calls[0] == "confirm"
		if attempted != valid {
			t.Fatalf("otp %q: confirm attempted = %v", input, attempted)
		}
		if !valid {
			if !reflect.DeepEqual(next, s) {
				t.Fatalf("otp %q changed state to %#v", input, next.State)
			}
			if r := out[0].(Reply); r.Text != textInvalidOTP {
				t.Fatalf("otp %q: out = %#v", input, out)
			}
		}
	}
}

func TestOTPScenario(t *testing.T) {
	api := &fakeAPI{token: "tok", list: []cowin.Beneficiary{{ID: "BEN0001", Name: "A"}}}
	m, store := newTestMachine(api)
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}})

	out := mustHandle(t, m, 1, TextInput{Text: "1234"})

	if api.lastOTP != "1234" || api.lastTxn != "T1" || api.lastTok != "tok" {
		t.Fatalf("api got otp=%q txn=%q token=%q", api.lastOTP, api.lastTxn, api.lastTok)
	}
	s, _ := stored(t, m, 1)
	st, ok := s.Current().(Authenticated)
	if !ok || st.Token != "tok" || st.Phone != "9876543210" || len(st.Beneficiaries) != 1 {
		t.Fatalf("state = %#v", s.State)
	}
	if len(out) != 2 {
		t.Fatalf("out = %v", texts(out))
	}
	menu := out[1].(Reply)
	if menu.Keyboard.Kind != KeyboardInline || len(menu.Keyboard.Rows) != 2 {
		t.Fatalf("menu = %#v", menu)
	}
	entry := menu.Keyboard.Rows[0][0]
	if entry.Label != "A - 0001" || entry.Action != ActionBeneficiary || entry.Payload != "BEN0001" {
		t.Fatalf("entry = %#v", entry)
	}
	if last := menu.Keyboard.Rows[1][0]; last.Action != ActionLogout {
		t.Fatalf("last row = %#v", last)
	}
}

func TestEmptyBeneficiaryListResets(t *testing.T) {
	api := &fakeAPI{token: "tok"}
	m, store := newTestMachine(api)
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}})

	out := mustHandle(t, m, 1, TextInput{Text: "1234"})
	if _, ok := stored(t, m, 1); ok {
		t.Fatalf("session must be removed")
	}
	if got := texts(out); got[len(got)-1] != textNoBeneficiaries {
		t.Fatalf("out = %v", got)
	}
}

func TestMissingTokenResets(t *testing.T) {
	api := &fakeAPI{}
	m, _ := newTestMachine(api)
	s := Session{UserID: 1, State: AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}}
	next, out := m.Transition(context.Background(), s, TextInput{Text: "1234"})
	if next.Active() || texts(out)[1] != textNoToken {
		t.Fatalf("state = %#v out = %v", next.State, texts(out))
	}
	for _, c := range api.calls {
		if c == "list" {
			t.Fatalf("beneficiaries listed without a token")
		}
	}
}

func TestMissingTransactionResets(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	next, out := m.Transition(context.Background(), Session{UserID: 1, State: AwaitingPhone{}}, TextInput{Text: "9876543210"})
	if next.Active() || texts(out)[0] != textNoTransaction {
		t.Fatalf("state = %#v out = %v", next.State, texts(out))
	}
}

func TestAPIErrorSurfacedVerbatim(t *testing.T) {
	apiErr := &cowin.APIError{Status: 400, Message: "X"}
	steps := []struct {
		name  string
		api   *fakeAPI
		state State
		ev    Event
	}{
		{"generate", &fakeAPI{otpErr: apiErr}, AwaitingPhone{}, TextInput{Text: "9876543210"}},
		{"confirm", &fakeAPI{confErr: apiErr}, AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}, TextInput{Text: "1234"}},
		{"list", &fakeAPI{token: "tok", listErr: apiErr}, AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}, TextInput{Text: "1234"}},
		{"download", &fakeAPI{certErr: apiErr}, detail("BEN0001"), Button{Action: ActionCertificate, BeneficiaryID: "BEN0001"}},
	}
	for _, tc := range steps {
		t.Run(tc.name, func(t *testing.T) {
			m, store := newTestMachine(tc.api)
			_ = store.Put(context.Background(), 1, Session{UserID: 1, State: tc.state})

			out := mustHandle(t, m, 1, tc.ev)
			if _, ok := stored(t, m, 1); ok {
				t.Fatalf("session must reset to idle")
			}
			got := texts(out)
			if got[len(got)-1] != "X" {
				t.Fatalf("out = %v, want last message X", got)
			}
		})
	}
}

func TestNetworkErrorHidesDetails(t *testing.T) {
	netErr := fmt.Errorf("cowin generate_otp: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")})
	m, _ := newTestMachine(&fakeAPI{otpErr: netErr})
	next, out := m.Transition(context.Background(), Session{UserID: 1, State: AwaitingPhone{}}, TextInput{Text: "9876543210"})
	if next.Active() || texts(out)[0] != textUnreachable {
		t.Fatalf("state = %#v out = %v", next.State, texts(out))
	}
}

func TestSelectBeneficiaryShowsDetail(t *testing.T) {
	m, store := newTestMachine(&fakeAPI{})
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: authenticated()})

	out := mustHandle(t, m, 1, Button{Action: ActionBeneficiary, BeneficiaryID: "BEN0001"})
	s, _ := stored(t, m, 1)
	if !reflect.DeepEqual(s.Current(), detail("BEN0001")) {
		t.Fatalf("state = %#v", s.State)
	}
	e, ok := out[0].(Edit)
	if !ok || !strings.HasPrefix(e.Text, "Name: A\nYOB: 1990\nGender: Female") || !strings.Contains(e.Text, "Dose 2 Date: 02-06-2021") {
		t.Fatalf("out = %#v", out)
	}
	if e.Keyboard.Rows[0][0].Action != ActionCertificate || e.Keyboard.Rows[0][0].Payload != "BEN0001" || e.Keyboard.Rows[1][0].Action != ActionBack {
		t.Fatalf("keyboard = %#v", e.Keyboard)
	}
}

func TestUnknownBeneficiaryKeepsState(t *testing.T) {
	api := &fakeAPI{cert: []byte("pdf")}
	m, _ := newTestMachine(api)
	for _, action := range []string{ActionBeneficiary, ActionCertificate} {
		s := Session{UserID: 1, State: authenticated()}
		next, out := m.Transition(context.Background(), s, Button{Action: action, BeneficiaryID: "NOPE"})
		if !reflect.DeepEqual(next, s) {
			t.Fatalf("%s: state changed to %#v", action, next.State)
		}
		if _, ok := out[0].(Notice); !ok {
			t.Fatalf("%s: out = %#v", action, out)
		}
	}
	if len(api.calls) != 0 {
		t.Fatalf("API called for an unknown beneficiary: %v", api.calls)
	}
}

func TestDownloadCertificateKeepsDetail(t *testing.T) {
	api := &fakeAPI{cert: []byte("%PDF")}
	m, store := newTestMachine(api)
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: detail("BEN0001")})

	out := mustHandle(t, m, 1, Button{Action: ActionCertificate, BeneficiaryID: "BEN0001"})

	if api.lastTok != "tok" || api.lastBen != "BEN0001" {
		t.Fatalf("download got token=%q id=%q", api.lastTok, api.lastBen)
	}
	s, _ := stored(t, m, 1)
	if !reflect.DeepEqual(s.Current(), detail("BEN0001")) {
		t.Fatalf("state = %#v", s.State)
	}
	if len(out) != 2 {
		t.Fatalf("out = %v", texts(out))
	}
	doc, ok := out[0].(Document)
	if !ok || string(doc.Data) != "%PDF" || doc.MIME != "application/pdf" {
		t.Fatalf("document = %#v", out[0])
	}
	view, _ := detailView(testBeneficiaries[0])
	if e := out[1].(Edit); e.Text != view {
		t.Fatalf("detail view not restored: %q", e.Text)
	}
}

func TestEmptyCertificateResets(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	next, out := m.Transition(context.Background(), Session{UserID: 1, State: detail("BEN0001")},
		Button{Action: ActionCertificate, BeneficiaryID: "BEN0001"})
	if next.Active() || texts(out)[0] != textCertFailed {
		t.Fatalf("state = %#v out = %v", next.State, texts(out))
	}
}

func TestDownloadErrorWithoutMessage(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{certErr: &cowin.APIError{Status: 404}})
	_, out := m.Transition(context.Background(), Session{UserID: 1, State: detail("BEN0001")},
		Button{Action: ActionCertificate, BeneficiaryID: "BEN0001"})
	if texts(out)[0] != textCertFailed {
		t.Fatalf("out = %v", texts(out))
	}
}

func TestBackReRendersMenuWithoutFetch(t *testing.T) {
	api := &fakeAPI{}
	m, store := newTestMachine(api)
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: detail("BEN0001")})

	out := mustHandle(t, m, 1, Button{Action: ActionBack})
	s, _ := stored(t, m, 1)
	if !reflect.DeepEqual(s.Current(), authenticated()) {
		t.Fatalf("state = %#v", s.State)
	}
	if len(api.calls) != 0 {
		t.Fatalf("back must not call the API: %v", api.calls)
	}
	text, kb := menuView(testBeneficiaries)
	if e := out[0].(Edit); e.Text != text || !reflect.DeepEqual(e.Keyboard, kb) {
		t.Fatalf("out = %#v", out)
	}
}

func nonIdleStates() []State {
	return []State{
		AwaitingPhone{},
		AwaitingPhone{Manual: true},
		AwaitingOTP{Phone: "9876543210", TransactionID: "T1"},
		authenticated(),
		detail("BEN0001"),
	}
}

func TestLogoutAndCancelFromEveryState(t *testing.T) {
	events := []struct {
		ev   Event
		text string
	}{
		{Command{Name: CommandLogout}, textLoggedOut},
		{Button{Action: ActionLogout}, textLoggedOut},
		{Command{Name: CommandCancel}, textCancelled},
		{TextInput{Text: "CANCEL"}, textCancelled},
	}
	for _, st := range nonIdleStates() {
		for _, e := range events {
			m, store := newTestMachine(&fakeAPI{})
			_ = store.Put(context.Background(), 1, Session{UserID: 1, State: st})

			out := mustHandle(t, m, 1, e.ev)
			if _, ok := stored(t, m, 1); ok {
				t.Fatalf("%s + %#v: session survived", st.Kind(), e.ev)
			}
			if n, _ := store.Len(context.Background()); n != 0 {
				t.Fatalf("%s + %#v: residual sessions: %d", st.Kind(), e.ev, n)
			}
			if got := texts(out); got[0] != e.text {
				t.Fatalf("%s + %#v: out = %v", st.Kind(), e.ev, got)
			}
		}
	}
}

func TestButtonsWhileIdleExpire(t *testing.T) {
	buttons := []Button{
		{Action: ActionBeneficiary, BeneficiaryID: "BEN0001"},
		{Action: ActionCertificate, BeneficiaryID: "BEN0001"},
		{Action: ActionBack},
		{Action: ActionLogout},
	}
	for _, b := range buttons {
		api := &fakeAPI{}
		m, _ := newTestMachine(api)
		out := mustHandle(t, m, 1, b)
		if _, ok := stored(t, m, 1); ok {
			t.Fatalf("%s created a session", b.Action)
		}
		n, ok := out[0].(Notice)
		if len(out) != 1 || !ok || n.Text != textExpired || !n.Alert {
			t.Fatalf("%s: out = %#v", b.Action, out)
		}
		if len(api.calls) != 0 {
			t.Fatalf("%s: API called while idle", b.Action)
		}
	}
}

func TestLogoutWhileIdle(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	out := mustHandle(t, m, 1, Command{Name: CommandLogout})
	if got := texts(out); got[0] != textNoSession {
		t.Fatalf("out = %v", got)
	}
}

func TestLoginRestartsFlow(t *testing.T) {
	m, store := newTestMachine(&fakeAPI{})
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: authenticated()})
	mustHandle(t, m, 1, Command{Name: CommandLogin})
	s, _ := stored(t, m, 1)
	if s.Current() != (AwaitingPhone{}) {
		t.Fatalf("state = %#v", s.State)
	}
}

func TestStartKeepsState(t *testing.T) {
	m, store := newTestMachine(&fakeAPI{})
	_ = store.Put(context.Background(), 1, Session{UserID: 1, State: AwaitingPhone{Manual: true}})
	out := mustHandle(t, m, 1, Command{Name: CommandStart, FirstName: "Asha"})
	if got := texts(out); !strings.HasPrefix(got[0], "Hey Asha,") {
		t.Fatalf("out = %v", got)
	}
	if s, _ := stored(t, m, 1); s.Current() != (AwaitingPhone{Manual: true}) {
		t.Fatalf("state = %#v", s.State)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{txnID: "T1"})
	mustHandle(t, m, 1, Command{Name: CommandLogin})
	mustHandle(t, m, 2, Command{Name: CommandLogin})
	mustHandle(t, m, 1, TextInput{Text: "9876543210"})
	mustHandle(t, m, 2, Command{Name: CommandCancel})

	if s, _ := stored(t, m, 1); s.Current().Kind() != KindAwaitingOTP {
		t.Fatalf("user 1 state = %#v", s.State)
	}
	if _, ok := stored(t, m, 2); ok {
		t.Fatalf("user 2 should be idle")
	}
	if !m.Active(context.Background(), 1) || m.Active(context.Background(), 2) {
		t.Fatalf("Active mismatch")
	}
	if n, _ := m.Count(context.Background()); n != 1 {
		t.Fatalf("Count = %d", n)
	}
}

func TestTextHints(t *testing.T) {
	m, _ := newTestMachine(&fakeAPI{})
	_, out := m.Transition(context.Background(), Session{UserID: 1}, TextInput{Text: "hello"})
	if texts(out)[0] != textHintLogin {
		t.Fatalf("idle hint = %v", texts(out))
	}
	s := Session{UserID: 1, State: authenticated()}
	next, out := m.Transition(context.Background(), s, TextInput{Text: "hello"})
	if texts(out)[0] != textHintMenu || !reflect.DeepEqual(next, s) {
		t.Fatalf("menu hint = %v", texts(out))
	}
}

func TestLoggedInOnlyWithToken(t *testing.T) {
	cases := []struct {
		state State
		want  bool
	}{
		{AwaitingPhone{}, false},
		{AwaitingOTP{Phone: "9876543210", TransactionID: "T1"}, false},
		{authenticated(), true},
		{detail("BEN0001"), true},
	}
	for _, tc := range cases {
		m, store := newTestMachine(&fakeAPI{})
		_ = store.Put(context.Background(), 1, Session{UserID: 1, State: tc.state})
		if got := m.LoggedIn(context.Background(), 1); got != tc.want {
			t.Fatalf("%s: LoggedIn = %v, want %v", tc.state.Kind(), got, tc.want)
		}
		if !m.Active(context.Background(), 1) {
			t.Fatalf("%s: Active = false", tc.state.Kind())
		}
	}
	m, _ := newTestMachine(&fakeAPI{})
	if m.LoggedIn(context.Background(), 1) {
		t.Fatalf("idle user reported as logged in")
	}
}
