package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/cowinbot/core/logger"
	"github.com/m3rciful/cowinbot/core/telegram/state"
	"github.com/m3rciful/cowinbot/internal/cowin"
)

// API is the subset of the CoWIN client the machine drives.
type API interface {
	GenerateOTP(ctx context.Context, mobile, secret string) (string, error)
	ConfirmOTP(ctx context.Context, otp, txnID string) (string, error)
	ListBeneficiaries(ctx context.Context, token string) ([]cowin.Beneficiary, error)
	DownloadCertificate(ctx context.Context, token, beneficiaryID string) ([]byte, error)
}

// Machine runs the login conversation of every user.
type Machine struct {
	api    API
	secret string
	store  state.Store[Session]
	now    func() time.Time
}

// NewMachine builds a Machine. secret is sent with every OTP request.
func NewMachine(api API, store state.Store[Session], secret string) *Machine {
	return &Machine{api: api, secret: secret, store: store, now: time.Now}
}

// Handle loads the user's session, applies ev and persists the result.
// Idle results are deleted rather than stored.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) ([]Outbound, error) {
	sess, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		sess = Session{UserID: userID, State: Idle{}}
	}

	from := sess.Current().Kind()
	next, out := m.Transition(ctx, sess, ev)
	next.UserID = userID

	if next.Active() {
		next.UpdatedAt = m.now()
		err = m.store.Put(ctx, userID, next)
	} else if ok {
		err = m.store.Delete(ctx, userID)
	}

	logger.LogEvent(ctx, logger.Session, slog.LevelInfo, "session.transition",
		slog.String("status", logger.Status(err)),
		slog.String("state_from", from),
		slog.String("state_to", next.Current().Kind()),
		slog.String("event_kind", ev.EventKind()),
		slog.Int("outbound", len(out)),
	)
	if err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}
	return out, nil
}

// Active reports whether the user is somewhere inside the conversation.
func (m *Machine) Active(ctx context.Context, userID int64) bool {
	sess, ok := m.lookup(ctx, userID)
	return ok && sess.Active()
}

// LoggedIn reports whether the user holds a token, i.e. the beneficiary
// menu or a detail view is on screen.
func (m *Machine) LoggedIn(ctx context.Context, userID int64) bool {
	sess, ok := m.lookup(ctx, userID)
	if !ok {
		return false
	}
	switch sess.Current().(type) {
	case Authenticated, BeneficiaryDetail:
		return true
	}
	return false
}

func (m *Machine) lookup(ctx context.Context, userID int64) (Session, bool) {
	sess, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		logger.LogEvent(ctx, logger.Session, slog.LevelWarn, "session.lookup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return Session{}, false
	}
	return sess, ok
}

// Count returns the number of stored sessions.
func (m *Machine) Count(ctx context.Context) (int, error) {
	return m.store.Len(ctx)
}

// Transition computes the next session and the actions to perform.
// It calls the API but never touches the store.
func (m *Machine) Transition(ctx context.Context, s Session, ev Event) (Session, []Outbound) {
	switch e := ev.(type) {
	case Command:
		return m.onCommand(s, e)
	case Button:
		return m.onButton(ctx, s, e)
	case TextInput:
		return m.onText(ctx, s, e)
	case ContactShared:
		return m.onContact(ctx, s, e)
	}
	return s, nil
}

func (m *Machine) onCommand(s Session, e Command) (Session, []Outbound) {
	switch e.Name {
	case CommandStart:
		return s, []Outbound{Reply{Text: welcomeText(e.FirstName)}}
	case CommandLogin:
		return with(s, AwaitingPhone{}), []Outbound{Reply{Text: textLogin, Keyboard: loginKeyboard()}}
	case CommandCancel:
		return cancel(s)
	case CommandLogout:
		if !s.Active() {
			return s, []Outbound{Reply{Text: textNoSession}}
		}
		return with(s, Idle{}), []Outbound{Reply{Text: textLoggedOut, Keyboard: Keyboard{Kind: KeyboardRemove}}}
	}
	return s, nil
}

func (m *Machine) onText(ctx context.Context, s Session, e TextInput) (Session, []Outbound) {
	if isCancelText(e.Text) {
		return cancel(s)
	}
	switch st := s.Current().(type) {
	case AwaitingPhone:
		if strings.EqualFold(strings.TrimSpace(e.Text), LabelEnterManual) {
			return with(s, AwaitingPhone{Manual: true}), []Outbound{
				Reply{Text: textEnterPhone, Keyboard: forceReply(placeholderPhone)},
			}
		}
		phone, ok := NormalizePhone(e.Text)
		if !ok {
			return s, []Outbound{Reply{Text: textInvalidPhone, Quote: true}}
		}
		return m.requestOTP(ctx, s, phone)
	case AwaitingOTP:
		otp, ok := ValidOTP(e.Text)
		if !ok {
			return s, []Outbound{Reply{Text: textInvalidOTP, Quote: true}}
		}
		return m.confirmOTP(ctx, s, st, otp)
	case Idle:
		return s, []Outbound{Reply{Text: textHintLogin}}
	default:
		return s, []Outbound{Reply{Text: textHintMenu}}
	}
}

func (m *Machine) onContact(ctx context.Context, s Session, e ContactShared) (Session, []Outbound) {
	if _, ok := s.Current().(AwaitingPhone); !ok {
		return s, []Outbound{Reply{Text: textHintLogin}}
	}
	if e.UserID != s.UserID {
		return s, []Outbound{Reply{Text: textForeignContact, Quote: true}}
	}
	phone, ok := PhoneFromContact(e.Phone)
	if !ok {
		return s, []Outbound{Reply{Text: textInvalidPhone, Quote: true}}
	}
	return m.requestOTP(ctx, s, phone)
}

func (m *Machine) requestOTP(ctx context.Context, s Session, phone string) (Session, []Outbound) {
	txn, err := m.api.GenerateOTP(ctx, phone, m.secret)
	if err != nil {
		return fail(s, Reply{Text: errorText(err), Quote: true})
	}
	if txn == "" {
		return fail(s, Reply{Text: textNoTransaction, Quote: true})
	}
	return with(s, AwaitingOTP{Phone: phone, TransactionID: txn}), []Outbound{
		Reply{Text: fmt.Sprintf(textOTPSent, phone), Keyboard: forceReply(placeholderOTP)},
	}
}

func (m *Machine) confirmOTP(ctx context.Context, s Session, st AwaitingOTP, otp string) (Session, []Outbound) {
	token, err := m.api.ConfirmOTP(ctx, otp, st.TransactionID)
	if err != nil {
		return fail(s, Reply{Text: errorText(err), Quote: true})
	}
	out := []Outbound{Reply{Text: textOTPVerified}}
	if token == "" {
		return fail(s, append(out, Reply{Text: textNoToken})...)
	}

	list, err := m.api.ListBeneficiaries(ctx, token)
	if err != nil {
		return fail(s, append(out, Reply{Text: errorText(err)})...)
	}
	if len(list) == 0 {
		return fail(s, append(out, Reply{Text: textNoBeneficiaries})...)
	}
	text, kb := menuView(list)
	next := with(s, Authenticated{Phone: st.Phone, Token: token, Beneficiaries: list})
	return next, append(out, Reply{Text: text, Keyboard: kb})
}

func (m *Machine) onButton(ctx context.Context, s Session, e Button) (Session, []Outbound) {
	expired := []Outbound{Notice{Text: textExpired, Alert: true}}

	if e.Action == ActionLogout {
		if !s.Active() {
			return s, expired
		}
		return with(s, Idle{}), []Outbound{Edit{Text: textLoggedOut}}
	}

	var phone, token string
	var list []cowin.Beneficiary
	switch st := s.Current().(type) {
	case Authenticated:
		phone, token, list = st.Phone, st.Token, st.Beneficiaries
	case BeneficiaryDetail:
		phone, token, list = st.Phone, st.Token, st.Beneficiaries
	default:
		return s, expired
	}

	switch e.Action {
	case ActionBack:
		text, kb := menuView(list)
		return with(s, Authenticated{Phone: phone, Token: token, Beneficiaries: list}), []Outbound{Edit{Text: text, Keyboard: kb}}
	case ActionBeneficiary, ActionCertificate:
		b, ok := findBeneficiary(list, e.BeneficiaryID)
		if !ok {
			logger.LogEvent(ctx, logger.Session, slog.LevelWarn, "beneficiary.missing",
				slog.String("status", "fail"),
				slog.String("beneficiary", e.BeneficiaryID),
				slog.Int("beneficiaries", len(list)),
			)
			return s, []Outbound{Notice{Text: textUnknownBen}}
		}
		detail := with(s, BeneficiaryDetail{Phone: phone, Token: token, Beneficiaries: list, SelectedID: b.ID})
		text, kb := detailView(b)
		if e.Action == ActionBeneficiary {
			return detail, []Outbound{Edit{Text: text, Keyboard: kb}}
		}
		data, err := m.api.DownloadCertificate(ctx, token, b.ID)
		if err != nil {
			return fail(s, Edit{Text: downloadErrorText(err)})
		}
		if len(data) == 0 {
			return fail(s, Edit{Text: textCertFailed})
		}
		return detail, []Outbound{
			Document{Name: certificateName(b), MIME: "application/pdf", Data: data},
			Edit{Text: text, Keyboard: kb},
		}
	}
	return s, nil
}

func with(s Session, st State) Session {
	s.State = st
	return s
}

func cancel(s Session) (Session, []Outbound) {
	return with(s, Idle{}), []Outbound{Reply{Text: textCancelled, Keyboard: Keyboard{Kind: KeyboardRemove}}}
}

// fail ends the conversation after an unrecoverable error.
func fail(s Session, out ...Outbound) (Session, []Outbound) {
	return with(s, Idle{}), out
}

// errorText surfaces API messages verbatim and hides transport details.
func errorText(err error) string {
	var apiErr *cowin.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return textUnreachable
}

// downloadErrorText prefers the API's own message over the status text.
func downloadErrorText(err error) string {
	var apiErr *cowin.APIError
	if !errors.As(err, &apiErr) {
		return textUnreachable
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return textCertFailed
}
