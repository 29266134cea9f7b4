package session

import (
	"time"

	"github.com/m3rciful/cowinbot/internal/cowin"
)

// State is one step of the login conversation. Each variant carries exactly
// the data that is valid in that step.
type State interface {
	Kind() string
	isState()
}

// Idle means there is no conversation. Idle sessions are never stored.
type Idle struct{}

// AwaitingPhone waits for a phone number; Manual is set once the user chose to type it.
type AwaitingPhone struct {
	Manual bool `json:"manual,omitempty"`
}

// AwaitingOTP waits for the code texted to Phone.
type AwaitingOTP struct {
	Phone         string `json:"phone"`
	TransactionID string `json:"txn_id"`
}

// Authenticated holds the bearer token and shows the beneficiary menu.
type Authenticated struct {
	Phone         string              `json:"phone"`
	Token         string              `json:"token"`
	Beneficiaries []cowin.Beneficiary `json:"beneficiaries"`
}

// BeneficiaryDetail shows one beneficiary picked from the menu.
type BeneficiaryDetail struct {
	Phone         string              `json:"phone"`
	Token         string              `json:"token"`
	Beneficiaries []cowin.Beneficiary `json:"beneficiaries"`
	SelectedID    string              `json:"selected_id"`
}

const (
	KindIdle              = "idle"
	KindAwaitingPhone     = "awaiting_phone"
	KindAwaitingOTP       = "awaiting_otp"
	KindAuthenticated     = "authenticated"
	KindBeneficiaryDetail = "beneficiary_detail"
)

func (Idle) Kind() string              { return KindIdle }
func (AwaitingPhone) Kind() string     { return KindAwaitingPhone }
func (AwaitingOTP) Kind() string       { return KindAwaitingOTP }
func (Authenticated) Kind() string     { return KindAuthenticated }
func (BeneficiaryDetail) Kind() string { return KindBeneficiaryDetail }

func (Idle) isState()              {}
func (AwaitingPhone) isState()     {}
func (AwaitingOTP) isState()       {}
func (Authenticated) isState()     {}
func (BeneficiaryDetail) isState() {}

// Session is the conversation of a single Telegram user.
type Session struct {
	UserID    int64
	State     State
	UpdatedAt time.Time
}

// Current returns the state, treating a nil State as Idle.
func (s Session) Current() State {
	if s.State == nil {
		return Idle{}
	}
	return s.State
}

// Active reports whether the session is in any state other than Idle.
func (s Session) Active() bool {
	return s.Current().Kind() != KindIdle
}

func findBeneficiary(list []cowin.Beneficiary, id string) (cowin.Beneficiary, bool) {
	for _, b := range list {
		if b.ID == id {
			return b, true
		}
	}
	return cowin.Beneficiary{}, false
}
