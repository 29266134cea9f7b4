package session

import (
	"context"

	"github.com/m3rciful/cowinbot/core/telegram/state"
	"github.com/m3rciful/cowinbot/internal/cowin"
)

// fakeAPI records calls and returns canned answers.
type fakeAPI struct {
	txnID   string
	token   string
	list    []cowin.Beneficiary
	cert    []byte
	otpErr  error
	confErr error
	listErr error
	certErr error
	calls   []string
	lastOTP string
	lastTxn string
	lastMob string
	lastSec string
	lastBen string
	lastTok string
}

func (f *fakeAPI) GenerateOTP(_ context.Context, mobile, secret string) (string, error) {
	f.calls = append(f.calls, "generate")
	f.lastMob, f.lastSec = mobile, secret
	return f.txnID, f.otpErr
}

func (f *fakeAPI) ConfirmOTP(_ context.Context, otp, txnID string) (string, error) {
	f.calls = append(f.calls, "confirm")
	f.lastOTP, f.lastTxn = otp, txnID
	return f.token, f.confErr
}

func (f *fakeAPI) ListBeneficiaries(_ context.Context, token string) ([]cowin.Beneficiary, error) {
	f.calls = append(f.calls, "list")
	f.lastTok = token
	return f.list, f.listErr
}

func (f *fakeAPI) DownloadCertificate(_ context.Context, token, id string) ([]byte, error) {
	f.calls = append(f.calls, "download")
	f.lastTok, f.lastBen = token, id
	return f.cert, f.certErr
}

func newTestMachine(api *fakeAPI) (*Machine, state.Store[Session]) {
	store := state.NewMemoryStore[Session](0)
	return NewMachine(api, store, "shared-secret"), store
}

var testBeneficiaries = []cowin.Beneficiary{
	{ID: "BEN0001", Name: "A", BirthYear: "1990", Gender: "Female", VaccinationStatus: "Vaccinated", Vaccine: "COVAXIN", Dose1Date: "01-05-2021", Dose2Date: "02-06-2021"},
	{ID: "12345678905678", Name: "B"},
}

func authenticated() Authenticated {
	return Authenticated{Phone: "9876543210", Token: "tok", Beneficiaries: testBeneficiaries}
}

func detail(id string) BeneficiaryDetail {
	return BeneficiaryDetail{Phone: "9876543210", Token: "tok", Beneficiaries: testBeneficiaries, SelectedID: id}
}
