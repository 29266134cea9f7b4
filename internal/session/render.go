package session

import (
	"fmt"
	"strings"

	"github.com/m3rciful/cowinbot/internal/cowin"
)

// Labels of the login reply keyboard.
const (
	LabelShareContact = "Login with your number"
	LabelEnterManual  = "Enter the number manually"
	LabelCancel       = "Cancel"
)

const (
	textLogin           = "I need to login your account in order to fetch the vaccination info, so choose an input method for entering your phone number"
	textEnterPhone      = "Enter your phone number"
	textInvalidPhone    = "Invalid Phone number (number should have at least 10 digits)"
	textForeignContact  = "Share your own contact or enter the number manually"
	textOTPSent         = "An OTP has been sent to +91%s, enter that with in 3 minutes"
	textInvalidOTP      = "Invalid OTP, enter again"
	textOTPVerified     = "OTP verified"
	textNoToken         = "couldnt find token, try again later"
	textNoTransaction   = "couldnt send the OTP, try again later"
	textNoBeneficiaries = "No beneficiaries found, login with another number or register via https://selfregistration.cowin.gov.in"
	textMenu            = "%d beneficiaries found, select any of them"
	textCertFailed      = "failed to find certificate, login again"
	textLoggedOut       = "successfully logged out"
	textNoSession       = "No session found"
	textCancelled       = "Cancelled, /login again"
	textExpired         = "session expired, please login again"
	textUnknownBen      = "beneficiary not found, select again"
	textUnreachable     = "CoWIN is not reachable right now, try again later"
	textHintLogin       = "send /login to get started"
	textHintMenu        = "use the buttons above, or /logout to end the session"

	placeholderLogin = "choose any options"
	placeholderPhone = "+91 (not required)"
	placeholderOTP   = "OTP should be integers"
)

func welcomeText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hey %s, I'll help you to generate covid vaccine certificate from cowin.gov.in right inside the telegram using cowin API, send /login to get started and you can use /cancel anytime for cancelling the current process.", name)
}

func loginKeyboard() Keyboard {
	return Keyboard{
		Kind:        KeyboardReply,
		OneTime:     true,
		Placeholder: placeholderLogin,
		Rows: [][]Key{
			{{Label: LabelShareContact, RequestContact: true}, {Label: LabelEnterManual}},
			{{Label: LabelCancel}},
		},
	}
}

func forceReply(placeholder string) Keyboard {
	return Keyboard{Kind: KeyboardForceReply, Placeholder: placeholder}
}

// menuView renders the beneficiary picker: one row per beneficiary, then logout.
func menuView(list []cowin.Beneficiary) (string, Keyboard) {
	rows := make([][]Key, 0, len(list)+1)
	for _, b := range list {
		rows = append(rows, []Key{{
			Label:   fmt.Sprintf("%s - %s", b.Name, b.ShortID()),
			Action:  ActionBeneficiary,
			Payload: b.ID,
		}})
	}
	rows = append(rows, []Key{{Label: "Logout", Action: ActionLogout}})
	return fmt.Sprintf(textMenu, len(list)), Keyboard{Kind: KeyboardInline, Rows: rows}
}

func detailView(b cowin.Beneficiary) (string, Keyboard) {
	text := fmt.Sprintf("Name: %s\nYOB: %s\nGender: %s\nVaccination status: %s\nVaccine: %s\nDose 1 Date: %s\nDose 2 Date: %s",
		b.Name, b.BirthYear, b.Gender, b.VaccinationStatus, b.Vaccine, b.Dose1Date, b.Dose2Date)
	kb := Keyboard{Kind: KeyboardInline, Rows: [][]Key{
		{{Label: "Download certificate", Action: ActionCertificate, Payload: b.ID}},
		{{Label: "Back", Action: ActionBack}},
	}}
	return text, kb
}

func certificateName(b cowin.Beneficiary) string {
	return fmt.Sprintf("certificate-%s.pdf", b.ShortID())
}
