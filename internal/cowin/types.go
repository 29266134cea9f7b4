package cowin

import (
	"net/http"
	"strconv"
)

// Beneficiary is a person registered under the authenticated phone number.
type Beneficiary struct {
	ID                string `json:"beneficiary_reference_id"`
	Name              string `json:"name"`
	BirthYear         string `json:"birth_year"`
	Gender            string `json:"gender"`
	VaccinationStatus string `json:"vaccination_status"`
	Vaccine           string `json:"vaccine"`
	Dose1Date         string `json:"dose1_date"`
	Dose2Date         string `json:"dose2_date"`
}

// ShortID returns the last four characters of the reference id.
func (b Beneficiary) ShortID() string {
	r := []rune(b.ID)
	if len(r) <= 4 {
		return b.ID
	}
	return string(r[len(r)-4:])
}

// APIError is a non-200 answer from the API. Error falls back to the status text.
type APIError struct {
	Status int
	// Code is the API's errorCode field, when present.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// ErrorCode labels the error in handler summaries.
func (e *APIError) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return "http_" + strconv.Itoa(e.Status)
}

type generateOTPRequest struct {
	Mobile string `json:"mobile"`
	Secret string `json:"secret"`
}

type generateOTPResponse struct {
	TxnID string `json:"txnId"`
}

type confirmOTPRequest struct {
	OTP   string `json:"otp"`
	TxnID string `json:"txnId"`
}

type confirmOTPResponse struct {
	Token string `json:"token"`
}

type beneficiariesResponse struct {
	Beneficiaries []Beneficiary `json:"beneficiaries"`
}

type errorBody struct {
	ErrorCode string `json:"errorCode"`
	Error     string `json:"error"`
}
