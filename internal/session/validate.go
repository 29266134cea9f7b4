package session

import "strings"

const phoneDigits = 10

// NormalizePhone accepts exactly ten ASCII digits, ignoring surrounding spaces.
func NormalizePhone(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if len(s) != phoneDigits || !isDigits(s) {
		return "", false
	}
	return s, true
}

// PhoneFromContact drops the country prefix and formatting of a shared
// contact, keeping the trailing ten digits.
func PhoneFromContact(raw string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	digits := b.String()
	if len(digits) < phoneDigits {
		return "", false
	}
	return digits[len(digits)-phoneDigits:], true
}

// ValidOTP accepts a non-empty run of ASCII digits.
func ValidOTP(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if !isDigits(s) {
		return "", false
	}
	return s, true
}

func isCancelText(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), CommandCancel)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
