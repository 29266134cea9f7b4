package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrBadPayload reports a callback payload that does not match the expected shape.
var ErrBadPayload = errors.New("callbacks: malformed payload")

// maxIDLen keeps identifiers well inside Telegram's 64-byte callback data.
const maxIDLen = 48

// PayloadID returns the callback payload when it is a plain identifier:
// ASCII letters and digits only. Identifiers stay strings so leading zeros survive.
func PayloadID(c tele.Context) (string, error) {
	p := strings.TrimSpace(CallbackPayload(c))
	if len(p) > maxIDLen || !IsAlnum(p) {
		return "", ErrBadPayload
	}
	return p, nil
}

// IsAlnum reports whether s is non-empty and consists of ASCII letters and digits only.
func IsAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') {
			return false
		}
	}
	return true
}
