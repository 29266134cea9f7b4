package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data    string
		unique  string
		payload string
	}{
		{"\fben|123456", "ben", "123456"},
		{"\fback", "back", ""},
		{"logout|", "logout", ""},
		{"\fcert|12|34", "cert", "12|34"},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
		if u != tc.unique || p != tc.payload {
			t.Fatalf("ParseCallbackData(%q) = %q, %q; want %q, %q", tc.data, u, p, tc.unique, tc.payload)
		}
	}
	if u, p := ParseCallbackData(nil); u != "" || p != "" {
		t.Fatalf("nil callback should parse empty, got %q %q", u, p)
	}
}

func TestIsAlnum(t *testing.T) {
	for _, s := range []string{"0", "0123", "BEN0001", "99887766554433"} {
		if !IsAlnum(s) {
			t.Fatalf("IsAlnum(%q) = false", s)
		}
	}
	for _, s := range []string{"", "12-a", " 12", "١٢٣", "a|b"} {
		if IsAlnum(s) {
			t.Fatalf("IsAlnum(%q) = true", s)
		}
	}
}
