package session

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9876543210", "9876543210", true},
		{"\t9876543210\n", "9876543210", true},
		{"987654321", "", false},
		{"98765 43210", "", false},
		{"+919876543210", "", false},
		{"٩٨٧٦٥٤٣٢١٠", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizePhone(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func TestPhoneFromContact(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+91 98765-43210", "9876543210", true},
		{"00919876543210", "9876543210", true},
		{"9876543210", "9876543210", true},
		{"+1 555", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := PhoneFromContact(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("PhoneFromContact(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func TestValidOTP(t *testing.T) {
	for _, in := range []string{"1", "1234", " 123456 "} {
		if _, ok := ValidOTP(in); !ok {
			t.Errorf("ValidOTP(%q) rejected", in)
		}
	}
	for _, in := range []string{"", " ", "12.4", "one", "1 2"} {
		if _, ok := ValidOTP(in); ok {
			t.Errorf("ValidOTP(%q) accepted", in)
		}
	}
}
