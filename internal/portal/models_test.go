package portal_test

import (
	"testing"

	"abcbizreport/internal/portal"
)

func TestNormalizeServiceNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"313018426", "313018426"},
		{"313018426.0", "313018426"},
		{"3.13018426e+08", "313018426"},
		{"  42  ", "42"},
		{"0", "0"},
		{"", ""},
		{"   ", ""},
		{"abc", ""},
		{"12.5", ""},
		{"-5", ""},
		{"NaN", ""},
		{"Inf", ""},
		{"1e20", ""},
		{"9223372036854775808", ""},
	}
	for _, c := range cases {
		if got := portal.NormalizeServiceNumber(c.in); got != c.want {
			t.Errorf("NormalizeServiceNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLookupKeyValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  portal.LookupKey
		want bool
	}{
		{portal.LookupKey{ServiceNumber: "313018426", LastName: "Angeles"}, true},
		{portal.LookupKey{ServiceNumber: "313018426.0", LastName: " Angeles "}, true},
		{portal.LookupKey{ServiceNumber: "", LastName: "Angeles"}, false},
		{portal.LookupKey{ServiceNumber: "313018426", LastName: "  "}, false},
		{portal.LookupKey{ServiceNumber: "bogus", LastName: "Angeles"}, false},
		{portal.LookupKey{}, false},
	}
	for _, c := range cases {
		if got := c.key.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestAuthOutcomeAuthenticated(t *testing.T) {
	t.Parallel()

	if (portal.AuthOutcome{Status: portal.AuthAuthenticated}).Authenticated() {
		t.Error("outcome without session must not report authenticated")
	}
	if (portal.AuthOutcome{Status: portal.AuthRejected}).Authenticated() {
		t.Error("rejected outcome must not report authenticated")
	}
}
