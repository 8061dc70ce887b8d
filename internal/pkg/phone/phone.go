// Package phone handles South African mobile numbers in the two forms the
// service needs: the canonical +27 form stored on a lead and the bare
// international dialing form expected by SMS gateways.
package phone

import (
	"regexp"
	"strings"
)

// DefaultCountryCode is the dialing code substituted for a leading 0.
const DefaultCountryCode = "27"

var national = regexp.MustCompile(`^(\+27|0)[0-9]{9}$`)

// Valid reports whether s is 0XXXXXXXXX or +27XXXXXXXXX.
func Valid(s string) bool {
	return national.MatchString(s)
}

// Normalize converts a valid national number to +27XXXXXXXXX.
// Numbers already in +27 form are returned unchanged.
func Normalize(s string) string {
	if strings.HasPrefix(s, "0") {
		return "+" + DefaultCountryCode + s[1:]
	}
	return s
}

// Dialable strips '+' and spaces and replaces a leading 0 with countryCode,
// e.g. "+27 82 123 4567" and "0821234567" both become "27821234567".
func Dialable(s, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	out := strings.NewReplacer("+", "", " ", "").Replace(s)
	if strings.HasPrefix(out, "0") {
		out = countryCode + out[1:]
	}
	return out
}
