package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-\.\(\)]`)
	phoneDigits     = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	countryCode     = regexp.MustCompile(`^[1-9][0-9]{0,2}$`)
)

// PhoneNormalizer turns user-entered phone numbers into registry keys.
// With a CountryCode, national numbers (optionally with a leading trunk "0")
// are rewritten to "+<code><number>" so they share a key with the
// international form.
type PhoneNormalizer struct {
	CountryCode string
}

// NewPhoneNormalizer validates code, which may be empty or written with a leading "+"
func NewPhoneNormalizer(code string) (PhoneNormalizer, error) {
	code = strings.TrimPrefix(strings.TrimSpace(code), "+")
	if code != "" && !countryCode.MatchString(code) {
		return PhoneNormalizer{}, fmt.Errorf("invalid country code %q", code)
	}
	return PhoneNormalizer{CountryCode: code}, nil
}

// Normalize strips formatting so the same number always produces the same key.
// A leading "+" is kept; "00" international prefixes are rewritten to "+".
func (n PhoneNormalizer) Normalize(raw string) (string, error) {
	phone := phoneSeparators.ReplaceAllString(strings.TrimSpace(raw), "")
	if strings.HasPrefix(phone, "00") {
		phone = "+" + strings.TrimPrefix(phone, "00")
	}
	if n.CountryCode != "" && phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + n.CountryCode + strings.TrimPrefix(phone, "0")
	}

	if !phoneDigits.MatchString(phone) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phone, nil
}
