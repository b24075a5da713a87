package common

import (
	"regexp"
	"strings"
)

// CountryCode is the international dialling prefix for Kenyan MSISDNs.
const CountryCode = "254"

var (
	localPhonePattern         = regexp.MustCompile(`^0[17]\d{8}$`)
	internationalPhonePattern = regexp.MustCompile(`^254\d{9}$`)
)

// ErrInvalidPhone is returned when no canonical form can be produced.
var ErrInvalidPhone = &ValidationError{
	Field:   "phone_number",
	Message: "Invalid phone number format. Use 07XXXXXXXX, 01XXXXXXXX, 254XXXXXXXXX or +254XXXXXXXXX.",
}

// NormalizePhone converts a user-entered phone number into the canonical
// 254XXXXXXXXX form used as the storage key for transactions and subscriptions.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)

	switch {
	case localPhonePattern.MatchString(phone):
		return CountryCode + phone[1:], nil
	case strings.HasPrefix(phone, "+") && internationalPhonePattern.MatchString(phone[1:]):
		return phone[1:], nil
	case internationalPhonePattern.MatchString(phone):
		return phone, nil
	}

	return "", ErrInvalidPhone
}
