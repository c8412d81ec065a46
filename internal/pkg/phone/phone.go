// Package phone normalizes Ethiopian mobile numbers to their E.164 form.
package phone

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// Region is the ISO region used for parsing and validation.
	Region = "ET"

	countryCode = "251"
	trunkPrefix = "0"
	intlPrefix  = "00"
)

// ErrInvalidFormat is returned for input that cannot be reduced to an
// Ethiopian mobile number.
var ErrInvalidFormat = errors.New("phone: invalid phone number format")

var (
	reNonDigit = regexp.MustCompile(`\D`)
	// country code, mobile leading digit (9 or 7), eight subscriber digits
	reMobile = regexp.MustCompile(`^251[79][0-9]{8}$`)
)

// Normalize converts a raw phone number ("0911223344", "251911223344",
// "+251 91 122 3344", ...) into "+251XXXXXXXXX".
func Normalize(raw string) (string, error) {
	digits := reNonDigit.ReplaceAllString(raw, "")

	switch {
	case strings.HasPrefix(digits, intlPrefix):
		digits = strings.TrimPrefix(digits, intlPrefix)
	case strings.HasPrefix(digits, trunkPrefix):
		digits = countryCode + strings.TrimPrefix(digits, trunkPrefix)
	case len(digits) == 9:
		digits = countryCode + digits
	}

	if !reMobile.MatchString(digits) {
		return "", ErrInvalidFormat
	}

	// the bundled metadata predates the 07 (Safaricom) range, so ranges are
	// owned by reMobile and phonenumbers only checks the shape
	num, err := phonenumbers.Parse("+"+digits, Region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) ||
		phonenumbers.GetRegionCodeForCountryCode(int(num.GetCountryCode())) != Region {
		return "", ErrInvalidFormat
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Mask hides everything but the last four digits.
func Mask(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "***" + phone[len(phone)-4:]
}
