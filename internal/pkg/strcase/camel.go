package strcase

import (
	"unicode"
)

// ToLowerCamel lowercases the leading word of an exported Go identifier
// (PhoneNumber -> phoneNumber, OTPCode -> otpCode, ID -> id).
func ToLowerCamel(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)

	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}

	switch {
	case n == 0:
		return s
	case n == len(runes), n == 1:
		// all upper, or a single leading capital
	default:
		// keep the last capital of an acronym when it starts the next word
		if unicode.IsLower(runes[n]) {
			n--
		}
	}

	for i := range n {
		runes[i] = unicode.ToLower(runes[i])
	}

	return string(runes)
}
