package entity

import (
	"errors"
	"strings"
)

var ErrVerificationTypeUnknown = errors.New("otp: verification type is unknown")

// VerificationType is the purpose an OTP was issued for. A code issued for one
// purpose never verifies another.
type VerificationType int16

const (
	// VerificationTypeUnknown is mean type is not known / not set.
	VerificationTypeUnknown VerificationType = 0

	// VerificationTypeRegistration confirms the phone of a new account.
	VerificationTypeRegistration VerificationType = 1

	// VerificationTypePasswordReset authorizes a password reset.
	VerificationTypePasswordReset VerificationType = 2

	// VerificationTypePhoneVerification confirms a changed or added phone number.
	VerificationTypePhoneVerification VerificationType = 3
)

// String returns the wire value.
func (vt VerificationType) String() string {
	switch vt {
	case VerificationTypeRegistration:
		return "registration"
	case VerificationTypePasswordReset:
		return "password_reset"
	case VerificationTypePhoneVerification:
		return "phone_verification"
	default:
		return "unknown"
	}
}

func (vt VerificationType) IsUnknown() bool {
	switch vt {
	case VerificationTypeRegistration, VerificationTypePasswordReset, VerificationTypePhoneVerification:
		return false
	default:
		return true
	}
}

// ParseVerificationType accepts "registration", "REGISTRATION", "password-reset"
// and similar spellings of the wire values.
func ParseVerificationType(raw string) (VerificationType, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")

	switch v {
	case "registration":
		return VerificationTypeRegistration, nil
	case "password_reset":
		return VerificationTypePasswordReset, nil
	case "phone_verification":
		return VerificationTypePhoneVerification, nil
	default:
		return VerificationTypeUnknown, ErrVerificationTypeUnknown
	}
}
