package entity

import (
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

var (
	ErrInvalidPhoneFormat = errors.New("otp: invalid phone number format")
	ErrRateLimited        = errors.New("otp: too many requests")
	ErrSendFailure        = errors.New("otp: sms delivery failed")
	ErrOTPNotFound        = errors.New("otp: no active code")
	ErrOTPExpired         = errors.New("otp: code expired")
	ErrAttemptsExhausted  = errors.New("otp: attempts exhausted")
	ErrInvalidCode        = errors.New("otp: invalid code")
	ErrAlreadyUsed        = errors.New("otp: code already used")
)

// OTP is a single issued one-time password. The code itself is only ever held
// sealed; CodeNonce is the AEAD nonce used for CodeCiphertext.
type OTP struct {
	ID               int64
	PhoneNumber      string
	VerificationType VerificationType
	CodeCiphertext   []byte
	CodeNonce        []byte
	UserID           string
	Metadata         valueobject.JSONMap
	ExpiresAt        time.Time
	Attempts         int
	MaxAttempts      int
	IsUsed           bool
	VerifiedAt       *time.Time
	CreatedAt        time.Time
}

// IsExpired reports whether now is strictly past ExpiresAt.
func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

func (o *OTP) IsExhausted() bool {
	return o.Attempts >= o.MaxAttempts
}

// RemainingAttempts never goes below zero.
func (o *OTP) RemainingAttempts() int {
	return max(o.MaxAttempts-o.Attempts, 0)
}
