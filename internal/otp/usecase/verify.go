package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
)

type VerifyInput struct {
	PhoneNumber      string                  `validate:"required"`
	OTPCode          string                  `validate:"required,otpcode"`
	VerificationType entity.VerificationType `validate:"required"`
}

type VerifyOutput struct {
	ID         int64
	VerifiedAt time.Time
}

func errNotFound() error {
	return goerror.NewBusiness("No active OTP found. Please request a new code", goerror.CodeNotFound,
		goerror.WithCause(entity.ErrOTPNotFound))
}

func errExpired() error {
	return goerror.NewBusiness("OTP has expired. Please request a new code", goerror.CodeExpired,
		goerror.WithCause(entity.ErrOTPExpired), goerror.WithDetail("isExpired", true))
}

func errExhausted() error {
	return goerror.NewBusiness("Maximum verification attempts exceeded. Please request a new code", goerror.CodeForbidden,
		goerror.WithCause(entity.ErrAttemptsExhausted), goerror.WithDetail("remainingAttempts", 0))
}

func errAlreadyUsed() error {
	return goerror.NewBusiness("OTP has already been used", goerror.CodeConflict,
		goerror.WithCause(entity.ErrAlreadyUsed), goerror.WithDetail("isUsed", true))
}

func errInvalidCode(remaining int) error {
	return goerror.NewBusiness("Invalid OTP code", goerror.CodeUnauthorized,
		goerror.WithCause(entity.ErrInvalidCode), goerror.WithDetail("remainingAttempts", remaining))
}

// Verify checks a submitted code against the most recent unused OTP. Checks run
// in a fixed order: existence, expiry, attempts, then the code itself. Every
// comparison is paid for with an attempt spent atomically beforehand, so
// concurrent guesses never compare more than MaxAttempts codes.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		s.countVerification(ctx, "invalid_input")
		return nil, goerror.NewInvalidInput(err)
	}

	normalized, err := phone.Normalize(in.PhoneNumber)
	if err != nil {
		s.countVerification(ctx, "invalid_phone")
		return nil, errInvalidPhone()
	}
	masked := phone.Mask(normalized)

	rec, err := s.repoDB.FindActiveOTP(ctx, normalized, in.VerificationType)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "active otp not found", "phone", masked, "verification_type", in.VerificationType.String())
		s.countVerification(ctx, "not_found")
		return nil, errNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find active otp", "phone", masked, "error", err)
		s.countVerification(ctx, "error")
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if rec.IsExpired(now) {
		s.countVerification(ctx, "expired")
		return nil, errExpired()
	}

	if rec.IsExhausted() {
		s.countVerification(ctx, "exhausted")
		return nil, errExhausted()
	}

	attempts, err := s.repoDB.IncrementOTPAttempts(ctx, rec.ID, now)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, s.classifyLostRace(ctx, rec.ID, now)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp attempts", "otp_id", rec.ID, "error", err)
		s.countVerification(ctx, "error")
		return nil, goerror.NewServer(err)
	}

	plain, err := s.cipher.Open(rec.CodeCiphertext, rec.CodeNonce, aead.Scope{
		RecordID: rec.ID,
		Phone:    rec.PhoneNumber,
		Purpose:  rec.VerificationType.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to open otp ciphertext", "otp_id", rec.ID, "error", err)
		s.countVerification(ctx, "decrypt_error")
		return nil, goerror.NewServer(err)
	}
	match := subtle.ConstantTimeCompare(plain, []byte(in.OTPCode)) == 1
	clear(plain)

	if !match {
		remaining := max(rec.MaxAttempts-attempts, 0)
		slog.WarnContext(ctx, "invalid otp code", "otp_id", rec.ID, "remaining_attempts", remaining)
		s.countVerification(ctx, "invalid_code")
		return nil, errInvalidCode(remaining)
	}

	ok, err := s.repoDB.MarkOTPUsed(ctx, rec.ID, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark otp used", "otp_id", rec.ID, "error", err)
		s.countVerification(ctx, "error")
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "otp consumed by a concurrent request", "otp_id", rec.ID)
		s.countVerification(ctx, "already_used")
		return nil, errAlreadyUsed()
	}

	s.countVerification(ctx, "verified")
	slog.InfoContext(ctx, "otp verified", "otp_id", rec.ID, "phone", masked)

	return &VerifyOutput{ID: rec.ID, VerifiedAt: now}, nil
}

// classifyLostRace reloads a record whose conditional update matched no row.
func (s *Usecase) classifyLostRace(ctx context.Context, id int64, now time.Time) error {
	rec, err := s.repoDB.GetOTPByID(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp by id", "otp_id", id, "error", err)
		s.countVerification(ctx, "error")
		return goerror.NewServer(err)
	}

	switch {
	case rec.IsUsed:
		s.countVerification(ctx, "already_used")
		return errAlreadyUsed()
	case rec.IsExpired(now):
		s.countVerification(ctx, "expired")
		return errExpired()
	case rec.IsExhausted():
		s.countVerification(ctx, "exhausted")
		return errExhausted()
	default:
		err := errors.New("otp attempt update matched no row")
		slog.ErrorContext(ctx, "unexpected otp state", "otp_id", id, "attempts", rec.Attempts, "error", err)
		s.countVerification(ctx, "error")
		return goerror.NewServer(err)
	}
}
