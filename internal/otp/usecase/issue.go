package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

type IssueInput struct {
	PhoneNumber      string                  `validate:"required"`
	VerificationType entity.VerificationType `validate:"required"`
	UserID           string                  `validate:"omitempty,max=128"`
	Metadata         map[string]any
	IdempotencyKey   string `validate:"omitempty,max=128,nospace"`
}

type IssueOutput struct {
	ID        int64
	ExpiresAt time.Time
}

func errInvalidPhone() error {
	return goerror.NewBusiness("Invalid phone number format", goerror.CodeInvalidInput, goerror.WithCause(entity.ErrInvalidPhoneFormat))
}

// Issue rate-limits, generates, seals, stores and sends one OTP.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	normalized, err := phone.Normalize(in.PhoneNumber)
	if err != nil {
		s.countIssueFailure(ctx, "invalid_phone")
		return nil, errInvalidPhone()
	}

	if in.IdempotencyKey == "" {
		return s.issue(ctx, normalized, in)
	}

	var out *IssueOutput
	err = s.idemp.Exec(ctx, "otp:issue:"+in.IdempotencyKey, func(ctx context.Context) error {
		var errIssue error
		out, errIssue = s.issue(ctx, normalized, in)
		return errIssue
	}, idempotency.WithReleaseOnError())

	var gerr *goerror.Error
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &gerr):
		return nil, gerr
	case errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "duplicate otp issue request", "idempotency_key", in.IdempotencyKey)
		return nil, goerror.NewBusiness("Duplicate request", goerror.CodeConflict, goerror.WithCause(err))
	default:
		slog.ErrorContext(ctx, "failed to run otp issue idempotently", "idempotency_key", in.IdempotencyKey, "error", err)
		return nil, goerror.NewServer(err)
	}
}

func (s *Usecase) issue(ctx context.Context, normalized string, in IssueInput) (*IssueOutput, error) {
	masked := phone.Mask(normalized)
	now := s.clock.Now()

	decision, err := s.limiter.CheckAndRecord(ctx, normalized, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check otp rate limit", "phone", masked, "error", err)
		s.countIssueFailure(ctx, "rate_limit_store")
		return nil, goerror.NewServer(err)
	}
	if !decision.Allowed {
		slog.WarnContext(ctx, "otp issue rate limited", "phone", masked, "wait_seconds", decision.WaitSeconds)
		s.countIssueFailure(ctx, "rate_limited")
		return nil, goerror.NewBusiness(
			fmt.Sprintf("Too many OTP requests. Please wait %d seconds", decision.WaitSeconds),
			goerror.CodeTooManyRequest,
			goerror.WithCause(entity.ErrRateLimited),
			goerror.WithDetail("waitTime", decision.WaitSeconds),
		)
	}

	code, err := s.codes.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		s.countIssueFailure(ctx, "generate")
		return nil, goerror.NewServer(err)
	}

	id := s.uid.Generate()
	ciphertext, nonce, err := s.cipher.Seal([]byte(code), aead.Scope{
		RecordID: id,
		Phone:    normalized,
		Purpose:  in.VerificationType.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal otp code", "otp_id", id, "error", err)
		s.countIssueFailure(ctx, "seal")
		return nil, goerror.NewServer(err)
	}

	ttl := s.ttl()
	rec := entity.OTP{
		ID:               id,
		PhoneNumber:      normalized,
		VerificationType: in.VerificationType,
		CodeCiphertext:   ciphertext,
		CodeNonce:        nonce,
		UserID:           in.UserID,
		Metadata:         valueobject.JSONMap(in.Metadata).Clone(),
		ExpiresAt:        now.Add(ttl),
		Attempts:         0,
		MaxAttempts:      s.maxAttempts(),
		IsUsed:           false,
		CreatedAt:        now,
	}
	if err := s.repoDB.CreateOTP(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp", "otp_id", id, "phone", masked, "error", err)
		s.countIssueFailure(ctx, "persist")
		return nil, goerror.NewServer(err)
	}

	// one attempt only; the stored record stays valid if delivery fails
	if err := s.gateway.Send(ctx, normalized, s.renderMessage(code, ttl)); err != nil {
		slog.ErrorContext(ctx, "failed to send otp sms", "otp_id", id, "phone", masked, "error", err)
		s.countIssueFailure(ctx, "send")
		return nil, goerror.NewBusiness(
			"Failed to send OTP. Please try again later",
			goerror.CodeUnavailable,
			goerror.WithCause(fmt.Errorf("%w: %w", entity.ErrSendFailure, err)),
		)
	}

	if s.issued != nil {
		s.issued.Add(ctx, 1)
	}
	slog.InfoContext(ctx, "otp issued", "otp_id", id, "phone", masked, "verification_type", in.VerificationType.String())

	return &IssueOutput{ID: id, ExpiresAt: rec.ExpiresAt}, nil
}
