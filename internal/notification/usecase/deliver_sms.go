package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxMessageLen is the longest text a provider splits into concatenated SMS.
const maxMessageLen = 918

var (
	ErrDeliveryStale      = errors.New("notification: sms request outlived the code lifetime")
	ErrDeliveryUnreadable = errors.New("notification: sealed sms message does not open")
	ErrDeliveryFailed     = errors.New("notification: sms delivery failed")
)

type DeliverSMSInput struct {
	PhoneNumber   string    `validate:"required,e164"`
	SealedMessage []byte    `validate:"required"`
	Nonce         []byte    `validate:"required"`
	RequestedAt   time.Time `validate:"required"`
}

// DeliverSMS opens a queued OTP message and makes one delivery attempt.
// Invalid payloads are dropped; requests older than the OTP lifetime are skipped.
func (s *Usecase) DeliverSMS(ctx context.Context, in DeliverSMSInput) error {
	ctx, span := s.startSpan(ctx, "DeliverSMS")
	defer span.End()

	masked := phone.Mask(in.PhoneNumber)

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "phone", masked, "error", err)
		s.count(ctx, "invalid")
		return nil
	}

	if ttl := s.cfg.GetSecond("modules.otp.ttl_seconds"); ttl > 0 {
		if s.clock.Now().After(in.RequestedAt.Add(ttl)) {
			slog.WarnContext(ctx, "skipping stale sms request", "phone", masked, "requested_at", in.RequestedAt)
			s.count(ctx, "stale")
			return ErrDeliveryStale
		}
	}

	plain, err := s.cipher.Open(in.SealedMessage, in.Nonce, event.SMSDispatchScope(in.PhoneNumber, in.RequestedAt.Unix()))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sealed sms message", "phone", masked, "error", err)
		s.count(ctx, "unreadable")
		return ErrDeliveryUnreadable
	}
	body := string(plain)
	clear(plain)

	if len(body) > maxMessageLen {
		slog.ErrorContext(ctx, "sms message too long", "phone", masked, "length", len(body))
		s.count(ctx, "invalid")
		return nil
	}

	timeout := s.cfg.GetSecond("modules.otp.sms_timeout_seconds")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.repoSMS.Send(ctx, sms.Message{To: in.PhoneNumber, Body: body}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver sms", "phone", masked, "error", err)
		s.count(ctx, "failed")
		return errors.Join(ErrDeliveryFailed, err)
	}

	s.count(ctx, "sent")
	return nil
}

func (s *Usecase) count(ctx context.Context, status string) {
	if s.delivered != nil {
		s.delivered.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}
