package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	pkgsms "github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrTimeout = errors.New("otp sms: send timed out")

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer("otp.outbound.sms").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Direct delivers through an SMS provider in-process, bounded by timeout.
type Direct struct {
	provider pkgsms.SMS
	timeout  time.Duration
	ins      instrument.Instrumentation
}

func NewDirect(provider pkgsms.SMS, timeout time.Duration, ins instrument.Instrumentation) *Direct {
	return &Direct{provider: provider, timeout: timeout, ins: ins}
}

// Send makes exactly one delivery attempt.
func (d *Direct) Send(ctx context.Context, phone, message string) (err error) {
	ctx, span := startSpan(ctx, d.ins, "Direct.Send")
	defer func() { endSpan(span, err) }()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err = d.provider.Send(ctx, pkgsms.Message{To: phone, Body: message})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
