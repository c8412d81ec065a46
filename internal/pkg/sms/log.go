package sms

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
)

// Log writes messages to the structured log instead of delivering them.
type Log struct {
	reveal bool
}

// NewLog returns a log-only provider. The body is logged only when reveal is
// true, which is meant for local development.
func NewLog(reveal bool) *Log {
	return &Log{reveal: reveal}
}

// Send logs msg with the recipient masked.
func (l *Log) Send(ctx context.Context, msg Message) error {
	attrs := []any{"to", phone.Mask(msg.To), "length", len(msg.Body)}
	if l.reveal {
		attrs = append(attrs, "body", msg.Body)
	}

	slog.InfoContext(ctx, "sms delivery (log-only)", attrs...)
	return nil
}
