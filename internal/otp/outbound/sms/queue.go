package sms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

// Queue hands the message to the notification relay through the broker. The
// text is sealed before publishing. A successful publish counts as a
// successful send.
type Queue struct {
	publisher messaging.Publisher
	cipher    aead.Cipher
	clock     clock.Clocker
	timeout   time.Duration
	ins       instrument.Instrumentation
}

func NewQueue(
	publisher messaging.Publisher,
	cipher aead.Cipher,
	clk clock.Clocker,
	timeout time.Duration,
	ins instrument.Instrumentation,
) *Queue {
	return &Queue{publisher: publisher, cipher: cipher, clock: clk, timeout: timeout, ins: ins}
}

func (q *Queue) Send(ctx context.Context, phone, message string) (err error) {
	ctx, span := startSpan(ctx, q.ins, "Queue.Send")
	defer func() { endSpan(span, err) }()

	requestedAt := q.clock.Now().Unix()
	sealed, nonce, err := q.cipher.Seal([]byte(message), event.SMSDispatchScope(phone, requestedAt))
	if err != nil {
		return err
	}

	body, err := json.Marshal(event.SMSDispatchMessage{
		PhoneNumber:   phone,
		SealedMessage: sealed,
		Nonce:         nonce,
		RequestedAt:   requestedAt,
	})
	if err != nil {
		return err
	}

	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	headers := map[string]string{}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers[instrument.CorrelationHeader] = cID
	}

	_, err = q.publisher.Publish(ctx, event.SMSDispatchDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: headers,
	})
	return err
}
