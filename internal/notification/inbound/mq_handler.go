package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(instrument.CorrelationHeader); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// SMSDispatch relays a queued OTP message to the SMS provider. Every outcome
// is acked so a code is never sent twice for one issue.
func (h *MQHandler) SMSDispatch(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "SMSDispatch")
	defer span.End()

	var payload event.SMSDispatchMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of sms dispatch", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: sms dispatch", "msg_id", msg.ID(), "phone", phone.Mask(payload.PhoneNumber))

	in := usecase.DeliverSMSInput{
		PhoneNumber:   payload.PhoneNumber,
		SealedMessage: payload.SealedMessage,
		Nonce:         payload.Nonce,
	}
	if payload.RequestedAt > 0 {
		in.RequestedAt = time.Unix(payload.RequestedAt, 0)
	}

	if err := h.uc.DeliverSMS(ctx, in); err != nil {
		slog.WarnContext(ctx, "sms dispatch dropped", "msg_id", msg.ID(), "error", err)
	}

	return nil
}
