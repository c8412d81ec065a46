package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageStub struct {
	body    []byte
	headers map[string]string
}

func (m messageStub) Body() []byte {
	return m.body
}

func (m messageStub) Header(key string) string {
	return m.headers[key]
}

func (m messageStub) Headers() map[string]string {
	return m.headers
}

func (m messageStub) ID() string {
	return "1"
}

func (m messageStub) Source() string {
	return "otp.sms.dispatch"
}

func (m messageStub) Timestamp() time.Time {
	return time.Time{}
}

func (m messageStub) Ack(ctx context.Context) error {
	return nil
}

func (m messageStub) Nack(ctx context.Context) error {
	return nil
}

func TestMQHandler_SMSDispatch(t *testing.T) {
	tests := []struct {
		name      string
		msg       messageStub
		ucErr     error
		wantCalls int
		wantCID   string
	}{
		{
			name:      "relays with generated correlation id",
			msg:       messageStub{body: []byte(`{"phoneNumber":"+251911234567","sealedMessage":"AQID","nonce":"AAAAAAAAAAAAAAAA"}`)},
			wantCalls: 1,
			wantCID:   "generated-cid",
		},
		{
			name: "keeps correlation id from header",
			msg: messageStub{
				body:    []byte(`{"phoneNumber":"+251911234567","sealedMessage":"AQID","nonce":"AAAAAAAAAAAAAAAA"}`),
				headers: map[string]string{instrument.CorrelationHeader: "cid-9"},
			},
			wantCalls: 1,
			wantCID:   "cid-9",
		},
		{
			name:      "malformed body is acked",
			msg:       messageStub{body: []byte(`{not json`)},
			wantCalls: 0,
		},
		{
			name:      "delivery failure is acked",
			msg:       messageStub{body: []byte(`{"phoneNumber":"+251911234567","sealedMessage":"AQID","nonce":"AAAAAAAAAAAAAAAA"}`)},
			ucErr:     errors.New("provider down"),
			wantCalls: 1,
			wantCID:   "generated-cid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &ucStub{err: tt.ucErr}
			h := &MQHandler{uc: uc, uuid: fixedUUID("generated-cid"), ins: instrument.NewNoop()}

			err := h.SMSDispatch(context.Background(), tt.msg)

			require.NoError(t, err)
			calls, cids := uc.snapshot()
			require.Len(t, calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, tt.wantCID, cids[0])
				assert.True(t, calls[0].RequestedAt.IsZero())
				assert.Equal(t, []byte{1, 2, 3}, calls[0].SealedMessage)
				assert.Len(t, calls[0].Nonce, 12)
			}
		})
	}
}
