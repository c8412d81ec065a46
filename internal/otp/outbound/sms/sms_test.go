package sms

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	pkgsms "github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerStub struct {
	calls int
	got   pkgsms.Message
	err   error
	block bool
}

func (p *providerStub) Send(ctx context.Context, msg pkgsms.Message) error {
	p.calls++
	p.got = msg
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

func TestDirect_Send(t *testing.T) {
	t.Run("delivers once", func(t *testing.T) {
		stub := &providerStub{}
		d := NewDirect(stub, time.Second, instrument.NewNoop())

		err := d.Send(context.Background(), "+251911223344", "Your code is 123456")

		require.NoError(t, err)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, pkgsms.Message{To: "+251911223344", Body: "Your code is 123456"}, stub.got)
	})

	t.Run("provider error is not retried", func(t *testing.T) {
		stub := &providerStub{err: errors.New("throttled")}
		d := NewDirect(stub, time.Second, instrument.NewNoop())

		err := d.Send(context.Background(), "+251911223344", "x")

		assert.ErrorIs(t, err, stub.err)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("timeout is bounded", func(t *testing.T) {
		stub := &providerStub{block: true}
		d := NewDirect(stub, 20*time.Millisecond, instrument.NewNoop())

		start := time.Now()
		err := d.Send(context.Background(), "+251911223344", "x")

		assert.ErrorIs(t, err, ErrTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestQueue_Send(t *testing.T) {
	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	got := make(chan messaging.Message, 1)
	go func() {
		_ = broker.Consume(ctx, event.SMSDispatchDestination, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		}, messaging.WithName(event.SMSDispatchConsumerNotification), messaging.WithAutoAck(true))
	}()

	cipher, err := aead.NewAESGCM([]byte("0123456789abcdef0123456789abcdef"), nil)
	require.NoError(t, err)

	q := NewQueue(broker, cipher, clock.NewFixed(time.Unix(1700000000, 0)), time.Second, instrument.NewNoop())

	sendCtx := instrument.SetCorrelationID(context.Background(), "cid-7")

	// the memory broker drops messages published before the consumer subscribed
	var msg messaging.Message
	require.Eventually(t, func() bool {
		if err := q.Send(sendCtx, "+251911223344", "Your code is 123456"); err != nil {
			return false
		}
		select {
		case msg = <-got:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.NotContains(t, string(msg.Body()), "123456")
	assert.Equal(t, "cid-7", msg.Header(instrument.CorrelationHeader))

	var payload event.SMSDispatchMessage
	require.NoError(t, json.Unmarshal(msg.Body(), &payload))
	assert.Equal(t, "+251911223344", payload.PhoneNumber)
	assert.Equal(t, int64(1700000000), payload.RequestedAt)

	plain, err := cipher.Open(payload.SealedMessage, payload.Nonce, event.SMSDispatchScope(payload.PhoneNumber, payload.RequestedAt))
	require.NoError(t, err)
	assert.Equal(t, "Your code is 123456", string(plain))

	_, err = cipher.Open(payload.SealedMessage, payload.Nonce, event.SMSDispatchScope("+251922334455", payload.RequestedAt))
	assert.ErrorIs(t, err, aead.ErrDecryptFailed)
}
