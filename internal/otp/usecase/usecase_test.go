package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

// memRepo mirrors the conditional updates of the PostgreSQL repository.
type memRepo struct {
	mu      sync.Mutex
	records map[int64]*entity.OTP
	order   []int64
	err     error

	beforeIncrement func(rec *entity.OTP)
	beforeMark      func(rec *entity.OTP)
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[int64]*entity.OTP{}}
}

func (r *memRepo) CreateOTP(_ context.Context, in entity.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	rec := in
	r.records[in.ID] = &rec
	r.order = append(r.order, in.ID)
	return nil
}

func (r *memRepo) FindActiveOTP(_ context.Context, phone string, vt entity.VerificationType) (*entity.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, id := range slices.Backward(r.order) {
		rec := r.records[id]
		if rec.PhoneNumber == phone && rec.VerificationType == vt && !rec.IsUsed {
			out := *rec
			return &out, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *memRepo) GetOTPByID(_ context.Context, id int64) (*entity.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (r *memRepo) IncrementOTPAttempts(_ context.Context, id int64, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	if r.beforeIncrement != nil {
		r.beforeIncrement(rec)
	}
	if rec.IsUsed || rec.IsExhausted() || rec.IsExpired(now) {
		return 0, goerror.ErrConflict
	}
	rec.Attempts++
	return rec.Attempts, nil
}

func (r *memRepo) MarkOTPUsed(_ context.Context, id int64, verifiedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[id]
	if r.beforeMark != nil {
		r.beforeMark(rec)
	}
	if rec.IsUsed {
		return false, nil
	}
	rec.IsUsed = true
	rec.VerifiedAt = &verifiedAt
	rec.Attempts = max(rec.Attempts-1, 0)
	return true, nil
}

func (r *memRepo) all() []entity.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.OTP, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.records[id])
	}
	return out
}

type limiterStub struct {
	calls    int
	decision entity.RateLimitDecision
	err      error
}

func (l *limiterStub) CheckAndRecord(context.Context, string, time.Time) (entity.RateLimitDecision, error) {
	l.calls++
	if l.err != nil {
		return entity.RateLimitDecision{}, l.err
	}
	return l.decision, nil
}

type sentSMS struct {
	phone   string
	message string
}

type gatewayStub struct {
	sent []sentSMS
	err  error
}

func (g *gatewayStub) Send(_ context.Context, phone, message string) error {
	g.sent = append(g.sent, sentSMS{phone: phone, message: message})
	return g.err
}

type fixedCode string

func (c fixedCode) Generate() (string, error) { return string(c), nil }

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type fixture struct {
	uc      *Usecase
	repo    *memRepo
	limiter *limiterStub
	gateway *gatewayStub
	clock   *clock.Fixed
	cipher  *aead.AESGCM
}

const testConfig = `
modules:
  otp:
    ttl_seconds: 300
    max_attempts: 3
    message_template: "Your code is {code}. Valid for {minutes} minutes."
`

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, code string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	cipher, err := aead.NewAESGCM([]byte("0123456789abcdef0123456789abcdef"), nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:    newMemRepo(),
		limiter: &limiterStub{decision: entity.RateLimitDecision{Allowed: true}},
		gateway: &gatewayStub{},
		clock:   clock.NewFixed(testNow),
		cipher:  cipher,
	}
	f.uc = New(Dependency{
		RepoDB:      f.repo,
		RateLimiter: f.limiter,
		SMSGateway:  f.gateway,
		Idempotency: idempotency.New(client),
		Validator:   v,
		Config:      cfg,
		Cipher:      cipher,
		Codes:       fixedCode(code),
		UID:         &seqID{},
		Clock:       f.clock,
		Instrument:  instrument.NewNoop(),
	})
	return f
}

func requireGoError(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	var ge *goerror.Error
	require.True(t, errors.As(err, &ge), "want *goerror.Error, got %v", err)
	require.Equal(t, code, ge.Code(), ge.String())
	return ge
}
