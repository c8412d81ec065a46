package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/passcode"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTTL         = 5 * time.Minute
	defaultMaxAttempts = 3
	defaultTemplate    = "Your verification code is {code}. It expires in {minutes} minutes."
)

type repoDB interface {
	CreateOTP(ctx context.Context, in entity.OTP) error
	FindActiveOTP(ctx context.Context, phone string, vt entity.VerificationType) (*entity.OTP, error)
	GetOTPByID(ctx context.Context, id int64) (*entity.OTP, error)
	IncrementOTPAttempts(ctx context.Context, id int64, now time.Time) (int, error)
	MarkOTPUsed(ctx context.Context, id int64, verifiedAt time.Time) (bool, error)
}

type rateLimiter interface {
	CheckAndRecord(ctx context.Context, phone string, now time.Time) (entity.RateLimitDecision, error)
}

type smsGateway interface {
	Send(ctx context.Context, phone, message string) error
}

type Usecase struct {
	repoDB    repoDB
	limiter   rateLimiter
	gateway   smsGateway
	idemp     idempotency.Idempotency
	validator validator.Validator
	cfg       config.Config
	cipher    aead.Cipher
	codes     passcode.Generator
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation

	issued        metric.Int64Counter
	issueFailures metric.Int64Counter
	verifications metric.Int64Counter
}

type Dependency struct {
	RepoDB      repoDB
	RateLimiter rateLimiter
	SMSGateway  smsGateway
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Cipher      aead.Cipher
	Codes       passcode.Generator
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:    dep.RepoDB,
		limiter:   dep.RateLimiter,
		gateway:   dep.SMSGateway,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		cfg:       dep.Config,
		cipher:    dep.Cipher,
		codes:     dep.Codes,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}

	meter := dep.Instrument.Meter("otp.usecase")
	var err error
	if s.issued, err = meter.Int64Counter("otp.issued", metric.WithDescription("OTP codes issued and sent")); err != nil {
		slog.Error("failed to create otp.issued counter", "error", err)
	}
	if s.issueFailures, err = meter.Int64Counter("otp.issue.failures", metric.WithDescription("OTP issuance failures by reason")); err != nil {
		slog.Error("failed to create otp.issue.failures counter", "error", err)
	}
	if s.verifications, err = meter.Int64Counter("otp.verifications", metric.WithDescription("OTP verification attempts by outcome")); err != nil {
		slog.Error("failed to create otp.verifications counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) countIssueFailure(ctx context.Context, reason string) {
	if s.issueFailures != nil {
		s.issueFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (s *Usecase) countVerification(ctx context.Context, outcome string) {
	if s.verifications != nil {
		s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (s *Usecase) ttl() time.Duration {
	if ttl := s.cfg.GetSecond("modules.otp.ttl_seconds"); ttl > 0 {
		return ttl
	}
	return defaultTTL
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

// renderMessage fills {code} and {minutes} in modules.otp.message_template.
func (s *Usecase) renderMessage(code string, ttl time.Duration) string {
	tmpl := s.cfg.GetString("modules.otp.message_template")
	if !strings.Contains(tmpl, "{code}") {
		tmpl = defaultTemplate
	}

	minutes := max(int(ttl.Round(time.Minute)/time.Minute), 1)
	return strings.NewReplacer("{code}", code, "{minutes}", strconv.Itoa(minutes)).Replace(tmpl)
}
