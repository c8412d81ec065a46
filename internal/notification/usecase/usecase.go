package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoSMS interface {
	Send(ctx context.Context, msg sms.Message) error
}

type Usecase struct {
	repoSMS   repoSMS
	cipher    aead.Cipher
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
	delivered metric.Int64Counter
}

type Dependency struct {
	RepoSMS    repoSMS
	Cipher     aead.Cipher
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	delivered, _ := dep.Instrument.Meter("notification.usecase").Int64Counter( //nolint:errcheck // nil counter is skipped
		"notification.sms.deliveries",
		metric.WithDescription("SMS relay deliveries by status"),
	)

	return &Usecase{
		repoSMS:   dep.RepoSMS,
		cipher:    dep.Cipher,
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
		delivered: delivered,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
