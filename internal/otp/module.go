package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/inbound"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/cache"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/otp/outbound/sms"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/aead"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/passcode"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	pkgsms "github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   *redis.Client              `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	SMS         pkgsms.SMS                 `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Cipher      aead.Cipher                `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

type rateLimiter interface {
	CheckAndRecord(ctx context.Context, phone string, now time.Time) (entity.RateLimitDecision, error)
}

type smsGateway interface {
	Send(ctx context.Context, phone, message string) error
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	codes, err := passcode.NewNumeric(codeLength(dep.Config))
	if err != nil {
		return err
	}

	limiter, err := newRateLimiter(dep)
	if err != nil {
		return err
	}

	gateway, err := newSMSGateway(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RateLimiter: limiter,
		SMSGateway:  gateway,
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Cipher:      dep.Cipher,
		Codes:       codes,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func codeLength(cfg config.Config) int {
	if n := cfg.GetInt("modules.otp.code_length"); n > 0 {
		return n
	}
	return 6
}

func newRateLimiter(dep Dependency) (rateLimiter, error) {
	policy := entity.RateLimitPolicy{
		Window:      dep.Config.GetSecond("modules.otp.rate_limit.window_seconds"),
		MaxRequests: dep.Config.GetInt("modules.otp.rate_limit.max_requests"),
	}
	if policy.Window <= 0 {
		policy.Window = time.Hour
	}
	if policy.MaxRequests <= 0 {
		policy.MaxRequests = 3
	}

	switch driver := dep.Config.GetString("modules.otp.rate_limit.driver"); driver {
	case "", "postgres":
		return db.NewRateLimiter(dep.DBConn, policy, dep.Instrument), nil
	case "redis":
		return cache.NewRateLimiter(dep.CacheConn, dep.HMAC, policy, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("otp: unknown rate limit driver %q", driver)
	}
}

func newSMSGateway(dep Dependency) (smsGateway, error) {
	timeout := dep.Config.GetSecond("modules.otp.sms_timeout_seconds")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	switch mode := dep.Config.GetString("sms.mode"); mode {
	case "", "direct":
		return sms.NewDirect(dep.SMS, timeout, dep.Instrument), nil
	case "queue":
		return sms.NewQueue(dep.Messaging, dep.Cipher, dep.Clock, timeout, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("otp: unknown sms mode %q", mode)
	}
}
