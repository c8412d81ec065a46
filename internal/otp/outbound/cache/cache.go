package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

const keyPrefix = "otp:ratelimit:"

var errUnexpectedReply = errors.New("otp cache: unexpected rate limit script reply")

// checkAndRecord mirrors entity.RateLimitCounter.Next inside Redis so the read
// and the write happen as one step. It returns {allowed, remaining_ms}.
var checkAndRecord = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local start = tonumber(redis.call('HGET', KEYS[1], 'window_start') or '0')
local count = tonumber(redis.call('HGET', KEYS[1], 'request_count') or '0')

if count <= 0 or start == 0 or now >= start + window then
  redis.call('HSET', KEYS[1], 'window_start', now, 'request_count', 1, 'last_request_at', now)
  redis.call('PEXPIRE', KEYS[1], window)
  return {1, 0}
end

if count < limit then
  redis.call('HINCRBY', KEYS[1], 'request_count', 1)
  redis.call('HSET', KEYS[1], 'last_request_at', now)
  return {1, 0}
end

return {0, start + window - now}
`)

// RateLimiter is the Redis counterpart of the PostgreSQL limiter. Phones are
// keyed by their HMAC so the keyspace holds no phone numbers.
type RateLimiter struct {
	client redis.Cmdable
	hmac   hash.Hash
	policy entity.RateLimitPolicy
	ins    instrument.Instrumentation
}

func NewRateLimiter(client redis.Cmdable, hmac hash.Hash, policy entity.RateLimitPolicy, ins instrument.Instrumentation) *RateLimiter {
	return &RateLimiter{client: client, hmac: hmac, policy: policy, ins: ins}
}

func (c *RateLimiter) CheckAndRecord(ctx context.Context, phone string, now time.Time) (_ entity.RateLimitDecision, err error) {
	ctx, span := c.ins.Tracer("otp.outbound.cache").Start(ctx, "CheckAndRecord")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sum, err := c.hmac.Hash(phone)
	if err != nil {
		return entity.RateLimitDecision{}, err
	}

	reply, err := checkAndRecord.Run(ctx, c.client,
		[]string{keyPrefix + string(sum)},
		now.UnixMilli(),
		c.policy.Window.Milliseconds(),
		c.policy.MaxRequests,
	).Int64Slice()
	if err != nil {
		return entity.RateLimitDecision{}, err
	}
	if len(reply) != 2 {
		return entity.RateLimitDecision{}, fmt.Errorf("%w: %v", errUnexpectedReply, reply)
	}

	if reply[0] == 1 {
		return entity.RateLimitDecision{Allowed: true}, nil
	}

	// ceil to whole seconds, never below one
	wait := int((reply[1] + 999) / 1000)
	return entity.RateLimitDecision{WaitSeconds: max(wait, 1)}, nil
}
