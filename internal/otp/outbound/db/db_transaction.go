package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
)

// RateLimiter keeps one otp_rate_limits row per phone. Concurrent callers for
// the same phone serialize on the row lock.
type RateLimiter struct {
	conn   *pgxpool.Pool
	policy entity.RateLimitPolicy
	ins    instrument.Instrumentation
}

func NewRateLimiter(conn *pgxpool.Pool, policy entity.RateLimitPolicy, ins instrument.Instrumentation) *RateLimiter {
	return &RateLimiter{conn: conn, policy: policy, ins: ins}
}

func (s *RateLimiter) CheckAndRecord(ctx context.Context, phone string, now time.Time) (_ entity.RateLimitDecision, err error) {
	ctx, span := startSpan(ctx, s.ins, "CheckAndRecord")
	defer func() { endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return entity.RateLimitDecision{}, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, queryEnsureRateLimit, phone, now); err != nil {
		return entity.RateLimitDecision{}, mapError(err)
	}

	counter := entity.RateLimitCounter{PhoneNumber: phone}
	if err := tx.QueryRow(ctx, queryLockRateLimit, phone).Scan(
		&counter.WindowStart,
		&counter.RequestCount,
		&counter.LastRequestAt,
	); err != nil {
		return entity.RateLimitDecision{}, mapError(err)
	}

	next, decision := counter.Next(now, s.policy)
	if !decision.Allowed {
		return decision, nil
	}

	if _, err := tx.Exec(ctx, queryUpdateRateLimit,
		phone, next.WindowStart, next.RequestCount, next.LastRequestAt,
	); err != nil {
		return entity.RateLimitDecision{}, mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return entity.RateLimitDecision{}, mapError(err)
	}

	return decision, nil
}
