package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// IncrementOTPAttempts spends one attempt and returns the new count. It
// returns goerror.ErrConflict when the record is used, exhausted or expired at now.
func (s *DB) IncrementOTPAttempts(ctx context.Context, id int64, now time.Time) (_ int, err error) {
	ctx, span := startSpan(ctx, s.ins, "IncrementOTPAttempts")
	defer func() { endSpan(span, err) }()

	var attempts int
	err = mapError(s.conn.QueryRow(ctx, queryIncrementOTPAttempts, id, now).Scan(&attempts))
	if errors.Is(err, goerror.ErrNotFound) {
		err = goerror.ErrConflict
	}
	if err != nil {
		return 0, err
	}

	return attempts, nil
}

// MarkOTPUsed flips is_used once and releases the attempt spent on the
// matching comparison. It reports false when another caller won.
func (s *DB) MarkOTPUsed(ctx context.Context, id int64, verifiedAt time.Time) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "MarkOTPUsed")
	defer func() { endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryMarkOTPUsed, id, verifiedAt)
	if err != nil {
		return false, mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
