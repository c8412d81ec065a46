package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

func (s *DB) CreateOTP(ctx context.Context, in entity.OTP) (err error) {
	ctx, span := startSpan(ctx, s.ins, "CreateOTP")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateOTP,
		in.ID,
		in.PhoneNumber,
		int16(in.VerificationType),
		in.CodeCiphertext,
		in.CodeNonce,
		pgtype.Text{String: in.UserID, Valid: in.UserID != ""},
		in.Metadata,
		in.ExpiresAt,
		in.Attempts,
		in.MaxAttempts,
		in.CreatedAt,
	)
	return mapError(err)
}
