package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

func scanOTP(row pgx.Row) (*entity.OTP, error) {
	var (
		out        entity.OTP
		vt         int16
		userID     pgtype.Text
		verifiedAt pgtype.Timestamptz
	)

	if err := row.Scan(
		&out.ID,
		&out.PhoneNumber,
		&vt,
		&out.CodeCiphertext,
		&out.CodeNonce,
		&userID,
		&out.Metadata,
		&out.ExpiresAt,
		&out.Attempts,
		&out.MaxAttempts,
		&out.IsUsed,
		&verifiedAt,
		&out.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}

	out.VerificationType = entity.VerificationType(vt)
	out.UserID = userID.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		out.VerifiedAt = &t
	}

	return &out, nil
}

// FindActiveOTP returns the most recent unused record for phone and type.
func (s *DB) FindActiveOTP(ctx context.Context, phone string, vt entity.VerificationType) (_ *entity.OTP, err error) {
	ctx, span := startSpan(ctx, s.ins, "FindActiveOTP")
	defer func() { endSpan(span, err) }()

	out, err := scanOTP(s.conn.QueryRow(ctx, queryFindActiveOTP, phone, int16(vt)))
	return out, err
}

func (s *DB) GetOTPByID(ctx context.Context, id int64) (_ *entity.OTP, err error) {
	ctx, span := startSpan(ctx, s.ins, "GetOTPByID")
	defer func() { endSpan(span, err) }()

	out, err := scanOTP(s.conn.QueryRow(ctx, queryGetOTPByID, id))
	return out, err
}
