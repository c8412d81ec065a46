package db

const otpColumns = `id, phone_number, verification_type, code_ciphertext, code_nonce, user_id,
	metadata, expires_at, attempts, max_attempts, is_used, verified_at, created_at`

const queryCreateOTP = `INSERT INTO otp_records (
	id, phone_number, verification_type, code_ciphertext, code_nonce, user_id,
	metadata, expires_at, attempts, max_attempts, is_used, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11)`

const queryFindActiveOTP = `SELECT ` + otpColumns + `
FROM otp_records
WHERE phone_number = $1 AND verification_type = $2 AND is_used = FALSE
ORDER BY created_at DESC, id DESC
LIMIT 1`

const queryGetOTPByID = `SELECT ` + otpColumns + `
FROM otp_records
WHERE id = $1`

const queryIncrementOTPAttempts = `UPDATE otp_records
SET attempts = attempts + 1
WHERE id = $1 AND is_used = FALSE AND attempts < max_attempts AND expires_at >= $2
RETURNING attempts`

// the attempt reserved by the matching comparison is given back on success
const queryMarkOTPUsed = `UPDATE otp_records
SET is_used = TRUE, verified_at = $2, attempts = GREATEST(attempts - 1, 0)
WHERE id = $1 AND is_used = FALSE`

const queryEnsureRateLimit = `INSERT INTO otp_rate_limits (phone_number, window_start, request_count, last_request_at)
VALUES ($1, $2, 0, $2)
ON CONFLICT (phone_number) DO NOTHING`

const queryLockRateLimit = `SELECT window_start, request_count, last_request_at
FROM otp_rate_limits
WHERE phone_number = $1
FOR UPDATE`

const queryUpdateRateLimit = `UPDATE otp_rate_limits
SET window_start = $2, request_count = $3, last_request_at = $4
WHERE phone_number = $1`
