package inbound

import (
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes OTP issuance and verification over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// parseType maps an unknown wire value to VerificationTypeUnknown, which the
// usecase validation reports as a field error.
func parseType(raw string) entity.VerificationType {
	vt, _ := entity.ParseVerificationType(raw) //nolint:errcheck // unknown is validated downstream
	return vt
}

// Send issues a new OTP and sends it by SMS.
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		PhoneNumber:      req.PhoneNumber,
		VerificationType: parseType(req.VerificationType),
		UserID:           req.UserID,
		Metadata:         req.Metadata,
		IdempotencyKey:   r.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	// ids are sent as strings; snowflake values exceed the JSON safe integer range
	return SendResponse{
		OTPID:     strconv.FormatInt(resp.ID, 10),
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// Verify checks a submitted OTP code.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if _, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		PhoneNumber:      req.PhoneNumber,
		OTPCode:          req.OTPCode,
		VerificationType: parseType(req.VerificationType),
	}); err != nil {
		return nil, err
	}

	return VerifyResponse{}, nil
}
