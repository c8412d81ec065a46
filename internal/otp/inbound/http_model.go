package inbound

import "time"

type SendRequest struct {
	PhoneNumber      string         `json:"phoneNumber"`
	VerificationType string         `json:"verificationType"`
	UserID           string         `json:"userId,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type SendResponse struct {
	OTPID     string    `json:"otpId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (SendResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	OTPCode          string `json:"otpCode"`
	VerificationType string `json:"verificationType"`
}

type VerifyResponse struct{}

func (VerifyResponse) Message() string {
	return "OTP verified successfully"
}
