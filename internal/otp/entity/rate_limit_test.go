package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitCounter_Next(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	policy := RateLimitPolicy{Window: time.Hour, MaxRequests: 3}

	tests := []struct {
		name      string
		counter   RateLimitCounter
		now       time.Time
		wantCount int
		wantStart time.Time
		want      RateLimitDecision
	}{
		{
			name:      "empty counter starts a window",
			counter:   RateLimitCounter{PhoneNumber: "+251911223344"},
			now:       start,
			wantCount: 1,
			wantStart: start,
			want:      RateLimitDecision{Allowed: true},
		},
		{
			name:      "below max increments",
			counter:   RateLimitCounter{WindowStart: start, RequestCount: 2, LastRequestAt: start},
			now:       start.Add(10 * time.Minute),
			wantCount: 3,
			wantStart: start,
			want:      RateLimitDecision{Allowed: true},
		},
		{
			name:      "at max is limited until window end",
			counter:   RateLimitCounter{WindowStart: start, RequestCount: 3, LastRequestAt: start},
			now:       start.Add(59*time.Minute + 30*time.Second + 500*time.Millisecond),
			wantCount: 3,
			wantStart: start,
			want:      RateLimitDecision{WaitSeconds: 30},
		},
		{
			name:      "elapsed window resets",
			counter:   RateLimitCounter{WindowStart: start, RequestCount: 3, LastRequestAt: start},
			now:       start.Add(time.Hour),
			wantCount: 1,
			wantStart: start.Add(time.Hour),
			want:      RateLimitDecision{Allowed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, got := tt.counter.Next(tt.now, policy)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, next.RequestCount)
			assert.True(t, tt.wantStart.Equal(next.WindowStart))
		})
	}
}

func TestRateLimitCounter_Next_WaitIsAtLeastOneSecond(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := RateLimitCounter{WindowStart: start, RequestCount: 1}

	_, got := c.Next(start.Add(time.Minute-time.Millisecond), RateLimitPolicy{Window: time.Minute, MaxRequests: 1})

	assert.Equal(t, RateLimitDecision{WaitSeconds: 1}, got)
}

func TestParseVerificationType(t *testing.T) {
	for raw, want := range map[string]VerificationType{
		"registration":       VerificationTypeRegistration,
		"REGISTRATION":       VerificationTypeRegistration,
		"password_reset":     VerificationTypePasswordReset,
		"Password-Reset":     VerificationTypePasswordReset,
		"phone_verification": VerificationTypePhoneVerification,
	} {
		got, err := ParseVerificationType(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
		assert.False(t, got.IsUnknown())
	}

	got, err := ParseVerificationType("email")
	assert.ErrorIs(t, err, ErrVerificationTypeUnknown)
	assert.True(t, got.IsUnknown())
}

func TestOTP_State(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	o := &OTP{ExpiresAt: now, Attempts: 3, MaxAttempts: 3}

	assert.False(t, o.IsExpired(now))
	assert.True(t, o.IsExpired(now.Add(time.Nanosecond)))
	assert.True(t, o.IsExhausted())
	assert.Equal(t, 0, o.RemainingAttempts())
}
