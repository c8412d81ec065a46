package entity

import (
	"math"
	"time"
)

// RateLimitPolicy bounds issuance per phone: at most MaxRequests within Window.
type RateLimitPolicy struct {
	Window      time.Duration
	MaxRequests int
}

// RateLimitCounter is the persisted fixed-window state for one phone.
type RateLimitCounter struct {
	PhoneNumber   string
	WindowStart   time.Time
	RequestCount  int
	LastRequestAt time.Time
}

// RateLimitDecision is Allowed, or Limited with the seconds until the window resets.
type RateLimitDecision struct {
	Allowed     bool
	WaitSeconds int
}

// Next applies one issuance request at now and returns the counter to persist.
// A Limited decision returns the counter unchanged.
func (c RateLimitCounter) Next(now time.Time, p RateLimitPolicy) (RateLimitCounter, RateLimitDecision) {
	windowEnd := c.WindowStart.Add(p.Window)

	if c.RequestCount <= 0 || c.WindowStart.IsZero() || !now.Before(windowEnd) {
		return RateLimitCounter{
			PhoneNumber:   c.PhoneNumber,
			WindowStart:   now,
			RequestCount:  1,
			LastRequestAt: now,
		}, RateLimitDecision{Allowed: true}
	}

	if c.RequestCount < p.MaxRequests {
		c.RequestCount++
		c.LastRequestAt = now
		return c, RateLimitDecision{Allowed: true}
	}

	wait := int(math.Ceil(windowEnd.Sub(now).Seconds()))
	return c, RateLimitDecision{WaitSeconds: max(wait, 1)}
}
