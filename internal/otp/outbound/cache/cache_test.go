package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, policy entity.RateLimitPolicy) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimiter(client, hash.NewHMACSHA256([]byte("test-secret")), policy, instrument.NewNoop()), mr
}

func TestRateLimiter_CheckAndRecord(t *testing.T) {
	// Arrange
	limiter, _ := newLimiter(t, entity.RateLimitPolicy{Window: time.Hour, MaxRequests: 3})
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	// Act + Assert
	for i := range 3 {
		d, err := limiter.CheckAndRecord(ctx, "+251911223344", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
	}

	d, err := limiter.CheckAndRecord(ctx, "+251911223344", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1800, d.WaitSeconds)

	other, err := limiter.CheckAndRecord(ctx, "+251922334455", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	d, err = limiter.CheckAndRecord(ctx, "+251911223344", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiter_KeyHidesPhone(t *testing.T) {
	limiter, mr := newLimiter(t, entity.RateLimitPolicy{Window: time.Minute, MaxRequests: 1})

	_, err := limiter.CheckAndRecord(context.Background(), "+251911223344", time.Now())
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], keyPrefix))
	assert.NotContains(t, keys[0], "251911223344")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestRateLimiter_StoreFailure(t *testing.T) {
	limiter, mr := newLimiter(t, entity.RateLimitPolicy{Window: time.Minute, MaxRequests: 1})
	mr.Close()

	_, err := limiter.CheckAndRecord(context.Background(), "+251911223344", time.Now())

	assert.Error(t, err)
}
