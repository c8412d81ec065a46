package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("otpgate"),
		postgres.WithUsername("otpgate"),
		postgres.WithPassword("otpgate"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func newRecord(id int64, createdAt time.Time) entity.OTP {
	return entity.OTP{
		ID:               id,
		PhoneNumber:      "+251911223344",
		VerificationType: entity.VerificationTypeRegistration,
		CodeCiphertext:   []byte{0x01, 0x02},
		CodeNonce:        make([]byte, 12),
		Metadata:         valueobject.JSONMap{"source": "test"},
		ExpiresAt:        createdAt.Add(5 * time.Minute),
		MaxAttempts:      3,
		CreatedAt:        createdAt,
	}
}

func TestDB_OTPLifecycle(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewDB(pool, instrument.NewNoop())
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, repo.CreateOTP(ctx, newRecord(1, now.Add(-time.Minute))))
	require.NoError(t, repo.CreateOTP(ctx, newRecord(2, now)))

	t.Run("most recent unused wins", func(t *testing.T) {
		got, err := repo.FindActiveOTP(ctx, "+251911223344", entity.VerificationTypeRegistration)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ID)
		assert.Equal(t, "test", got.Metadata.GetString("source"))
		assert.Empty(t, got.UserID)
		assert.Nil(t, got.VerifiedAt)
	})

	t.Run("other purpose is not found", func(t *testing.T) {
		_, err := repo.FindActiveOTP(ctx, "+251911223344", entity.VerificationTypePasswordReset)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("no attempt past expiry", func(t *testing.T) {
		_, err := repo.IncrementOTPAttempts(ctx, 2, now.Add(5*time.Minute+time.Second))
		assert.ErrorIs(t, err, goerror.ErrConflict)

		got, err := repo.GetOTPByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Attempts)
	})

	t.Run("attempts stop at max", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			got, err := repo.IncrementOTPAttempts(ctx, 2, now)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		_, err := repo.IncrementOTPAttempts(ctx, 2, now)
		assert.ErrorIs(t, err, goerror.ErrConflict)
	})

	t.Run("mark used once", func(t *testing.T) {
		spent, err := repo.IncrementOTPAttempts(ctx, 1, now)
		require.NoError(t, err)
		require.Equal(t, 1, spent)

		ok, err := repo.MarkOTPUsed(ctx, 1, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkOTPUsed(ctx, 1, now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetOTPByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.IsUsed)
		assert.Equal(t, 0, got.Attempts)
		require.NotNil(t, got.VerifiedAt)
		assert.True(t, now.Equal(*got.VerifiedAt))

		_, err = repo.IncrementOTPAttempts(ctx, 1, now)
		assert.ErrorIs(t, err, goerror.ErrConflict)
	})
}

func TestRateLimiter_ConcurrentCallers(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	limiter := NewRateLimiter(pool, entity.RateLimitPolicy{Window: time.Hour, MaxRequests: 3}, instrument.NewNoop())
	now := time.Now().UTC()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 10 {
		wg.Go(func() {
			d, err := limiter.CheckAndRecord(ctx, "+251911223344", now)
			assert.NoError(t, err)
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 3, allowed)

	d, err := limiter.CheckAndRecord(ctx, "+251911223344", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
