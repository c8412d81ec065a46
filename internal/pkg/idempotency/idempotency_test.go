package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracker(t *testing.T) (*miniredis.Miniredis, *StateTracker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewWithPrefix(client, "otp:issue:")
}

func TestStateTracker_Exec(t *testing.T) {
	t.Run("runs once then rejects replays", func(t *testing.T) {
		mr, tracker := setupTracker(t)
		ctx := context.Background()
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		require.NoError(t, tracker.Exec(ctx, "k1", fn))
		assert.ErrorIs(t, tracker.Exec(ctx, "k1", fn), ErrAlreadyCompleted)
		assert.Equal(t, 1, calls)

		v, err := mr.Get("otp:issue:k1")
		require.NoError(t, err)
		assert.Equal(t, StateCompleted.String(), v)
	})

	t.Run("in progress", func(t *testing.T) {
		_, tracker := setupTracker(t)
		ctx := context.Background()

		state, err := tracker.Acquire(ctx, "k2", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, StateNone, state)

		err = tracker.Exec(ctx, "k2", func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})

	t.Run("failure is recorded", func(t *testing.T) {
		_, tracker := setupTracker(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := tracker.Exec(ctx, "k3", func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)

		err = tracker.Exec(ctx, "k3", func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrAlreadyFailed)
	})

	t.Run("failure releases the key", func(t *testing.T) {
		mr, tracker := setupTracker(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := tracker.Exec(ctx, "k4", func(context.Context) error { return boom }, WithReleaseOnError())
		assert.ErrorIs(t, err, boom)
		assert.False(t, mr.Exists("otp:issue:k4"))

		assert.NoError(t, tracker.Exec(ctx, "k4", func(context.Context) error { return nil }, WithReleaseOnError()))
	})

	t.Run("state expires", func(t *testing.T) {
		mr, tracker := setupTracker(t)
		ctx := context.Background()
		fn := func(context.Context) error { return nil }

		require.NoError(t, tracker.Exec(ctx, "k5", fn, WithStateTTL(time.Minute)))
		mr.FastForward(2 * time.Minute)
		assert.NoError(t, tracker.Exec(ctx, "k5", fn))
	})
}

func TestStateTracker_Acquire_InvalidState(t *testing.T) {
	mr, tracker := setupTracker(t)
	require.NoError(t, mr.Set("otp:issue:bad", "garbage"))

	state, err := tracker.Acquire(context.Background(), "bad", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateError, state)
}
