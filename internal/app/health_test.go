package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	t.Run("healthy", func(t *testing.T) {
		resp, err := checkHealth(context.Background(), up, up)

		require.NoError(t, err)
		assert.Equal(t, healthResponse{Database: "up", Redis: "up"}, resp)
	})

	t.Run("redis down", func(t *testing.T) {
		resp, err := checkHealth(context.Background(), up, down)

		assert.Nil(t, resp)
		var ge *goerror.Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, goerror.CodeUnavailable, ge.Code())
		assert.Equal(t, map[string]any{"database": "up", "redis": "down"}, ge.Details())
	})
}
