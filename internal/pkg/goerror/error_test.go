package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInternal, http.StatusInternalServerError},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTimeout, http.StatusRequestTimeout},
		{CodeExpired, http.StatusGone},
		{CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			var ge *Error
			require.ErrorAs(t, NewBusiness("x", tt.code), &ge)
			assert.Equal(t, tt.want, ge.StatusCode())
		})
	}
}

func TestNewBusiness_Options(t *testing.T) {
	cause := errors.New("rate limited")

	err := NewBusiness("Too many requests", CodeTooManyRequest, WithCause(cause), WithDetail("waitTime", 42))

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Too many requests", ge.Msg())
	assert.Equal(t, TypeBusiness, ge.Type())
	assert.Equal(t, map[string]any{"waitTime": 42}, ge.Details())

	details := ge.Details()
	details["waitTime"] = 0
	assert.Equal(t, 42, ge.Details()["waitTime"])
}

func TestNewServer_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewServer(cause)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Internal server error", ge.Msg())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ge.Details())
}

func TestNewInvalidInput(t *testing.T) {
	t.Run("fields", func(t *testing.T) {
		err := NewInvalidInput(nil, "phoneNumber", "invalid phone number format")

		var ge *Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, CodeInvalidInput, ge.Code())
		assert.Equal(t, map[string]string{"phoneNumber": "invalid phone number format"}, ge.Fields())
	})

	t.Run("odd pairs", func(t *testing.T) {
		var ge *Error
		require.ErrorAs(t, NewInvalidInput(nil, "phoneNumber"), &ge)
		assert.Equal(t, CodeInvalidFormat, ge.Code())
	})
}
