package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_MasksAndCorrelates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "otpgate", "info", nil, []string{"otpCode", "authorization"}))

	ctx := SetCorrelationID(context.Background(), "cid-123")
	logger.InfoContext(ctx, "request",
		"otp_code", "123456",
		"body", `{"phoneNumber":"+251911223344","otpCode":"654321"}`,
		"headers", map[string]string{"Authorization": "Bearer x"},
		"phone", "+251911223344",
		"event", map[string]any{"phoneNumber": "+251922334455", "message": "ok"},
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "***", line["otp_code"])
	assert.NotContains(t, buf.String(), "123456")
	assert.NotContains(t, buf.String(), "654321")
	assert.NotContains(t, buf.String(), "Bearer x")
	assert.Equal(t, "***3344", line["phone"])
	assert.Equal(t, map[string]any{"phoneNumber": "***4455", "message": "ok"}, line["event"])
	assert.NotContains(t, buf.String(), "+251911223344")
	assert.Equal(t, "cid-123", line["correlation_id"])
	assert.Equal(t, "otpgate", line["service"])
	assert.Equal(t, "INFO", line["severity"])
}

func TestLogging_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "", "warn", nil, nil))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), `"service"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(ctx, "abc")))
}

func TestNew_Disabled(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	inst, err := New(context.Background(), &Config{Enabled: false, ServiceName: "otpgate"})
	require.NoError(t, err)
	assert.NotNil(t, inst.Tracer("x"))
	assert.NotNil(t, inst.Meter("x"))
	assert.NoError(t, inst.Shutdown(context.Background()))
}
