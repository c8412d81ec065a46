package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
modules:
  otp:
    ttl_seconds: 300
    max_attempts: 3
    secret: c2VjcmV0
    sms_timeout_ms: 1500
  notification:
    consumer_names: "a, b,,c"
database:
  runtime_params: "application_name:otpgate, statement_timeout:5000"
app:
  debug: true
  rate: 0.5
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	assert.Equal(t, 5*time.Minute, cfg.GetSecond("modules.otp.ttl_seconds"))
	assert.Equal(t, 1500*time.Millisecond, cfg.GetMillisecond("modules.otp.sms_timeout_ms"))
	assert.Equal(t, 300*time.Minute, cfg.GetMinute("modules.otp.ttl_seconds"))
	assert.Equal(t, 3, cfg.GetInt("modules.otp.max_attempts"))
	assert.Equal(t, int64(3), cfg.GetInt64("modules.otp.max_attempts"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("modules.otp.secret"))
	assert.Equal(t, []string{"a", "b", "c"}, cfg.GetArray("modules.notification.consumer_names"))
	assert.Equal(t, map[string]string{"application_name": "otpgate", "statement_timeout": "5000"}, cfg.GetMap("database.runtime_params"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.InDelta(t, 0.5, cfg.GetFloat64("app.rate"), 0.0001)
	assert.True(t, cfg.IsSet("app.debug"))
	assert.False(t, cfg.IsSet("app.missing"))
	assert.Empty(t, cfg.GetArray("app.missing"))
	assert.Nil(t, cfg.GetBinary("app.rate"))
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("OTPGATE_MODULES_OTP_MAX_ATTEMPTS", "5")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetInt("modules.otp.max_attempts"))
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetInt("modules.otp.max_attempts"))

	_, err = NewViper(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewViperFromBytes_NoType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.Error(t, err)
}
