package aead

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = bytes.Repeat([]byte("k"), 32)

func newTestCipher(t *testing.T) *AESGCM {
	t.Helper()
	c, err := NewAESGCM(testSecret, nil)
	require.NoError(t, err)
	return c
}

func TestNewAESGCM_ShortSecret(t *testing.T) {
	_, err := NewAESGCM([]byte("short"), nil)
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestAESGCM_SealOpen(t *testing.T) {
	c := newTestCipher(t)
	scope := Scope{RecordID: 42, Phone: "+251911223344", Purpose: "registration"}

	ct, nonce, err := c.Seal([]byte("012345"), scope)
	require.NoError(t, err)
	assert.Len(t, nonce, NonceSize)
	assert.NotContains(t, string(ct), "012345")

	plain, err := c.Open(ct, nonce, scope)
	require.NoError(t, err)
	assert.Equal(t, "012345", string(plain))
}

func TestAESGCM_Seal_FreshNonce(t *testing.T) {
	c := newTestCipher(t)
	scope := Scope{RecordID: 1, Phone: "+251911223344", Purpose: "registration"}

	ct1, n1, err := c.Seal([]byte("1234"), scope)
	require.NoError(t, err)
	ct2, n2, err := c.Seal([]byte("1234"), scope)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, ct1, ct2)
}

func TestAESGCM_Seal_Empty(t *testing.T) {
	_, _, err := newTestCipher(t).Seal(nil, Scope{})
	assert.ErrorIs(t, err, ErrPlaintextEmpty)
}

func TestAESGCM_Open_FailsClosed(t *testing.T) {
	c := newTestCipher(t)
	scope := Scope{RecordID: 7, Phone: "+251911223344", Purpose: "password_reset"}
	ct, nonce, err := c.Seal([]byte("9876"), scope)
	require.NoError(t, err)

	tampered := bytes.Clone(ct)
	tampered[0] ^= 0xFF

	other, err := NewAESGCM(bytes.Repeat([]byte("x"), 32), nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cipher *AESGCM
		ct     []byte
		nonce  []byte
		scope  Scope
	}{
		{"other record", c, ct, nonce, Scope{RecordID: 8, Phone: scope.Phone, Purpose: scope.Purpose}},
		{"other phone", c, ct, nonce, Scope{RecordID: 7, Phone: "+251922334455", Purpose: scope.Purpose}},
		{"other purpose", c, ct, nonce, Scope{RecordID: 7, Phone: scope.Phone, Purpose: "registration"}},
		{"tampered", c, tampered, nonce, scope},
		{"short nonce", c, ct, nonce[:4], scope},
		{"short ciphertext", c, ct[:3], nonce, scope},
		{"other key", other, ct, nonce, scope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, err := tt.cipher.Open(tt.ct, tt.nonce, tt.scope)
			assert.ErrorIs(t, err, ErrDecryptFailed)
			assert.Nil(t, plain)
		})
	}
}

func TestAESGCM_NeverRendersKey(t *testing.T) {
	c := newTestCipher(t)

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("cipher", "cipher", c)

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), fmt.Sprintf("%x", []byte(c.key)))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", c.key))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", c.key))
}
