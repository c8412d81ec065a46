// Package aead seals short secrets (one-time codes) with AES-256-GCM.
//
// Each Seal draws a fresh random nonce that the caller stores next to the
// ciphertext. The ciphertext is bound to its owning record through Scope,
// which is authenticated as associated data, so a ciphertext copied onto a
// different record does not open.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/hkdf"
)

const (
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// MinSecretLen is the minimum accepted secret length in bytes.
	MinSecretLen = 32

	keyLen  = 32
	keyInfo = "otpgate/aead/aes-256-gcm/v1"
)

var (
	// ErrSecretTooShort indicates a secret below MinSecretLen.
	ErrSecretTooShort = errors.New("aead: secret too short")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("aead: plaintext is empty")
	// ErrDecryptFailed is returned for every open failure.
	ErrDecryptFailed = errors.New("aead: decrypt failed")
)

// Scope identifies the record a ciphertext belongs to.
type Scope struct {
	RecordID int64
	Phone    string
	Purpose  string
}

func (s Scope) aad() []byte {
	canonical := "id=" + strconv.FormatInt(s.RecordID, 10) + "\nphone=" + s.Phone + "\npurpose=" + s.Purpose + "\n"
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}

// Cipher seals and opens scoped secrets.
type Cipher interface {
	Seal(plaintext []byte, scope Scope) (ciphertext, nonce []byte, err error)
	Open(ciphertext, nonce []byte, scope Scope) ([]byte, error)
}

// key holds derived key material and never renders it.
type key []byte

// LogValue implements slog.LogValuer.
func (key) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }

// String implements fmt.Stringer.
func (key) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer.
func (key) GoString() string { return "[REDACTED]" }

// AESGCM implements Cipher.
type AESGCM struct {
	key  key
	gcm  cipher.AEAD
	rand io.Reader
}

// NewAESGCM derives the AES-256 key from secret with HKDF-SHA256 and
// prepares the AEAD. The secret is not retained.
func NewAESGCM(secret, salt []byte) (*AESGCM, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: %d bytes (want >= %d)", ErrSecretTooShort, len(secret), MinSecretLen)
	}

	k := make(key, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(keyInfo)), k); err != nil {
		return nil, fmt.Errorf("aead: key derivation failed: %w", err)
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aead: aes init failed: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("aead: gcm init failed: %w", err)
	}

	return &AESGCM{key: k, gcm: gcm, rand: rand.Reader}, nil
}

// Seal encrypts plaintext under a fresh nonce.
func (a *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, []byte, error) {
	if len(plaintext) == 0 {
		return nil, nil, ErrPlaintextEmpty
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(a.rand, nonce); err != nil {
		return nil, nil, fmt.Errorf("aead: nonce generation failed: %w", err)
	}

	return a.gcm.Seal(nil, nonce, plaintext, scope.aad()), nonce, nil
}

// Open decrypts ciphertext. Any failure, including a wrong scope, a tampered
// ciphertext or a malformed nonce, yields ErrDecryptFailed.
func (a *AESGCM) Open(ciphertext, nonce []byte, scope Scope) ([]byte, error) {
	if len(nonce) != NonceSize || len(ciphertext) < a.gcm.Overhead() {
		return nil, ErrDecryptFailed
	}

	plain, err := a.gcm.Open(nil, nonce, ciphertext, scope.aad())
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

// LogValue implements slog.LogValuer.
func (a *AESGCM) LogValue() slog.Value {
	return slog.GroupValue(slog.String("alg", "AES-256-GCM"), slog.Any("key", a.key))
}
