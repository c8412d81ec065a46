// Package passcode generates short numeric one-time codes.
package passcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	// MinLength is the shortest code Numeric accepts.
	MinLength = 4
	// MaxLength is the longest code Numeric accepts.
	MaxLength = 10

	digits = "0123456789"
)

// ErrInvalidLength is returned when the configured length is out of range.
var ErrInvalidLength = errors.New("passcode: invalid code length")

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes.
//
// Every digit is drawn independently and uniformly from a cryptographically
// secure source, so leading zeros are as likely as any other digit.
type Numeric struct {
	length int
	source io.Reader
}

// Option configures a Numeric generator.
type Option func(*Numeric)

// WithSource replaces crypto/rand.Reader.
func WithSource(r io.Reader) Option {
	return func(n *Numeric) { n.source = r }
}

// NewNumeric returns a generator of codes with the given length.
func NewNumeric(length int, opts ...Option) (*Numeric, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidLength, length, MinLength, MaxLength)
	}

	n := &Numeric{length: length, source: rand.Reader}
	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// Length returns the number of digits per code.
func (n *Numeric) Length() int {
	return n.length
}

// Generate returns a new code.
func (n *Numeric) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(n.length)

	bound := big.NewInt(int64(len(digits)))
	for range n.length {
		idx, err := rand.Int(n.source, bound)
		if err != nil {
			return "", fmt.Errorf("passcode: random source failed: %w", err)
		}
		sb.WriteByte(digits[idx.Int64()])
	}

	return sb.String(), nil
}
