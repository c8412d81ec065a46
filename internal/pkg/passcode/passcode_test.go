package passcode

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumeric_Length(t *testing.T) {
	for _, l := range []int{0, 3, 11} {
		_, err := NewNumeric(l)
		assert.ErrorIs(t, err, ErrInvalidLength)
	}

	g, err := NewNumeric(6)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Length())
}

func TestNumeric_Generate_Format(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{4}$`)
	g, err := NewNumeric(4)
	require.NoError(t, err)

	for range 500 {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

// Digit frequencies across many codes must be consistent with a uniform
// distribution. 33.72 is the chi-square critical value for 9 degrees of
// freedom at p = 0.0001.
func TestNumeric_Generate_ChiSquare(t *testing.T) {
	const (
		codes    = 20000
		length   = 6
		critical = 33.72
	)

	g, err := NewNumeric(length)
	require.NoError(t, err)

	var all, leading [10]int
	for range codes {
		code, err := g.Generate()
		require.NoError(t, err)
		for i, c := range code {
			all[c-'0']++
			if i == 0 {
				leading[c-'0']++
			}
		}
	}

	assert.Less(t, chiSquare(all[:], codes*length), critical)
	assert.Less(t, chiSquare(leading[:], codes), critical)
	assert.Positive(t, leading[0], "leading zeros must be preserved")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNumeric_Generate_SourceError(t *testing.T) {
	g, err := NewNumeric(6, WithSource(failingReader{}))
	require.NoError(t, err)

	code, err := g.Generate()
	assert.Error(t, err)
	assert.Empty(t, code)
}

func chiSquare(observed []int, total int) float64 {
	expected := float64(total) / float64(len(observed))
	var sum float64
	for _, o := range observed {
		d := float64(o) - expected
		sum += d * d / expected
	}
	return sum
}
