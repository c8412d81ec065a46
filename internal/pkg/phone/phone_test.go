package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Equivalence(t *testing.T) {
	inputs := []string{
		"0911223344",
		"251911223344",
		"+251911223344",
		"+251 91 122 3344",
		"(+251) 911-223-344",
		"00251911223344",
		"911223344",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, "+251911223344", got)
		})
	}
}

func TestNormalize_SafaricomRange(t *testing.T) {
	cases := map[string]string{
		"0700123456":       "+251700123456",
		"0710123456":       "+251710123456",
		"+251711223344":    "+251711223344",
		"251791234567":     "+251791234567",
		"+251 79 123 4567": "+251791234567",
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := Normalize(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, err := Normalize("0912345678")
	require.NoError(t, err)

	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		"091122334",      // too short
		"09112233445",    // too long
		"0111223344",     // landline leading digit
		"0811223344",     // unassigned leading digit
		"+254711223344",  // other country
		"2519112233",     // truncated
		"+2510911223344", // trunk after country code
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***3344", Mask("+251911223344"))
	assert.Equal(t, "****", Mask("123"))
}
