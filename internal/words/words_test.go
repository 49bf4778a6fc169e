package words

import (
	"testing"

	"ms-backoffice/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWords(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "Zero Rupees Only"},
		{"0.00", "Zero Rupees Only"},
		{"1500.50", "One Thousand Five Hundred Rupees and Fifty Paise Only"},
		{"5000", "Five Thousand Rupees Only"},
		{"19", "Nineteen Rupees Only"},
		{"21", "Twenty One Rupees Only"},
		{"100", "One Hundred Rupees Only"},
		{"101", "One Hundred One Rupees Only"},
		{"99999", "Ninety Nine Thousand Nine Hundred Ninety Nine Rupees Only"},
		{"100000", "One Lakh Rupees Only"},
		{"250075.05", "Two Lakh Fifty Thousand Seventy Five Rupees and Five Paise Only"},
		{"10000000", "One Crore Rupees Only"},
		{"1000000000", "One Hundred Crore Rupees Only"},
		{"12345678.9", "One Crore Twenty Three Lakh Forty Five Thousand Six Hundred Seventy Eight Rupees and Ninety Paise Only"},
		{"0.01", "Zero Rupees and One Paise Only"},
	}
	for _, c := range cases {
		t.Run(c.amount, func(t *testing.T) {
			got, err := ToWords(decimal.RequireFromString(c.amount))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestToWordsPaiseRounding(t *testing.T) {
	got, err := ToWords(decimal.RequireFromString("10.125"))
	require.NoError(t, err)
	assert.Equal(t, "Ten Rupees and Thirteen Paise Only", got)

	got, err = ToWords(decimal.RequireFromString("10.999"))
	require.NoError(t, err)
	assert.Equal(t, "Eleven Rupees Only", got)
}

func TestToWordsBeyondInt64(t *testing.T) {
	got, err := ToWords(decimal.RequireFromString("100000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "Ten Lakh Crore Crore Rupees Only", got)
}

func TestToWordsRejectsNegative(t *testing.T) {
	_, err := ToWords(decimal.NewFromInt(-5))
	assert.True(t, apperr.IsValidation(err))
}

func TestFromString(t *testing.T) {
	got, err := FromString(" 1500.50 ")
	require.NoError(t, err)
	assert.Equal(t, "One Thousand Five Hundred Rupees and Fifty Paise Only", got)

	_, err = FromString("abc")
	assert.True(t, apperr.IsValidation(err))
}
