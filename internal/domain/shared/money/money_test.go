package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{72000, 7200},
		{5, 1},  // 0.5 cent rounds up
		{4, 0},  // 0.4 cent rounds down
		{15, 2}, // 1.5 -> 2
		{14, 1}, // 1.4 -> 1
		{-15, -2},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Must(tc.amount, "USD").Percent(10).Amount, "amount %d", tc.amount)
	}
}

func TestArithmetic(t *testing.T) {
	a := Must(1000, "usd")
	assert.Equal(t, "USD", a.Currency)

	sum, err := a.Add(Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount)

	_, err = a.Add(Must(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	diff, err := a.Sub(Must(3000, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), diff.ClampZero().Amount)

	assert.Equal(t, int64(400), a.Min(Must(400, "USD")).Amount)
	assert.Equal(t, int64(3000), a.Multiply(3).Amount)
	assert.Equal(t, "792.00 USD", Must(79200, "USD").String())
	assert.Equal(t, "-0.05 USD", Must(-5, "USD").String())
}

func TestNewValidatesCurrency(t *testing.T) {
	_, err := New(1, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}
