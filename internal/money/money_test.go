package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsMixedCurrencies(t *testing.T) {
	a := New(decimal.NewFromInt(100), USD)
	b := New(decimal.NewFromInt(100), VND)

	_, err := a.Add(b)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := a.Add(New(decimal.NewFromInt(50), USD))
	require.NoError(t, err)
	require.True(t, sum.Value.Equal(decimal.NewFromInt(150)))
}

func TestConvertAndPercent(t *testing.T) {
	vnd := Convert(decimal.NewFromInt(100), decimal.NewFromInt(25000))
	require.True(t, vnd.Equal(decimal.NewFromInt(2500000)))

	vat := Percent(decimal.NewFromInt(2500000), decimal.NewFromInt(8))
	require.True(t, vat.Equal(decimal.NewFromInt(200000)))
}

func TestSettled(t *testing.T) {
	require.True(t, Settled(decimal.NewFromFloat(0.0005)))
	require.True(t, Settled(decimal.Zero))
	require.False(t, Settled(decimal.NewFromFloat(0.01)))
}

func TestWithinEpsilon(t *testing.T) {
	a := decimal.NewFromFloat(1000.0004)
	b := decimal.NewFromInt(1000)
	require.True(t, WithinEpsilon(a, b))
	require.False(t, WithinEpsilon(decimal.NewFromInt(1001), b))
}
