// Package money carries fixed-point monetary values and the small set of
// arithmetic rules shared by every derivation in the engine.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency tags every monetary amount. No implicit mixing is permitted;
// crossing currencies requires an explicit exchange rate.
type Currency string

const (
	VND Currency = "VND"
	USD Currency = "USD"
)

// ErrCurrencyMismatch indicates two amounts of different currencies were combined.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// Valid reports whether c is a supported currency code.
func (c Currency) Valid() bool {
	return c == VND || c == USD
}

// Epsilon is the settlement tolerance: a remaining balance at or below this
// threshold counts as fully settled.
var Epsilon = decimal.NewFromFloat(0.001)

// Amount pairs a decimal value with its currency.
type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

// New builds an Amount.
func New(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

// Add sums two amounts of the same currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}, nil
}

// Sub subtracts b from a, requiring matching currencies.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency}, nil
}

// Convert applies a USD→VND rate to a USD value.
func Convert(usd, rate decimal.Decimal) decimal.Decimal {
	return usd.Mul(rate)
}

// Percent returns amount × pct / 100.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}

// Settled reports whether a remaining balance is within the settlement epsilon.
func Settled(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(Epsilon)
}

// WithinEpsilon reports whether a and b differ by no more than the epsilon.
// Used by the cash-flow identity check, which tolerates rounding drift only.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}
