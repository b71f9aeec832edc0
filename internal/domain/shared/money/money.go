package money

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidPercent   = errors.New("money: percent must be within 0..100")
)

// DefaultCurrency is used when a caller does not specify one.
const DefaultCurrency = "INR"

// Money keeps amounts in integer minor units (paise for INR) to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns an empty amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// Percent returns percent/100 of the amount, rounded half away from zero.
func (m Money) Percent(percent int64) (Money, error) {
	if percent < 0 || percent > 100 {
		return Money{}, ErrInvalidPercent
	}
	return m.Scale(float64(percent) / 100), nil
}

// Scale multiplies by a non-negative ratio and rounds to the nearest minor unit.
func (m Money) Scale(ratio float64) Money {
	if ratio <= 0 {
		return Money{Currency: m.Currency}
	}
	return Money{Amount: int64(math.Round(float64(m.Amount) * ratio)), Currency: m.Currency}
}

// Split divides the amount into a percent share and the remainder; both parts always sum to m.
func (m Money) Split(percent int64) (share Money, rest Money, err error) {
	share, err = m.Percent(percent)
	if err != nil {
		return Money{}, Money{}, err
	}
	rest = Money{Amount: m.Amount - share.Amount, Currency: m.Currency}
	return share, rest, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
