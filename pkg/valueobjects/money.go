// Package valueobjects holds small immutable domain values.
package valueobjects

import (
	"fmt"
	"strings"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/shopspring/decimal"
)

// Currency represents a valid ISO 4217 currency code
type Currency string

// Supported currencies
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

var validCurrencies = map[Currency]bool{
	USD: true,
	EUR: true,
	GBP: true,
}

// minorUnitExponent is the number of decimal places of the minor unit.
// All supported currencies use 2 (cents, pence).
const minorUnitExponent = 2

// Money is a monetary value held as integer minor units (cents) so
// ledger arithmetic never loses precision to floating point.
type Money struct {
	minorUnits int64
	currency   Currency
}

// NewMoney creates a Money from integer minor units with validation.
func NewMoney(minorUnits int64, currency Currency) (*Money, error) {
	if !isValidCurrency(currency) {
		return nil, errors.ValidationFailed(
			ErrInvalidCurrency,
			fmt.Sprintf("currency %s is not supported", currency),
		)
	}
	if minorUnits < 0 {
		return nil, errors.ValidationFailed(
			ErrInvalidAmount,
			"amount cannot be negative",
		)
	}
	return &Money{minorUnits: minorUnits, currency: currency}, nil
}

// NewMoneyFromString parses a major-unit decimal string ("42.00") into
// Money. Amounts with sub-minor-unit precision are rejected.
func NewMoneyFromString(amount string, currency string) (*Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.ValidationFailed(ErrInvalidAmount, err.Error())
	}
	if d.Exponent() < -minorUnitExponent {
		return nil, errors.ValidationFailed(
			ErrInvalidAmount,
			fmt.Sprintf("amount cannot have more than %d decimal places", minorUnitExponent),
		)
	}
	units := d.Shift(minorUnitExponent)
	if !units.Equal(units.Truncate(0)) {
		return nil, errors.ValidationFailed(
			ErrInvalidAmount,
			"amount does not align to a whole number of minor units",
		)
	}
	return NewMoney(units.IntPart(), Currency(strings.ToUpper(currency)))
}

// MinorUnits returns the amount in minor currency units.
func (m Money) MinorUnits() int64 {
	return m.minorUnits
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the amount in major units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minorUnits, -minorUnitExponent)
}

// Add adds two monetary values of the same currency
func (m Money) Add(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, errors.ValidationFailed(
			ErrCurrencyMismatch,
			fmt.Sprintf("cannot add %s to %s", other.currency, m.currency),
		)
	}
	return &Money{minorUnits: m.minorUnits + other.minorUnits, currency: m.currency}, nil
}

// Subtract subtracts two monetary values of the same currency
func (m Money) Subtract(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, errors.ValidationFailed(
			ErrCurrencyMismatch,
			fmt.Sprintf("cannot subtract %s from %s", other.currency, m.currency),
		)
	}
	if other.minorUnits > m.minorUnits {
		return nil, errors.ValidationFailed(
			"invalid operation",
			"subtraction would result in negative amount",
		)
	}
	return &Money{minorUnits: m.minorUnits - other.minorUnits, currency: m.currency}, nil
}

// Split divides the amount into n parts whose sum equals the original
// exactly. The first (amount mod n) parts receive one extra minor unit.
func (m Money) Split(n int) ([]*Money, error) {
	if n <= 0 {
		return nil, errors.ValidationFailed(
			"invalid split",
			"number of parts must be positive",
		)
	}

	base := m.minorUnits / int64(n)
	remainder := m.minorUnits % int64(n)

	result := make([]*Money, n)
	for i := 0; i < n; i++ {
		part := base
		if int64(i) < remainder {
			part++
		}
		result[i] = &Money{minorUnits: part, currency: m.currency}
	}
	return result, nil
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.minorUnits == 0
}

// IsPositive checks if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.minorUnits > 0
}

// Equals checks if two monetary values are equal
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.minorUnits == other.minorUnits
}

// Compare returns -1, 0, or 1 comparing m against other.
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, errors.ValidationFailed(
			ErrCurrencyMismatch,
			fmt.Sprintf("cannot compare %s with %s", m.currency, other.currency),
		)
	}
	switch {
	case m.minorUnits < other.minorUnits:
		return -1, nil
	case m.minorUnits > other.minorUnits:
		return 1, nil
	default:
		return 0, nil
	}
}

// String returns the major-unit representation, e.g. "42.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(minorUnitExponent), m.currency)
}

func isValidCurrency(currency Currency) bool {
	return validCurrencies[currency]
}

const (
	ErrInvalidAmount    = "INVALID_AMOUNT"
	ErrInvalidCurrency  = "INVALID_CURRENCY"
	ErrCurrencyMismatch = "CURRENCY_MISMATCH"
)
