// Package money formats statement amounts with ISO-4217 currency rules.
// Amounts are carried as integer minor units through go-money.
package money

import (
	"encoding/json"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	BRL = "BRL" // Brazilian Real
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
)

// DefaultCurrency is used for statements that do not state a currency.
const DefaultCurrency = BRL

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a new Money value from cents (minor units) and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromDecimal converts a decimal amount to minor units, rounding half away
// from zero. Unknown currency codes use two fraction digits.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	fraction := 2
	if c := money.GetCurrency(currencyCode); c != nil {
		fraction = c.Fraction
	}
	cents := amount.Shift(int32(fraction)).Round(0).IntPart()
	return New(cents, currencyCode)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Sum adds decimal amounts in one currency.
func Sum(amounts []decimal.Decimal, currencyCode string) *Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return NewFromDecimal(total, currencyCode)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Absolute()}
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: result}, nil
}

// Display returns a formatted string for display (e.g., "R$1.234,56")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the amount as a decimal string (e.g., "1234.56")
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(int32(m.fraction()))
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.fraction()))
}

func (m *Money) fraction() int {
	if m == nil || m.m == nil {
		return 2
	}
	return m.m.Currency().Fraction
}

// MarshalJSON renders {"amount": "...", "currency": "...", "display": "..."}.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.String(), m.Currency(), m.Display()})
}
