package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value, accepting only ISO 4217 currency codes.
func New(amount int64, code string) (Money, error) {
	normalized, err := NormalizeCurrency(code)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: normalized}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NormalizeCurrency validates an ISO 4217 code and returns its canonical upper-case form.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	return unit.String(), nil
}

// MinorDigits reports how many decimal digits the currency's minor unit has.
// Unknown codes fall back to two digits.
func MinorDigits(code string) int {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// FormatMinor renders an amount of minor units as "12.50 EUR".
func FormatMinor(amount int64, code string) string {
	digits := int32(MinorDigits(code))
	text := decimal.New(amount, -digits).StringFixed(digits)
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return text
	}
	return text + " " + code
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

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return FormatMinor(m.Amount, m.Currency)
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
