// Package core provides money parsing and handling utilities.
//
// Amounts are decimal values. Sums are exact; rounding to cents happens only
// when a value is presented.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency-agnostic decimal amount.
type Money struct {
	decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Zero is the additive identity.
var Zero = Money{Decimal: decimal.Zero}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromCents builds an amount from integer cents.
func MoneyFromCents(cents int64) Money {
	return Money{Decimal: decimal.New(cents, -2)}
}

// MustMoney parses s and panics on error. Intended for fixtures.
func MustMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. No
// precision is dropped: "12.345" stays 12.345 until it is presented.
// Anything but a positive number yields ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	m := Money{Decimal: d}
	if err := m.Validate(); err != nil {
		return Zero, err
	}
	return m, nil
}

func (m Money) Validate() error {
	if !m.Decimal.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Decimal: m.Decimal.Add(o.Decimal)} }

func (m Money) Sub(o Money) Money { return Money{Decimal: m.Decimal.Sub(o.Decimal)} }

func (m Money) Neg() Money { return Money{Decimal: m.Decimal.Neg()} }

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// Round returns the amount rounded half up to 2 decimals. Halves go toward
// positive infinity, so -1.995 becomes -1.99.
func (m Money) Round() Money {
	return Money{Decimal: roundHalfUp(m.Decimal, 2)}
}

func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Add(decimal.New(5, -(places + 1))).RoundFloor(places)
}

// Cents returns the rounded amount in integer cents.
func (m Money) Cents() int64 {
	return roundHalfUp(m.Decimal.Mul(hundred), 0).IntPart()
}

// Float returns the rounded value as a float64 for charts and JSON output.
// Use the decimal for calculations.
func (m Money) Float() float64 {
	f, _ := roundHalfUp(m.Decimal, 2).Float64()
	return f
}

// PercentChange returns (m - prev) / prev * 100. A zero previous amount yields
// zero change.
func (m Money) PercentChange(prev Money) decimal.Decimal {
	if prev.Decimal.IsZero() {
		return decimal.Zero
	}
	return m.Decimal.Sub(prev.Decimal).Div(prev.Decimal).Mul(hundred)
}

// RatePercent returns m / of * 100 rounded to an integer, or 0 when of is not positive.
func (m Money) RatePercent(of Money) int64 {
	if !of.Decimal.IsPositive() {
		return 0
	}
	return roundHalfUp(m.Decimal.Div(of.Decimal).Mul(hundred), 0).IntPart()
}

// String renders the rounded amount with two decimals ("12.30").
func (m Money) String() string {
	return roundHalfUp(m.Decimal, 2).StringFixed(2)
}

// FormatEUR renders the amount in de-DE style: "1.234,56\u00a0€", with a
// no-break space before the sign.
func (m Money) FormatEUR() string {
	r := roundHalfUp(m.Decimal, 2)
	neg := r.IsNegative()
	if neg {
		r = r.Neg()
	}
	s := r.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := b.String() + "," + frac + "\u00a0€"
	if neg {
		return "-" + out
	}
	return out
}

// MarshalJSON emits the rounded value as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	m.Decimal = d
	return nil
}
