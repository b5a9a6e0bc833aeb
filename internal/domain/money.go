package domain

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// ─── Amount ─────────────────────────────────────────────────────────────────
// Monetary and points values. Arithmetic runs at full decimal precision;
// formatting to two decimal places happens only at the JSON boundary, so
// repeated save/load cycles cannot accumulate rounding drift.

// Amount is a fixed-point decimal value.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount { return Amount{d: d} }

// AmountFromFloat converts a float (e.g. a config value) to an Amount.
func AmountFromFloat(f float64) Amount { return Amount{d: decimal.NewFromFloat(f)} }

// AmountFromInt converts an integer to an Amount.
func AmountFromInt(n int64) Amount { return Amount{d: decimal.NewFromInt(n)} }

// ParseAmountString parses a decimal string like "12.50".
func ParseAmountString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Mul(b Amount) Amount { return Amount{d: a.d.Mul(b.d)} }
func (a Amount) Div(b Amount) Amount { return Amount{d: a.d.Div(b.d)} }
func (a Amount) Neg() Amount         { return Amount{d: a.d.Neg()} }

// Cmp returns -1, 0 or 1 comparing a to b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }
func (a Amount) IsZero() bool        { return a.d.IsZero() }
func (a Amount) IsNegative() bool    { return a.d.IsNegative() }
func (a Amount) IsPositive() bool    { return a.d.IsPositive() }

// IsMultipleOf reports whether a is an exact multiple of unit.
func (a Amount) IsMultipleOf(unit Amount) bool {
	if unit.IsZero() {
		return false
	}
	return a.d.Mod(unit.d).IsZero()
}

// Float64 returns a best-effort float, for metrics only.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String formats with exactly two decimal places, e.g. "0.00".
func (a Amount) String() string { return a.d.StringFixed(2) }

// MarshalJSON encodes the amount as a quoted fixed-two-decimal string,
// matching the persisted file format.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts both quoted decimal strings ("12.50") and bare
// numbers (12.5), for compatibility with hand-written import files.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		a.d = decimal.Decimal{}
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("decode amount %s: %w", data, err)
	}
	a.d = d
	return nil
}
