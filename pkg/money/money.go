// Package money holds monetary amounts as integer cents.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalid   = errors.New("importe inválido")
	ErrPrecision = errors.New("el importe admite como máximo 2 decimales")
	ErrRange     = errors.New("importe fuera de rango")
)

// Money is an amount in the smallest currency unit (cents).
type Money int64

// FromCents builds a Money from a cent count.
func FromCents(c int64) Money { return Money(c) }

// Parse reads a decimal string such as "5000", "5000.5" or "5000.50".
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts d to cents, rejecting sub-cent precision.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrPrecision
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrRange
	}
	return Money(cents.IntPart()), nil
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 { return int64(m) }

// Decimal returns the amount as a decimal with two fraction digits.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) Add(o Money) Money { return m + o }

func (m Money) Sub(o Money) Money { return m - o }

func (m Money) IsPositive() bool { return m > 0 }

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		u, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, s)
		}
		s = u
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
