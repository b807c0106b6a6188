// Package core provides money parsing and handling utilities.
//
// This file contains the Amount type used for every currency value in the
// entity model, and the parser used for amounts typed by a person.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Amount is a currency value. It serializes as a bare JSON number so the
// persisted document keeps numeric money fields.
type Amount struct {
	dec decimal.Decimal
}

// NewAmount returns an Amount of whole currency units.
func NewAmount(units int64) Amount {
	return fromDecimal(decimal.NewFromInt(units))
}

// AmountFromDecimal wraps an existing decimal value.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return fromDecimal(d)
}

// fromDecimal keeps every zero as the zero Amount, so decoded zeros compare
// equal to unset fields.
func fromDecimal(d decimal.Decimal) Amount {
	if d.IsZero() {
		return Amount{}
	}
	return Amount{dec: d}
}

// ParseAmount converts a decimal string to an Amount rounded to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Negative values and signs are rejected;
// zero is allowed so that it can be used for salaries.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Amount{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Amount{}, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return Amount{}, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return fromDecimal(d.Round(2)), nil
}

func (a Amount) Add(b Amount) Amount { return fromDecimal(a.dec.Add(b.dec)) }
func (a Amount) Sub(b Amount) Amount { return fromDecimal(a.dec.Sub(b.dec)) }

// MulInt multiplies the amount by a whole count.
func (a Amount) MulInt(n int) Amount {
	return fromDecimal(a.dec.Mul(decimal.NewFromInt(int64(n))))
}

func (a Amount) IsZero() bool     { return a.dec.IsZero() }
func (a Amount) IsNegative() bool { return a.dec.IsNegative() }
func (a Amount) IsPositive() bool { return a.dec.IsPositive() }

// Equal compares numeric values, so 5 and 5.00 are equal.
func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }

func (a Amount) Cmp(b Amount) int { return a.dec.Cmp(b.dec) }

func (a Amount) Decimal() decimal.Decimal { return a.dec }

func (a Amount) String() string { return a.dec.String() }

// Float64 returns the value for display purposes such as spreadsheet cells.
// Use Amount arithmetic for calculations.
func (a Amount) Float64() float64 {
	return a.dec.InexactFloat64()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.dec.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = fromDecimal(d)
	return nil
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	d, err := decimal.NewFromString(strings.TrimSpace(value.Value))
	if err != nil {
		return err
	}
	*a = fromDecimal(d)
	return nil
}

// SumAmounts adds up the amounts selected from items.
func SumAmounts[T any](items []T, amount func(T) Amount) Amount {
	var total Amount
	for _, item := range items {
		total = total.Add(amount(item))
	}
	return total
}
