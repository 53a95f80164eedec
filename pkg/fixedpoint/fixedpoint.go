// Package fixedpoint implements the codec between the venue's decimal-string
// wire format and the 128-bit-range scaled integers the trusted core uses
// for all price/quantity arithmetic.
package fixedpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point factor: an internal value of Scale equals 1.0 on
// the wire.
const Scale = 1_000_000_000_000_000_000 // 10^18

// FixedPointError is returned by Parse for any malformed or out-of-range
// decimal string. The arithmetic helpers report overflow as a bool instead.
var FixedPointError = errors.New("fixedpoint: conversion error")

// maxU128 is 2^128 - 1. Amounts never exceed it; the type is backed by a
// 256-bit integer because Go has no native 128-bit integer, and
// github.com/holiman/uint256 already ships with the go-ethereum stack.
var maxU128 = func() *uint256.Int {
	n := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return n.SubUint64(n, 1)
}()

var scaleInt = uint256.NewInt(Scale)

// Amount is a 128-bit-range scaled integer. The zero value is zero.
type Amount struct {
	v uint256.Int
}

// Zero returns the zero amount.
func Zero() Amount { return Amount{} }

// GobEncode/GobDecode let Amount round-trip through encoding/gob (the
// persisted-snapshot codec) without exposing the underlying uint256
// limbs; the wire shape is the fixed 32-byte big-endian encoding
// uint256.Int already uses for RLP.
func (a Amount) GobEncode() ([]byte, error) {
	b := a.v.Bytes32()
	return b[:], nil
}

func (a *Amount) GobDecode(data []byte) error {
	a.v.SetBytes32(data)
	return nil
}

// FromUint64 builds an Amount from an already-scaled integer value.
func FromUint64(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// fromU256 wraps a uint256.Int after range-checking it fits in 128 bits.
func fromU256(n *uint256.Int) (Amount, error) {
	if n.Cmp(maxU128) > 0 {
		return Amount{}, fmt.Errorf("%w: value exceeds 128-bit range", FixedPointError)
	}
	return Amount{v: *n}, nil
}

// Parse accepts "[digits][.[digits]]" with at most 18 fractional digits, no
// sign and no scientific notation.
func Parse(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty input", FixedPointError)
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return Amount{}, fmt.Errorf("%w: multiple decimal points in %q", FixedPointError, s)
	}
	if hasDot && fracPart == "" {
		return Amount{}, fmt.Errorf("%w: trailing decimal point in %q", FixedPointError, s)
	}
	if intPart == "" {
		return Amount{}, fmt.Errorf("%w: missing integer part in %q", FixedPointError, s)
	}
	if len(fracPart) > 18 {
		return Amount{}, fmt.Errorf("%w: more than 18 fractional digits in %q", FixedPointError, s)
	}
	if !onlyDigits(intPart) || !onlyDigits(fracPart) {
		return Amount{}, fmt.Errorf("%w: non-digit character in %q", FixedPointError, s)
	}

	intVal, err := uint256.FromDecimal(intPart)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", FixedPointError, err)
	}

	scaled, overflow := new(uint256.Int).MulOverflow(intVal, scaleInt)
	if overflow {
		return Amount{}, fmt.Errorf("%w: integer part overflows scale", FixedPointError)
	}

	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", 18-len(fracPart))
		fracVal, err := uint256.FromDecimal(padded)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %v", FixedPointError, err)
		}
		var overflow bool
		scaled, overflow = new(uint256.Int).AddOverflow(scaled, fracVal)
		if overflow {
			return Amount{}, fmt.Errorf("%w: value overflows 256 bits", FixedPointError)
		}
	}

	return fromU256(scaled)
}

func onlyDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Format renders the amount as "integer.fraction", truncating trailing
// zeros of the fraction down to a four-digit minimum, and "<n>.0" when the
// fraction is exactly zero.
func Format(a Amount) string {
	intPart, frac := new(uint256.Int).DivMod(&a.v, scaleInt, new(uint256.Int))
	if frac.IsZero() {
		return intPart.Dec() + ".0"
	}

	fracStr := frac.Dec()
	fracStr = strings.Repeat("0", 18-len(fracStr)) + fracStr

	end := len(fracStr)
	for end > 4 && fracStr[end-1] == '0' {
		end--
	}
	return intPart.Dec() + "." + fracStr[:end]
}

// Add returns a+b and whether the result overflowed (caller decides the
// resulting error, per the call site's error taxonomy).
func Add(a, b Amount) (Amount, bool) {
	sum, overflow := new(uint256.Int).AddOverflow(&a.v, &b.v)
	if overflow || sum.Cmp(maxU128) > 0 {
		return Amount{}, false
	}
	return Amount{v: *sum}, true
}

// SaturatingAdd returns a+b, clamped to the maximum representable value
// instead of overflowing.
func SaturatingAdd(a, b Amount) Amount {
	sum, ok := Add(a, b)
	if !ok {
		return Amount{v: *maxU128}
	}
	return sum
}

// Sub returns a-b and whether b<=a (false means underflow, nothing is
// returned usable).
func Sub(a, b Amount) (Amount, bool) {
	if a.v.Cmp(&b.v) < 0 {
		return Amount{}, false
	}
	diff := new(uint256.Int).Sub(&a.v, &b.v)
	return Amount{v: *diff}, true
}

// Mul returns a*b (unscaled integer multiply; callers computing price*qty
// in fixed-point terms want MulDiv instead) and whether it overflowed the
// 128-bit range.
func Mul(a, b Amount) (Amount, bool) {
	product, overflow := new(uint256.Int).MulOverflow(&a.v, &b.v)
	if overflow || product.Cmp(maxU128) > 0 {
		return Amount{}, false
	}
	return Amount{v: *product}, true
}

// MulDiv computes a*b/Scale (the common "price times quantity" case where
// both operands are already scaled by Scale). The intermediate product may
// use the full 256 bits; only the final quotient is checked against the
// 128-bit range.
func MulDiv(a, b Amount) (Amount, bool) {
	wide, overflow := new(uint256.Int).MulOverflow(&a.v, &b.v)
	if overflow {
		return Amount{}, false
	}
	result := new(uint256.Int).Div(wide, scaleInt)
	if result.Cmp(maxU128) > 0 {
		return Amount{}, false
	}
	return Amount{v: *result}, true
}

// Cmp compares two amounts: -1, 0, 1.
func Cmp(a, b Amount) int { return a.v.Cmp(&b.v) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// String implements fmt.Stringer using Format.
func (a Amount) String() string { return Format(a) }
