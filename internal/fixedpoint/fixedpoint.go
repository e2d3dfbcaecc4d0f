/*
This file contains the checked fixed-point primitives the pricing and fee code
is built on. Everything is an 18-decimal LegacyDec; every operation either
returns a value inside the representable range or a typed error. The SDK's
decimal type panics on overflow, so each primitive recovers that panic and
surfaces it as types.ErrOverflow instead.
*/

package fixedpoint

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// MaxValue is the largest magnitude the ledger admits for any value or share
// quantity. It is chosen so that squaring stays inside the decimal type's
// 315-bit range: MaxValue^2 == 1e76, below the ~6.6e76 hard ceiling.
var MaxValue = sdkmath.LegacyMustNewDecFromStr("100000000000000000000000000000000000000") // 1e38

// OneUnit is the smallest representable quantum, 1e-18.
var OneUnit = sdkmath.LegacyNewDecWithPrec(1, 18)

// Validate rejects nil and negative decimals before they reach arithmetic.
func Validate(v sdkmath.LegacyDec) error {
	if v.IsNil() {
		return fmt.Errorf("%w: nil decimal", types.ErrInvalidAmount)
	}
	if v.IsNegative() {
		return fmt.Errorf("%w: negative decimal %s", types.ErrInvalidAmount, v)
	}
	return nil
}

// InRange reports whether v is admissible, i.e. within [0, MaxValue].
func InRange(v sdkmath.LegacyDec) bool {
	return !v.IsNil() && !v.IsNegative() && v.LTE(MaxValue)
}

func guard(out *sdkmath.LegacyDec, err *error) {
	if r := recover(); r != nil {
		*out = sdkmath.LegacyDec{}
		*err = fmt.Errorf("%w: %v", types.ErrOverflow, r)
	}
}

// Mul multiplies with banker-free truncation toward zero.
func Mul(a, b sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	defer guard(&out, &err)
	out = a.MulTruncate(b)
	if out.GT(MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s * %s", types.ErrOverflow, a, b)
	}
	return out, nil
}

// Quo divides rounding down. Division by zero is an invalid amount, not an
// overflow: it means a caller passed a degenerate pool state.
func Quo(a, b sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	if b.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: division by zero", types.ErrInvalidAmount)
	}
	defer guard(&out, &err)
	out = a.QuoTruncate(b)
	if out.GT(MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s / %s", types.ErrOverflow, a, b)
	}
	return out, nil
}

// QuoCeil divides rounding up, used where the result is an amount the caller
// owes so the rounding error favors the protocol.
func QuoCeil(a, b sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	if b.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: division by zero", types.ErrInvalidAmount)
	}
	defer guard(&out, &err)
	out = a.QuoRoundUp(b)
	if out.GT(MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s / %s", types.ErrOverflow, a, b)
	}
	return out, nil
}

// Square is Mul(v, v) with the same range check.
func Square(v sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return Mul(v, v)
}

// Sqrt computes the positive square root via the decimal type's Newton
// iteration.
func Sqrt(v sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	if err := Validate(v); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	defer guard(&out, &err)
	out, err = v.ApproxSqrt()
	if err != nil {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: sqrt(%s): %v", types.ErrOverflow, v, err)
	}
	return out, nil
}

// Add is checked addition against MaxValue.
func Add(a, b sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	defer guard(&out, &err)
	out = a.Add(b)
	if out.GT(MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: %s + %s", types.ErrOverflow, a, b)
	}
	return out, nil
}

// MulBpsFloor applies a basis-point ratio rounding down.
func MulBpsFloor(v sdkmath.LegacyDec, bps uint64) (sdkmath.LegacyDec, error) {
	num, err := Mul(v, sdkmath.LegacyNewDec(int64(bps)))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Quo(num, sdkmath.LegacyNewDec(int64(types.FeeDenominator)))
}

// MulBpsCeil applies a basis-point ratio rounding up. Used for the protocol
// fee so the remainder of a split never exceeds the gross amount.
func MulBpsCeil(v sdkmath.LegacyDec, bps uint64) (sdkmath.LegacyDec, error) {
	num, err := Mul(v, sdkmath.LegacyNewDec(int64(bps)))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return QuoCeil(num, sdkmath.LegacyNewDec(int64(types.FeeDenominator)))
}
