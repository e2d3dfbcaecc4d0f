package fixedpoint

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/vaultgraph/mvl/internal/types"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(dec("0")))
	require.NoError(t, Validate(dec("1.5")))
	require.ErrorIs(t, Validate(sdkmath.LegacyDec{}), types.ErrInvalidAmount)
	require.ErrorIs(t, Validate(dec("-0.1")), types.ErrInvalidAmount)
}

func TestInRange(t *testing.T) {
	require.True(t, InRange(dec("0")))
	require.True(t, InRange(MaxValue))
	require.False(t, InRange(MaxValue.Add(OneUnit)))
	require.False(t, InRange(dec("-1")))
	require.False(t, InRange(sdkmath.LegacyDec{}))
}

func TestMulTruncatesAndBounds(t *testing.T) {
	got, err := Mul(dec("2.5"), dec("4"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("10")))

	// Truncation toward zero beyond the 18th decimal.
	got, err = Mul(dec("0.000000000000000001"), dec("0.1"))
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = Mul(MaxValue, dec("2"))
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestQuoRounding(t *testing.T) {
	down, err := Quo(dec("10"), dec("3"))
	require.NoError(t, err)
	up, err := QuoCeil(dec("10"), dec("3"))
	require.NoError(t, err)
	require.True(t, down.LT(up))
	require.True(t, up.Sub(down).Equal(OneUnit))

	// Exact division rounds the same both ways.
	d, err := Quo(dec("10"), dec("4"))
	require.NoError(t, err)
	c, err := QuoCeil(dec("10"), dec("4"))
	require.NoError(t, err)
	require.True(t, d.Equal(c))
	require.True(t, d.Equal(dec("2.5")))
}

func TestQuoByZero(t *testing.T) {
	_, err := Quo(dec("1"), dec("0"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	_, err = QuoCeil(dec("1"), dec("0"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestSquareAtBound(t *testing.T) {
	// sqrt(MaxValue) == 1e19 squares exactly to the ceiling.
	got, err := Square(dec("10000000000000000000"))
	require.NoError(t, err)
	require.True(t, got.Equal(MaxValue))

	_, err = Square(dec("20000000000000000000"))
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestSqrt(t *testing.T) {
	got, err := Sqrt(dec("81"))
	require.NoError(t, err)
	require.True(t, got.Sub(dec("9")).Abs().LTE(OneUnit))

	_, err = Sqrt(dec("-1"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestAddBound(t *testing.T) {
	got, err := Add(dec("1"), dec("2"))
	require.NoError(t, err)
	require.True(t, got.Equal(dec("3")))

	_, err = Add(MaxValue, OneUnit)
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestMulBps(t *testing.T) {
	floor, err := MulBpsFloor(dec("100"), 500)
	require.NoError(t, err)
	require.True(t, floor.Equal(dec("5")))

	ceil, err := MulBpsCeil(dec("100"), 500)
	require.NoError(t, err)
	require.True(t, ceil.Equal(dec("5")))

	// A product below the last representable decimal splits the two.
	floor, err = MulBpsFloor(OneUnit, 500)
	require.NoError(t, err)
	ceil, err = MulBpsCeil(OneUnit, 500)
	require.NoError(t, err)
	require.True(t, floor.IsZero())
	require.True(t, ceil.Equal(OneUnit))

	zero, err := MulBpsFloor(dec("100"), 0)
	require.NoError(t, err)
	require.True(t, zero.IsZero())
}
