package curves

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/vaultgraph/mvl/internal/fixedpoint"
	"github.com/vaultgraph/mvl/internal/types"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

// The square-root iteration carries a tiny residue, so inverse checks
// compare within a tolerance rather than exactly.
var tolerance = dec("0.000000001")

func requireClose(t *testing.T, want, got sdkmath.LegacyDec) {
	t.Helper()
	require.True(t, want.Sub(got).Abs().LTE(tolerance), "want %s, got %s", want, got)
}

func allStrategies(t *testing.T) map[string]Strategy {
	t.Helper()
	params := types.CurveParams{Slope: dec("0.0025"), Offset: dec("100")}
	out := make(map[string]Strategy)
	for _, name := range []string{NameLinear, NameProgressive, NameOffsetProgressive} {
		s, err := New(name, params)
		require.NoError(t, err)
		out[name] = s
	}
	return out
}

func TestNewRejectsUnknownCurve(t *testing.T) {
	_, err := New("parabolic", types.CurveParams{})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestNewProgressiveValidatesSlope(t *testing.T) {
	_, err := NewProgressive(types.CurveParams{Slope: dec("0")})
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = NewProgressive(types.CurveParams{Slope: dec("-0.1")})
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = NewProgressive(types.CurveParams{Slope: MaxSlope.Add(dec("0.1"))})
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = NewProgressive(types.CurveParams{Slope: MaxSlope})
	require.NoError(t, err)
}

func TestNewOffsetProgressiveValidatesOffset(t *testing.T) {
	slope := dec("0.5")
	_, err := NewOffsetProgressive(types.CurveParams{Slope: slope, Offset: dec("-1")})
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	// An offset past the supply ceiling leaves no room for shares.
	_, err = NewOffsetProgressive(types.CurveParams{Slope: slope, Offset: dec("20000000000000000000")})
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = NewOffsetProgressive(types.CurveParams{Slope: slope, Offset: dec("0")})
	require.NoError(t, err)
}

// Every strategy rejects degenerate inputs the same way.
func TestStrategiesRejectDegenerateInputs(t *testing.T) {
	value := dec("100")
	supply := dec("100")
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.PreviewDeposit(dec("0"), value, supply)
			require.ErrorIs(t, err, types.ErrInvalidAmount)
			_, err = s.PreviewDeposit(dec("-1"), value, supply)
			require.ErrorIs(t, err, types.ErrInvalidAmount)

			_, err = s.PreviewRedeem(dec("0"), value, supply)
			require.ErrorIs(t, err, types.ErrInvalidAmount)
			_, err = s.PreviewRedeem(supply.Add(dec("1")), value, supply)
			require.ErrorIs(t, err, types.ErrInsufficientSupply)

			_, err = s.PreviewMint(dec("0"), value, supply)
			require.ErrorIs(t, err, types.ErrInvalidAmount)
			_, err = s.PreviewWithdraw(dec("0"), value, supply)
			require.ErrorIs(t, err, types.ErrInvalidAmount)
		})
	}
}

// Deposit followed by redeeming the minted shares returns the deposited
// value, and mint inverts withdraw the same way.
func TestStrategiesRoundTrip(t *testing.T) {
	for name, s := range allStrategies(t) {
		t.Run(name, func(t *testing.T) {
			value := dec("250")
			supply := dec("50")

			shares, err := s.PreviewDeposit(dec("10"), value, supply)
			require.NoError(t, err)
			require.True(t, shares.IsPositive())

			back, err := s.PreviewRedeem(shares, value.Add(dec("10")), supply.Add(shares))
			require.NoError(t, err)
			requireClose(t, dec("10"), back)

			cost, err := s.PreviewMint(shares, value, supply)
			require.NoError(t, err)
			requireClose(t, dec("10"), cost)

			burned, err := s.PreviewWithdraw(back, value.Add(dec("10")), supply.Add(shares))
			require.NoError(t, err)
			requireClose(t, shares, burned)
		})
	}
}

// The progressive family prices purely off supply, so price must climb as
// shares accumulate. The linear curve is excluded: its price is the
// value/supply ratio and flat by construction.
func TestProgressivePriceNonDecreasing(t *testing.T) {
	strategies := allStrategies(t)
	for _, name := range []string{NameProgressive, NameOffsetProgressive} {
		s := strategies[name]
		t.Run(name, func(t *testing.T) {
			prev := sdkmath.LegacyZeroDec()
			for _, supply := range []string{"1", "10", "50", "100"} {
				price, err := s.CurrentPrice(dec("100"), dec(supply))
				require.NoError(t, err)
				require.True(t, price.GT(prev), "price fell from %s to %s at supply %s", prev, price, supply)
				prev = price
			}
		})
	}
}

func TestLinearProRata(t *testing.T) {
	var l Linear

	// Empty pool bootstraps one to one.
	shares, err := l.PreviewDeposit(dec("10"), dec("0"), dec("0"))
	require.NoError(t, err)
	require.True(t, shares.Equal(dec("10")))

	// After the pool appreciated, new value buys proportionally fewer
	// shares.
	shares, err = l.PreviewDeposit(dec("10"), dec("20"), dec("10"))
	require.NoError(t, err)
	require.True(t, shares.Equal(dec("5")))

	price, err := l.CurrentPrice(dec("20"), dec("10"))
	require.NoError(t, err)
	require.True(t, price.Equal(dec("2")))

	// Appreciation moves the price; deposits alone do not.
	price, err = l.CurrentPrice(dec("30"), dec("15"))
	require.NoError(t, err)
	require.True(t, price.Equal(dec("2")))
}

func TestLinearMintRoundsUp(t *testing.T) {
	var l Linear
	cost, err := l.PreviewMint(dec("1"), dec("10"), dec("3"))
	require.NoError(t, err)
	exact, err := fixedpoint.Quo(dec("10"), dec("3"))
	require.NoError(t, err)
	require.True(t, cost.GTE(exact))
}

func TestProgressiveFirstDeposit(t *testing.T) {
	p, err := NewProgressive(types.CurveParams{Slope: dec("0.0025")})
	require.NoError(t, err)

	// 0.1 / (0.0025/2) = 80, so the first deposit mints sqrt(80) shares.
	shares, err := p.PreviewDeposit(dec("0.1"), dec("0"), dec("0"))
	require.NoError(t, err)
	requireClose(t, dec("8.944271909999158785"), shares)
}

func TestProgressiveEachShareCostsMore(t *testing.T) {
	p, err := NewProgressive(types.CurveParams{Slope: dec("0.5")})
	require.NoError(t, err)

	one := dec("1")
	prev := sdkmath.LegacyZeroDec()
	supply := sdkmath.LegacyZeroDec()
	for i := 0; i < 5; i++ {
		cost, err := p.PreviewMint(one, dec("0"), supply)
		require.NoError(t, err)
		require.True(t, cost.GT(prev), "share %d cost %s after %s", i, cost, prev)
		prev = cost
		supply = supply.Add(one)
	}
}

func TestProgressiveRedeemMatchesArea(t *testing.T) {
	p, err := NewProgressive(types.CurveParams{Slope: dec("2")})
	require.NoError(t, err)

	// With slope 2 the integral from 0 to s is exactly s^2.
	value, err := p.PreviewRedeem(dec("4"), dec("16"), dec("4"))
	require.NoError(t, err)
	require.True(t, value.Equal(dec("16")))

	// Burning the top half releases s^2 - (s/2)^2.
	value, err = p.PreviewRedeem(dec("2"), dec("16"), dec("4"))
	require.NoError(t, err)
	require.True(t, value.Equal(dec("12")))
}

func TestProgressiveBounds(t *testing.T) {
	p, err := NewProgressive(types.CurveParams{Slope: dec("0.0025")})
	require.NoError(t, err)

	requireClose(t, dec("10000000000000000000"), p.MaxShares())

	_, err = p.PreviewDeposit(p.MaxAssets().Add(dec("1")), dec("0"), dec("0"))
	require.ErrorIs(t, err, types.ErrOverflow)

	_, err = p.PreviewMint(dec("1"), dec("0"), p.MaxShares())
	require.ErrorIs(t, err, types.ErrOverflow)

	_, err = p.CurrentPrice(dec("0"), p.MaxShares().Add(dec("1")))
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestOffsetProgressiveFloorPrice(t *testing.T) {
	o, err := NewOffsetProgressive(types.CurveParams{Slope: dec("0.1"), Offset: dec("50")})
	require.NoError(t, err)

	// The empty pool already prices at slope*offset.
	price, err := o.CurrentPrice(dec("0"), dec("0"))
	require.NoError(t, err)
	require.True(t, price.Equal(dec("5")))

	// A plain progressive curve with the same slope mints more shares for
	// the same value: the offset makes early entry strictly more expensive.
	p, err := NewProgressive(types.CurveParams{Slope: dec("0.1")})
	require.NoError(t, err)
	offsetShares, err := o.PreviewDeposit(dec("10"), dec("0"), dec("0"))
	require.NoError(t, err)
	plainShares, err := p.PreviewDeposit(dec("10"), dec("0"), dec("0"))
	require.NoError(t, err)
	require.True(t, offsetShares.LT(plainShares))
}

func TestOffsetProgressiveZeroOffsetMatchesProgressive(t *testing.T) {
	params := types.CurveParams{Slope: dec("0.25"), Offset: dec("0")}
	o, err := NewOffsetProgressive(params)
	require.NoError(t, err)
	p, err := NewProgressive(params)
	require.NoError(t, err)

	oShares, err := o.PreviewDeposit(dec("7"), dec("0"), dec("3"))
	require.NoError(t, err)
	pShares, err := p.PreviewDeposit(dec("7"), dec("0"), dec("3"))
	require.NoError(t, err)
	requireClose(t, pShares, oShares)

	oValue, err := o.PreviewRedeem(dec("2"), dec("0"), dec("3"))
	require.NoError(t, err)
	pValue, err := p.PreviewRedeem(dec("2"), dec("0"), dec("3"))
	require.NoError(t, err)
	requireClose(t, pValue, oValue)
}

func TestOffsetProgressiveSupplyCeiling(t *testing.T) {
	o, err := NewOffsetProgressive(types.CurveParams{Slope: dec("1"), Offset: dec("1000")})
	require.NoError(t, err)
	requireClose(t, dec("10000000000000000000").Sub(dec("1000")), o.MaxShares())

	_, err = o.PreviewMint(dec("1"), dec("0"), o.MaxShares())
	require.ErrorIs(t, err, types.ErrOverflow)
}
