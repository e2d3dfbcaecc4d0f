package curves

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/fixedpoint"
	"github.com/vaultgraph/mvl/internal/types"
)

// Linear prices shares pro rata against the pool's current value: the
// marginal price is totalValue/totalShares and stays flat across deposits,
// moving only when retained fees appreciate the pool. An empty pool prices
// 1:1.
type Linear struct{}

func (Linear) Name() string { return NameLinear }

func (Linear) PreviewDeposit(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero deposit", types.ErrInvalidAmount)
	}
	if !fixedpoint.InRange(assets) || totalValue.Add(assets).GT(fixedpoint.MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: deposit of %s exceeds curve bounds", types.ErrOverflow, assets)
	}
	if totalShares.IsZero() {
		return assets, nil
	}
	num, err := fixedpoint.Mul(assets, totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.Quo(num, totalValue)
}

func (Linear) PreviewRedeem(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero redeem", types.ErrInvalidAmount)
	}
	if shares.GT(totalShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: redeem of %s against supply %s", types.ErrInsufficientSupply, shares, totalShares)
	}
	num, err := fixedpoint.Mul(shares, totalValue)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.Quo(num, totalShares)
}

func (Linear) PreviewMint(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero mint", types.ErrInvalidAmount)
	}
	if totalShares.Add(shares).GT(fixedpoint.MaxValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: mint of %s exceeds curve bounds", types.ErrOverflow, shares)
	}
	if totalShares.IsZero() {
		return shares, nil
	}
	// Round up: the required value never understates the share delta.
	num, err := fixedpoint.Mul(shares, totalValue)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.QuoCeil(num, totalShares)
}

func (Linear) PreviewWithdraw(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero withdraw", types.ErrInvalidAmount)
	}
	if assets.GT(totalValue) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: withdraw of %s against value %s", types.ErrInsufficientSupply, assets, totalValue)
	}
	num, err := fixedpoint.Mul(assets, totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.QuoCeil(num, totalValue)
}

func (l Linear) ConvertToShares(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return l.PreviewDeposit(assets, totalValue, totalShares)
}

func (l Linear) ConvertToAssets(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return l.PreviewRedeem(shares, totalValue, totalShares)
}

func (Linear) CurrentPrice(totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if totalShares.IsZero() {
		return sdkmath.LegacyOneDec(), nil
	}
	return fixedpoint.Quo(totalValue, totalShares)
}

func (Linear) MaxShares() sdkmath.LegacyDec { return fixedpoint.MaxValue }
func (Linear) MaxAssets() sdkmath.LegacyDec { return fixedpoint.MaxValue }
