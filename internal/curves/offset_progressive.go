package curves

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/fixedpoint"
	"github.com/vaultgraph/mvl/internal/types"
)

// OffsetProgressive shifts the progressive curve right by a fixed offset:
// price(s) = slope * (s + offset). Early depositors pay a non-zero floor
// price instead of the near-free region at the origin, which dampens the
// advantage of being first into a pool.
type OffsetProgressive struct {
	slope     sdkmath.LegacyDec
	halfSlope sdkmath.LegacyDec
	offset    sdkmath.LegacyDec
	maxShares sdkmath.LegacyDec
	maxAssets sdkmath.LegacyDec
}

func NewOffsetProgressive(params types.CurveParams) (*OffsetProgressive, error) {
	if params.Slope.IsNil() || !params.Slope.IsPositive() {
		return nil, fmt.Errorf("%w: offset-progressive slope must be positive", types.ErrInvalidAmount)
	}
	if params.Slope.GT(MaxSlope) {
		return nil, fmt.Errorf("%w: offset-progressive slope %s exceeds %s", types.ErrInvalidAmount, params.Slope, MaxSlope)
	}
	if params.Offset.IsNil() || params.Offset.IsNegative() {
		return nil, fmt.Errorf("%w: offset must be non-negative", types.ErrInvalidAmount)
	}
	root, err := fixedpoint.Sqrt(fixedpoint.MaxValue)
	if err != nil {
		return nil, err
	}
	if params.Offset.GTE(root) {
		return nil, fmt.Errorf("%w: offset %s leaves no admissible supply", types.ErrInvalidAmount, params.Offset)
	}
	halfSlope := params.Slope.QuoTruncate(sdkmath.LegacyNewDec(2))
	maxShares := root.Sub(params.Offset)
	offsetSq, err := fixedpoint.Square(params.Offset)
	if err != nil {
		return nil, err
	}
	maxAssets, err := fixedpoint.Mul(fixedpoint.MaxValue.Sub(offsetSq), halfSlope)
	if err != nil {
		return nil, err
	}
	return &OffsetProgressive{
		slope:     params.Slope,
		halfSlope: halfSlope,
		offset:    params.Offset,
		maxShares: maxShares,
		maxAssets: maxAssets,
	}, nil
}

func (o *OffsetProgressive) Name() string { return NameOffsetProgressive }

// areaBetween integrates the shifted curve between supplies lo and hi.
func (o *OffsetProgressive) areaBetween(lo, hi sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	hiSq, err := fixedpoint.Square(hi.Add(o.offset))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	loSq, err := fixedpoint.Square(lo.Add(o.offset))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.Mul(hiSq.Sub(loSq), o.halfSlope)
}

func (o *OffsetProgressive) PreviewDeposit(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero deposit", types.ErrInvalidAmount)
	}
	if assets.GT(o.maxAssets) || totalShares.GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: deposit of %s at supply %s", types.ErrOverflow, assets, totalShares)
	}
	shifted := totalShares.Add(o.offset)
	sSq, err := fixedpoint.Square(shifted)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	grown, err := fixedpoint.Quo(assets, o.halfSlope)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	sum, err := fixedpoint.Add(sSq, grown)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	root, err := fixedpoint.Sqrt(sum)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	shares := root.Sub(shifted)
	if shares.IsNegative() {
		shares = sdkmath.LegacyZeroDec()
	}
	if totalShares.Add(shares).GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: resulting supply exceeds max %s", types.ErrOverflow, o.maxShares)
	}
	return shares, nil
}

func (o *OffsetProgressive) PreviewRedeem(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero redeem", types.ErrInvalidAmount)
	}
	if shares.GT(totalShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: redeem of %s against supply %s", types.ErrInsufficientSupply, shares, totalShares)
	}
	if totalShares.GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, o.maxShares)
	}
	return o.areaBetween(totalShares.Sub(shares), totalShares)
}

func (o *OffsetProgressive) PreviewMint(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero mint", types.ErrInvalidAmount)
	}
	target := totalShares.Add(shares)
	if target.GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: mint to supply %s exceeds max %s", types.ErrOverflow, target, o.maxShares)
	}
	return o.areaBetween(totalShares, target)
}

func (o *OffsetProgressive) PreviewWithdraw(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero withdraw", types.ErrInvalidAmount)
	}
	if totalShares.GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, o.maxShares)
	}
	capacity, err := o.areaBetween(sdkmath.LegacyZeroDec(), totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.GT(capacity) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: withdraw of %s against capacity %s", types.ErrInsufficientSupply, assets, capacity)
	}
	shifted := totalShares.Add(o.offset)
	sSq, err := fixedpoint.Square(shifted)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	drained, err := fixedpoint.Quo(assets, o.halfSlope)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	remaining := sSq.Sub(drained)
	if remaining.IsNegative() {
		remaining = sdkmath.LegacyZeroDec()
	}
	root, err := fixedpoint.Sqrt(remaining)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	shares := shifted.Sub(root)
	if shares.IsNegative() {
		shares = sdkmath.LegacyZeroDec()
	}
	if shares.GT(totalShares) {
		shares = totalShares
	}
	return shares, nil
}

func (o *OffsetProgressive) ConvertToShares(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return o.PreviewDeposit(assets, totalValue, totalShares)
}

func (o *OffsetProgressive) ConvertToAssets(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return o.PreviewRedeem(shares, totalValue, totalShares)
}

func (o *OffsetProgressive) CurrentPrice(totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(totalShares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if totalShares.GT(o.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, o.maxShares)
	}
	return fixedpoint.Mul(o.slope, totalShares.Add(o.offset))
}

func (o *OffsetProgressive) MaxShares() sdkmath.LegacyDec { return o.maxShares }
func (o *OffsetProgressive) MaxAssets() sdkmath.LegacyDec { return o.maxAssets }
