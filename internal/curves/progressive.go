package curves

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/fixedpoint"
	"github.com/vaultgraph/mvl/internal/types"
)

// MaxSlope bounds the progressive family's slope so that the curve's maximum
// pool value, MaxValue * slope / 2, stays representable.
var MaxSlope = sdkmath.LegacyNewDec(2)

// Progressive prices shares on a linearly increasing marginal price,
// price(s) = slope * s. The value needed to move supply from s1 to s2 is the
// trapezoid area (s2^2 - s1^2) * slope / 2, so every new share costs more
// than the one before it.
//
// Squaring is the first operation to overflow, which bounds the admissible
// supply at sqrt(MaxValue). Both bounds are derived here once and never
// re-checked per call beyond a comparison.
type Progressive struct {
	slope     sdkmath.LegacyDec
	halfSlope sdkmath.LegacyDec
	maxShares sdkmath.LegacyDec
	maxAssets sdkmath.LegacyDec
}

func NewProgressive(params types.CurveParams) (*Progressive, error) {
	if params.Slope.IsNil() || !params.Slope.IsPositive() {
		return nil, fmt.Errorf("%w: progressive slope must be positive", types.ErrInvalidAmount)
	}
	if params.Slope.GT(MaxSlope) {
		return nil, fmt.Errorf("%w: progressive slope %s exceeds %s", types.ErrInvalidAmount, params.Slope, MaxSlope)
	}
	halfSlope := params.Slope.QuoTruncate(sdkmath.LegacyNewDec(2))
	maxShares, err := fixedpoint.Sqrt(fixedpoint.MaxValue)
	if err != nil {
		return nil, err
	}
	return &Progressive{
		slope:     params.Slope,
		halfSlope: halfSlope,
		maxShares: maxShares,
		maxAssets: fixedpoint.MaxValue.MulTruncate(halfSlope),
	}, nil
}

func (p *Progressive) Name() string { return NameProgressive }

// areaBetween is the curve integral from supply lo to supply hi, lo <= hi.
func (p *Progressive) areaBetween(lo, hi sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	hiSq, err := fixedpoint.Square(hi)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	loSq, err := fixedpoint.Square(lo)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return fixedpoint.Mul(hiSq.Sub(loSq), p.halfSlope)
}

func (p *Progressive) PreviewDeposit(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero deposit", types.ErrInvalidAmount)
	}
	if assets.GT(p.maxAssets) || totalShares.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: deposit of %s at supply %s", types.ErrOverflow, assets, totalShares)
	}
	// shares = sqrt(s^2 + assets/(slope/2)) - s
	sSq, err := fixedpoint.Square(totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	grown, err := fixedpoint.Quo(assets, p.halfSlope)
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
	if root.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: resulting supply %s exceeds max %s", types.ErrOverflow, root, p.maxShares)
	}
	shares := root.Sub(totalShares)
	if shares.IsNegative() {
		// Newton iteration can land a hair under the true root.
		shares = sdkmath.LegacyZeroDec()
	}
	return shares, nil
}

func (p *Progressive) PreviewRedeem(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero redeem", types.ErrInvalidAmount)
	}
	if shares.GT(totalShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: redeem of %s against supply %s", types.ErrInsufficientSupply, shares, totalShares)
	}
	if totalShares.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, p.maxShares)
	}
	return p.areaBetween(totalShares.Sub(shares), totalShares)
}

func (p *Progressive) PreviewMint(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero mint", types.ErrInvalidAmount)
	}
	target := totalShares.Add(shares)
	if target.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: mint to supply %s exceeds max %s", types.ErrOverflow, target, p.maxShares)
	}
	return p.areaBetween(totalShares, target)
}

func (p *Progressive) PreviewWithdraw(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(assets); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero withdraw", types.ErrInvalidAmount)
	}
	if totalShares.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, p.maxShares)
	}
	capacity, err := p.areaBetween(sdkmath.LegacyZeroDec(), totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if assets.GT(capacity) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: withdraw of %s against capacity %s", types.ErrInsufficientSupply, assets, capacity)
	}
	// shares = s - sqrt(s^2 - assets/(slope/2))
	sSq, err := fixedpoint.Square(totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	drained, err := fixedpoint.Quo(assets, p.halfSlope)
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
	shares := totalShares.Sub(root)
	if shares.IsNegative() {
		shares = sdkmath.LegacyZeroDec()
	}
	return shares, nil
}

func (p *Progressive) ConvertToShares(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return p.PreviewDeposit(assets, totalValue, totalShares)
}

func (p *Progressive) ConvertToAssets(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	return p.PreviewRedeem(shares, totalValue, totalShares)
}

func (p *Progressive) CurrentPrice(totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if err := fixedpoint.Validate(totalShares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if totalShares.GT(p.maxShares) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply %s exceeds max %s", types.ErrOverflow, totalShares, p.maxShares)
	}
	return fixedpoint.Mul(p.slope, totalShares)
}

func (p *Progressive) MaxShares() sdkmath.LegacyDec { return p.maxShares }
func (p *Progressive) MaxAssets() sdkmath.LegacyDec { return p.maxAssets }
