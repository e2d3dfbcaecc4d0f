/*

This package holds the pricing strategies a pool can be bound to. A strategy
is pure math over the pool snapshot taken at the start of an operation: it
never reads ledger state on its own and never mutates anything. All strategies
share one numeric contract: the marginal price is monotonically non-decreasing
in supply, deposit/redeem and mint/withdraw are algebraic inverses to within
one fixed-point unit, and every result outside the curve's derived bounds
fails with an overflow error instead of wrapping.

*/

package curves

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// Strategy is the contract every bonding curve implements. Amount arguments
// exclude fees; the fee engine runs before pricing. The totalValue and
// totalShares arguments are the pre-operation pool snapshot.
type Strategy interface {
	Name() string

	// PreviewDeposit returns the shares minted for an incoming net value.
	PreviewDeposit(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)
	// PreviewRedeem returns the value released by burning shares.
	PreviewRedeem(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)
	// PreviewMint returns the value required to mint an exact share delta.
	PreviewMint(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)
	// PreviewWithdraw returns the shares that must be burned to release an
	// exact value delta.
	PreviewWithdraw(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)

	// ConvertToShares and ConvertToAssets are the fee-exclusive read-only
	// conversions used by observers; they carry no minimum checks beyond
	// the deposit/redeem previews they mirror.
	ConvertToShares(assets, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)
	ConvertToAssets(shares, totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)

	// CurrentPrice is the instantaneous marginal price at the given supply.
	CurrentPrice(totalValue, totalShares sdkmath.LegacyDec) (sdkmath.LegacyDec, error)

	// MaxShares and MaxAssets are the largest supply and pool value the
	// curve can represent without overflow, derived once at construction.
	MaxShares() sdkmath.LegacyDec
	MaxAssets() sdkmath.LegacyDec
}

// Curve names accepted by New. The set is closed: a pool binds one of these
// at creation and keeps it for life.
const (
	NameLinear            = "linear"
	NameProgressive       = "progressive"
	NameOffsetProgressive = "offset-progressive"
)

// New builds the named strategy from pool creation parameters.
func New(name string, params types.CurveParams) (Strategy, error) {
	switch name {
	case NameLinear:
		return Linear{}, nil
	case NameProgressive:
		return NewProgressive(params)
	case NameOffsetProgressive:
		return NewOffsetProgressive(params)
	default:
		return nil, fmt.Errorf("%w: unknown curve %q", types.ErrInvalidAmount, name)
	}
}
