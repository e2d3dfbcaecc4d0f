package coordinator

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/fees"
	"github.com/vaultgraph/mvl/internal/types"
)

// PreviewDeposit quotes the shares a gross deposit would mint right now,
// fees and triple redirection included. No state changes.
func (c *Coordinator) PreviewDeposit(poolID types.PoolID, grossValue sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateAmount(grossValue); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if grossValue.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero deposit", types.ErrInvalidAmount)
	}
	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	totalValue, totalShares, err := c.ledger.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	schedule := c.ledger.ScheduleFor(poolID)
	waiveEntry := totalShares.Equal(c.params.MinShare)
	split, err := fees.SplitOnDeposit(grossValue, schedule, waiveEntry)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	net := split.NetForShares
	if pool, ok := c.ledger.Pool(poolID); ok && pool.Kind == types.KindTriple {
		redirected, _, err := fees.AtomRedirect(net, c.params.AtomFractionBps)
		if err != nil {
			return sdkmath.LegacyDec{}, err
		}
		net = net.Sub(redirected)
	}
	return strategy.PreviewDeposit(net, totalValue, totalShares)
}

// PreviewRedeem quotes the net value a burn would pay out right now.
func (c *Coordinator) PreviewRedeem(poolID types.PoolID, shares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateAmount(shares); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if shares.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero redeem", types.ErrInvalidAmount)
	}
	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	totalValue, totalShares, err := c.ledger.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	gross, err := strategy.PreviewRedeem(shares, totalValue, totalShares)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	remaining := totalShares.Sub(shares)
	if remaining.LT(c.params.MinShare) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: supply would drop to %s below %s", types.ErrWouldUnderflowMinShare, remaining, c.params.MinShare)
	}
	schedule := c.ledger.ScheduleFor(poolID)
	waiveExit := remaining.Equal(c.params.MinShare)
	split, err := fees.SplitOnRedeem(gross, schedule, waiveExit)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return split.NetToReceiver, nil
}

// ConvertToShares is the raw, fee-exclusive curve conversion.
func (c *Coordinator) ConvertToShares(poolID types.PoolID, assets sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	totalValue, totalShares, err := c.ledger.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return strategy.ConvertToShares(assets, totalValue, totalShares)
}

// ConvertToAssets is the raw, fee-exclusive inverse conversion.
func (c *Coordinator) ConvertToAssets(poolID types.PoolID, shares sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	totalValue, totalShares, err := c.ledger.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return strategy.ConvertToAssets(shares, totalValue, totalShares)
}

// CurrentSharePrice is the pool's instantaneous marginal price.
func (c *Coordinator) CurrentSharePrice(poolID types.PoolID) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	totalValue, totalShares, err := c.ledger.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return strategy.CurrentPrice(totalValue, totalShares)
}
