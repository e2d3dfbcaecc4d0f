package coordinator

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/curves"
	"github.com/vaultgraph/mvl/internal/fees"
	"github.com/vaultgraph/mvl/internal/ledger"
	"github.com/vaultgraph/mvl/internal/types"
)

// Deposit runs one gross deposit through the full pipeline and returns the
// shares minted to the depositor. The call commits whole or not at all.
func (c *Coordinator) Deposit(poolID types.PoolID, depositor types.Holder, grossValue sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateAmount(grossValue); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if grossValue.IsZero() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: zero deposit", types.ErrInvalidAmount)
	}
	if grossValue.LT(c.params.MinDeposit) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: deposit %s under minimum %s", types.ErrBelowMinimum, grossValue, c.params.MinDeposit)
	}
	if _, ok := c.ledger.Pool(poolID); !ok {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: pool %d", types.ErrUnknownPool, poolID)
	}

	tx := c.ledger.Begin()
	settlement, err := c.depositInTx(tx, poolID, depositor, grossValue, true)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	staged := tx.StagedPools()
	tx.Commit()
	c.persistPools(staged, nil)
	c.emit(*settlement)
	return settlement.SharesOrValueMoved, nil
}

// depositInTx stages one deposit, nesting redirection deposits for triple
// pools. The reentrancy guard is held for the duration of this call and every
// call nested under it.
func (c *Coordinator) depositInTx(tx *ledger.Tx, poolID types.PoolID, depositor types.Holder, grossValue sdkmath.LegacyDec, allowRedirect bool) (*types.Settlement, error) {
	release, err := c.enter(poolID)
	if err != nil {
		return nil, err
	}
	defer release()

	strategy, err := c.strategyFor(poolID)
	if err != nil {
		return nil, err
	}
	totalValue, totalShares, err := tx.StateOf(poolID)
	if err != nil {
		return nil, err
	}
	schedule := c.ledger.ScheduleFor(poolID)

	// A pool holding only the ghost shares has nobody for an entry fee to
	// appreciate.
	waiveEntry := totalShares.Equal(c.params.MinShare)
	split, err := fees.SplitOnDeposit(grossValue, schedule, waiveEntry)
	if err != nil {
		return nil, err
	}

	netForShares := split.NetForShares
	// The registry knows the kind even while the pool itself is only staged
	// (the creation path deposits before the first commit).
	poolKind, known := c.registry.Kind(poolID)
	if !known {
		if pool, ok := c.ledger.Pool(poolID); ok {
			poolKind = pool.Kind
		}
	}

	if poolKind == types.KindTriple && allowRedirect {
		refs, ok := c.tripleRefs(poolID)
		if !ok {
			return nil, fmt.Errorf("%w: triple %d has no reference table entry", types.ErrUnknownPool, poolID)
		}
		redirected, perAtom, err := fees.AtomRedirect(netForShares, c.params.AtomFractionBps)
		if err != nil {
			return nil, err
		}
		if perAtom.IsPositive() {
			holder := types.TripleHolder(poolID)
			for _, atom := range []types.PoolID{refs.SubjectID, refs.PredicateID, refs.ObjectID} {
				if err := c.redirectDeposit(tx, atom, holder, perAtom); err != nil {
					return nil, err
				}
			}
			netForShares = netForShares.Sub(redirected)
		}
	}

	shares, err := strategy.PreviewDeposit(netForShares, totalValue, totalShares)
	if err != nil {
		return nil, err
	}
	// Net and retained entry fee both stay in the pool; only the protocol
	// fee leaves.
	if err := tx.RecordDeposit(poolID, depositor, netForShares.Add(split.EntryFeeRetained), shares); err != nil {
		return nil, err
	}

	balanceAfter, _, err := tx.StateOf(poolID)
	if err != nil {
		return nil, err
	}
	s := newSettlement(types.SettlementDeposit, poolID, depositor, depositor)
	s.SharesOrValueMoved = shares
	s.NetAmountToCounterparty = netForShares
	s.FeeRetained = split.EntryFeeRetained
	s.ProtocolFee = split.ProtocolFee
	s.PoolBalanceAfter = balanceAfter
	return &s, nil
}

// redirectDeposit stages the slice of a triple deposit that lands in one atom
// pool. The protocol fee was already taken on the triple's gross amount, so
// only the atom's entry fee applies here.
func (c *Coordinator) redirectDeposit(tx *ledger.Tx, atomID types.PoolID, holder types.Holder, amount sdkmath.LegacyDec) error {
	release, err := c.enter(atomID)
	if err != nil {
		return err
	}
	defer release()

	strategy, err := c.strategyFor(atomID)
	if err != nil {
		return err
	}
	totalValue, totalShares, err := tx.StateOf(atomID)
	if err != nil {
		return err
	}
	schedule := c.ledger.ScheduleFor(atomID)
	schedule.ProtocolFeeBps = 0

	waiveEntry := totalShares.Equal(c.params.MinShare)
	split, err := fees.SplitOnDeposit(amount, schedule, waiveEntry)
	if err != nil {
		return err
	}
	shares, err := strategy.PreviewDeposit(split.NetForShares, totalValue, totalShares)
	if err != nil {
		return err
	}
	return tx.RecordDeposit(atomID, holder, amount, shares)
}

// depositPriced stages a fee-free priced deposit, used for creation seeds.
func (c *Coordinator) depositPriced(tx *ledger.Tx, poolID types.PoolID, holder types.Holder, amount sdkmath.LegacyDec, strategy curves.Strategy) error {
	totalValue, totalShares, err := tx.StateOf(poolID)
	if err != nil {
		return err
	}
	shares, err := strategy.PreviewDeposit(amount, totalValue, totalShares)
	if err != nil {
		return err
	}
	return tx.RecordDeposit(poolID, holder, amount, shares)
}

// Redeem burns shares held by holder and pays the receiver. Returns the net
// value paid out.
func (c *Coordinator) Redeem(poolID types.PoolID, holder types.Holder, shares sdkmath.LegacyDec, receiver types.Holder) (sdkmath.LegacyDec, error) {
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
	release, err := c.enter(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	defer release()

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
	// The last holder out pays no exit fee into an otherwise empty pool.
	waiveExit := remaining.Equal(c.params.MinShare)
	split, err := fees.SplitOnRedeem(gross, schedule, waiveExit)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}

	tx := c.ledger.Begin()
	// The exit fee stays in the pool; net payout and protocol fee leave it.
	valueOut := split.NetToReceiver.Add(split.ProtocolFee)
	if err := tx.RecordRedeem(poolID, holder, shares, valueOut); err != nil {
		return sdkmath.LegacyDec{}, err
	}

	balanceAfter, _, err := tx.StateOf(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	staged := tx.StagedPools()
	tx.Commit()
	c.persistPools(staged, nil)

	s := newSettlement(types.SettlementRedeem, poolID, holder, receiver)
	s.SharesOrValueMoved = split.NetToReceiver
	s.NetAmountToCounterparty = split.NetToReceiver
	s.FeeRetained = split.ExitFeeRetained
	s.ProtocolFee = split.ProtocolFee
	s.PoolBalanceAfter = balanceAfter
	c.emit(s)
	return split.NetToReceiver, nil
}

func (c *Coordinator) tripleRefs(poolID types.PoolID) (types.TripleRefs, bool) {
	if refs, ok := c.ledger.TripleRefs(poolID); ok {
		return refs, true
	}
	return c.registry.TripleOf(poolID)
}
