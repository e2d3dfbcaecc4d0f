package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// Tx stages ledger mutations for one coordinator call. Staged pools are deep
// copies of the committed records; Commit swaps them in, dropping the Tx
// leaves the ledger untouched. Commit itself cannot fail — every check runs
// while staging.
type Tx struct {
	ledger  *Ledger
	staged  map[types.PoolID]*types.Pool
	triples map[types.PoolID]types.TripleRefs
}

func clonePool(p *types.Pool) *types.Pool {
	balances := make(map[types.Holder]sdkmath.LegacyDec, len(p.Balances))
	for h, b := range p.Balances {
		balances[h] = b
	}
	cp := *p
	cp.Balances = balances
	return &cp
}

// pool returns the staged copy of id, cloning from committed state on first
// touch.
func (tx *Tx) pool(id types.PoolID) (*types.Pool, error) {
	if p, ok := tx.staged[id]; ok {
		return p, nil
	}
	committed, ok := tx.ledger.pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: pool %d", types.ErrUnknownPool, id)
	}
	p := clonePool(committed)
	tx.staged[id] = p
	return p, nil
}

// Touched reports whether this Tx has already staged mutations for id.
func (tx *Tx) Touched(id types.PoolID) bool {
	_, ok := tx.staged[id]
	return ok
}

// StateOf is the staged view of a pool's totals.
func (tx *Tx) StateOf(id types.PoolID) (totalValue, totalShares sdkmath.LegacyDec, err error) {
	if p, ok := tx.staged[id]; ok {
		return p.TotalValue, p.TotalShares, nil
	}
	return tx.ledger.StateOf(id)
}

// CreatePool stages a new, empty pool. Identifiers are single-use: an id
// known to the committed ledger or this Tx is rejected.
func (tx *Tx) CreatePool(id types.PoolID, kind types.PoolKind, curveName string, params types.CurveParams) error {
	if _, ok := tx.ledger.pools[id]; ok {
		return fmt.Errorf("%w: pool %d", types.ErrPoolExists, id)
	}
	if _, ok := tx.staged[id]; ok {
		return fmt.Errorf("%w: pool %d", types.ErrPoolExists, id)
	}
	tx.staged[id] = &types.Pool{
		ID:          id,
		Kind:        kind,
		TotalValue:  sdkmath.LegacyZeroDec(),
		TotalShares: sdkmath.LegacyZeroDec(),
		CurveName:   curveName,
		CurveParams: params,
		Balances:    make(map[types.Holder]sdkmath.LegacyDec),
	}
	return nil
}

// BindTriple stages the reference table entry for a triple pool.
func (tx *Tx) BindTriple(id types.PoolID, refs types.TripleRefs) {
	tx.triples[id] = refs
}

// RecordDeposit stages a deposit: totalValue grows by valueIn, totalShares
// and the depositor's balance by sharesOut.
func (tx *Tx) RecordDeposit(id types.PoolID, depositor types.Holder, valueIn, sharesOut sdkmath.LegacyDec) error {
	if valueIn.IsNil() || valueIn.IsNegative() || sharesOut.IsNil() || sharesOut.IsNegative() {
		return fmt.Errorf("%w: deposit of value %s for shares %s", types.ErrInvalidAmount, valueIn, sharesOut)
	}
	p, err := tx.pool(id)
	if err != nil {
		return err
	}
	p.TotalValue = p.TotalValue.Add(valueIn)
	p.TotalShares = p.TotalShares.Add(sharesOut)
	p.Balances[depositor] = p.BalanceOf(depositor).Add(sharesOut)
	return nil
}

// RecordRedeem stages a redemption: the holder's balance and totalShares
// shrink by sharesIn, totalValue by valueOut. The supply floor is enforced
// here, after fees, so no sequence of operations can take an initialized pool
// below its minimum share quantum.
func (tx *Tx) RecordRedeem(id types.PoolID, holder types.Holder, sharesIn, valueOut sdkmath.LegacyDec) error {
	if sharesIn.IsNil() || !sharesIn.IsPositive() || valueOut.IsNil() || valueOut.IsNegative() {
		return fmt.Errorf("%w: redeem of shares %s for value %s", types.ErrInvalidAmount, sharesIn, valueOut)
	}
	p, err := tx.pool(id)
	if err != nil {
		return err
	}
	balance := p.BalanceOf(holder)
	if balance.LT(sharesIn) {
		return fmt.Errorf("%w: holder %q has %s, redeeming %s", types.ErrInsufficientBalance, holder, balance, sharesIn)
	}
	if p.TotalShares.LT(sharesIn) {
		return fmt.Errorf("%w: supply %s, redeeming %s", types.ErrInsufficientSupply, p.TotalShares, sharesIn)
	}
	remainingSupply := p.TotalShares.Sub(sharesIn)
	if remainingSupply.LT(tx.ledger.minShare) {
		return fmt.Errorf("%w: supply would drop to %s below floor %s", types.ErrWouldUnderflowMinShare, remainingSupply, tx.ledger.minShare)
	}
	if p.TotalValue.LT(valueOut) {
		return fmt.Errorf("%w: pool value %s, paying out %s", types.ErrInsufficientSupply, p.TotalValue, valueOut)
	}

	remaining := balance.Sub(sharesIn)
	if remaining.IsZero() {
		delete(p.Balances, holder)
	} else {
		p.Balances[holder] = remaining
	}
	p.TotalShares = remainingSupply
	p.TotalValue = p.TotalValue.Sub(valueOut)
	return nil
}

// Commit applies every staged pool and triple binding to the ledger.
func (tx *Tx) Commit() {
	for id, p := range tx.staged {
		tx.ledger.pools[id] = p
	}
	for id, refs := range tx.triples {
		tx.ledger.triples[id] = refs
	}
	tx.staged = nil
	tx.triples = nil
}

// StagedPools returns the pools this Tx touched, for persistence after
// commit.
func (tx *Tx) StagedPools() []*types.Pool {
	out := make([]*types.Pool, 0, len(tx.staged))
	for _, p := range tx.staged {
		out = append(out, p)
	}
	return out
}
