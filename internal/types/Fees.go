package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// FeeDenominator is the fixed basis for all fee ratios (basis points).
const FeeDenominator uint64 = 10000

// DefaultSchedulePool is the identifier whose schedule backs every pool
// without an explicit one.
const DefaultSchedulePool PoolID = 0

// FeeSchedule holds the three fee components of one pool, each a ratio over
// FeeDenominator. Entry and exit fees are retained inside the pool; the
// protocol fee is forwarded to the protocol account.
type FeeSchedule struct {
	EntryFeeBps    uint64 `json:"entry_fee_bps"`
	ExitFeeBps     uint64 `json:"exit_fee_bps"`
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
}

// Validate rejects any component above maxFeeBps. Run when a schedule is
// configured, never on the deposit/redeem path.
func (s FeeSchedule) Validate(maxFeeBps uint64) error {
	if s.EntryFeeBps > maxFeeBps {
		return fmt.Errorf("%w: entry fee %d bps exceeds %d", ErrFeeScheduleInvalid, s.EntryFeeBps, maxFeeBps)
	}
	if s.ExitFeeBps > maxFeeBps {
		return fmt.Errorf("%w: exit fee %d bps exceeds %d", ErrFeeScheduleInvalid, s.ExitFeeBps, maxFeeBps)
	}
	if s.ProtocolFeeBps > maxFeeBps {
		return fmt.Errorf("%w: protocol fee %d bps exceeds %d", ErrFeeScheduleInvalid, s.ProtocolFeeBps, maxFeeBps)
	}
	return nil
}

// ProtocolParams are the protocol-level constants the ledger operates under.
// Loaded once at startup; the coordinator reads them as an immutable snapshot.
type ProtocolParams struct {
	// MinShare is the share quantum seeded to the ghost holder at pool
	// creation. The pool's total supply never drops below it again.
	MinShare math.LegacyDec `json:"min_share"`
	// MinDeposit is the smallest gross value accepted by a deposit.
	MinDeposit math.LegacyDec `json:"min_deposit"`
	// MaxFeeBps bounds every fee schedule component.
	MaxFeeBps uint64 `json:"max_fee_bps"`
	// AtomFractionBps is the fraction of a triple deposit's net value
	// redirected into its three atom pools.
	AtomFractionBps uint64 `json:"atom_fraction_bps"`

	// Creation economics.
	AtomCreationFee   math.LegacyDec `json:"atom_creation_fee"`
	TripleCreationFee math.LegacyDec `json:"triple_creation_fee"`
	// AtomWalletSeed is deposited for the atom's delegate account at
	// creation, credited as shares it owns.
	AtomWalletSeed math.LegacyDec `json:"atom_wallet_seed"`
	// TripleAtomSeed is the fixed amount split across the three atoms when a
	// triple is created.
	TripleAtomSeed math.LegacyDec `json:"triple_atom_seed"`

	// ProtocolAccount receives creation and protocol fees.
	ProtocolAccount Holder `json:"protocol_account"`
	// AdminAccount is the only caller allowed to change fee schedules.
	AdminAccount Holder `json:"admin_account"`
}

// AtomCost is the minimum value required to create an atom: the creation fee,
// the delegate seed, and the ghost share quantum.
func (p ProtocolParams) AtomCost() math.LegacyDec {
	return p.AtomCreationFee.Add(p.AtomWalletSeed).Add(p.MinShare)
}

// TripleCost is the minimum value required to create a triple: the creation
// fee, the atom seed, and one ghost share quantum for each of the triple pool
// and its counter pool.
func (p ProtocolParams) TripleCost() math.LegacyDec {
	two := math.LegacyNewDec(2)
	return p.TripleCreationFee.Add(p.TripleAtomSeed).Add(p.MinShare.Mul(two))
}
