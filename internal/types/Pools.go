/*

This is the custom type for pools which contains all the accounting state for
one identifier: total value deposited, total shares outstanding, and the
per-holder share balances. Balances mutate only through the ledger's deposit
and redeem entry points.

*/

package types

import (
	"strconv"

	"cosmossdk.io/math"
)

type PoolID uint64

// Holder identifies the owner of a share balance. Opaque to the core; the
// identity registry and account provisioning live outside this module.
type Holder string

// GhostHolder owns the minimum share quantum seeded at pool creation. It can
// never redeem, which keeps the supply floor intact and prevents a first
// depositor from distorting the share price.
const GhostHolder Holder = "ghost"

type PoolKind int

const (
	KindAtom PoolKind = iota
	KindTriple
	// KindCounter backs the inverse claim of a triple. It prices and accounts
	// exactly like a triple pool but receives no atom redirection.
	KindCounter
)

func (k PoolKind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindTriple:
		return "triple"
	case KindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

type Pool struct {
	ID          PoolID         `json:"id"`
	Kind        PoolKind       `json:"kind"`
	TotalValue  math.LegacyDec `json:"total_value"`  // Sum of all value held by the pool
	TotalShares math.LegacyDec `json:"total_shares"` // Total shares outstanding, == sum of Balances
	CurveName   string         `json:"curve_name"`   // Pricing strategy bound at creation
	CurveParams CurveParams    `json:"curve_params"`

	Balances map[Holder]math.LegacyDec `json:"-"`
}

// CurveParams are the pricing constants fixed at pool creation. Slope and
// Offset are meaningful for the progressive family; the linear curve ignores
// both. Never mutated after creation.
type CurveParams struct {
	Slope  math.LegacyDec `json:"slope"`
	Offset math.LegacyDec `json:"offset"`
}

// TripleRefs are the identifiers a triple pool is composed of. Immutable once
// assigned, never reused.
type TripleRefs struct {
	SubjectID   PoolID `json:"subject_id"`
	PredicateID PoolID `json:"predicate_id"`
	ObjectID    PoolID `json:"object_id"`
	CounterID   PoolID `json:"counter_id"`
}

// BalanceOf returns the holder's share balance, zero if the holder has no
// position.
func (p *Pool) BalanceOf(holder Holder) math.LegacyDec {
	if bal, ok := p.Balances[holder]; ok {
		return bal
	}
	return math.LegacyZeroDec()
}

// TripleHolder is the identity credited with the shares minted into an atom
// pool by a triple's deposit redirection. The shares belong to the triple
// pool itself, not to the original depositor.
func TripleHolder(tripleID PoolID) Holder {
	return Holder("triple:" + strconv.FormatUint(uint64(tripleID), 10))
}
