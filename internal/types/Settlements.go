/*

Settlement records are the externally observable outcome of every ledger
operation. Indexers and the web API consume them; the core only appends.

*/

package types

import (
	"time"

	"cosmossdk.io/math"
)

type SettlementKind string

const (
	SettlementDeposit SettlementKind = "deposit"
	SettlementRedeem  SettlementKind = "redeem"
)

// Settlement is emitted once per committed deposit or redeem.
type Settlement struct {
	ID           string         `json:"id"` // UUID assigned at emit time
	Kind         SettlementKind `json:"kind"`
	PoolID       PoolID         `json:"pool_id"`
	Caller       Holder         `json:"caller"`
	Counterparty Holder         `json:"counterparty"` // depositor credited or receiver paid

	// SharesOrValueMoved is shares minted on deposit, value returned on redeem.
	SharesOrValueMoved      math.LegacyDec `json:"shares_or_value_moved"`
	NetAmountToCounterparty math.LegacyDec `json:"net_amount_to_counterparty"`
	FeeRetained             math.LegacyDec `json:"fee_retained"`
	ProtocolFee             math.LegacyDec `json:"protocol_fee"`
	PoolBalanceAfter        math.LegacyDec `json:"pool_balance_after"`

	Timestamp time.Time `json:"timestamp"`
}

// AtomCreated is emitted once per atom pool creation.
type AtomCreated struct {
	Creator         Holder `json:"creator"`
	DelegateAccount Holder `json:"delegate_account"`
	PoolID          PoolID `json:"pool_id"`
	MetadataRef     string `json:"metadata_ref"`
}

// TripleCreated is emitted once per triple pool creation.
type TripleCreated struct {
	Creator     Holder `json:"creator"`
	SubjectID   PoolID `json:"subject_id"`
	PredicateID PoolID `json:"predicate_id"`
	ObjectID    PoolID `json:"object_id"`
	PoolID      PoolID `json:"pool_id"`
	CounterID   PoolID `json:"counter_id"`
}
