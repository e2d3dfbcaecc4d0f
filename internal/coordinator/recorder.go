package coordinator

import "github.com/vaultgraph/mvl/internal/types"

// Recorder receives the durable projection of committed operations: updated
// pool rows, settlement records, and creation events. The in-memory ledger is
// the source of truth; a recorder failure is logged and does not unwind a
// committed operation.
type Recorder interface {
	SavePool(pool *types.Pool, refs *types.TripleRefs) error
	AppendSettlement(s types.Settlement) error
	RecordAtomCreated(e types.AtomCreated) error
	RecordTripleCreated(e types.TripleCreated) error
	SaveFeeSchedule(poolID types.PoolID, s types.FeeSchedule) error
}

// NopRecorder discards everything. Used by tests and by deployments that run
// without a state store.
type NopRecorder struct{}

func (NopRecorder) SavePool(*types.Pool, *types.TripleRefs) error         { return nil }
func (NopRecorder) AppendSettlement(types.Settlement) error               { return nil }
func (NopRecorder) RecordAtomCreated(types.AtomCreated) error             { return nil }
func (NopRecorder) RecordTripleCreated(types.TripleCreated) error         { return nil }
func (NopRecorder) SaveFeeSchedule(types.PoolID, types.FeeSchedule) error { return nil }
