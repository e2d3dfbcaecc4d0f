/*

The ledger is the arena of pool records. All mutation flows through a Tx:
stage, validate, commit — a failed operation is dropped wholesale and the
committed state never sees it. Outside of a Tx the ledger is read-only.

The execution model is one call at a time: the coordinator serializes
operations, so the ledger itself carries no locking. Reads taken at the start
of an operation stay valid for its whole duration.

*/

package ledger

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// Ledger owns every pool, the triple reference table, and the sparse
// fee-schedule table. Pools are created exactly once and never deleted.
type Ledger struct {
	pools     map[types.PoolID]*types.Pool
	triples   map[types.PoolID]types.TripleRefs
	schedules map[types.PoolID]types.FeeSchedule
	minShare  sdkmath.LegacyDec
}

func New(minShare sdkmath.LegacyDec, defaultSchedule types.FeeSchedule) *Ledger {
	return &Ledger{
		pools:     make(map[types.PoolID]*types.Pool),
		triples:   make(map[types.PoolID]types.TripleRefs),
		schedules: map[types.PoolID]types.FeeSchedule{types.DefaultSchedulePool: defaultSchedule},
		minShare:  minShare,
	}
}

// MinShare is the supply floor every initialized pool keeps.
func (l *Ledger) MinShare() sdkmath.LegacyDec { return l.minShare }

// Pool returns the live pool record. Callers must treat it as read-only;
// mutation happens only through a Tx.
func (l *Ledger) Pool(id types.PoolID) (*types.Pool, bool) {
	p, ok := l.pools[id]
	return p, ok
}

// StateOf snapshots a pool's totals for pricing. The snapshot stays valid for
// the duration of the operation that took it.
func (l *Ledger) StateOf(id types.PoolID) (totalValue, totalShares sdkmath.LegacyDec, err error) {
	p, ok := l.pools[id]
	if !ok {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, fmt.Errorf("%w: pool %d", types.ErrUnknownPool, id)
	}
	return p.TotalValue, p.TotalShares, nil
}

// ScheduleFor resolves a pool's fee schedule, falling back to the pool-0
// default when the pool has no explicit entry.
func (l *Ledger) ScheduleFor(id types.PoolID) types.FeeSchedule {
	if s, ok := l.schedules[id]; ok {
		return s
	}
	return l.schedules[types.DefaultSchedulePool]
}

// HasExplicitSchedule reports whether the pool carries its own schedule row.
func (l *Ledger) HasExplicitSchedule(id types.PoolID) bool {
	_, ok := l.schedules[id]
	return ok
}

// SetSchedule installs a validated fee schedule for one pool. Authorization
// and bounds checking happen in the coordinator before this is called.
func (l *Ledger) SetSchedule(id types.PoolID, s types.FeeSchedule) {
	l.schedules[id] = s
}

// TripleRefs returns the atom and counter references of a triple pool.
func (l *Ledger) TripleRefs(id types.PoolID) (types.TripleRefs, bool) {
	refs, ok := l.triples[id]
	return refs, ok
}

// Restore installs a pool loaded from the state store. Only used during
// startup, before any operation runs.
func (l *Ledger) Restore(p *types.Pool, refs *types.TripleRefs) {
	l.pools[p.ID] = p
	if refs != nil {
		l.triples[p.ID] = *refs
	}
}

// PoolIDs returns every known identifier, for the read API.
func (l *Ledger) PoolIDs() []types.PoolID {
	ids := make([]types.PoolID, 0, len(l.pools))
	for id := range l.pools {
		ids = append(ids, id)
	}
	return ids
}

// Begin opens a staging transaction against the current committed state.
func (l *Ledger) Begin() *Tx {
	return &Tx{
		ledger:  l,
		staged:  make(map[types.PoolID]*types.Pool),
		triples: make(map[types.PoolID]types.TripleRefs),
	}
}
