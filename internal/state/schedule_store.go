// ./internal/state/schedule_store.go
package state

import (
	"fmt"

	"github.com/vaultgraph/mvl/internal/types"
)

// SaveFeeSchedule upserts a pool's fee schedule, bumping the version so
// observers can tell a changed schedule from a restated one.
func SaveFeeSchedule(poolID types.PoolID, s types.FeeSchedule) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	stmt := `
		INSERT INTO fee_schedules (pool_id, version, entry_fee_bps, exit_fee_bps, protocol_fee_bps)
		VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT (pool_id) DO UPDATE SET
			version = fee_schedules.version + 1,
			entry_fee_bps = EXCLUDED.entry_fee_bps,
			exit_fee_bps = EXCLUDED.exit_fee_bps,
			protocol_fee_bps = EXCLUDED.protocol_fee_bps,
			updated_at = CURRENT_TIMESTAMP;`
	if _, err := DB.Exec(stmt, int64(poolID), int64(s.EntryFeeBps), int64(s.ExitFeeBps), int64(s.ProtocolFeeBps)); err != nil {
		return fmt.Errorf("failed to upsert fee schedule for pool %d: %w", poolID, err)
	}
	return nil
}

// LoadFeeSchedules restores the sparse fee schedule table.
func LoadFeeSchedules() (map[types.PoolID]types.FeeSchedule, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	rows, err := DB.Query(`SELECT pool_id, entry_fee_bps, exit_fee_bps, protocol_fee_bps FROM fee_schedules;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee schedules: %w", err)
	}
	defer rows.Close()

	out := make(map[types.PoolID]types.FeeSchedule)
	for rows.Next() {
		var id, entry, exit, protocol int64
		if err := rows.Scan(&id, &entry, &exit, &protocol); err != nil {
			return nil, fmt.Errorf("failed to scan fee schedule row: %w", err)
		}
		out[types.PoolID(id)] = types.FeeSchedule{
			EntryFeeBps:    uint64(entry),
			ExitFeeBps:     uint64(exit),
			ProtocolFeeBps: uint64(protocol),
		}
	}
	return out, rows.Err()
}

// Recorder adapts the package-level store functions to the coordinator's
// persistence interface.
type Recorder struct{}

func (Recorder) SavePool(pool *types.Pool, refs *types.TripleRefs) error {
	return SavePool(pool, refs)
}

func (Recorder) AppendSettlement(s types.Settlement) error {
	return AppendSettlement(s)
}

func (Recorder) RecordAtomCreated(e types.AtomCreated) error {
	return RecordAtomCreated(e)
}

func (Recorder) RecordTripleCreated(e types.TripleCreated) error {
	return RecordTripleCreated(e)
}

func (Recorder) SaveFeeSchedule(poolID types.PoolID, s types.FeeSchedule) error {
	return SaveFeeSchedule(poolID, s)
}
