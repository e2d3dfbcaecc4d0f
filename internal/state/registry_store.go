// ./internal/state/registry_store.go
package state

import (
	"fmt"

	"github.com/vaultgraph/mvl/internal/types"
)

// RecordAtomCreated persists the creation event row for an atom pool.
func RecordAtomCreated(e types.AtomCreated) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	stmt := `
		INSERT INTO atoms (pool_id, creator, delegate_account, metadata_ref)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pool_id) DO NOTHING;`
	if _, err := DB.Exec(stmt, int64(e.PoolID), string(e.Creator), string(e.DelegateAccount), e.MetadataRef); err != nil {
		return fmt.Errorf("failed to insert atom %d: %w", e.PoolID, err)
	}
	return nil
}

// RecordTripleCreated persists the creation event row for a triple pool. The
// reference table row is written by SavePool; this keeps the creator.
func RecordTripleCreated(e types.TripleCreated) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	stmt := `
		INSERT INTO triples (pool_id, subject_id, predicate_id, object_id, counter_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pool_id) DO NOTHING;`
	if _, err := DB.Exec(stmt, int64(e.PoolID), int64(e.SubjectID), int64(e.PredicateID), int64(e.ObjectID), int64(e.CounterID)); err != nil {
		return fmt.Errorf("failed to insert triple %d: %w", e.PoolID, err)
	}
	return nil
}

// AtomRow is one restored atom registry entry.
type AtomRow struct {
	PoolID      types.PoolID
	MetadataRef string
}

// LoadAtoms restores the atom registry entries.
func LoadAtoms() ([]AtomRow, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	rows, err := DB.Query(`SELECT pool_id, metadata_ref FROM atoms ORDER BY pool_id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query atoms: %w", err)
	}
	defer rows.Close()

	out := make([]AtomRow, 0)
	for rows.Next() {
		var (
			id  int64
			ref string
		)
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan atom row: %w", err)
		}
		out = append(out, AtomRow{PoolID: types.PoolID(id), MetadataRef: ref})
	}
	return out, rows.Err()
}
