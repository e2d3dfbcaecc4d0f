// ./internal/state/pool_store.go
package state

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/vaultgraph/mvl/internal/types"
)

// SavePool upserts one pool row and rewrites its balance rows in a single
// transaction, so the store never shows a pool whose balances do not sum to
// its supply.
func SavePool(pool *types.Pool, refs *types.TripleRefs) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	slope := sdkmath.LegacyZeroDec()
	offset := sdkmath.LegacyZeroDec()
	if !pool.CurveParams.Slope.IsNil() {
		slope = pool.CurveParams.Slope
	}
	if !pool.CurveParams.Offset.IsNil() {
		offset = pool.CurveParams.Offset
	}

	upsertPool := `
		INSERT INTO pools (pool_id, kind, total_value, total_shares, curve_name, curve_slope, curve_offset)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pool_id) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			total_shares = EXCLUDED.total_shares,
			updated_at = CURRENT_TIMESTAMP;`
	_, err = tx.Exec(upsertPool,
		int64(pool.ID), int(pool.Kind), pool.TotalValue.String(), pool.TotalShares.String(),
		pool.CurveName, slope.String(), offset.String())
	if err != nil {
		return fmt.Errorf("failed to upsert pool %d: %w", pool.ID, err)
	}

	if _, err = tx.Exec(`DELETE FROM balances WHERE pool_id = $1;`, int64(pool.ID)); err != nil {
		return fmt.Errorf("failed to clear balances for pool %d: %w", pool.ID, err)
	}
	insertBalance := `INSERT INTO balances (pool_id, holder, shares) VALUES ($1, $2, $3);`
	for holder, shares := range pool.Balances {
		if _, err = tx.Exec(insertBalance, int64(pool.ID), string(holder), shares.String()); err != nil {
			return fmt.Errorf("failed to insert balance for pool %d holder %q: %w", pool.ID, holder, err)
		}
	}

	if refs != nil {
		upsertTriple := `
			INSERT INTO triples (pool_id, subject_id, predicate_id, object_id, counter_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (pool_id) DO NOTHING;`
		_, err = tx.Exec(upsertTriple,
			int64(pool.ID), int64(refs.SubjectID), int64(refs.PredicateID), int64(refs.ObjectID), int64(refs.CounterID))
		if err != nil {
			return fmt.Errorf("failed to upsert triple refs for pool %d: %w", pool.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pool save: %w", err)
	}
	return nil
}

// LoadPools restores every pool, its balances, and the triple reference
// table from the store.
func LoadPools() ([]*types.Pool, map[types.PoolID]types.TripleRefs, error) {
	if DB == nil {
		return nil, nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`SELECT pool_id, kind, total_value, total_shares, curve_name, curve_slope, curve_offset FROM pools ORDER BY pool_id;`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	pools := make([]*types.Pool, 0)
	byID := make(map[types.PoolID]*types.Pool)
	for rows.Next() {
		var id int64
		var kind int
		var totalValue, totalShares, curveName, slopeStr, offsetStr string
		if err := rows.Scan(&id, &kind, &totalValue, &totalShares, &curveName, &slopeStr, &offsetStr); err != nil {
			return nil, nil, fmt.Errorf("failed to scan pool row: %w", err)
		}
		pool := &types.Pool{
			ID:        types.PoolID(id),
			Kind:      types.PoolKind(kind),
			CurveName: curveName,
			Balances:  make(map[types.Holder]sdkmath.LegacyDec),
		}
		if pool.TotalValue, err = sdkmath.LegacyNewDecFromStr(totalValue); err != nil {
			return nil, nil, fmt.Errorf("invalid total_value for pool %d: %w", id, err)
		}
		if pool.TotalShares, err = sdkmath.LegacyNewDecFromStr(totalShares); err != nil {
			return nil, nil, fmt.Errorf("invalid total_shares for pool %d: %w", id, err)
		}
		if pool.CurveParams.Slope, err = sdkmath.LegacyNewDecFromStr(slopeStr); err != nil {
			return nil, nil, fmt.Errorf("invalid curve_slope for pool %d: %w", id, err)
		}
		if pool.CurveParams.Offset, err = sdkmath.LegacyNewDecFromStr(offsetStr); err != nil {
			return nil, nil, fmt.Errorf("invalid curve_offset for pool %d: %w", id, err)
		}
		pools = append(pools, pool)
		byID[pool.ID] = pool
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("pool rows iteration failed: %w", err)
	}

	balRows, err := DB.Query(`SELECT pool_id, holder, shares FROM balances;`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer balRows.Close()
	for balRows.Next() {
		var (
			id     int64
			holder string
			shares string
		)
		if err := balRows.Scan(&id, &holder, &shares); err != nil {
			return nil, nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		pool, ok := byID[types.PoolID(id)]
		if !ok {
			log.Warn().Int64("pool", id).Msg("Balance row references unknown pool, skipping")
			continue
		}
		dec, err := sdkmath.LegacyNewDecFromStr(shares)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid balance for pool %d holder %q: %w", id, holder, err)
		}
		pool.Balances[types.Holder(holder)] = dec
	}
	if err := balRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("balance rows iteration failed: %w", err)
	}

	triples := make(map[types.PoolID]types.TripleRefs)
	tripleRows, err := DB.Query(`SELECT pool_id, subject_id, predicate_id, object_id, counter_id FROM triples;`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query triples: %w", err)
	}
	defer tripleRows.Close()
	for tripleRows.Next() {
		var id, subject, predicate, object, counter int64
		if err := tripleRows.Scan(&id, &subject, &predicate, &object, &counter); err != nil {
			return nil, nil, fmt.Errorf("failed to scan triple row: %w", err)
		}
		triples[types.PoolID(id)] = types.TripleRefs{
			SubjectID:   types.PoolID(subject),
			PredicateID: types.PoolID(predicate),
			ObjectID:    types.PoolID(object),
			CounterID:   types.PoolID(counter),
		}
	}
	if err := tripleRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("triple rows iteration failed: %w", err)
	}

	log.Info().Int("pools", len(pools)).Int("triples", len(triples)).Msg("Restored ledger state from database")
	return pools, triples, nil
}
