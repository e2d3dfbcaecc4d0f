// ./internal/state/settlement_store.go
package state

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// AppendSettlement writes one settlement record. The table is append-only;
// nothing in the core ever updates or deletes a row.
func AppendSettlement(s types.Settlement) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO settlements (
			settlement_id, kind, pool_id, caller, counterparty,
			shares_or_value_moved, net_amount, fee_retained, protocol_fee,
			pool_balance_after, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	_, err := DB.Exec(stmt,
		s.ID, string(s.Kind), int64(s.PoolID), string(s.Caller), string(s.Counterparty),
		s.SharesOrValueMoved.String(), s.NetAmountToCounterparty.String(),
		s.FeeRetained.String(), s.ProtocolFee.String(),
		s.PoolBalanceAfter.String(), s.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert settlement %s: %w", s.ID, err)
	}
	return nil
}

// ListSettlements returns the most recent settlements, newest first.
func ListSettlements(limit int) ([]types.Settlement, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := DB.Query(`
		SELECT settlement_id, kind, pool_id, caller, counterparty,
		       shares_or_value_moved, net_amount, fee_retained, protocol_fee,
		       pool_balance_after, ts
		FROM settlements ORDER BY ts DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	out := make([]types.Settlement, 0, limit)
	for rows.Next() {
		var s types.Settlement
		var kind, caller, counterparty string
		var poolID int64
		var moved, net, feeRetained, protocolFee, balanceAfter string
		var ts time.Time
		if err := rows.Scan(&s.ID, &kind, &poolID, &caller, &counterparty,
			&moved, &net, &feeRetained, &protocolFee, &balanceAfter, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		s.Kind = types.SettlementKind(kind)
		s.PoolID = types.PoolID(poolID)
		s.Caller = types.Holder(caller)
		s.Counterparty = types.Holder(counterparty)
		s.Timestamp = ts
		if s.SharesOrValueMoved, err = sdkmath.LegacyNewDecFromStr(moved); err != nil {
			return nil, fmt.Errorf("invalid settlement amount in %s: %w", s.ID, err)
		}
		if s.NetAmountToCounterparty, err = sdkmath.LegacyNewDecFromStr(net); err != nil {
			return nil, fmt.Errorf("invalid settlement net in %s: %w", s.ID, err)
		}
		if s.FeeRetained, err = sdkmath.LegacyNewDecFromStr(feeRetained); err != nil {
			return nil, fmt.Errorf("invalid settlement fee in %s: %w", s.ID, err)
		}
		if s.ProtocolFee, err = sdkmath.LegacyNewDecFromStr(protocolFee); err != nil {
			return nil, fmt.Errorf("invalid settlement protocol fee in %s: %w", s.ID, err)
		}
		if s.PoolBalanceAfter, err = sdkmath.LegacyNewDecFromStr(balanceAfter); err != nil {
			return nil, fmt.Errorf("invalid settlement balance in %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
