/*

The fee engine is pure arithmetic over amounts and a fee schedule: it owns no
state and never touches the ledger. Every split is conservative to the
fixed-point unit — the input amount equals the sum of the output buckets, with
all rounding error accruing to the pool or the protocol, never the caller.

Ordering on deposit: the protocol fee is carved off the gross amount first
(rounded up), the entry fee off the remainder (rounded down, retained in the
pool), and what is left converts to shares. Redeem mirrors it: protocol fee
off the gross payout, exit fee off the remainder, rest to the receiver.

*/

package fees

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/fixedpoint"
	"github.com/vaultgraph/mvl/internal/types"
)

// DepositSplit is the outcome of splitting a gross deposit.
type DepositSplit struct {
	// NetForShares converts to shares at the pool's curve.
	NetForShares sdkmath.LegacyDec
	// EntryFeeRetained stays inside the pool, appreciating existing shares.
	EntryFeeRetained sdkmath.LegacyDec
	// ProtocolFee leaves the pool for the protocol account.
	ProtocolFee sdkmath.LegacyDec
}

// RedeemSplit is the outcome of splitting a gross redemption payout.
type RedeemSplit struct {
	// NetToReceiver is paid out.
	NetToReceiver sdkmath.LegacyDec
	// ExitFeeRetained stays inside the pool.
	ExitFeeRetained sdkmath.LegacyDec
	// ProtocolFee leaves the pool for the protocol account.
	ProtocolFee sdkmath.LegacyDec
}

// SplitOnDeposit splits a gross deposit per the schedule. waiveEntry skips
// the entry fee, used while the pool holds nothing but the ghost shares and
// there is nobody for the fee to appreciate.
func SplitOnDeposit(gross sdkmath.LegacyDec, schedule types.FeeSchedule, waiveEntry bool) (DepositSplit, error) {
	if err := fixedpoint.Validate(gross); err != nil {
		return DepositSplit{}, err
	}
	if gross.IsZero() {
		return DepositSplit{}, fmt.Errorf("%w: zero gross deposit", types.ErrInvalidAmount)
	}

	protocol, err := fixedpoint.MulBpsCeil(gross, schedule.ProtocolFeeBps)
	if err != nil {
		return DepositSplit{}, err
	}
	remainder := gross.Sub(protocol)

	entry := sdkmath.LegacyZeroDec()
	if !waiveEntry {
		entry, err = fixedpoint.MulBpsFloor(remainder, schedule.EntryFeeBps)
		if err != nil {
			return DepositSplit{}, err
		}
	}
	net := remainder.Sub(entry)
	if !net.IsPositive() {
		return DepositSplit{}, fmt.Errorf("%w: deposit of %s consumed entirely by fees", types.ErrInvalidAmount, gross)
	}

	return DepositSplit{NetForShares: net, EntryFeeRetained: entry, ProtocolFee: protocol}, nil
}

// SplitOnRedeem splits the value a burn releases. waiveExit skips the exit
// fee, used when the redemption leaves only the ghost shares behind.
func SplitOnRedeem(gross sdkmath.LegacyDec, schedule types.FeeSchedule, waiveExit bool) (RedeemSplit, error) {
	if err := fixedpoint.Validate(gross); err != nil {
		return RedeemSplit{}, err
	}
	if gross.IsZero() {
		return RedeemSplit{}, fmt.Errorf("%w: zero gross redemption", types.ErrInvalidAmount)
	}

	protocol, err := fixedpoint.MulBpsCeil(gross, schedule.ProtocolFeeBps)
	if err != nil {
		return RedeemSplit{}, err
	}
	remainder := gross.Sub(protocol)

	exit := sdkmath.LegacyZeroDec()
	if !waiveExit {
		exit, err = fixedpoint.MulBpsCeil(remainder, schedule.ExitFeeBps)
		if err != nil {
			return RedeemSplit{}, err
		}
	}
	net := remainder.Sub(exit)
	if net.IsNegative() {
		return RedeemSplit{}, fmt.Errorf("%w: redemption of %s consumed entirely by fees", types.ErrInvalidAmount, gross)
	}

	return RedeemSplit{NetToReceiver: net, ExitFeeRetained: exit, ProtocolFee: protocol}, nil
}

// AtomRedirect computes the slice of a triple deposit's net value that is
// siphoned into its three atom pools. perAtom is the floor third of the
// redirected amount; whatever the two floors lose to rounding stays with the
// depositor's net.
func AtomRedirect(netForShares sdkmath.LegacyDec, fractionBps uint64) (redirected, perAtom sdkmath.LegacyDec, err error) {
	if err := fixedpoint.Validate(netForShares); err != nil {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, err
	}
	slice, err := fixedpoint.MulBpsFloor(netForShares, fractionBps)
	if err != nil {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, err
	}
	perAtom, err = fixedpoint.Quo(slice, sdkmath.LegacyNewDec(3))
	if err != nil {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, err
	}
	redirected = perAtom.MulInt64(3)
	return redirected, perAtom, nil
}
