package types

import "errors"

// Error taxonomy for the ledger core. Every operation fails whole: callers
// observe exactly one of these (possibly wrapped) and no partial state change.
var (
	// ErrInvalidAmount is returned for zero or malformed value/share inputs.
	ErrInvalidAmount = errors.New("amount is invalid")
	// ErrBelowMinimum is returned when a deposit is under the pool's floor.
	ErrBelowMinimum = errors.New("deposit is below the configured minimum")
	// ErrInsufficientBalance is returned when a holder redeems more shares
	// than they own.
	ErrInsufficientBalance = errors.New("holder balance is insufficient")
	// ErrInsufficientSupply is returned when a redeem exceeds the pool's
	// total share supply.
	ErrInsufficientSupply = errors.New("pool share supply is insufficient")
	// ErrWouldUnderflowMinShare is returned when a redeem would leave the
	// pool's total supply below the minimum share quantum.
	ErrWouldUnderflowMinShare = errors.New("redeem would underflow the minimum share floor")
	// ErrUnknownPool is returned for operations against an identifier the
	// ledger has never seen.
	ErrUnknownPool = errors.New("pool does not exist")
	// ErrPoolExists is returned when a creation targets an identifier that
	// already backs a pool. Identifiers are never reused.
	ErrPoolExists = errors.New("pool already exists")
	// ErrOverflow signals the fixed-point range was exceeded; the curve's
	// maxShares/maxAssets bound was hit. Never silently clamped.
	ErrOverflow = errors.New("fixed-point overflow")
	// ErrReentrancyDetected is returned when a nested call re-enters the
	// coordinator for a pool whose outer operation has not yet committed.
	ErrReentrancyDetected = errors.New("reentrant call into an uncommitted pool operation")
	// ErrFeeScheduleInvalid is returned at configuration time when a fee
	// component exceeds its ceiling. Never raised on the call path.
	ErrFeeScheduleInvalid = errors.New("fee schedule exceeds the configured ceiling")
	// ErrUnauthorized is returned when a caller fails the trusted-caller
	// predicate for an administrative operation.
	ErrUnauthorized = errors.New("caller is not authorized")
)
