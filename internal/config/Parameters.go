/*

This file contains the default protocol parameters for the ledger.

The amounts are denominated in the ledger's value unit and were chosen for a
mainline deployment; override any of them through the MVL_* environment
variables when running testnets or local experiments.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/vaultgraph/mvl/internal/types"
)

// DefaultProtocolParams provides the baseline protocol economics used when
// no environment overrides are present.
var DefaultProtocolParams = types.ProtocolParams{
	// MinShare is the ghost share quantum seeded at pool creation. Small
	// enough to be economically irrelevant, large enough that a first
	// depositor cannot move the share price by donation.
	MinShare: sdkmath.LegacyMustNewDecFromStr("0.0000000000001"),

	// MinDeposit keeps dust deposits out. Below this the fee rounding alone
	// would distort the accounting.
	MinDeposit: sdkmath.LegacyMustNewDecFromStr("0.0003"),

	// MaxFeeBps caps every fee schedule component at 10%. Bounded admin
	// power: no schedule change can confiscate deposits.
	MaxFeeBps: 1000,

	// AtomFractionBps sends 15% of a triple deposit's net value into the
	// three atoms it is composed of, keeping atom and triple economics
	// coupled.
	AtomFractionBps: 1500,

	AtomCreationFee:   sdkmath.LegacyMustNewDecFromStr("0.0002"),
	TripleCreationFee: sdkmath.LegacyMustNewDecFromStr("0.0002"),

	// AtomWalletSeed is the share position minted to an atom's delegate
	// account at creation.
	AtomWalletSeed: sdkmath.LegacyMustNewDecFromStr("0.0001"),

	// TripleAtomSeed is split across the three atoms when a triple is
	// created, value-only, with no shares minted.
	TripleAtomSeed: sdkmath.LegacyMustNewDecFromStr("0.0003"),

	ProtocolAccount: "protocol",
	AdminAccount:    "admin",
}

// DefaultFeeSchedule backs every pool without an explicit schedule row
// (stored under pool 0).
var DefaultFeeSchedule = types.FeeSchedule{
	EntryFeeBps:    500, // 5%, retained in the pool
	ExitFeeBps:     500, // 5%, retained in the pool
	ProtocolFeeBps: 100, // 1%, forwarded to the protocol account
}
