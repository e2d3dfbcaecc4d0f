package config

import (
	"errors"
	"os"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/vaultgraph/mvl/internal/types"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by LoadConfig.
var (
	// WebPort is the listen port of the read-only HTTP API.
	WebPort string
	// LogLevel controls zerolog's global level.
	LogLevel string
)

// LoadConfig loads service configuration from environment variables and sets
// the global config vars. Protocol parameters are loaded separately by
// LoadProtocolParams so tests can build them without touching the
// environment.
func LoadConfig() error {
	WebPort = getEnvOrDefault("MVL_WEB_PORT", "8080")
	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	log.Debug().
		Str("WebPort", WebPort).
		Str("LogLevel", LogLevel).
		Msg("Configuration loaded successfully.")

	return nil
}

// LoadProtocolParams builds the protocol parameter snapshot: the defaults
// from Parameters.go overridden by any MVL_* environment variables, then
// validated. The default fee schedule is checked against the ceiling here so
// a bad deployment fails at startup, not mid-operation.
func LoadProtocolParams() (types.ProtocolParams, types.FeeSchedule, error) {
	params := DefaultProtocolParams
	schedule := DefaultFeeSchedule

	var err error
	if params.MinShare, err = getEnvAsDec("MVL_MIN_SHARE", params.MinShare); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.MinDeposit, err = getEnvAsDec("MVL_MIN_DEPOSIT", params.MinDeposit); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.MaxFeeBps, err = getEnvAsUint64("MVL_MAX_FEE_BPS", params.MaxFeeBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.AtomFractionBps, err = getEnvAsUint64("MVL_ATOM_FRACTION_BPS", params.AtomFractionBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.AtomCreationFee, err = getEnvAsDec("MVL_ATOM_CREATION_FEE", params.AtomCreationFee); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.TripleCreationFee, err = getEnvAsDec("MVL_TRIPLE_CREATION_FEE", params.TripleCreationFee); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.AtomWalletSeed, err = getEnvAsDec("MVL_ATOM_WALLET_SEED", params.AtomWalletSeed); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if params.TripleAtomSeed, err = getEnvAsDec("MVL_TRIPLE_ATOM_SEED", params.TripleAtomSeed); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if schedule.EntryFeeBps, err = getEnvAsUint64("MVL_ENTRY_FEE_BPS", schedule.EntryFeeBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if schedule.ExitFeeBps, err = getEnvAsUint64("MVL_EXIT_FEE_BPS", schedule.ExitFeeBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if schedule.ProtocolFeeBps, err = getEnvAsUint64("MVL_PROTOCOL_FEE_BPS", schedule.ProtocolFeeBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if account, ok := os.LookupEnv("MVL_PROTOCOL_ACCOUNT"); ok {
		params.ProtocolAccount = types.Holder(account)
	}
	if account, ok := os.LookupEnv("MVL_ADMIN_ACCOUNT"); ok {
		params.AdminAccount = types.Holder(account)
	}

	if err := schedule.Validate(params.MaxFeeBps); err != nil {
		return types.ProtocolParams{}, types.FeeSchedule{}, err
	}
	if !params.MinShare.IsPositive() {
		return types.ProtocolParams{}, types.FeeSchedule{}, errors.New("MVL_MIN_SHARE must be positive")
	}

	return params, schedule, nil
}

// getEnvOrDefault retrieves a string environment variable, falling back to
// the given default when unset.
func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsUint64 retrieves an environment variable as uint64, falling back
// to the given default when unset.
func getEnvAsUint64(key string, fallback uint64) (uint64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " is not a valid unsigned integer")
	}
	return parsed, nil
}

// getEnvAsDec retrieves an environment variable as a decimal, falling back
// to the given default when unset.
func getEnvAsDec(key string, fallback sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	parsed, err := sdkmath.LegacyNewDecFromStr(value)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.New("environment variable " + key + " is not a valid decimal")
	}
	return parsed, nil
}
