package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vaultgraph/mvl/internal/config"
	"github.com/vaultgraph/mvl/internal/coordinator"
	"github.com/vaultgraph/mvl/internal/ledger"
	"github.com/vaultgraph/mvl/internal/logger"
	"github.com/vaultgraph/mvl/internal/registry"
	"github.com/vaultgraph/mvl/internal/state"
	"github.com/vaultgraph/mvl/internal/web"
)

// main is the entry point for the MVL service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("MVL Multi-Vault Ledger Starting...")

	params, defaultSchedule, err := config.LoadProtocolParams()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load protocol parameters")
	}

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Restore Phase ---
	led := ledger.New(params.MinShare, defaultSchedule)
	reg := registry.NewMemory()

	pools, tripleRefs, err := state.LoadPools()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load pools from state store")
	}
	atoms, err := state.LoadAtoms()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load atoms from state store")
	}
	schedules, err := state.LoadFeeSchedules()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fee schedules from state store")
	}

	for _, atom := range atoms {
		reg.RestoreAtom(atom.PoolID, atom.MetadataRef)
	}
	for tripleID, refs := range tripleRefs {
		reg.RestoreTriple(tripleID, refs)
	}
	for _, pool := range pools {
		if r, ok := tripleRefs[pool.ID]; ok {
			led.Restore(pool, &r)
		} else {
			led.Restore(pool, nil)
		}
	}
	for poolID, schedule := range schedules {
		led.SetSchedule(poolID, schedule)
	}
	log.Info().Int("pools", len(pools)).Int("atoms", len(atoms)).Msg("State restored")

	// --- 3. Coordinator Initialization with Dependency Injection ---
	coord, err := coordinator.New(coordinator.Config{
		Ledger:   led,
		Registry: reg,
		Params:   params,
		Recorder: state.Recorder{},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create coordinator")
	}
	log.Info().Msg("Coordinator created successfully")

	// --- 4. Start Web Server ---
	webPort := config.WebPort
	webServer := web.NewWebServer(webPort, coord)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting MVL web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Wait for Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
