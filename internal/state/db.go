// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS pools (
			pool_id BIGINT PRIMARY KEY,
			kind SMALLINT NOT NULL,
			total_value NUMERIC(60, 18) NOT NULL,
			total_shares NUMERIC(60, 18) NOT NULL,
			curve_name VARCHAR(64) NOT NULL,
			curve_slope NUMERIC(60, 18) NOT NULL DEFAULT 0,
			curve_offset NUMERIC(60, 18) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS balances (
			pool_id BIGINT NOT NULL REFERENCES pools(pool_id),
			holder TEXT NOT NULL,
			shares NUMERIC(60, 18) NOT NULL,
			PRIMARY KEY (pool_id, holder)
		);

		CREATE TABLE IF NOT EXISTS atoms (
			pool_id BIGINT PRIMARY KEY REFERENCES pools(pool_id),
			creator TEXT NOT NULL,
			delegate_account TEXT NOT NULL,
			metadata_ref TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS triples (
			pool_id BIGINT PRIMARY KEY REFERENCES pools(pool_id),
			subject_id BIGINT NOT NULL,
			predicate_id BIGINT NOT NULL,
			object_id BIGINT NOT NULL,
			counter_id BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS fee_schedules (
			pool_id BIGINT PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			entry_fee_bps BIGINT NOT NULL,
			exit_fee_bps BIGINT NOT NULL,
			protocol_fee_bps BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS settlements (
			settlement_id UUID PRIMARY KEY,
			kind VARCHAR(16) NOT NULL,
			pool_id BIGINT NOT NULL,
			caller TEXT NOT NULL,
			counterparty TEXT NOT NULL,
			shares_or_value_moved NUMERIC(60, 18) NOT NULL,
			net_amount NUMERIC(60, 18) NOT NULL,
			fee_retained NUMERIC(60, 18) NOT NULL,
			protocol_fee NUMERIC(60, 18) NOT NULL,
			pool_balance_after NUMERIC(60, 18) NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_settlements_pool ON settlements(pool_id, ts DESC);
	`

	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	log.Info().Msg("Database schema ensured successfully")
	return nil
}
