package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DB is the reservation store the conflict engine reads from and writes
// decisions to.
type DB struct {
	*sql.DB
	logger *zerolog.Logger

	redis          *redis.Client
	cacheTTL       time.Duration
	bufferFallback float64
}

var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// NewDB opens the database, creating directories and tables as needed.
// bufferFallback is applied when a company has no buffer configured.
func NewDB(path string, bufferFallback float64, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout keep concurrent analysis requests from
	// tripping over each other.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:             db,
		logger:         logger,
		bufferFallback: bufferFallback,
	}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

// UseRedisCache enables read-through caching of company buffer configuration.
func (db *DB) UseRedisCache(client *redis.Client, ttl time.Duration) {
	db.redis = client
	db.cacheTTL = ttl
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			buffer_hours REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS vehicles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			plate TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (company_id) REFERENCES companies(id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			vehicle_id INTEGER NOT NULL,
			company_id INTEGER NOT NULL,
			client_name TEXT NOT NULL,
			client_phone TEXT,
			client_email TEXT,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			pickup_at DATETIME NOT NULL,
			return_at DATETIME NOT NULL,
			confirmed BOOLEAN NOT NULL DEFAULT 0,
			customer_originated BOOLEAN NOT NULL DEFAULT 0,
			creator_role TEXT,
			cancelled_at DATETIME,
			comment TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (vehicle_id) REFERENCES vehicles(id),
			FOREIGN KEY (company_id) REFERENCES companies(id)
		)`,
		`CREATE TABLE IF NOT EXISTS override_audit (
			id TEXT PRIMARY KEY,
			actor_id INTEGER NOT NULL,
			actor_name TEXT,
			created_at DATETIME NOT NULL,
			order_id INTEGER NOT NULL,
			order_snapshot TEXT NOT NULL,
			overridden TEXT NOT NULL,
			reason TEXT,
			severity TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_vehicle ON orders(vehicle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_dates ON orders(start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_confirmed ON orders(confirmed)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_cancelled ON orders(cancelled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_company ON vehicles(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_active ON vehicles(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_override_audit_actor ON override_audit(actor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_override_audit_created ON override_audit(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
