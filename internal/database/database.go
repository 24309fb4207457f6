package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"tavolo/internal/domain"
)

// DB is the sqlite-backed store for bookings, tables and reviews.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// A single writer connection keeps reserve/transition transactions
	// serialized without SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tables (
            id TEXT PRIMARY KEY,
            restaurant_id TEXT NOT NULL,
            table_number INTEGER NOT NULL,
            seats INTEGER NOT NULL,
            is_available BOOLEAN NOT NULL DEFAULT 1,
            available_dates TEXT NOT NULL DEFAULT '[]',
            unavailable_dates TEXT NOT NULL DEFAULT '[]',
            time_slots TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tables_restaurant_number
            ON tables(restaurant_id, table_number)`,

		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            restaurant_id TEXT NOT NULL,
            customer_id TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            table_id TEXT NOT NULL,
            table_number INTEGER NOT NULL,
            table_seats INTEGER NOT NULL,
            date_time DATETIME NOT NULL,
            party_size INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            attendance TEXT NOT NULL DEFAULT '',
            attendance_at DATETIME,
            booking_code TEXT NOT NULL,
            review_code TEXT NOT NULL DEFAULT '',
            additional_options TEXT NOT NULL DEFAULT '[]',
            has_guarantee BOOLEAN NOT NULL DEFAULT 0,
            guarantee_cents INTEGER NOT NULL DEFAULT 0,
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_code ON bookings(booking_code)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_restaurant ON bookings(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,

		`CREATE TABLE IF NOT EXISTS reviews (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL,
            restaurant_id TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            rating INTEGER NOT NULL,
            comment TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_booking ON reviews(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_restaurant ON reviews(restaurant_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec %q: %w", query[:40], err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure, optionally matched against an index/column fragment.
func isUniqueViolation(err error, fragment string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	return fragment == "" || strings.Contains(sqliteErr.Error(), fragment)
}

// mapNotFound converts sql.ErrNoRows to the domain sentinel.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (db *DB) Close() error {
	return db.DB.Close()
}
