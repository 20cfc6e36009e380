// Package store is the backing-store layer of the benchmark: a thin session
// layer over database/sql with a tracked session (identity map, write-behind
// buffer), a generic repository and a stateless, forward-only read handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPgx     = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// CustomersTable is the table holding seeded customers.
const CustomersTable = "customers"

// Config holds the connection settings for a Store.
type Config struct {
	// Driver is one of DriverSQLite3, DriverSQLite or DriverPgx
	Driver string

	// DSN is passed to sql.Open unchanged
	DSN string

	// MaxOpenConns caps the pool; 0 leaves the driver default
	MaxOpenConns int
}

// Store owns the connection pool and the dialect of the backing database.
type Store struct {
	db      *sql.DB
	driver  string
	dialect dialect
}

// dialect captures the few SQL differences between supported engines.
type dialect struct {
	dollarPlaceholders bool
	createCustomers    string
}

var dialects = map[string]dialect{
	DriverSQLite3: {
		createCustomers: `CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL
		)`,
	},
	DriverSQLite: {
		createCustomers: `CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL
		)`,
	},
	DriverPgx: {
		dollarPlaceholders: true,
		createCustomers: `CREATE TABLE IF NOT EXISTS customers (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL
		)`,
	},
}

// rebind rewrites '?' placeholders into the dialect's native form.
func (d dialect) rebind(query string) string {
	if !d.dollarPlaceholders {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SQLiteDSN builds the DSN for a file-backed SQLite database for the given
// driver, enabling WAL and a busy timeout so the stateless session can read
// while another connection holds a transaction.
func SQLiteDSN(driver, path string) string {
	switch driver {
	case DriverSQLite:
		return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
}

// Open opens the database and ensures the customers table exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store: dsn is required")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to connect: %w", err)
	}

	s := &Store{db: db, driver: cfg.Driver, dialect: d}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.createCustomers)
	return err
}

// Reset drops and recreates the customers table so every run starts from an
// empty dataset with fresh identifiers.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+CustomersTable); err != nil {
		return fmt.Errorf("store: failed to drop customers: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		return fmt.Errorf("store: failed to recreate customers: %w", err)
	}
	return nil
}

// Count returns the number of stored customers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+CustomersTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: failed to count customers: %w", err)
	}
	return n, nil
}

// Exec runs a statement outside of any session.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...); err != nil {
		return fmt.Errorf("store: failed to execute statement: %w", err)
	}
	return nil
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
