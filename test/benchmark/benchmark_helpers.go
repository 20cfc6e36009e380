package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arkilian/fetchbench/internal/seed"
	"github.com/arkilian/fetchbench/internal/store"
	"github.com/joho/godotenv"
)

// benchCustomers returns the dataset size, FETCHBENCH_BENCH_CUSTOMERS or 10000.
func benchCustomers() int {
	n := 10000
	if v := os.Getenv("FETCHBENCH_BENCH_CUSTOMERS"); v != "" {
		fmt.Sscanf(v, "%d", &n)
	}
	return n
}

// openBenchStore opens the store the benchmark runs against. It respects
// FETCHBENCH_STORE_DRIVER and FETCHBENCH_STORE_DSN from .env or the
// environment; by default it uses a fresh SQLite file in a temp dir.
func openBenchStore(b *testing.B) *store.Store {
	b.Helper()

	// Try loading .env from project root (../../.env relative to test/benchmark)
	_ = godotenv.Load("../../.env")

	driver := os.Getenv("FETCHBENCH_STORE_DRIVER")
	if driver == "" {
		driver = store.DriverSQLite3
	}
	dsn := os.Getenv("FETCHBENCH_STORE_DSN")

	if driver == store.DriverPgx {
		if dsn == "" {
			b.Skip("FETCHBENCH_STORE_DSN is required for the pgx benchmark")
		}
		b.Logf("Running benchmark against PostgreSQL")
	} else if dsn == "" {
		dsn = store.SQLiteDSN(driver, filepath.Join(b.TempDir(), "bench.db"))
	}

	s, err := store.Open(context.Background(), store.Config{Driver: driver, DSN: dsn})
	if err != nil {
		b.Fatalf("Failed to open store: %v", err)
	}
	b.Cleanup(func() { s.Close() })

	if err := s.Reset(context.Background()); err != nil {
		b.Fatalf("Failed to reset store: %v", err)
	}
	return s
}

// seededBenchStore opens a store holding n customers.
func seededBenchStore(b *testing.B, n int) *store.Store {
	b.Helper()
	s := openBenchStore(b)

	cfg := seed.DefaultConfig()
	cfg.Quiet = true
	if err := seed.NewSeeder(s, cfg).Seed(context.Background(), n); err != nil {
		b.Fatalf("Failed to seed store: %v", err)
	}
	return s
}
