// Package main implements the fetchbench binary: it seeds the customers
// table once and times every fetch strategy against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arkilian/fetchbench/internal/app"
	"github.com/arkilian/fetchbench/internal/config"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flagValues holds the command line overrides. Zero values (and -1 for
// trials) mean "not set".
type flagValues struct {
	configFile  string
	dataDir     string
	driver      string
	dsn         string
	customers   int
	batchSize   int
	trials      int
	strategies  string
	jsonPath    string
	metricsPath string
}

func main() {
	var (
		fv          flagValues
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&fv.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&fv.dataDir, "data-dir", "", "Base directory for the database and result files")
	flag.StringVar(&fv.driver, "driver", "", "Database driver: sqlite3, sqlite, pgx")
	flag.StringVar(&fv.dsn, "dsn", "", "Data source name (required for pgx)")
	flag.IntVar(&fv.customers, "customers", 0, "Number of customers to seed")
	flag.IntVar(&fv.batchSize, "batch-size", 0, "Customers per flush during seeding")
	flag.IntVar(&fv.trials, "trials", -1, "Measured runs per strategy (warm-up excluded)")
	flag.StringVar(&fv.strategies, "strategies", "", "Comma-separated strategies: repository, tuple, mapped, stateless")
	flag.StringVar(&fv.jsonPath, "json", "", "Write the run file here (.sz for snappy compression)")
	flag.StringVar(&fv.metricsPath, "metrics", "", "Write a Prometheus textfile here")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "fetchbench - bulk-read strategy benchmark\n\n")
		fmt.Fprintf(os.Stderr, "Usage: fetchbench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fetchbench --customers 100000 --trials 5\n")
		fmt.Fprintf(os.Stderr, "  fetchbench --driver pgx --dsn postgres://bench@localhost/bench\n")
		fmt.Fprintf(os.Stderr, "  fetchbench --config /etc/fetchbench/config.yaml --json run.json.sz\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_DATA_DIR              Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_STORE_DRIVER          Database driver\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_STORE_DSN             Data source name\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_SEED_CUSTOMER_COUNT   Customers to seed\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_BENCHMARK_TRIALS      Measured runs per strategy\n")
		fmt.Fprintf(os.Stderr, "  FETCHBENCH_ARCHIVE_TYPE          Run file archive (none, local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("fetchbench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := loadConfig(fv)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Close()

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := application.Run(ctx); err != nil {
		log.Printf("Benchmark failed: %v", err)
		application.Close()
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(fv flagValues) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if fv.configFile != "" {
		cfg, err = config.LoadFromFile(fv.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if fv.dataDir != "" {
		cfg.DataDir = fv.dataDir
	}
	if fv.driver != "" {
		cfg.Store.Driver = fv.driver
	}
	if fv.dsn != "" {
		cfg.Store.DSN = fv.dsn
	}
	if fv.customers > 0 {
		cfg.Seed.CustomerCount = fv.customers
	}
	if fv.batchSize > 0 {
		cfg.Seed.BatchSize = fv.batchSize
	}
	if fv.trials >= 0 {
		cfg.Benchmark.Trials = fv.trials
	}
	if fv.strategies != "" {
		cfg.Benchmark.Strategies = strings.Split(fv.strategies, ",")
	}
	if fv.jsonPath != "" {
		cfg.Report.JSONPath = fv.jsonPath
	}
	if fv.metricsPath != "" {
		cfg.Report.MetricsPath = fv.metricsPath
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                      FETCHBENCH                           ║")
	log.Printf("║          Bulk-Read Strategy Micro-Benchmark               ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Driver:     %s", cfg.Store.Driver)
	if cfg.Store.Path != "" {
		log.Printf("  Database:   %s", cfg.Store.Path)
	}
	log.Printf("  Customers:  %d (batch %d)", cfg.Seed.CustomerCount, cfg.Seed.BatchSize)
	log.Printf("  Trials:     %d (+1 warm-up)", cfg.Benchmark.Trials)
	strategies := "all"
	if len(cfg.Benchmark.Strategies) > 0 {
		strategies = strings.Join(cfg.Benchmark.Strategies, ", ")
	}
	log.Printf("  Strategies: %s", strategies)
	log.Printf("  Archive:    %s", cfg.Report.Archive.Type)
	log.Printf("")
}
