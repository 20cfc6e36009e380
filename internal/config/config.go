// Package config provides the configuration of a fetchbench run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
	"gopkg.in/yaml.v3"
)

// Archive types.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config holds the configuration of a benchmark run.
type Config struct {
	// DataDir is the base directory for the database and result files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Store configures the backing database
	Store StoreConfig `json:"store" yaml:"store"`

	// Seed configures the data seeder
	Seed SeedConfig `json:"seed" yaml:"seed"`

	// Benchmark configures the runner
	Benchmark BenchmarkConfig `json:"benchmark" yaml:"benchmark"`

	// Report configures result outputs
	Report ReportConfig `json:"report" yaml:"report"`
}

// StoreConfig holds backing-store configuration.
type StoreConfig struct {
	// Driver is sqlite3, sqlite or pgx
	Driver string `json:"driver" yaml:"driver"`

	// DSN overrides the data source name derived from Path
	DSN string `json:"dsn" yaml:"dsn"`

	// Path is the SQLite database file (SQLite drivers only)
	Path string `json:"path" yaml:"path"`

	// MaxOpenConns caps the connection pool; 0 keeps the driver default
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
}

// SeedConfig holds seeder configuration.
type SeedConfig struct {
	// CustomerCount is the number of customers seeded and expected from every fetch
	CustomerCount int `json:"customer_count" yaml:"customer_count"`

	// BatchSize is the number of customers between flush and clear
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// BenchmarkConfig holds runner configuration.
type BenchmarkConfig struct {
	// Trials is the number of measured runs per strategy (warm-up excluded)
	Trials int `json:"trials" yaml:"trials"`

	// Strategies to run, in order; empty runs all of them
	Strategies []string `json:"strategies" yaml:"strategies"`

	// ClearCache empties the tracked session before every trial
	ClearCache bool `json:"clear_cache" yaml:"clear_cache"`
}

// ReportConfig holds result output configuration.
type ReportConfig struct {
	// JSONPath is the run file; a ".sz" suffix enables snappy compression
	JSONPath string `json:"json_path" yaml:"json_path"`

	// MetricsPath is the Prometheus textfile
	MetricsPath string `json:"metrics_path" yaml:"metrics_path"`

	// Archive uploads the run file to object storage
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// ArchiveConfig holds run file archive configuration.
type ArchiveConfig struct {
	// Type is none, local or s3
	Type string `json:"type" yaml:"type"`

	// Path is the archive directory (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to every archive key
	Prefix string `json:"prefix" yaml:"prefix"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 archive configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/fetchbench",
		Store: StoreConfig{
			Driver: store.DriverSQLite3,
		},
		Seed: SeedConfig{
			CustomerCount: 500000,
			BatchSize:     1000,
		},
		Benchmark: BenchmarkConfig{
			Trials:     10,
			ClearCache: true,
		},
		Report: ReportConfig{
			Archive: ArchiveConfig{
				Type:   ArchiveNone,
				Prefix: "fetchbench",
			},
		},
	}
}

// Resolve fills derived paths and the data source name from DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/fetchbench"
	}

	if c.isSQLite() {
		if c.Store.Path == "" {
			c.Store.Path = filepath.Join(c.DataDir, "customers.db")
		}
		if c.Store.DSN == "" {
			c.Store.DSN = store.SQLiteDSN(c.Store.Driver, c.Store.Path)
		}
	}

	if c.Report.Archive.Type == "" {
		c.Report.Archive.Type = ArchiveNone
	}
	if c.Report.Archive.Type == ArchiveLocal && c.Report.Archive.Path == "" {
		c.Report.Archive.Path = filepath.Join(c.DataDir, "archive")
	}
}

func (c *Config) isSQLite() bool {
	return c.Store.Driver == store.DriverSQLite3 || c.Store.Driver == store.DriverSQLite
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Store.Driver {
	case store.DriverSQLite3, store.DriverSQLite:
	case store.DriverPgx:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the pgx driver")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be sqlite3, sqlite, or pgx)", c.Store.Driver)
	}

	if c.Seed.CustomerCount <= 0 {
		return fmt.Errorf("seed.customer_count must be positive, got %d", c.Seed.CustomerCount)
	}
	if c.Seed.BatchSize <= 0 {
		return fmt.Errorf("seed.batch_size must be positive, got %d", c.Seed.BatchSize)
	}
	if c.Benchmark.Trials < 0 {
		return fmt.Errorf("benchmark.trials must not be negative, got %d", c.Benchmark.Trials)
	}
	if _, err := c.StrategyNames(); err != nil {
		return err
	}

	switch c.Report.Archive.Type {
	case ArchiveNone, ArchiveLocal:
	case ArchiveS3:
		if c.Report.Archive.S3.Bucket == "" {
			return fmt.Errorf("report.archive.s3.bucket is required when archive type is s3")
		}
	default:
		return fmt.Errorf("invalid archive type: %s (must be none, local, or s3)", c.Report.Archive.Type)
	}
	if c.Report.Archive.Type != ArchiveNone && c.Report.JSONPath == "" {
		return fmt.Errorf("report.json_path is required when an archive is configured")
	}

	return nil
}

// StrategyNames parses the configured strategies. An empty list selects
// every strategy in the default order.
func (c *Config) StrategyNames() ([]types.StrategyName, error) {
	if len(c.Benchmark.Strategies) == 0 {
		return types.AllStrategies(), nil
	}
	names := make([]types.StrategyName, 0, len(c.Benchmark.Strategies))
	seen := make(map[types.StrategyName]bool)
	for _, s := range c.Benchmark.Strategies {
		name, err := types.ParseStrategy(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid benchmark strategy %q: %w", s, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("benchmark strategy %q listed twice", s)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the FETCHBENCH_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FETCHBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Store configuration
	if v := os.Getenv("FETCHBENCH_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("FETCHBENCH_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("FETCHBENCH_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("FETCHBENCH_STORE_MAX_OPEN_CONNS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Store.MaxOpenConns)
	}

	// Seed configuration
	if v := os.Getenv("FETCHBENCH_SEED_CUSTOMER_COUNT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Seed.CustomerCount)
	}
	if v := os.Getenv("FETCHBENCH_SEED_BATCH_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Seed.BatchSize)
	}

	// Benchmark configuration
	if v := os.Getenv("FETCHBENCH_BENCHMARK_TRIALS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Benchmark.Trials)
	}
	if v := os.Getenv("FETCHBENCH_BENCHMARK_STRATEGIES"); v != "" {
		cfg.Benchmark.Strategies = strings.Split(v, ",")
	}
	if v := os.Getenv("FETCHBENCH_BENCHMARK_CLEAR_CACHE"); v != "" {
		cfg.Benchmark.ClearCache = v == "true" || v == "1"
	}

	// Report configuration
	if v := os.Getenv("FETCHBENCH_REPORT_JSON_PATH"); v != "" {
		cfg.Report.JSONPath = v
	}
	if v := os.Getenv("FETCHBENCH_REPORT_METRICS_PATH"); v != "" {
		cfg.Report.MetricsPath = v
	}
	if v := os.Getenv("FETCHBENCH_ARCHIVE_TYPE"); v != "" {
		cfg.Report.Archive.Type = v
	}
	if v := os.Getenv("FETCHBENCH_ARCHIVE_PATH"); v != "" {
		cfg.Report.Archive.Path = v
	}
	if v := os.Getenv("FETCHBENCH_ARCHIVE_PREFIX"); v != "" {
		cfg.Report.Archive.Prefix = v
	}
	if v := os.Getenv("FETCHBENCH_S3_BUCKET"); v != "" {
		cfg.Report.Archive.S3.Bucket = v
	}
	if v := os.Getenv("FETCHBENCH_S3_REGION"); v != "" {
		cfg.Report.Archive.S3.Region = v
	}
	if v := os.Getenv("FETCHBENCH_S3_ENDPOINT"); v != "" {
		cfg.Report.Archive.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.isSQLite() && c.Store.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Store.Path))
	}
	if c.Report.JSONPath != "" {
		dirs = append(dirs, filepath.Dir(c.Report.JSONPath))
	}
	if c.Report.MetricsPath != "" {
		dirs = append(dirs, filepath.Dir(c.Report.MetricsPath))
	}
	if c.Report.Archive.Type == ArchiveLocal {
		dirs = append(dirs, c.Report.Archive.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
