package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500000, cfg.Seed.CustomerCount)
	assert.Equal(t, 1000, cfg.Seed.BatchSize)
	assert.Equal(t, 10, cfg.Benchmark.Trials)
	assert.True(t, cfg.Benchmark.ClearCache)
	assert.Equal(t, filepath.Join("./data/fetchbench", "customers.db"), cfg.Store.Path)
	assert.Equal(t, store.SQLiteDSN(store.DriverSQLite3, cfg.Store.Path), cfg.Store.DSN)
}

func TestResolve(t *testing.T) {
	cfg := &Config{
		DataDir: "/tmp/fb",
		Store:   StoreConfig{Driver: store.DriverSQLite},
		Report:  ReportConfig{Archive: ArchiveConfig{Type: ArchiveLocal}},
	}
	cfg.Resolve()

	assert.Equal(t, filepath.Join("/tmp/fb", "customers.db"), cfg.Store.Path)
	assert.Equal(t, store.SQLiteDSN(store.DriverSQLite, cfg.Store.Path), cfg.Store.DSN)
	assert.Equal(t, filepath.Join("/tmp/fb", "archive"), cfg.Report.Archive.Path)

	pg := &Config{Store: StoreConfig{Driver: store.DriverPgx, DSN: "postgres://localhost/bench"}}
	pg.Resolve()
	assert.Empty(t, pg.Store.Path)
	assert.Equal(t, "postgres://localhost/bench", pg.Store.DSN)
	assert.Equal(t, ArchiveNone, pg.Report.Archive.Type)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "invalid store driver"},
		{"pgx without dsn", func(c *Config) { c.Store.Driver = store.DriverPgx; c.Store.DSN = "" }, "store.dsn is required"},
		{"zero customers", func(c *Config) { c.Seed.CustomerCount = 0 }, "customer_count"},
		{"zero batch", func(c *Config) { c.Seed.BatchSize = 0 }, "batch_size"},
		{"negative trials", func(c *Config) { c.Benchmark.Trials = -1 }, "trials"},
		{"unknown strategy", func(c *Config) { c.Benchmark.Strategies = []string{"tuple", "orm"} }, "invalid benchmark strategy"},
		{"duplicate strategy", func(c *Config) { c.Benchmark.Strategies = []string{"tuple", "tuple"} }, "listed twice"},
		{"bad archive", func(c *Config) { c.Report.Archive.Type = "gcs" }, "invalid archive type"},
		{"s3 without bucket", func(c *Config) {
			c.Report.Archive.Type = ArchiveS3
			c.Report.JSONPath = "run.json"
		}, "bucket is required"},
		{"archive without run file", func(c *Config) { c.Report.Archive.Type = ArchiveLocal }, "json_path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("zero trials allowed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Resolve()
		cfg.Benchmark.Trials = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestStrategyNames(t *testing.T) {
	cfg := DefaultConfig()
	names, err := cfg.StrategyNames()
	require.NoError(t, err)
	assert.Equal(t, types.AllStrategies(), names)

	cfg.Benchmark.Strategies = []string{"stateless", " tuple"}
	names, err = cfg.StrategyNames()
	require.NoError(t, err)
	assert.Equal(t, []types.StrategyName{types.StrategyStateless, types.StrategyTuple}, names)
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetchbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/fetchbench
seed:
  customer_count: 2500
benchmark:
  trials: 5
  strategies: [tuple, stateless]
report:
  json_path: /var/lib/fetchbench/run.json.sz
  archive:
    type: s3
    s3:
      bucket: bench-results
      region: eu-west-1
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/fetchbench", cfg.DataDir)
	assert.Equal(t, 2500, cfg.Seed.CustomerCount)
	assert.Equal(t, 1000, cfg.Seed.BatchSize, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Benchmark.Trials)
	assert.True(t, cfg.Benchmark.ClearCache)
	assert.Equal(t, []string{"tuple", "stateless"}, cfg.Benchmark.Strategies)
	assert.Equal(t, "bench-results", cfg.Report.Archive.S3.Bucket)
	assert.Equal(t, "fetchbench", cfg.Report.Archive.Prefix)

	cfg.Resolve()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetchbench.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"driver":"sqlite"},"benchmark":{"clear_cache":false}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.False(t, cfg.Benchmark.ClearCache)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "fetchbench.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FETCHBENCH_STORE_DRIVER", "pgx")
	t.Setenv("FETCHBENCH_STORE_DSN", "postgres://bench@localhost/bench")
	t.Setenv("FETCHBENCH_SEED_CUSTOMER_COUNT", "2500")
	t.Setenv("FETCHBENCH_SEED_BATCH_SIZE", "250")
	t.Setenv("FETCHBENCH_BENCHMARK_TRIALS", "3")
	t.Setenv("FETCHBENCH_BENCHMARK_STRATEGIES", "mapped,repository")
	t.Setenv("FETCHBENCH_BENCHMARK_CLEAR_CACHE", "false")
	t.Setenv("FETCHBENCH_S3_BUCKET", "bucket")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, store.DriverPgx, cfg.Store.Driver)
	assert.Equal(t, "postgres://bench@localhost/bench", cfg.Store.DSN)
	assert.Equal(t, 2500, cfg.Seed.CustomerCount)
	assert.Equal(t, 250, cfg.Seed.BatchSize)
	assert.Equal(t, 3, cfg.Benchmark.Trials)
	assert.Equal(t, []string{"mapped", "repository"}, cfg.Benchmark.Strategies)
	assert.False(t, cfg.Benchmark.ClearCache)
	assert.Equal(t, "bucket", cfg.Report.Archive.S3.Bucket)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.Report.JSONPath = filepath.Join(base, "out", "run.json")
	cfg.Report.Archive.Type = ArchiveLocal
	cfg.Resolve()

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.DataDir, filepath.Join(base, "out"), cfg.Report.Archive.Path} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
