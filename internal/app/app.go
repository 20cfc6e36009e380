// Package app wires configuration, store, seeder, runner and reporting into
// one benchmark run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/arkilian/fetchbench/internal/bench"
	"github.com/arkilian/fetchbench/internal/config"
	bencherrors "github.com/arkilian/fetchbench/internal/errors"
	"github.com/arkilian/fetchbench/internal/lifecycle"
	"github.com/arkilian/fetchbench/internal/observability"
	"github.com/arkilian/fetchbench/internal/report"
	"github.com/arkilian/fetchbench/internal/seed"
	"github.com/arkilian/fetchbench/internal/storage"
	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
)

// App manages the lifecycle of a benchmark run.
type App struct {
	cfg *config.Config
	out io.Writer

	// Shared resources
	store   *store.Store
	archive storage.ObjectStorage
	stats   *observability.TrialStats
	metrics *observability.Metrics

	// Lifecycle
	closers lifecycle.Closers
	mu      sync.Mutex
	running bool
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, bencherrors.Wrap(bencherrors.ErrCategoryValidation, bencherrors.CodeInvalidConfig,
			"invalid configuration", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg:     cfg,
		out:     os.Stdout,
		stats:   observability.NewTrialStats(),
		metrics: observability.NewMetrics(),
	}, nil
}

// SetOutput redirects the text report (default: stdout).
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Stats returns the per-trial samples of the last run.
func (a *App) Stats() *observability.TrialStats {
	return a.stats
}

// Run seeds the store once and benchmarks every configured strategy. It
// returns the results of the strategies that completed, along with the
// joined errors of those that did not.
func (a *App) Run(ctx context.Context) ([]*types.Result, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	started := time.Now()
	if err := a.initSharedResources(ctx); err != nil {
		return nil, err
	}

	if err := a.seed(ctx); err != nil {
		return nil, err
	}

	strategies, err := a.cfg.StrategyNames()
	if err != nil {
		return nil, err
	}

	runner := bench.DefaultRunnerConfig()
	runner.ClearCache = a.cfg.Benchmark.ClearCache
	runner.Recorders = []observability.TrialRecorder{a.stats, a.metrics}

	suite := bench.NewSuite(a.store, bench.SuiteConfig{
		Strategies: strategies,
		Trials:     a.cfg.Benchmark.Trials,
		Expected:   a.cfg.Seed.CustomerCount,
		Runner:     runner,
	})
	results, runErr := suite.RunAll(ctx)

	for _, r := range results {
		a.metrics.ObserveResult(r)
	}
	for _, s := range a.stats.GetSlowest(3) {
		log.Printf("Runner: slow trial %s #%d took %v", s.Strategy, s.Trial, s.Elapsed)
	}

	if err := report.WriteText(a.out, a.cfg.Seed.CustomerCount, results); err != nil {
		return results, errors.Join(runErr,
			bencherrors.NewReportError(bencherrors.CodeWriteFailed, "failed to write text report", err))
	}

	outErr := a.writeOutputs(ctx, started, results, runErr)
	return results, errors.Join(runErr, outErr)
}

// initSharedResources opens the store and the archive backend.
func (a *App) initSharedResources(ctx context.Context) error {
	if a.store == nil {
		st, err := store.Open(ctx, store.Config{
			Driver:       a.cfg.Store.Driver,
			DSN:          a.cfg.Store.DSN,
			MaxOpenConns: a.cfg.Store.MaxOpenConns,
		})
		if err != nil {
			return bencherrors.NewStoreError(bencherrors.CodeOpenFailed, "failed to open store", err)
		}
		a.store = st
		if err := a.closers.RegisterFunc(a.closeStore); err != nil {
			return err
		}
		if a.store == nil {
			return fmt.Errorf("app is closed")
		}
	}

	if a.archive != nil {
		return nil
	}

	var err error
	switch a.cfg.Report.Archive.Type {
	case config.ArchiveNone:
		return nil
	case config.ArchiveLocal:
		a.archive, err = storage.NewLocalStorage(a.cfg.Report.Archive.Path)
	case config.ArchiveS3:
		a.archive, err = storage.NewS3Storage(ctx, a.cfg.Report.Archive.S3.Bucket, storage.S3Config{
			Region:       a.cfg.Report.Archive.S3.Region,
			Endpoint:     a.cfg.Report.Archive.S3.Endpoint,
			UsePathStyle: a.cfg.Report.Archive.S3.UsePathStyle,
		})
	default:
		return fmt.Errorf("unsupported archive type: %s", a.cfg.Report.Archive.Type)
	}
	if err != nil {
		return bencherrors.NewReportError(bencherrors.CodeArchiveFailed, "failed to initialize archive", err)
	}
	return nil
}

// seed recreates the customers table and populates it before any benchmark.
func (a *App) seed(ctx context.Context) error {
	if err := a.store.Reset(ctx); err != nil {
		return bencherrors.NewStoreError(bencherrors.CodeQueryFailed, "failed to reset customers table", err)
	}

	cfg := seed.DefaultConfig()
	cfg.BatchSize = a.cfg.Seed.BatchSize

	start := time.Now()
	if err := seed.NewSeeder(a.store, cfg).Seed(ctx, a.cfg.Seed.CustomerCount); err != nil {
		return err
	}
	log.Printf("Seeder: %d customers ready in %v", a.cfg.Seed.CustomerCount, time.Since(start).Round(time.Millisecond))
	return nil
}

// writeOutputs writes the run file, the metrics textfile and the archive copy.
func (a *App) writeOutputs(ctx context.Context, started time.Time, results []*types.Result, runErr error) error {
	var errs []error

	if path := a.cfg.Report.JSONPath; path != "" {
		run := &report.Run{
			StartedAt: started.UTC(),
			Finished:  time.Now().UTC(),
			Driver:    a.cfg.Store.Driver,
			Customers: a.cfg.Seed.CustomerCount,
			BatchSize: a.cfg.Seed.BatchSize,
			Trials:    a.cfg.Benchmark.Trials,
			Results:   results,
		}
		if runErr != nil {
			run.Errors = []string{runErr.Error()}
		}

		if err := report.WriteJSONFile(path, run); err != nil {
			errs = append(errs, bencherrors.NewReportError(bencherrors.CodeWriteFailed, "failed to write run file", err))
		} else if a.archive != nil {
			key, err := storage.Archive(ctx, a.archive, a.cfg.Report.Archive.Prefix, started, path)
			if err != nil {
				errs = append(errs, bencherrors.NewReportError(bencherrors.CodeArchiveFailed, "failed to archive run file", err))
			} else {
				log.Printf("Report: archived run file as %s", key)
			}
		}
	}

	if path := a.cfg.Report.MetricsPath; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, bencherrors.NewReportError(bencherrors.CodeWriteFailed, "failed to write metrics", err))
		}
	}

	return errors.Join(errs...)
}

// Close releases every resource opened by Run.
func (a *App) Close() error {
	return a.closers.Close()
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
