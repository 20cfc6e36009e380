package bench

import (
	"context"
	"fmt"
	"log"
	"time"

	bencherrors "github.com/arkilian/fetchbench/internal/errors"
	"github.com/arkilian/fetchbench/internal/observability"
	"github.com/arkilian/fetchbench/internal/report"
	"github.com/arkilian/fetchbench/pkg/types"
)

// RunnerConfig holds the runner settings.
type RunnerConfig struct {
	// ClearCache empties the tracked session's identity map before every
	// iteration, so each trial loads entities from the driver
	ClearCache bool

	// Clock is the time source used for measuring trials
	Clock func() time.Time

	// Recorders receive every measured trial
	Recorders []observability.TrialRecorder

	// Quiet suppresses the per-strategy log line
	Quiet bool
}

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ClearCache: true,
		Clock:      time.Now,
	}
}

// Runner times a strategy over a number of trials.
type Runner struct {
	config RunnerConfig
}

// NewRunner creates a runner.
func NewRunner(config RunnerConfig) *Runner {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Runner{config: config}
}

// Run executes trials+1 fetches of strategy. The first fetch is a warm-up:
// it is timed and validated but excluded from the result. Every fetch must
// return exactly expected customers.
func (r *Runner) Run(ctx context.Context, strategy Strategy, trials, expected int) (*types.Result, error) {
	name := strategy.Name()
	if trials < 0 {
		return nil, bencherrors.NewValidationError(bencherrors.CodeInvalidCount,
			fmt.Sprintf("trial count must not be negative, got %d", trials))
	}

	clearer, clears := strategy.(CacheClearer)
	samples := make([]time.Duration, 0, trials)
	var total time.Duration
	var fingerprint types.Fingerprint

	for i := 0; i <= trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.config.ClearCache && clears {
			clearer.ClearCache()
		}

		start := r.config.Clock()
		fetched, err := strategy.Fetch(ctx)
		elapsed := r.config.Clock().Sub(start)
		if err != nil {
			return nil, bencherrors.Wrap(bencherrors.ErrCategoryBenchmark, bencherrors.CodeFetchFailed,
				fmt.Sprintf("%s fetch failed", name), err,
			).WithDetails(map[string]interface{}{
				"strategy": string(name),
				"trial":    i,
			})
		}

		if len(fetched) != expected {
			return nil, bencherrors.RowCountMismatch(string(name), expected, len(fetched), i)
		}
		if i == 0 {
			fingerprint = types.FingerprintOf(fetched)
			continue
		}

		total += elapsed
		samples = append(samples, elapsed)
		for _, rec := range r.config.Recorders {
			rec.RecordTrial(name, elapsed, len(fetched))
		}
	}

	summary := observability.Summarize(samples)
	result := &types.Result{
		Strategy:    name,
		Trials:      trials,
		Total:       total,
		Min:         summary.Min,
		Max:         summary.Max,
		P50:         summary.P50,
		P95:         summary.P95,
		Rows:        expected,
		Fingerprint: fingerprint,
	}
	if trials > 0 {
		result.AverageMillis = types.Millis(total) / float64(trials)
	}

	if !r.config.Quiet {
		log.Printf("Runner: %s average", report.Line(result))
	}
	return result, nil
}
