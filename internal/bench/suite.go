package bench

import (
	"context"
	"errors"
	"fmt"
	"log"

	bencherrors "github.com/arkilian/fetchbench/internal/errors"
	"github.com/arkilian/fetchbench/internal/store"
	"github.com/arkilian/fetchbench/pkg/types"
)

// SuiteConfig holds the settings of a full benchmark pass.
type SuiteConfig struct {
	// Strategies are run in this order; empty means types.AllStrategies()
	Strategies []types.StrategyName

	// Trials is the number of measured runs per strategy
	Trials int

	// Expected is the row count every fetch must return
	Expected int

	// Runner configures the per-strategy runner
	Runner RunnerConfig
}

// Suite runs every configured strategy against one store.
type Suite struct {
	store  *store.Store
	config SuiteConfig
	runner *Runner
}

// NewSuite creates a suite.
func NewSuite(s *store.Store, config SuiteConfig) *Suite {
	if len(config.Strategies) == 0 {
		config.Strategies = types.AllStrategies()
	}
	return &Suite{
		store:  s,
		config: config,
		runner: NewRunner(config.Runner),
	}
}

// RunAll runs every strategy in order. A failing strategy is recorded and
// the remaining ones still run. Once all have run, every result must carry
// the fingerprint of the first one. The returned results cover the
// strategies that completed; the error joins every failure.
func (s *Suite) RunAll(ctx context.Context) ([]*types.Result, error) {
	var results []*types.Result
	var errs []error

	for _, name := range s.config.Strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.runOne(ctx, name)
		if err != nil {
			log.Printf("Suite: %s failed: %v", name, err)
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}

	errs = append(errs, checkFingerprints(results)...)
	return results, errors.Join(errs...)
}

// runOne runs a tracked strategy inside its own session transaction, which
// is always rolled back. The stateless strategy manages its own.
func (s *Suite) runOne(ctx context.Context, name types.StrategyName) (*types.Result, error) {
	if name == types.StrategyStateless {
		return s.runner.Run(ctx, NewStatelessStrategy(s.store), s.config.Trials, s.config.Expected)
	}

	session := s.store.NewSession()
	if err := session.Begin(ctx); err != nil {
		return nil, bencherrors.NewStoreError(bencherrors.CodeSessionOpenFailed,
			fmt.Sprintf("failed to begin %s session", name), err)
	}
	defer session.Rollback()

	strategy, err := New(name, session, s.store)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, strategy, s.config.Trials, s.config.Expected)
}

func checkFingerprints(results []*types.Result) []error {
	if len(results) < 2 {
		return nil
	}
	reference := results[0]
	var errs []error
	for _, r := range results[1:] {
		if r.Fingerprint == reference.Fingerprint {
			continue
		}
		errs = append(errs, bencherrors.NewBenchmarkError(bencherrors.CodeFingerprintMismatch,
			fmt.Sprintf("%s fetched a different dataset than %s", r.Strategy, reference.Strategy),
		).WithDetails(map[string]interface{}{
			"strategy":  string(r.Strategy),
			"reference": string(reference.Strategy),
			"expected":  reference.Fingerprint.String(),
			"actual":    r.Fingerprint.String(),
		}))
	}
	return errs
}
