// Package observability records per-trial latencies for the benchmark runner
// and exports them as summaries and Prometheus metrics.
package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/arkilian/fetchbench/pkg/types"
)

// TrialRecorder receives every measured (non warm-up) trial.
type TrialRecorder interface {
	RecordTrial(strategy types.StrategyName, elapsed time.Duration, rows int)
}

// Sample is one measured trial.
type Sample struct {
	Strategy types.StrategyName
	Trial    int
	Elapsed  time.Duration
	Rows     int
}

// Summary aggregates the samples of one strategy.
type Summary struct {
	Count int
	Total time.Duration
	Mean  time.Duration
	Min   time.Duration
	Max   time.Duration
	P50   time.Duration
	P95   time.Duration
}

// TrialStats keeps the measured samples of every strategy in arrival order.
type TrialStats struct {
	mu      sync.RWMutex
	samples map[types.StrategyName][]Sample
}

// NewTrialStats creates an empty trial statistics tracker.
func NewTrialStats() *TrialStats {
	return &TrialStats{
		samples: make(map[types.StrategyName][]Sample),
	}
}

// RecordTrial appends a sample for the strategy. Trials are numbered from 1.
// This method is thread-safe.
func (s *TrialStats) RecordTrial(strategy types.StrategyName, elapsed time.Duration, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := s.samples[strategy]
	s.samples[strategy] = append(samples, Sample{
		Strategy: strategy,
		Trial:    len(samples) + 1,
		Elapsed:  elapsed,
		Rows:     rows,
	})
}

// Samples returns a copy of the samples recorded for the strategy.
func (s *TrialStats) Samples(strategy types.StrategyName) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sample, len(s.samples[strategy]))
	copy(out, s.samples[strategy])
	return out
}

// Summary aggregates the samples recorded for the strategy.
func (s *TrialStats) Summary(strategy types.StrategyName) Summary {
	s.mu.RLock()
	durations := make([]time.Duration, 0, len(s.samples[strategy]))
	for _, sample := range s.samples[strategy] {
		durations = append(durations, sample.Elapsed)
	}
	s.mu.RUnlock()

	return Summarize(durations)
}

// GetSlowest returns the n slowest samples across all strategies, slowest first.
func (s *TrialStats) GetSlowest(n int) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []Sample{}
	}

	all := make([]Sample, 0)
	for _, samples := range s.samples {
		all = append(all, samples...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Elapsed == all[j].Elapsed {
			if all[i].Strategy == all[j].Strategy {
				return all[i].Trial < all[j].Trial
			}
			return all[i].Strategy < all[j].Strategy
		}
		return all[i].Elapsed > all[j].Elapsed
	})

	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// Reset drops the samples of the strategy so it can be measured again.
func (s *TrialStats) Reset(strategy types.StrategyName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.samples, strategy)
}

// Summarize computes count, total, mean, extremes and nearest-rank
// percentiles. The input slice is not modified. An empty input yields the
// zero Summary.
func Summarize(durations []time.Duration) Summary {
	if len(durations) == 0 {
		return Summary{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return Summary{
		Count: len(sorted),
		Total: total,
		Mean:  total / time.Duration(len(sorted)),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
