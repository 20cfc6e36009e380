package types

import "time"

// Result holds the outcome of benchmarking a single strategy.
type Result struct {
	// Strategy is the benchmarked strategy
	Strategy StrategyName `json:"strategy"`

	// Trials is the number of measured runs (warm-up excluded)
	Trials int `json:"trials"`

	// AverageMillis is Total / Trials in milliseconds, 0 when Trials is 0
	AverageMillis float64 `json:"average_ms"`

	// Total is the sum of all measured trial durations
	Total time.Duration `json:"total_ns"`

	// Min, Max, P50 and P95 summarize the measured samples
	Min time.Duration `json:"min_ns"`
	Max time.Duration `json:"max_ns"`
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`

	// Rows is the number of customers returned by every trial
	Rows int `json:"rows"`

	// Fingerprint is the order-independent digest of the fetched (first, last) pairs
	Fingerprint Fingerprint `json:"fingerprint"`
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
