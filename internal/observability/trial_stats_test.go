package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/arkilian/fetchbench/pkg/types"
)

// TestRecordTrialConcurrent tests concurrent RecordTrial calls for race conditions.
func TestRecordTrialConcurrent(t *testing.T) {
	ts := NewTrialStats()
	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				ts.RecordTrial(types.StrategyTuple, time.Millisecond, 10)
				ts.RecordTrial(types.StrategyMapped, 2*time.Millisecond, 10)
			}
		}()
	}
	wg.Wait()

	expected := numGoroutines * recordsPerGoroutine
	for _, name := range []types.StrategyName{types.StrategyTuple, types.StrategyMapped} {
		samples := ts.Samples(name)
		if len(samples) != expected {
			t.Fatalf("expected %d samples for %s, got %d", expected, name, len(samples))
		}
		for i, s := range samples {
			if s.Trial != i+1 {
				t.Fatalf("sample %d of %s numbered %d", i, name, s.Trial)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	ms := time.Millisecond
	durations := []time.Duration{5 * ms, 1 * ms, 4 * ms, 2 * ms, 3 * ms}

	s := Summarize(durations)
	if s.Count != 5 {
		t.Errorf("expected count 5, got %d", s.Count)
	}
	if s.Total != 15*ms {
		t.Errorf("expected total 15ms, got %v", s.Total)
	}
	if s.Mean != 3*ms {
		t.Errorf("expected mean 3ms, got %v", s.Mean)
	}
	if s.Min != 1*ms || s.Max != 5*ms {
		t.Errorf("expected min 1ms and max 5ms, got %v and %v", s.Min, s.Max)
	}
	if s.P50 != 3*ms {
		t.Errorf("expected p50 3ms, got %v", s.P50)
	}
	if s.P95 != 5*ms {
		t.Errorf("expected p95 5ms, got %v", s.P95)
	}

	// Input order must be preserved.
	if durations[0] != 5*ms {
		t.Errorf("Summarize sorted its input in place")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := make([]time.Duration, 20)
	for i := range sorted {
		sorted[i] = time.Duration(i + 1)
	}
	tests := []struct {
		p    int
		want time.Duration
	}{
		{50, 10},
		{95, 19},
		{100, 20},
		{1, 1},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%d) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

// TestGetSlowestOrdering tests that GetSlowest returns samples sorted by duration.
func TestGetSlowestOrdering(t *testing.T) {
	ts := NewTrialStats()
	ts.RecordTrial(types.StrategyRepository, 30*time.Millisecond, 1)
	ts.RecordTrial(types.StrategyTuple, 10*time.Millisecond, 1)
	ts.RecordTrial(types.StrategyStateless, 50*time.Millisecond, 1)
	ts.RecordTrial(types.StrategyTuple, 20*time.Millisecond, 1)

	slowest := ts.GetSlowest(2)
	if len(slowest) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(slowest))
	}
	if slowest[0].Strategy != types.StrategyStateless || slowest[1].Strategy != types.StrategyRepository {
		t.Errorf("unexpected order: %+v", slowest)
	}

	if got := ts.GetSlowest(10); len(got) != 4 {
		t.Errorf("expected all 4 samples, got %d", len(got))
	}
	if got := ts.GetSlowest(0); len(got) != 0 {
		t.Errorf("expected no samples for n=0, got %d", len(got))
	}
}

func TestSummaryAndReset(t *testing.T) {
	ts := NewTrialStats()
	ts.RecordTrial(types.StrategyTuple, 2*time.Millisecond, 5)
	ts.RecordTrial(types.StrategyTuple, 4*time.Millisecond, 5)

	if got := ts.Summary(types.StrategyTuple).Mean; got != 3*time.Millisecond {
		t.Errorf("expected mean 3ms, got %v", got)
	}

	ts.Reset(types.StrategyTuple)
	if got := ts.Summary(types.StrategyTuple).Count; got != 0 {
		t.Errorf("expected no samples after reset, got %d", got)
	}
}
