// Package report renders benchmark results as text and as JSON run files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/dustin/go-humanize"
	"github.com/golang/snappy"
)

// SnappySuffix marks a run file whose JSON body is snappy-framed.
const SnappySuffix = ".sz"

// Run is the JSON document describing one benchmark invocation.
type Run struct {
	StartedAt time.Time       `json:"started_at"`
	Finished  time.Time       `json:"finished_at"`
	Driver    string          `json:"driver"`
	Customers int             `json:"customers"`
	BatchSize int             `json:"batch_size"`
	Trials    int             `json:"trials"`
	Results   []*types.Result `json:"results"`
	Errors    []string        `json:"errors,omitempty"`
}

// WriteText prints one line per result: label, run count and average
// milliseconds, followed by the supplementary spread columns.
func WriteText(w io.Writer, rows int, results []*types.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Dataset: %s customers\n", humanize.Comma(int64(rows)))
	fmt.Fprintln(tw, "STRATEGY\tRUNS\tAVG (ms)\tMIN\tP50\tP95\tMAX")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Strategy.Label(),
			humanize.Comma(int64(r.Trials)),
			humanize.CommafWithDigits(r.AverageMillis, 3),
			formatMillis(r.Min),
			formatMillis(r.P50),
			formatMillis(r.P95),
			formatMillis(r.Max),
		)
	}
	return tw.Flush()
}

// Line renders a single result as "label, runs, average ms".
func Line(r *types.Result) string {
	return fmt.Sprintf("%s, %d runs, %s ms", r.Strategy.Label(), r.Trials,
		humanize.CommafWithDigits(r.AverageMillis, 3))
}

func formatMillis(d time.Duration) string {
	return humanize.CommafWithDigits(types.Millis(d), 3)
}

// WriteJSONFile writes run to path. Paths ending in ".sz" are
// snappy-compressed. The file is written to a temporary sibling first and
// renamed into place.
func WriteJSONFile(path string, run *Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("report: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".fetchbench-*.tmp")
	if err != nil {
		return fmt.Errorf("report: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmp
	var sw *snappy.Writer
	if strings.HasSuffix(path, SnappySuffix) {
		sw = snappy.NewBufferedWriter(tmp)
		w = sw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		tmp.Close()
		return fmt.Errorf("report: failed to encode run: %w", err)
	}
	if sw != nil {
		if err := sw.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("report: failed to flush snappy stream: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("report: failed to rename run file: %w", err)
	}
	return nil
}

// ReadJSONFile reads a run file written by WriteJSONFile.
func ReadJSONFile(path string) (*Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: failed to open run file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, SnappySuffix) {
		r = snappy.NewReader(f)
	}

	var run Run
	if err := json.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("report: failed to decode run file: %w", err)
	}
	return &run, nil
}
