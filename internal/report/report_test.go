package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []*types.Result {
	return []*types.Result{
		{
			Strategy:      types.StrategyRepository,
			Trials:        10,
			AverageMillis: 1234.5678,
			Min:           1100 * time.Millisecond,
			Max:           1400 * time.Millisecond,
			Rows:          500000,
			Fingerprint:   0xdeadbeef,
		},
		{
			Strategy:      types.StrategyStateless,
			Trials:        10,
			AverageMillis: 410.25,
			Rows:          500000,
			Fingerprint:   0xdeadbeef,
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, 500000, sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "Dataset: 500,000 customers")
	assert.Contains(t, out, "Repository findAll")
	assert.Contains(t, out, "1,234.568")
	assert.Contains(t, out, "Stateless session")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestLine(t *testing.T) {
	assert.Equal(t, "Stateless session, 10 runs, 410.25 ms", Line(sampleResults()[1]))
	assert.Equal(t, "Raw tuple, 0 runs, 0 ms", Line(&types.Result{Strategy: types.StrategyTuple}))
}

func TestJSONFileRoundTrip(t *testing.T) {
	for _, name := range []string{"run.json", "run.json.sz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			run := &Run{
				StartedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
				Finished:  time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC),
				Driver:    "sqlite3",
				Customers: 500000,
				BatchSize: 1000,
				Trials:    10,
				Results:   sampleResults(),
				Errors:    []string{"boom"},
			}

			require.NoError(t, WriteJSONFile(path, run))
			got, err := ReadJSONFile(path)
			require.NoError(t, err)
			assert.Equal(t, run, got)

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file left behind")
		})
	}
}

func TestSnappyFileIsCompressed(t *testing.T) {
	dir := t.TempDir()
	run := &Run{Driver: "sqlite3", Results: sampleResults()}

	plain := filepath.Join(dir, "run.json")
	packed := filepath.Join(dir, "run.json.sz")
	require.NoError(t, WriteJSONFile(plain, run))
	require.NoError(t, WriteJSONFile(packed, run))

	raw, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("{")), "snappy file must not be plain JSON")

	text, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(text, []byte("{")))
}

func TestReadJSONFileMissing(t *testing.T) {
	_, err := ReadJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
