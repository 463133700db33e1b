package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oicur0t/boardlog/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() models.BoardSummary {
	return models.BoardSummary{
		Vendor:        "st",
		Board:         "nucleo",
		LogCount:      3,
		ErrorLogCount: 2,
		Lines: []models.LineRecord{
			{Normalized: "Error:timeoutonline\n", Example: "Error: timeout on line 5\n", Occurrences: 2},
		},
		Logs: []models.LogRecord{
			{FileName: "log1.txt", Excerpt: "Error: timeout on line 5\n", Count: 2},
		},
	}
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsole(&buf, sampleSummary()))

	want := `--------------------------------------------
Board Name: nucleo
Number of logs: 3
Number of error logs: 2
Number of unique error logs: 1
Number of unique error lines in logs: 1
--------------------------------------------
`
	assert.Equal(t, want, buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleSummary()))

	want := `********************************************
Summary for nucleo
********************************************

Number of logs: 3
Number of error logs: 2
Number of unique error lines in logs: 1
Number of unique error logs: 1

********************************************
Unique error lines across all logs (1). Sorted by number of occurrences.
********************************************
1. Occurrences: 2 Line: Error: timeout on line 5

********************************************
Unique error logs (1)
********************************************
--------------------------------------------
Start of unique error log #1
Log file: log1.txt
Number of logs like this one: 2
Error excerpt:

Error: timeout on line 5
End of unique error log #1
--------------------------------------------
`
	assert.Equal(t, want, buf.String())
}

func TestWriteSummaryFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := WriteSummaryFile(dir, "nucleo", sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nucleo_error_summary.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Summary for nucleo\n")
}

func TestWriteSummaryFileQualifiedName(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSummaryFile(dir, "st_nucleo", sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "st_nucleo_error_summary.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Summary for nucleo\n")
}

func TestWriteSummaryFileSkipsCleanBoard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteSummaryFile(dir, "clean", models.BoardSummary{Board: "clean", LogCount: 4})
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteSummaryFileUnwritable(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := WriteSummaryFile(filepath.Join(blocker, "out"), "nucleo", sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestRunReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	started := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	in := models.RunReport{
		RunID:      "run-1",
		Root:       "/data/Build_Combinations",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Boards: []models.BoardResult{
			{Vendor: "st", Board: "nucleo", LogCount: 3, ErrorLogCount: 2, UniqueErrorLines: 1, UniqueErrorLogs: 1, SummaryFile: "out/nucleo_error_summary.txt"},
			{Vendor: "nxp", Board: "lpc", FailedLogs: []string{"bad.log"}, Error: "disk full"},
		},
	}
	require.NoError(t, WriteRunReport(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run-1")
	assert.Contains(t, string(data), "unique_error_lines: 1")

	out, err := LoadRunReport(path)
	require.NoError(t, err)
	assert.Equal(t, in.RunID, out.RunID)
	assert.True(t, in.StartedAt.Equal(out.StartedAt))
	assert.Equal(t, in.Boards, out.Boards)
}
