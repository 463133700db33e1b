package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oicur0t/boardlog/pkg/models"
)

const (
	starRule = "********************************************"
	dashRule = "--------------------------------------------"
)

// SummaryFileName returns the summary file name for a board
func SummaryFileName(board string) string {
	return board + "_error_summary.txt"
}

// WriteConsole prints the short per-board block
func WriteConsole(w io.Writer, s models.BoardSummary) error {
	_, err := fmt.Fprintf(w, "%s\nBoard Name: %s\nNumber of logs: %d\nNumber of error logs: %d\nNumber of unique error logs: %d\nNumber of unique error lines in logs: %d\n%s\n",
		dashRule,
		s.Board,
		s.LogCount,
		s.ErrorLogCount,
		s.UniqueLogCount(),
		s.UniqueLineCount(),
		dashRule)
	return err
}

// WriteSummary writes the full board summary. Example lines and excerpts
// are written verbatim, including their own line terminators.
func WriteSummary(w io.Writer, s models.BoardSummary) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\nSummary for %s\n%s\n\n", starRule, s.Board, starRule)

	fmt.Fprintf(bw, "Number of logs: %d\n", s.LogCount)
	fmt.Fprintf(bw, "Number of error logs: %d\n", s.ErrorLogCount)
	fmt.Fprintf(bw, "Number of unique error lines in logs: %d\n", s.UniqueLineCount())
	fmt.Fprintf(bw, "Number of unique error logs: %d\n\n", s.UniqueLogCount())

	fmt.Fprintf(bw, "%s\nUnique error lines across all logs (%d). Sorted by number of occurrences.\n%s\n",
		starRule, s.UniqueLineCount(), starRule)
	for i, line := range s.Lines {
		fmt.Fprintf(bw, "%d. Occurrences: %d Line: %s", i+1, line.Occurrences, line.Example)
	}
	bw.WriteString("\n")

	fmt.Fprintf(bw, "%s\nUnique error logs (%d)\n%s\n", starRule, s.UniqueLogCount(), starRule)
	for i, log := range s.Logs {
		n := i + 1
		fmt.Fprintf(bw, "%s\nStart of unique error log #%d\n", dashRule, n)
		fmt.Fprintf(bw, "Log file: %s\n", log.FileName)
		fmt.Fprintf(bw, "Number of logs like this one: %d\n", log.Count)
		bw.WriteString("Error excerpt:\n\n")
		bw.WriteString(log.Excerpt)
		fmt.Fprintf(bw, "End of unique error log #%d\n%s\n", n, dashRule)
	}

	return bw.Flush()
}

// WriteSummaryFile writes the board summary under dir as
// SummaryFileName(name). name is normally the board name. Nothing is written
// when the board has no error logs; the returned path is then empty.
func WriteSummaryFile(dir, name string, s models.BoardSummary) (string, error) {
	if s.UniqueLogCount() == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, SummaryFileName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file %s: %w", path, err)
	}

	if err := WriteSummary(f, s); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write summary file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close summary file %s: %w", path, err)
	}

	return path, nil
}
