package aggregate

import (
	"sort"

	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/oicur0t/boardlog/pkg/models"
)

// Board folds log scans for a single board into its line and log groups.
// A Board is not safe for concurrent use; each board gets its own.
type Board struct {
	vendor string
	name   string

	logCount      int
	errorLogCount int
	failed        []string

	// Insertion order is kept alongside each map so that the first example
	// and the ranking tie-break are reproducible.
	lines     map[string]*models.LineRecord
	lineOrder []string
	logs      map[string]*models.LogRecord
	logOrder  []string
}

// NewBoard creates an empty aggregation for one board
func NewBoard(vendor, name string) *Board {
	return &Board{
		vendor: vendor,
		name:   name,
		lines:  make(map[string]*models.LineRecord),
		logs:   make(map[string]*models.LogRecord),
	}
}

// Add records the scan of one log file. Clean logs only count towards the
// number of logs.
func (b *Board) Add(fileName string, scan models.LogScan) {
	b.logCount++
	if scan.Clean() {
		return
	}
	b.errorLogCount++

	for _, line := range scan.UniqueLines {
		key := classify.Normalize(line)
		if rec, ok := b.lines[key]; ok {
			rec.Occurrences++
			continue
		}
		b.lines[key] = &models.LineRecord{Normalized: key, Example: line, Occurrences: 1}
		b.lineOrder = append(b.lineOrder, key)
	}

	key := scan.NormalizedExcerpt
	if rec, ok := b.logs[key]; ok {
		rec.Count++
		return
	}
	b.logs[key] = &models.LogRecord{
		Normalized: key,
		FileName:   fileName,
		Excerpt:    scan.Excerpt,
		Count:      1,
	}
	b.logOrder = append(b.logOrder, key)
}

// AddFailure records a log that could not be scanned. It counts as an
// attempted log but contributes nothing else.
func (b *Board) AddFailure(fileName string) {
	b.logCount++
	b.failed = append(b.failed, fileName)
}

// Summary returns the ranked summary. Lines are ordered by occurrences,
// highest first; equal counts keep first-seen order. Logs are in first-seen
// order.
func (b *Board) Summary() models.BoardSummary {
	lines := make([]models.LineRecord, 0, len(b.lineOrder))
	for _, key := range b.lineOrder {
		lines = append(lines, *b.lines[key])
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Occurrences > lines[j].Occurrences
	})

	logs := make([]models.LogRecord, 0, len(b.logOrder))
	for _, key := range b.logOrder {
		logs = append(logs, *b.logs[key])
	}

	return models.BoardSummary{
		Vendor:        b.vendor,
		Board:         b.name,
		LogCount:      b.logCount,
		ErrorLogCount: b.errorLogCount,
		Lines:         lines,
		Logs:          logs,
		FailedLogs:    append([]string(nil), b.failed...),
	}
}
