package models

import (
	"time"
)

// LogScan is the result of scanning a single log file
type LogScan struct {
	Excerpt           string   `json:"excerpt" yaml:"excerpt"`
	NormalizedExcerpt string   `json:"normalized_excerpt" yaml:"normalized_excerpt"`
	UniqueLines       []string `json:"unique_lines" yaml:"unique_lines"`
}

// Clean reports whether the log produced no error lines
func (s LogScan) Clean() bool {
	return s.NormalizedExcerpt == ""
}

// LineRecord is a unique normalized error line seen across a board's logs
type LineRecord struct {
	Normalized  string `json:"normalized" bson:"normalized" yaml:"normalized"`
	Example     string `json:"example" bson:"example" yaml:"example"`
	Occurrences int    `json:"occurrences" bson:"occurrences" yaml:"occurrences"`
}

// LogRecord is a group of logs sharing the same normalized excerpt
type LogRecord struct {
	Normalized string `json:"normalized" bson:"normalized" yaml:"-"`
	FileName   string `json:"file_name" bson:"file_name" yaml:"file_name"`
	Excerpt    string `json:"excerpt" bson:"excerpt" yaml:"-"`
	Count      int    `json:"count" bson:"count" yaml:"count"`
}

// BoardSummary is the aggregated view over every log of one board
type BoardSummary struct {
	Vendor        string       `json:"vendor" bson:"vendor" yaml:"vendor"`
	Board         string       `json:"board" bson:"board" yaml:"board"`
	LogCount      int          `json:"log_count" bson:"log_count" yaml:"log_count"`
	ErrorLogCount int          `json:"error_log_count" bson:"error_log_count" yaml:"error_log_count"`
	Lines         []LineRecord `json:"lines" bson:"lines" yaml:"-"`
	Logs          []LogRecord  `json:"logs" bson:"logs" yaml:"logs"`
	FailedLogs    []string     `json:"failed_logs,omitempty" bson:"failed_logs,omitempty" yaml:"failed_logs,omitempty"`
}

// UniqueLineCount returns the number of distinct normalized error lines
func (s BoardSummary) UniqueLineCount() int {
	return len(s.Lines)
}

// UniqueLogCount returns the number of distinct normalized excerpts
func (s BoardSummary) UniqueLogCount() int {
	return len(s.Logs)
}

// SummaryDocument is the stored form of a board summary
type SummaryDocument struct {
	RunID       string       `bson:"run_id"`
	GeneratedAt time.Time    `bson:"generated_at"`
	Summary     BoardSummary `bson:",inline"`
}

// BoardResult records how one board was processed during a run
type BoardResult struct {
	Vendor           string   `yaml:"vendor"`
	Board            string   `yaml:"board"`
	LogCount         int      `yaml:"log_count"`
	ErrorLogCount    int      `yaml:"error_log_count"`
	UniqueErrorLines int      `yaml:"unique_error_lines"`
	UniqueErrorLogs  int      `yaml:"unique_error_logs"`
	SummaryFile      string   `yaml:"summary_file,omitempty"`
	FailedLogs       []string `yaml:"failed_logs,omitempty"`
	Error            string   `yaml:"error,omitempty"`
	PublishError     string   `yaml:"publish_error,omitempty"`
}

// RunReport describes one full pass over a build combinations tree
type RunReport struct {
	RunID      string        `yaml:"run_id"`
	Root       string        `yaml:"root"`
	StartedAt  time.Time     `yaml:"started_at"`
	FinishedAt time.Time     `yaml:"finished_at"`
	Boards     []BoardResult `yaml:"boards"`
	Skipped    []SkippedDir  `yaml:"skipped,omitempty"`
}

// SkippedDir is a vendor directory that could not be listed
type SkippedDir struct {
	Path  string `yaml:"path"`
	Error string `yaml:"error"`
}
