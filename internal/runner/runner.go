package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/oicur0t/boardlog/internal/aggregate"
	"github.com/oicur0t/boardlog/internal/report"
	"github.com/oicur0t/boardlog/internal/scanner"
	"github.com/oicur0t/boardlog/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher receives each finished board summary
type Publisher interface {
	Publish(ctx context.Context, runID string, summary models.BoardSummary) error
}

// Options controls a run
type Options struct {
	OutputPath string
	Workers    int
	Include    string
	ReportFile string
}

// Runner scans every board under a build combinations root
type Runner struct {
	opts      Options
	scanner   *scanner.Scanner
	publisher Publisher
	logger    *zap.Logger

	consoleMu sync.Mutex
	console   io.Writer
}

// New creates a runner. publisher may be nil.
func New(opts Options, sc *scanner.Scanner, console io.Writer, publisher Publisher, logger *zap.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Include == "" {
		opts.Include = "*"
	}
	return &Runner{
		opts:      opts,
		scanner:   sc,
		publisher: publisher,
		logger:    logger,
		console:   console,
	}
}

// Run processes all boards with at most Workers boards in flight. It fails
// only when root cannot be listed; per-board problems are logged and
// recorded in the returned report.
func (r *Runner) Run(ctx context.Context, root string) (*models.RunReport, error) {
	boards, skipped, err := DiscoverBoards(root)
	if err != nil {
		return nil, err
	}

	runReport := &models.RunReport{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
		Skipped:   skipped,
	}

	for _, dir := range skipped {
		r.logger.Warn("Skipping vendor directory", zap.String("path", dir.Path), zap.String("error", dir.Error))
	}
	for _, board := range boards {
		if board.OutputName != board.Name {
			r.logger.Warn("Board name used by more than one vendor",
				zap.String("vendor", board.Vendor),
				zap.String("board", board.Name),
				zap.String("summary_file", report.SummaryFileName(board.OutputName)))
		}
	}

	r.logger.Info("Starting scan",
		zap.String("run_id", runReport.RunID),
		zap.String("root", root),
		zap.Int("boards", len(boards)),
		zap.Int("workers", r.opts.Workers))

	// Each task writes only its own slot
	results := make([]models.BoardResult, len(boards))

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, board := range boards {
		i, board := i, board
		if ctx.Err() != nil {
			results[i] = models.BoardResult{Vendor: board.Vendor, Board: board.Name, Error: ctx.Err().Error()}
			continue
		}
		g.Go(func() error {
			// Cancellation may arrive while waiting for a free worker
			if err := ctx.Err(); err != nil {
				results[i] = models.BoardResult{Vendor: board.Vendor, Board: board.Name, Error: err.Error()}
				return nil
			}
			results[i] = r.processBoard(ctx, runReport.RunID, board)
			return nil
		})
	}
	g.Wait()

	runReport.Boards = results
	runReport.FinishedAt = time.Now().UTC()

	if r.opts.ReportFile != "" {
		if err := report.WriteRunReport(r.opts.ReportFile, *runReport); err != nil {
			r.logger.Error("Failed to write run report", zap.String("path", r.opts.ReportFile), zap.Error(err))
		}
	}

	r.logger.Info("Scan finished",
		zap.String("run_id", runReport.RunID),
		zap.Duration("elapsed", runReport.FinishedAt.Sub(runReport.StartedAt)))

	return runReport, nil
}

// processBoard scans, prints, writes and publishes one board
func (r *Runner) processBoard(ctx context.Context, runID string, board BoardDir) models.BoardResult {
	summary := r.ScanBoard(board)

	result := models.BoardResult{
		Vendor:           board.Vendor,
		Board:            board.Name,
		LogCount:         summary.LogCount,
		ErrorLogCount:    summary.ErrorLogCount,
		UniqueErrorLines: summary.UniqueLineCount(),
		UniqueErrorLogs:  summary.UniqueLogCount(),
		FailedLogs:       summary.FailedLogs,
	}

	r.consoleMu.Lock()
	err := report.WriteConsole(r.console, summary)
	r.consoleMu.Unlock()
	if err != nil {
		r.logger.Warn("Failed to print board summary", zap.String("board", board.Name), zap.Error(err))
	}

	name := board.OutputName
	if name == "" {
		name = board.Name
	}
	path, err := report.WriteSummaryFile(r.opts.OutputPath, name, summary)
	if err != nil {
		r.logger.Error("Failed to write board summary",
			zap.String("board", board.Name),
			zap.String("output_path", r.opts.OutputPath),
			zap.Error(err))
		result.Error = err.Error()
	}
	result.SummaryFile = path

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, runID, summary); err != nil {
			r.logger.Error("Failed to publish board summary", zap.String("board", board.Name), zap.Error(err))
			result.PublishError = err.Error()
		}
	}

	return result
}

// ScanBoard aggregates every log file directly under the board directory,
// in lexicographic order. Logs that cannot be read are counted and skipped.
func (r *Runner) ScanBoard(board BoardDir) models.BoardSummary {
	agg := aggregate.NewBoard(board.Vendor, board.Name)

	entries, err := os.ReadDir(board.Path)
	if err != nil {
		r.logger.Warn("Failed to list board directory",
			zap.String("board", board.Name),
			zap.String("path", board.Path),
			zap.Error(err))
		return agg.Summary()
	}

	for _, entry := range entries {
		if isDir(board.Path, entry) {
			continue
		}
		name := entry.Name()
		if ok, _ := doublestar.Match(r.opts.Include, name); !ok {
			continue
		}

		path := filepath.Join(board.Path, name)
		scan, err := r.scanner.ScanFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable log",
				zap.String("board", board.Name),
				zap.String("file", path),
				zap.Error(err))
			agg.AddFailure(name)
			continue
		}
		agg.Add(name, scan)
	}

	summary := agg.Summary()
	r.logger.Debug("Board scanned",
		zap.String("board", board.Name),
		zap.Int("logs", summary.LogCount),
		zap.Int("error_logs", summary.ErrorLogCount))
	return summary
}
