package follow

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nxadm/tail"
	"github.com/oicur0t/boardlog/internal/classify"
	"go.uber.org/zap"
)

// Options controls how files are followed
type Options struct {
	// Follow keeps reading as the file grows; otherwise stop at EOF
	Follow bool
	// FromStart reads existing content before new lines
	FromStart bool
	// Unique prints only the first occurrence of each normalized line per file
	Unique bool
	// Poll uses polling instead of inotify
	Poll bool
}

// Follower prints error lines from growing log files as they appear
type Follower struct {
	classifier *classify.Classifier
	opts       Options
	logger     *zap.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewFollower creates a follower writing matching lines to out
func NewFollower(classifier *classify.Classifier, opts Options, out io.Writer, logger *zap.Logger) *Follower {
	return &Follower{
		classifier: classifier,
		opts:       opts,
		logger:     logger,
		out:        out,
	}
}

// Run follows every file until ctx is cancelled or, when not following,
// every file has been read to EOF
func (f *Follower) Run(ctx context.Context, files []string) error {
	var wg sync.WaitGroup
	errs := make([]error, len(files))

	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			if err := f.followFile(ctx, path); err != nil && err != context.Canceled {
				f.logger.Error("Error following file", zap.String("file", path), zap.Error(err))
				errs[i] = err
			}
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// followFile tails a single file
func (f *Follower) followFile(ctx context.Context, path string) error {
	config := tail.Config{
		Follow:    f.opts.Follow,
		ReOpen:    f.opts.Follow,
		MustExist: !f.opts.Follow,
		Poll:      f.opts.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !f.opts.FromStart {
		config.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, config)
	if err != nil {
		return fmt.Errorf("failed to tail file %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	f.logger.Info("Following file", zap.String("file", path))

	name := filepath.Base(path)
	seen := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				f.logger.Warn("Error reading line", zap.String("file", path), zap.Error(line.Err))
				continue
			}

			// tail splits on "\n" only; "\r\n" and bare "\r" end lines too
			for _, text := range strings.Split(strings.TrimSuffix(line.Text, "\r"), "\r") {
				if err := f.handleLine(name, text+"\n", seen); err != nil {
					return err
				}
			}
		}
	}
}

func (f *Follower) handleLine(name, line string, seen map[string]struct{}) error {
	res := f.classifier.Classify(line)
	if !res.IsError {
		return nil
	}
	if f.opts.Unique {
		if _, dup := seen[res.Normalized]; dup {
			return nil
		}
		seen[res.Normalized] = struct{}{}
	}
	if err := f.emit(name, res.Line); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}

func (f *Follower) emit(name, line string) error {
	f.outMu.Lock()
	defer f.outMu.Unlock()
	_, err := fmt.Fprintf(f.out, "%s: %s", name, line)
	return err
}
