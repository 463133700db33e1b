package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/oicur0t/boardlog/pkg/models"
)

// DefaultMaxBytes bounds how much of a single log is read
const DefaultMaxBytes int64 = 64 << 20

// ErrLogTooLarge is returned when a log exceeds the configured size limit
var ErrLogTooLarge = errors.New("log exceeds size limit")

// DecodeError reports a line that is not valid UTF-8 text
type DecodeError struct {
	Path string
	Line int
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d is not valid UTF-8", e.Line)
	}
	return fmt.Sprintf("%s: line %d is not valid UTF-8", e.Path, e.Line)
}

// Option configures a Scanner
type Option func(*Scanner)

// WithMaxBytes sets the largest log the scanner will read. 0 disables the limit.
func WithMaxBytes(n int64) Option {
	return func(s *Scanner) { s.maxBytes = n }
}

// Scanner extracts error excerpts from single log files
type Scanner struct {
	classifier *classify.Classifier
	maxBytes   int64
}

// New creates a scanner using the given classifier
func New(classifier *classify.Classifier, opts ...Option) *Scanner {
	s := &Scanner{
		classifier: classifier,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFile opens path and scans it
func (s *Scanner) ScanFile(path string) (models.LogScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.LogScan{}, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	scan, err := s.Scan(f)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.Path = path
			return models.LogScan{}, decodeErr
		}
		return models.LogScan{}, fmt.Errorf("failed to scan log %s: %w", path, err)
	}
	return scan, nil
}

// Scan reads r line by line and collects its error lines. Lines end at
// "\r\n", "\r" or "\n" and are kept with a single "\n" terminator; a final
// unterminated line is kept as is. A log without error lines yields an empty
// LogScan.
func (s *Scanner) Scan(r io.Reader) (models.LogScan, error) {
	maxToken := math.MaxInt32
	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
		if s.maxBytes < math.MaxInt32 {
			maxToken = int(s.maxBytes) + 1
		}
	}

	var (
		excerpt    strings.Builder
		normalized strings.Builder
		unique     []string
		seen       = make(map[string]struct{})
		read       int64
		lineNumber int
	)

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxToken)
	lines.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := splitLines(data, atEOF)
		read += int64(advance)
		return advance, token, err
	})

	for lines.Scan() {
		lineNumber++
		if s.maxBytes > 0 && read > s.maxBytes {
			return models.LogScan{}, ErrLogTooLarge
		}
		line := lines.Text()
		if !utf8.ValidString(line) {
			return models.LogScan{}, &DecodeError{Line: lineNumber}
		}

		res := s.classifier.Classify(line)
		if res.IsError {
			excerpt.WriteString(res.Line)
			normalized.WriteString(res.Normalized)
			if _, ok := seen[res.Normalized]; !ok {
				seen[res.Normalized] = struct{}{}
				unique = append(unique, res.Line)
			}
		}
	}
	if err := lines.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) && s.maxBytes > 0 {
			return models.LogScan{}, ErrLogTooLarge
		}
		return models.LogScan{}, fmt.Errorf("failed to read line %d: %w", lineNumber+1, err)
	}

	return models.LogScan{
		Excerpt:           excerpt.String(),
		NormalizedExcerpt: normalized.String(),
		UniqueLines:       unique,
	}, nil
}

// splitLines is a bufio.SplitFunc that ends lines at "\r\n", "\r" or "\n".
// Terminated tokens end in a single "\n".
func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	if data[i] == '\n' {
		return i + 1, data[:i+1], nil
	}

	// A trailing '\r' may be the first half of "\r\n"
	if i+1 == len(data) && !atEOF {
		return 0, nil, nil
	}
	advance := i + 1
	if i+1 < len(data) && data[i+1] == '\n' {
		advance = i + 2
	}
	line := make([]byte, i+1)
	copy(line, data[:i])
	line[i] = '\n'
	return advance, line, nil
}
