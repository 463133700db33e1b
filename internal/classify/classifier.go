package classify

import (
	"regexp"
	"strings"
)

// errorPattern requires word boundaries around "error" only; "fail" matches
// anywhere, including inside "failure" or "pdFAIL".
var errorPattern = regexp.MustCompile(`\berror\b|fail`)

// DefaultBlacklist lists raw-line substrings that are never error lines
var DefaultBlacklist = []string{
	"0 Error(s)",
	"pdFAIL",
	"/* data verify failed */",
}

// Config holds classifier settings
type Config struct {
	Blacklist []string `mapstructure:"blacklist"`
}

// DefaultConfig returns the classifier configuration used by the build tooling
func DefaultConfig() Config {
	return Config{Blacklist: append([]string(nil), DefaultBlacklist...)}
}

// Result is the classification of a single line
type Result struct {
	Line       string
	Normalized string
	IsError    bool
}

// Classifier decides which log lines are error lines
type Classifier struct {
	blacklist []string
}

// New creates a classifier. The blacklist is copied so later changes to cfg
// do not affect it.
func New(cfg Config) *Classifier {
	return &Classifier{
		blacklist: append([]string(nil), cfg.Blacklist...),
	}
}

// Classify returns the normalized form of line and whether it is an error line
func (c *Classifier) Classify(line string) Result {
	return Result{
		Line:       line,
		Normalized: Normalize(line),
		IsError:    c.IsError(line),
	}
}

// IsError reports whether line counts as an error line
func (c *Classifier) IsError(line string) bool {
	folded := strings.ToLower(strings.ReplaceAll(line, ".", ""))
	if !errorPattern.MatchString(folded) {
		return false
	}
	for _, s := range c.blacklist {
		if strings.Contains(line, s) {
			return false
		}
	}
	return true
}

// Normalize strips ASCII digits, spaces and tabs from s
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ' ', r == '\t':
			return -1
		}
		return r
	}, s)
}
