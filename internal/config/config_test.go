package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("output_path", "error_summaries", "")
	fs.IntP("num_processes", "n", 4, "")
	fs.String("include", "*", "")
	fs.String("report", "", "")
	fs.String("log-level", "info", "")
	fs.String("log-format", "console", "")
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boardlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "error_summaries", cfg.OutputPath)
	assert.Equal(t, 4, cfg.NumProcesses)
	assert.Equal(t, "*", cfg.Include)
	assert.Equal(t, int64(64<<20), cfg.MaxLogBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, classify.DefaultBlacklist, cfg.Classifier.Blacklist)
	assert.False(t, cfg.MongoDB.Enabled())
	assert.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"-n", "8", "--output_path", "out", "--include", "*.log"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.NumProcesses)
	assert.Equal(t, "out", cfg.OutputPath)
	assert.Equal(t, "*.log", cfg.Include)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
output_path: /tmp/summaries
num_processes: 2
classifier:
  blacklist:
    - "0 Error(s)"
mongodb:
  uri: mongodb://localhost:27017
  timeout: 3s
`)

	cfg, err := Load(path, newFlags())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/summaries", cfg.OutputPath)
	assert.Equal(t, 2, cfg.NumProcesses)
	assert.Equal(t, []string{"0 Error(s)"}, cfg.Classifier.Blacklist)
	assert.True(t, cfg.MongoDB.Enabled())
	assert.Equal(t, "boardlog", cfg.MongoDB.Database)
	assert.Equal(t, 3*time.Second, cfg.MongoDB.Timeout)
}

func TestLoadFlagBeatsConfigFile(t *testing.T) {
	path := writeConfig(t, "num_processes: 2\n")
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--num_processes", "6"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.NumProcesses)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	base := func() ScanConfig {
		return ScanConfig{
			OutputPath:   "out",
			NumProcesses: 1,
			Include:      "*",
			LogFormat:    "console",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ScanConfig)
		wantErr string
	}{
		{"valid", func(*ScanConfig) {}, ""},
		{"zero workers", func(c *ScanConfig) { c.NumProcesses = 0 }, "num_processes"},
		{"no output path", func(c *ScanConfig) { c.OutputPath = "" }, "output_path"},
		{"negative size", func(c *ScanConfig) { c.MaxLogBytes = -1 }, "max_log_bytes"},
		{"bad pattern", func(c *ScanConfig) { c.Include = "[" }, "include"},
		{"bad log format", func(c *ScanConfig) { c.LogFormat = "xml" }, "log_format"},
		{"half client cert", func(c *ScanConfig) {
			c.MongoDB.URI = "mongodb://db"
			c.MongoDB.Database = "boardlog"
			c.MongoDB.TLS.ClientCert = "client.pem"
		}, "client_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
