package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TLSConfig holds optional TLS settings for the MongoDB sink
type TLSConfig struct {
	CACert     string `mapstructure:"ca_cert"`
	ClientCert string `mapstructure:"client_cert"`
	ClientKey  string `mapstructure:"client_key"`
	ServerName string `mapstructure:"server_name"`
}

// Enabled reports whether a CA certificate was configured
func (c TLSConfig) Enabled() bool {
	return c.CACert != ""
}

// MongoDBConfig holds MongoDB sink settings. An empty URI disables the sink.
type MongoDBConfig struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	CollectionPrefix string        `mapstructure:"collection_prefix"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	TLS              TLSConfig     `mapstructure:"tls"`
}

// Enabled reports whether summaries should be published
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// ScanConfig represents the complete configuration of a scan run
type ScanConfig struct {
	OutputPath   string          `mapstructure:"output_path"`
	NumProcesses int             `mapstructure:"num_processes"`
	Include      string          `mapstructure:"include"`
	MaxLogBytes  int64           `mapstructure:"max_log_bytes"`
	ReportFile   string          `mapstructure:"report_file"`
	LogLevel     string          `mapstructure:"log_level"`
	LogFormat    string          `mapstructure:"log_format"`
	Classifier   classify.Config `mapstructure:"classifier"`
	MongoDB      MongoDBConfig   `mapstructure:"mongodb"`
}

// flagKeys maps command line flag names to configuration keys
var flagKeys = map[string]string{
	"output_path":   "output_path",
	"num_processes": "num_processes",
	"include":       "include",
	"report":        "report_file",
	"log-level":     "log_level",
	"log-format":    "log_format",
}

// Load builds the scan configuration from defaults, an optional config
// file, BOARDLOG_* environment variables and any flags that were set.
func Load(configPath string, flags *pflag.FlagSet) (*ScanConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("boardlog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("output_path", "error_summaries")
	v.SetDefault("num_processes", 4)
	v.SetDefault("include", "*")
	v.SetDefault("max_log_bytes", 64<<20)
	v.SetDefault("report_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("classifier.blacklist", classify.DefaultBlacklist)
	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", "boardlog")
	v.SetDefault("mongodb.collection_prefix", "summaries_")
	v.SetDefault("mongodb.timeout", "10s")
	v.SetDefault("mongodb.max_retries", 3)
	v.SetDefault("mongodb.tls.ca_cert", "")
	v.SetDefault("mongodb.tls.client_cert", "")
	v.SetDefault("mongodb.tls.client_key", "")
	v.SetDefault("mongodb.tls.server_name", "")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config ScanConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for values the scan cannot run with
func (c *ScanConfig) Validate() error {
	if c.NumProcesses < 1 {
		return fmt.Errorf("num_processes must be at least 1, got %d", c.NumProcesses)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path is required")
	}
	if c.MaxLogBytes < 0 {
		return fmt.Errorf("max_log_bytes must not be negative")
	}
	if !doublestar.ValidatePattern(c.Include) {
		return fmt.Errorf("include pattern %q is invalid", c.Include)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.MongoDB.Enabled() {
		if c.MongoDB.Database == "" {
			return fmt.Errorf("mongodb.database is required when mongodb.uri is set")
		}
		if (c.MongoDB.TLS.ClientCert == "") != (c.MongoDB.TLS.ClientKey == "") {
			return fmt.Errorf("mongodb.tls.client_cert and mongodb.tls.client_key must be set together")
		}
	}
	return nil
}
