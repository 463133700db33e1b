package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/oicur0t/boardlog/internal/config"
	"github.com/oicur0t/boardlog/internal/runner"
	"github.com/oicur0t/boardlog/internal/scanner"
	"github.com/oicur0t/boardlog/internal/storage"
	"github.com/oicur0t/boardlog/pkg/mtls"
	"github.com/oicur0t/boardlog/pkg/retry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "boardlog <build_combinations_path>",
	Short: "Summarize build errors per board",
	Long: `boardlog scans <build_combinations_path>/<vendor>/<board>/ build logs,
collects the lines that report errors or failures, groups them ignoring
numbers and whitespace, and writes one summary per board.

Examples:
  boardlog ./Build_Combinations
  boardlog ./Build_Combinations --output_path out -n 8`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runScan,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	rootCmd.Flags().String("output_path", "error_summaries", "directory where error summaries are written")
	rootCmd.Flags().IntP("num_processes", "n", 4, "number of boards processed in parallel")
	rootCmd.Flags().String("include", "*", "glob matched against log file names")
	rootCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(followCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher runner.Publisher
	if cfg.MongoDB.Enabled() {
		store, err := newStorage(ctx, cfg.MongoDB, logger)
		if err != nil {
			// The summaries on disk are still produced
			logger.Error("MongoDB sink disabled", zap.Error(err))
		} else {
			defer store.Close(context.Background())
			publisher = store
		}
	}

	sc := scanner.New(
		classify.New(cfg.Classifier),
		scanner.WithMaxBytes(cfg.MaxLogBytes),
	)

	r := runner.New(runner.Options{
		OutputPath: cfg.OutputPath,
		Workers:    cfg.NumProcesses,
		Include:    cfg.Include,
		ReportFile: cfg.ReportFile,
	}, sc, cmd.OutOrStdout(), publisher, logger)

	if _, err := r.Run(ctx, args[0]); err != nil {
		logger.Error("Scan failed", zap.Error(err))
		return err
	}
	return nil
}

// newStorage connects the MongoDB sink described by cfg
func newStorage(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*storage.Storage, error) {
	opts := storage.Options{
		URI:              cfg.URI,
		Database:         cfg.Database,
		CollectionPrefix: cfg.CollectionPrefix,
		Timeout:          cfg.Timeout,
		Retry:            retry.DefaultConfig(),
	}
	opts.Retry.MaxRetries = cfg.MaxRetries

	if cfg.TLS.Enabled() {
		tlsConfig, err := mtls.LoadClientTLSConfig(
			cfg.TLS.CACert,
			cfg.TLS.ClientCert,
			cfg.TLS.ClientKey,
			cfg.TLS.ServerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load MongoDB TLS config: %w", err)
		}
		opts.TLSConfig = tlsConfig
	}

	return storage.NewStorage(ctx, opts, logger)
}
