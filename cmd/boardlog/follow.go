package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oicur0t/boardlog/internal/classify"
	"github.com/oicur0t/boardlog/internal/config"
	"github.com/oicur0t/boardlog/internal/follow"
	"github.com/spf13/cobra"
)

var (
	flagUnique    bool
	flagFromStart bool
	flagPoll      bool
)

var followCmd = &cobra.Command{
	Use:   "follow <file>...",
	Short: "Print error lines from build logs as they are written",
	Long: `Follow one or more growing build logs and print every line that would be
counted as an error line, prefixed with the log file name.

Examples:
  boardlog follow build.log
  boardlog follow --from-start --unique a.log b.log`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runFollow,
}

func init() {
	followCmd.Flags().BoolVar(&flagUnique, "unique", false, "print only the first occurrence of each normalized line")
	followCmd.Flags().BoolVar(&flagFromStart, "from-start", false, "read existing content before following")
	followCmd.Flags().BoolVar(&flagPoll, "poll", false, "poll for changes instead of using inotify")
}

func runFollow(cmd *cobra.Command, args []string) error {
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

	f := follow.NewFollower(classify.New(cfg.Classifier), follow.Options{
		Follow:    true,
		FromStart: flagFromStart,
		Unique:    flagUnique,
		Poll:      flagPoll,
	}, cmd.OutOrStdout(), logger)

	return f.Run(ctx, args)
}
