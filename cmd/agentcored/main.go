// Package main is the agentcored entry point: a read-only inspection CLI
// over the runtime core's on-disk state (tape, ledgers, scheduler), mirroring
// the teacher's cmd/nerd query/status/why philosophy of never duplicating
// reducer logic in the CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentcore/runtime/internal/corelog"
)

var (
	verbose   bool
	workspace string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agentcored",
	Short: "agentcored - runtime core inspection CLI",
	Long: `agentcored reads the runtime core's on-disk state: the event tape,
task/truth ledgers, and scheduler intents. It never re-implements reducer
logic; every subcommand replays the same state the runtime itself builds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := corelog.Initialize(ws, verbose, "info"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		corelog.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current)")

	rootCmd.AddCommand(tapeCmd, ledgerCmd, scheduleCmd, cronCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the --workspace flag value as given, defaulting to
// cwd.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	wd, _ := os.Getwd()
	return wd
}
