// Package cli holds the freshwax command tree.
package cli

import (
	"github.com/DJCodeOne/freshwax-sub008/internal/app"
	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "freshwax",
	Short: "Fresh Wax livestream scheduler: slot booking, stream keys and takeovers",
	Long:  `HTTP API + Telegram bot. Commands: serve, migrate, sweep, token.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = app.NewLogger(cfg.Environment, cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
	RunE:         runServe, // same as "freshwax serve"
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the root command and returns the error for main to log.
func Execute() error {
	return rootCmd.Execute()
}
