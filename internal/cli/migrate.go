package cli

import (
	"context"
	"fmt"

	"github.com/DJCodeOne/freshwax-sub008/internal/app"
	"github.com/DJCodeOne/freshwax-sub008/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(mg *app.Migrator) error {
			return mg.Run(cmd.Context())
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(mg *app.Migrator) error {
			return mg.Status(cmd.Context())
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func withMigrator(ctx context.Context, fn func(mg *app.Migrator) error) error {
	if err := cfg.RequireDB(); err != nil {
		return err
	}

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	mg, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer mg.Close()

	return fn(mg)
}
