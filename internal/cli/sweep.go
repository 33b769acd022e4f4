package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry sweep and exit (for cron)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DBDSN == "" {
			logger.Warn("DB_DSN not set, sweeping an empty in-memory store")
		}

		st, err := buildStack(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := st.sweeper.Run(cmd.Context())
		if err != nil {
			return ignoreCanceled(err)
		}
		logger.Info("Sweep finished",
			zap.Int("slots_completed", res.SlotsCompleted),
			zap.Int("takeovers_expired", res.TakeoversExpired),
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(res)
	},
}
