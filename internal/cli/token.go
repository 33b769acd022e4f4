package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/controller/httpapi"
	"github.com/spf13/cobra"
)

var tokenFlags struct {
	djID  string
	name  string
	admin bool
	ttl   time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a DJ bearer token for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenFlags.djID == "" {
			return errors.New("--dj is required")
		}
		if cfg.IsProduction() {
			logger.Warn("Minting a token in production")
		}

		token, err := httpapi.NewAuthenticator(cfg.JWTSecret).
			Issue(tokenFlags.djID, tokenFlags.name, tokenFlags.admin, tokenFlags.ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.djID, "dj", "", "DJ id (token subject)")
	tokenCmd.Flags().StringVar(&tokenFlags.name, "name", "", "DJ display name")
	tokenCmd.Flags().BoolVar(&tokenFlags.admin, "admin", false, "grant admin rights")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
}
