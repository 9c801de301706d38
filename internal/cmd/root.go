// Package cmd holds the storeguard command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
	"github.com/zatekoja/storeguard/pkg/config"
	"github.com/zatekoja/storeguard/pkg/secrets"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "storeguard",
	Short: "StoreGuard admin backend",
	Long: `StoreGuard is the admin backend for the store monitoring dashboard.

It serves the admin REST API for stores, cameras, payments, feedback and
reports, and ships the schema migrations and demo data it needs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// VAULT_* may come from .env, so read it before asking Vault
		_ = godotenv.Load()
		vaultResult, err := secrets.Export(cmd.Context(), secrets.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("failed to load secrets from Vault: %w", err)
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
		if vaultResult.Loaded+vaultResult.Skipped > 0 {
			log.Info().Str("path", vaultResult.Path).Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("secrets loaded from Vault")
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
