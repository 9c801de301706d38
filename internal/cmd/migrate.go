package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/storeguard/internal/migrations"
	"github.com/zatekoja/storeguard/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Applies every embedded schema migration that has not run yet.
Applied versions are recorded in schema_migrations, so the command is safe
to rerun.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("migrate needs STORAGE_DRIVER=%s, got %q", config.StorageDriverPostgres, cfg.Storage.Driver)
	}

	ctx := cmd.Context()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}
	defer pgClient.Close()

	result, err := migrations.Apply(ctx, pgClient.DB())
	if err != nil {
		return err
	}

	log.Info().
		Int("applied", len(result.Applied)).
		Int("skipped", len(result.Skipped)).
		Msg("migrations complete")
	if len(result.Applied) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "applied: %s\n", strings.Join(result.Applied, ", "))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	}
	return nil
}
