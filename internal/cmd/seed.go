package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/storeguard/internal/migrations"
	"github.com/zatekoja/storeguard/internal/seed"
	"github.com/zatekoja/storeguard/pkg/config"
)

var seedMigrate bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo stores, payments, feedback and alerts",
	Long: `Loads the demo dataset into Postgres. Records that already exist are
skipped, so the command can be rerun. The memory driver seeds itself at
startup and does not need this command.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedMigrate, "migrate", false, "apply pending migrations before seeding")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("seed needs STORAGE_DRIVER=%s, got %q", config.StorageDriverPostgres, cfg.Storage.Driver)
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, backendOptions{})
	if err != nil {
		return err
	}
	defer b.Close()

	if seedMigrate {
		if _, err := migrations.Apply(ctx, b.pg.DB()); err != nil {
			return err
		}
	}

	dataset := seed.Demo(time.Now())
	if err := dataset.Load(ctx, b.seedRepositories()); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	log.Info().
		Int("stores", len(dataset.Stores)).
		Int("payments", len(dataset.Payments)).
		Int("transactions", len(dataset.Transactions)).
		Int("feedback", len(dataset.Feedback)).
		Int("alerts", len(dataset.Alerts)).
		Msg("demo data loaded")
	return nil
}
