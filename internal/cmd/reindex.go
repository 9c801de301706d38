package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/storeguard/internal/application/services"
)

const reindexWorkers = 4

var reindexInterval time.Duration

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Typesense store index from the store of record",
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().DurationVar(&reindexInterval, "interval", 0, "repeat interval for reindexing (e.g. 6h, 30m)")
}

func runReindex(cmd *cobra.Command, args []string) error {
	if !cfg.Typesense.Enabled {
		return fmt.Errorf("reindex needs TYPESENSE_ENABLED=true")
	}
	if reindexInterval < 0 {
		return fmt.Errorf("interval must be greater than zero")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, backendOptions{search: true})
	if err != nil {
		return err
	}
	defer b.Close()
	if b.index == nil {
		return fmt.Errorf("typesense is not reachable")
	}

	indexer := services.NewSearchIndexService(b.stores, b.index, reindexWorkers)
	for {
		summary, err := indexer.ReindexAll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("reindex failed")
		} else {
			log.Info().
				Int("processed", summary.TotalProcessed).
				Int("indexed", summary.SuccessCount).
				Int("failed", summary.FailureCount).
				Msg("reindex complete")
		}

		if reindexInterval == 0 {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reindexInterval):
		}
	}
}
