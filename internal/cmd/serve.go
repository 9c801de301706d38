package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/storeguard/internal/api/handlers"
	"github.com/zatekoja/storeguard/internal/api/middleware"
	"github.com/zatekoja/storeguard/internal/api/routes"
	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/infrastructure/notifications"
	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
	"github.com/zatekoja/storeguard/pkg/config"
)

var reindexOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	Long: `Start the admin API server.

Storage follows STORAGE_DRIVER. Redis backs the response cache and the
admin event stream when enabled; Typesense backs store search when enabled.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&reindexOnStart, "reindex", false, "rebuild the store search index before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, &cfg.OTEL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to set up OpenTelemetry; continuing without tracing")
	} else {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				log.Error().Err(err).Msg("error shutting down OpenTelemetry")
			}
		}()
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	b, err := openBackend(ctx, cfg, backendOptions{search: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error().Err(err).Msg("error closing backend connections")
		}
	}()

	if reindexOnStart && b.index != nil {
		summary, err := services.NewSearchIndexService(b.stores, b.index, reindexWorkers).ReindexAll(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("startup reindex failed")
		} else {
			log.Info().Int("indexed", summary.SuccessCount).Int("failed", summary.FailureCount).Msg("startup reindex complete")
		}
	}

	invalidation := services.NewCacheInvalidationService(b.cache, b.events)
	if err := invalidation.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation; cached responses expire by TTL only")
	} else {
		defer invalidation.Stop()
	}

	sender := replySender(&cfg.SMTP)

	storeService := services.NewStoreService(b.stores, b.payments, b.alerts, b.searchRepo(), b.events)
	paymentService := services.NewPaymentService(b.payments, b.stores, sender, b.events)
	feedbackService := services.NewFeedbackService(b.feedback, b.stores, sender, b.events, metrics)
	reportService := services.NewReportService(b.payments, b.stores, b.events, metrics, cfg.Reports)
	dashboardService := services.NewDashboardService(b.stores, b.feedback, b.alerts)

	router := routes.NewRouter(
		routes.Handlers{
			Stores:    handlers.NewStoreHandler(storeService),
			Payments:  handlers.NewPaymentHandler(paymentService),
			Feedback:  handlers.NewFeedbackHandler(feedbackService, b.cache),
			Reports:   handlers.NewReportHandler(reportService),
			Dashboard: handlers.NewDashboardHandler(dashboardService),
			SSE:       handlers.NewSSEHandler(b.events),
		},
		middleware.NewCacheMiddleware(b.cache, nil, metrics),
		cfg.Auth,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// No write timeout: the admin event stream stays open. Report
		// generation is bounded by REPORT_GENERATION_TIMEOUT instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Closing the bus first ends open event streams so Shutdown can drain
	if err := b.events.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
	return nil
}

// replySender delivers over SMTP when configured and logs otherwise
func replySender(smtpCfg *config.SMTPConfig) providers.ReplySender {
	if !smtpCfg.Configured() {
		log.Warn().Msg("SMTP_HOST is not set; replies and reminders are logged, not sent")
		return notifications.LogSender{}
	}
	sender, err := notifications.NewEmailSender(smtpCfg)
	if err != nil {
		log.Warn().Err(err).Msg("invalid SMTP settings; replies and reminders are logged, not sent")
		return notifications.LogSender{}
	}
	return sender
}
