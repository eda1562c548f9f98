package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fersal/internal/config"
	"fersal/internal/database"
	"fersal/internal/extract"
	"fersal/internal/handler"
	"fersal/internal/ingest"
	"fersal/internal/mailbox"
	"fersal/internal/portal"
	"fersal/internal/repository"
	"fersal/internal/router"
	"fersal/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting fersal API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize the voucher ledger
	voucherRepo := repository.NewVoucherRepository(pool, logger)

	// Initialize the extraction pipeline
	fetcher := extract.NewPageFetcher(cfg.Extract.FetchTimeoutDuration(), logger)
	extractor := extract.NewExtractor(fetcher, cfg.Extract.ExpiryDays, logger)
	pipeline := ingest.NewPipeline(extractor, voucherRepo, logger)

	// Mailbox scanning: one fresh IMAP session per scan
	var mailSource func() ingest.Source
	if cfg.Mail.Enabled {
		mailCfg := cfg.Mail
		mailSource = func() ingest.Source { return mailbox.NewSource(mailCfg, logger) }
		logger.Info().Str("server", cfg.Mail.ServerAddress()).Msg("email scanning enabled")
	} else {
		logger.Info().Msg("email scanning disabled")
	}

	// Portal scanning
	var portalClient *portal.Client
	if cfg.Portal.Enabled {
		portalClient = portal.NewClient(cfg.Portal, logger)
		logger.Info().Str("base_url", cfg.Portal.BaseURL).Msg("portal scanning enabled")
	} else {
		logger.Info().Msg("portal scanning disabled")
	}

	// Initialize services
	voucherService := service.NewVoucherService(pipeline, voucherRepo, logger)
	reservationService := service.NewReservationService(voucherRepo, logger)

	// Initialize HTTP handlers
	voucherHandler := handler.NewVoucherHandler(voucherService, mailSource, logger)
	reservationHandler := handler.NewReservationHandler(reservationService, logger)
	portalHandler := handler.NewPortalHandler(portalClient, voucherService, logger)

	// Initialize router
	mux := router.New(voucherHandler, reservationHandler, portalHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // scans hold the request while sources are polled
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
