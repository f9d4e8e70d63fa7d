package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/saurabhwebdev/parkd/internal/app"
	"github.com/saurabhwebdev/parkd/internal/clock"
	"github.com/saurabhwebdev/parkd/internal/config"
	"github.com/saurabhwebdev/parkd/internal/logging"
	"github.com/saurabhwebdev/parkd/internal/storage/postgres"
	transporthttp "github.com/saurabhwebdev/parkd/internal/transport/http"
	"github.com/saurabhwebdev/parkd/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Environment)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	clk := clock.NewSystem()
	zoneSvc := app.NewZoneService(postgres.NewZoneRepository(pool), clk)
	spotSvc := app.NewSpotService(postgres.NewSpotRepository(pool), clk)
	ledgerSvc := app.NewLedgerService(postgres.NewRecordRepository(pool), clk,
		app.WithDefaultCurrency(cfg.DefaultCurrency))
	reportSvc := app.NewReportService(postgres.NewReportRepository(pool),
		app.WithReportCurrency(cfg.DefaultCurrency))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := transporthttp.NewRouter(transporthttp.Services{
		Zones:   zoneSvc,
		Spots:   spotSvc,
		Ledger:  ledgerSvc,
		Reports: reportSvc,
	}, transporthttp.RouterOptions{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		StoreTimeout: cfg.StoreTimeout,
		Registry:     registry,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info().Str("port", cfg.Port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}
