// Package main is the entry point for the advisor HTTP service. It wires the
// market store, the scoring and allocation pipeline, the run archive and the
// background jobs, then serves the API until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/di"
	portfoliohandlers "github.com/aristath/advisor/internal/modules/portfolio/handlers"
	"github.com/aristath/advisor/internal/server"
	"github.com/aristath/advisor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting advisor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	serverCfg := server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Policy:    container.Policy,
		MarketDB:  container.MarketDB,
		Archive:   container.Archive,
		Metrics:   container.Metrics,
		Scheduler: container.Scheduler,
		Jobs:      jobs.All(),
		Portfolio: portfoliohandlers.NewHandler(container.Service, cfg.DefaultCurrency, log),
	}
	if container.SentimentClient != nil {
		serverCfg.Sentiment = container.SentimentClient
	}
	srv := server.New(serverCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// Graceful shutdown, in-flight requests get up to 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()
	log.Info().Msg("Server stopped")
}
