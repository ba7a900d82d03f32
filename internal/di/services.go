package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/clients/sentiment"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/marketdata"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

// InitializeServices loads the policy and builds the pipeline around the
// market store
func InitializeServices(ctx context.Context, container *Container, log zerolog.Logger) error {
	cfg := container.Config

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	if cfg.PolicyFile != "" {
		log.Info().Str("file", cfg.PolicyFile).Msg("Policy loaded")
	}
	container.Policy = policy

	if container.Metrics == nil {
		container.Metrics = metrics.NewRegistry()
	}

	var sentimentProvider marketdata.SentimentProvider = container.MarketStore
	if cfg.SentimentServiceURL != "" {
		container.SentimentClient = sentiment.NewClient(cfg.SentimentServiceURL, cfg.SentimentTimeout, container.Metrics, log)
		sentimentProvider = container.SentimentClient
		log.Info().Str("url", cfg.SentimentServiceURL).Msg("Using sentiment service")
	}

	container.Loader = marketdata.NewLoader(container.MarketStore, sentimentProvider, cfg.HistoryLookbackDays, 0, log)
	container.Engine = portfolio.NewEngine(policy, cfg.ScoringWorkers, container.Metrics, log)

	store, err := archive.New(ctx, cfg.Archive, container.Metrics, log)
	if err != nil {
		return fmt.Errorf("failed to initialize run archive: %w", err)
	}
	container.Archive = store

	// A nil Store must reach the service as a nil interface
	var runArchive portfolio.RunArchive
	if store != nil {
		runArchive = store
	}
	container.Service = portfolio.NewService(container.Loader, container.Engine, runArchive, container.Metrics, log)

	return nil
}
