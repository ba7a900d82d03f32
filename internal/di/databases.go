package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/modules/marketdata"
)

// InitializeDatabases opens the market database, applies its schema and
// seeds it from the universe file when one is configured
func InitializeDatabases(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Config: cfg}

	marketDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath,
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market database: %w", err)
	}
	container.MarketDB = marketDB

	store, err := marketdata.NewSQLiteStore(ctx, marketDB, log)
	if err != nil {
		marketDB.Close()
		return nil, err
	}
	container.MarketStore = store

	if cfg.UniverseFile != "" {
		entries, err := marketdata.LoadUniverse(cfg.UniverseFile)
		if err != nil {
			marketDB.Close()
			return nil, err
		}
		if err := store.Seed(ctx, entries); err != nil {
			marketDB.Close()
			return nil, fmt.Errorf("failed to seed market database: %w", err)
		}
		log.Info().Str("file", cfg.UniverseFile).Int("assets", len(entries)).Msg("Market database seeded from universe file")
	}

	log.Info().Str("path", marketDB.Path()).Msg("Market database initialized")
	return container, nil
}
