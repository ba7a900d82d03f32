package marketdata

import (
	"context"
	"fmt"
	"runtime"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Loader fetches the whole universe before a run starts
type Loader struct {
	provider     Provider
	sentiment    SentimentProvider
	lookbackDays int
	concurrency  int
	log          zerolog.Logger
}

// NewLoader creates a loader. sentiment may be nil, in which case every asset
// gets the neutral reading.
func NewLoader(provider Provider, sentiment SentimentProvider, lookbackDays, concurrency int, log zerolog.Logger) *Loader {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Loader{
		provider:     provider,
		sentiment:    sentiment,
		lookbackDays: lookbackDays,
		concurrency:  concurrency,
		log:          log.With().Str("component", "market_loader").Logger(),
	}
}

// Load lists every asset and fetches its market data, preserving the
// provider's asset order. Per-asset read failures degrade that asset to
// unavailable data; only listing failures and cancellation are errors.
func (l *Loader) Load(ctx context.Context) ([]domain.AssetInput, error) {
	assets, err := l.provider.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	inputs := make([]domain.AssetInput, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			data, err := l.loadOne(gctx, asset)
			if err != nil {
				return err
			}
			inputs[i] = domain.AssetInput{Asset: asset, Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.Info().Int("assets", len(inputs)).Msg("Loaded market data")
	return inputs, nil
}

func (l *Loader) loadOne(ctx context.Context, asset domain.Asset) (domain.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketData{}, err
	}

	data, err := l.provider.Snapshot(ctx, asset, l.lookbackDays)
	if err != nil {
		if ctx.Err() != nil {
			return domain.MarketData{}, ctx.Err()
		}
		l.log.Warn().Err(err).Str("symbol", asset.Symbol).Msg("Market data unavailable")
		data = domain.MarketData{Availability: domain.DataUnavailable}
	}

	reading := domain.NeutralSentiment()
	if l.sentiment != nil {
		r, err := l.sentiment.Sentiment(ctx, asset.Symbol, l.lookbackDays)
		switch {
		case err == nil:
			reading = r
		case ctx.Err() != nil:
			return domain.MarketData{}, ctx.Err()
		default:
			l.log.Warn().Err(err).Str("symbol", asset.Symbol).Msg("Sentiment unavailable, using neutral")
		}
	}
	data.Sentiment = &reading

	l.log.Debug().
		Str("symbol", asset.Symbol).
		Int("bars", len(data.Prices)).
		Str("availability", string(data.Availability)).
		Msg("Loaded asset")

	return data, nil
}
