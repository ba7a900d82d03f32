// Package marketdata supplies the already-fetched price, fundamental and
// sentiment inputs that the scoring pipeline runs on.
package marketdata

import (
	"context"

	"github.com/aristath/advisor/internal/domain"
)

// Provider reads assets and their market data. Missing data is reported
// through MarketData.Availability, never as an error.
type Provider interface {
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	Snapshot(ctx context.Context, asset domain.Asset, lookbackDays int) (domain.MarketData, error)
}

// SentimentProvider returns a sentiment reading for a symbol over the last
// lookbackDays. Implementations return domain.NeutralSentiment when they have
// nothing.
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error)
}
