package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	assets      []domain.Asset
	listErr     error
	snapshotErr map[string]error
}

func (s *stubProvider) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	return s.assets, s.listErr
}

func (s *stubProvider) Snapshot(ctx context.Context, asset domain.Asset, lookbackDays int) (domain.MarketData, error) {
	if err := s.snapshotErr[asset.Symbol]; err != nil {
		return domain.MarketData{}, err
	}
	bars := make([]domain.PriceBar, len(asset.Symbol))
	return domain.MarketData{Prices: bars, Availability: domain.AvailabilityFor(len(bars))}, nil
}

type stubSentiment struct {
	scores map[string]float64
	err    error
}

func (s *stubSentiment) Sentiment(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error) {
	if s.err != nil {
		return domain.SentimentReading{}, s.err
	}
	if v, ok := s.scores[symbol]; ok {
		return domain.SentimentReading{Score: v, Confidence: 50}, nil
	}
	return domain.NeutralSentiment(), nil
}

func assetsFor(symbols ...string) []domain.Asset {
	out := make([]domain.Asset, len(symbols))
	for i, s := range symbols {
		out[i] = domain.Asset{Symbol: s, Class: domain.AssetClassEquity}
	}
	return out
}

func TestLoader_PreservesOrderAndAttachesSentiment(t *testing.T) {
	provider := &stubProvider{assets: assetsFor("A", "BB", "CCC", "DDDD", "EEEEE")}
	sentiment := &stubSentiment{scores: map[string]float64{"CCC": 80}}
	loader := NewLoader(provider, sentiment, 400, 2, zerolog.Nop())

	inputs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 5)

	for i, in := range inputs {
		assert.Equal(t, provider.assets[i].Symbol, in.Asset.Symbol)
		assert.Len(t, in.Data.Prices, len(in.Asset.Symbol))
		require.NotNil(t, in.Data.Sentiment)
	}
	assert.Equal(t, 80.0, inputs[2].Data.Sentiment.Score)
	assert.True(t, inputs[0].Data.Sentiment.Neutral)
}

func TestLoader_DegradesFailedReads(t *testing.T) {
	provider := &stubProvider{
		assets:      assetsFor("OK", "BAD"),
		snapshotErr: map[string]error{"BAD": errors.New("disk on fire")},
	}
	loader := NewLoader(provider, &stubSentiment{err: errors.New("timeout")}, 400, 0, zerolog.Nop())

	inputs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, domain.DataUnavailable, inputs[1].Data.Availability)
	assert.Empty(t, inputs[1].Data.Prices)
	assert.Equal(t, domain.NeutralSentiment(), *inputs[0].Data.Sentiment)
}

func TestLoader_NilSentimentProvider(t *testing.T) {
	loader := NewLoader(&stubProvider{assets: assetsFor("A")}, nil, 30, 1, zerolog.Nop())

	inputs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.True(t, inputs[0].Data.Sentiment.Neutral)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("listing failure", func(t *testing.T) {
		loader := NewLoader(&stubProvider{listErr: errors.New("db closed")}, nil, 30, 1, zerolog.Nop())
		_, err := loader.Load(context.Background())
		assert.ErrorContains(t, err, "failed to list assets")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		loader := NewLoader(&stubProvider{assets: assetsFor("A", "B")}, nil, 30, 1, zerolog.Nop())
		_, err := loader.Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
