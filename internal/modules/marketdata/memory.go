package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"gopkg.in/yaml.v3"
)

const defaultStartDate = "2024-01-01"

// UniverseEntry is one asset of a universe file. Prices may be given as full
// bars or as a list of closes on consecutive days from StartDate.
type UniverseEntry struct {
	domain.Asset `yaml:",inline"`
	Prices       []domain.PriceBar        `yaml:"prices,omitempty"`
	Closes       []float64                `yaml:"closes,omitempty"`
	StartDate    string                   `yaml:"start_date,omitempty"`
	Fundamentals *domain.Fundamentals     `yaml:"fundamentals,omitempty"`
	Sentiment    *domain.SentimentReading `yaml:"sentiment,omitempty"`
}

// Universe is the document stored in a universe file
type Universe struct {
	Assets []UniverseEntry `yaml:"assets"`
}

// Bars returns the entry's price bars, oldest first
func (e UniverseEntry) Bars() ([]domain.PriceBar, error) {
	if len(e.Prices) > 0 {
		bars := append([]domain.PriceBar(nil), e.Prices...)
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
		return bars, nil
	}
	if len(e.Closes) == 0 {
		return nil, nil
	}

	startDate := e.StartDate
	if startDate == "" {
		startDate = defaultStartDate
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q for %s: %w", e.StartDate, e.Symbol, err)
	}

	bars := make([]domain.PriceBar, len(e.Closes))
	for i, c := range e.Closes {
		bars[i] = domain.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars, nil
}

// ParseUniverse decodes and validates a universe document
func ParseUniverse(data []byte) ([]UniverseEntry, error) {
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe: %w", err)
	}

	seen := make(map[string]bool, len(u.Assets))
	for _, e := range u.Assets {
		if seen[e.Symbol] {
			return nil, fmt.Errorf("duplicate symbol %q in universe", e.Symbol)
		}
		seen[e.Symbol] = true
		if _, err := e.Bars(); err != nil {
			return nil, err
		}
	}
	return u.Assets, nil
}

// LoadUniverse reads a universe file
func LoadUniverse(path string) ([]UniverseEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	return ParseUniverse(data)
}

// MemoryProvider serves a universe held in memory. It implements Provider and
// SentimentProvider.
type MemoryProvider struct {
	entries []UniverseEntry
	bars    map[string][]domain.PriceBar
	index   map[string]int
}

// NewMemoryProvider builds a provider from parsed entries
func NewMemoryProvider(entries []UniverseEntry) (*MemoryProvider, error) {
	mp := &MemoryProvider{
		entries: entries,
		bars:    make(map[string][]domain.PriceBar, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		bars, err := e.Bars()
		if err != nil {
			return nil, err
		}
		mp.bars[e.Symbol] = bars
		mp.index[e.Symbol] = i
	}
	return mp, nil
}

// Entries returns the entries the provider was built from
func (mp *MemoryProvider) Entries() []UniverseEntry {
	return mp.entries
}

// ListAssets returns assets in universe order
func (mp *MemoryProvider) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assets := make([]domain.Asset, len(mp.entries))
	for i, e := range mp.entries {
		assets[i] = e.Asset
	}
	return assets, nil
}

// Snapshot returns bars within lookbackDays of the latest bar plus fundamentals
func (mp *MemoryProvider) Snapshot(ctx context.Context, asset domain.Asset, lookbackDays int) (domain.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketData{}, err
	}
	i, ok := mp.index[asset.Symbol]
	if !ok {
		return domain.MarketData{Availability: domain.DataUnavailable}, nil
	}

	bars := withinLookback(mp.bars[asset.Symbol], lookbackDays)
	return domain.MarketData{
		Prices:       bars,
		Fundamentals: mp.entries[i].Fundamentals,
		Availability: domain.AvailabilityFor(len(bars)),
	}, nil
}

// Sentiment returns the entry's reading, or neutral
func (mp *MemoryProvider) Sentiment(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error) {
	if err := ctx.Err(); err != nil {
		return domain.SentimentReading{}, err
	}
	i, ok := mp.index[symbol]
	if !ok || mp.entries[i].Sentiment == nil {
		return domain.NeutralSentiment(), nil
	}
	return *mp.entries[i].Sentiment, nil
}

func withinLookback(bars []domain.PriceBar, lookbackDays int) []domain.PriceBar {
	if len(bars) == 0 || lookbackDays <= 0 {
		return nil
	}
	cutoff := bars[len(bars)-1].Date.AddDate(0, 0, -lookbackDays)
	start := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(cutoff) })
	return append([]domain.PriceBar(nil), bars[start:]...)
}
