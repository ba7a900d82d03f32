package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const secondsPerDay = 86400

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	symbol     TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	class      TEXT NOT NULL,
	sector     TEXT NOT NULL DEFAULT '',
	industry   TEXT NOT NULL DEFAULT '',
	market_cap REAL,
	cap_tier   TEXT NOT NULL DEFAULT 'unknown'
);

CREATE TABLE IF NOT EXISTS daily_prices (
	symbol TEXT NOT NULL REFERENCES assets(symbol) ON DELETE CASCADE,
	date   INTEGER NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume INTEGER,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS fundamentals (
	symbol     TEXT PRIMARY KEY REFERENCES assets(symbol) ON DELETE CASCADE,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sentiment (
	symbol     TEXT NOT NULL REFERENCES assets(symbol) ON DELETE CASCADE,
	date       INTEGER NOT NULL,
	score      REAL NOT NULL,
	confidence REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
`

// SQLiteStore is the seeded market database. It implements Provider and
// SentimentProvider; the write methods are used for seeding.
type SQLiteStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLiteStore applies the schema and returns the store
func NewSQLiteStore(ctx context.Context, db *database.DB, log zerolog.Logger) (*SQLiteStore, error) {
	if err := db.Migrate(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to migrate market store: %w", err)
	}
	return &SQLiteStore{
		db:  db,
		log: log.With().Str("component", "market_store").Logger(),
	}, nil
}

// ListAssets returns every asset ordered by symbol
func (s *SQLiteStore) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT symbol, name, class, sector, industry, market_cap, cap_tier
		FROM assets
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		var class, tier string
		var marketCap sql.NullFloat64
		if err := rows.Scan(&a.Symbol, &a.Name, &class, &a.Sector, &a.Industry, &marketCap, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Class = domain.AssetClass(class)
		a.CapTier = domain.MarketCapTier(tier)
		if marketCap.Valid {
			v := marketCap.Float64
			a.MarketCap = &v
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// Snapshot returns prices within lookbackDays of the asset's latest bar
// together with its fundamentals. Sentiment is left to the SentimentProvider.
func (s *SQLiteStore) Snapshot(ctx context.Context, asset domain.Asset, lookbackDays int) (domain.MarketData, error) {
	prices, err := s.prices(ctx, asset.Symbol, lookbackDays)
	if err != nil {
		return domain.MarketData{}, err
	}
	fundamentals, err := s.fundamentals(ctx, asset.Symbol)
	if err != nil {
		return domain.MarketData{}, err
	}

	return domain.MarketData{
		Prices:       prices,
		Fundamentals: fundamentals,
		Availability: domain.AvailabilityFor(len(prices)),
	}, nil
}

func (s *SQLiteStore) prices(ctx context.Context, symbol string, lookbackDays int) ([]domain.PriceBar, error) {
	if lookbackDays <= 0 {
		return nil, nil
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = ?
		  AND date >= (SELECT MAX(date) FROM daily_prices WHERE symbol = ?) - ?
		ORDER BY date ASC
	`, symbol, symbol, int64(lookbackDays)*secondsPerDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var bar domain.PriceBar
		var dateUnix int64
		var volume sql.NullInt64
		if err := rows.Scan(&dateUnix, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		bar.Date = time.Unix(dateUnix, 0).UTC()
		if volume.Valid {
			bar.Volume = volume.Int64
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return bars, nil
}

func (s *SQLiteStore) fundamentals(ctx context.Context, symbol string) (*domain.Fundamentals, error) {
	var blob []byte
	err := s.db.Conn().QueryRowContext(ctx, `SELECT data FROM fundamentals WHERE symbol = ?`, symbol).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fundamentals: %w", err)
	}

	var f domain.Fundamentals
	if err := msgpack.Unmarshal(blob, &f); err != nil {
		// A corrupt blob is treated as missing data
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to decode fundamentals")
		return nil, nil
	}
	return &f, nil
}

// Sentiment averages the readings within lookbackDays of the latest one
func (s *SQLiteStore) Sentiment(ctx context.Context, symbol string, lookbackDays int) (domain.SentimentReading, error) {
	if lookbackDays <= 0 {
		return domain.NeutralSentiment(), nil
	}

	var score, confidence sql.NullFloat64
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT AVG(score), AVG(confidence)
		FROM sentiment
		WHERE symbol = ?
		  AND date >= (SELECT MAX(date) FROM sentiment WHERE symbol = ?) - ?
	`, symbol, symbol, int64(lookbackDays)*secondsPerDay).Scan(&score, &confidence)
	if err != nil {
		return domain.SentimentReading{}, fmt.Errorf("failed to query sentiment: %w", err)
	}
	if !score.Valid {
		return domain.NeutralSentiment(), nil
	}

	return domain.SentimentReading{Score: score.Float64, Confidence: confidence.Float64}, nil
}

// UpsertAsset inserts or replaces an asset
func (s *SQLiteStore) UpsertAsset(ctx context.Context, a domain.Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	tier := a.CapTier
	if tier == "" {
		tier = domain.MarketCapUnknown
	}

	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO assets (symbol, name, class, sector, industry, market_cap, cap_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			class = excluded.class,
			sector = excluded.sector,
			industry = excluded.industry,
			market_cap = excluded.market_cap,
			cap_tier = excluded.cap_tier
	`, a.Symbol, a.Name, string(a.Class), a.Sector, a.Industry, nullFloat(a.MarketCap), string(tier))
	if err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", a.Symbol, err)
	}
	return nil
}

// SavePrices writes bars for a symbol, replacing bars on the same date
func (s *SQLiteStore) SavePrices(ctx context.Context, symbol string, bars []domain.PriceBar) error {
	return database.WithTransaction(ctx, s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO daily_prices (symbol, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare price insert: %w", err)
		}
		defer stmt.Close()

		for _, bar := range bars {
			day := bar.Date.UTC().Truncate(24 * time.Hour).Unix()
			if _, err := stmt.ExecContext(ctx, symbol, day, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
				return fmt.Errorf("failed to insert price for %s: %w", symbol, err)
			}
		}
		return nil
	})
}

// SaveFundamentals stores the snapshot as a msgpack blob
func (s *SQLiteStore) SaveFundamentals(ctx context.Context, symbol string, f domain.Fundamentals, asOf time.Time) error {
	blob, err := msgpack.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode fundamentals for %s: %w", symbol, err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT OR REPLACE INTO fundamentals (symbol, data, updated_at) VALUES (?, ?, ?)
	`, symbol, blob, asOf.Unix())
	if err != nil {
		return fmt.Errorf("failed to save fundamentals for %s: %w", symbol, err)
	}
	return nil
}

// SaveSentiment stores one dated reading
func (s *SQLiteStore) SaveSentiment(ctx context.Context, symbol string, date time.Time, reading domain.SentimentReading) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT OR REPLACE INTO sentiment (symbol, date, score, confidence) VALUES (?, ?, ?, ?)
	`, symbol, date.UTC().Truncate(24*time.Hour).Unix(), reading.Score, reading.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save sentiment for %s: %w", symbol, err)
	}
	return nil
}

// Seed writes a whole universe, as loaded from a universe file
func (s *SQLiteStore) Seed(ctx context.Context, entries []UniverseEntry) error {
	for _, e := range entries {
		if err := s.UpsertAsset(ctx, e.Asset); err != nil {
			return err
		}
		bars, err := e.Bars()
		if err != nil {
			return err
		}
		if len(bars) > 0 {
			if err := s.SavePrices(ctx, e.Symbol, bars); err != nil {
				return err
			}
		}
		if e.Fundamentals != nil {
			asOf := time.Unix(0, 0).UTC()
			if len(bars) > 0 {
				asOf = bars[len(bars)-1].Date
			}
			if err := s.SaveFundamentals(ctx, e.Symbol, *e.Fundamentals, asOf); err != nil {
				return err
			}
		}
		if e.Sentiment != nil && !e.Sentiment.Neutral {
			date := time.Unix(0, 0).UTC()
			if len(bars) > 0 {
				date = bars[len(bars)-1].Date
			}
			if err := s.SaveSentiment(ctx, e.Symbol, date, *e.Sentiment); err != nil {
				return err
			}
		}
	}

	s.log.Info().Int("assets", len(entries)).Msg("Seeded market store")
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
