package domain

import "time"

// MinFullHistory is the number of bars needed for full (non-fallback) scoring
const MinFullHistory = 50

// PriceBar is one daily OHLCV observation
type PriceBar struct {
	Date   time.Time `json:"date" yaml:"date" msgpack:"date"`
	Open   float64   `json:"open" yaml:"open" msgpack:"open"`
	High   float64   `json:"high" yaml:"high" msgpack:"high"`
	Low    float64   `json:"low" yaml:"low" msgpack:"low"`
	Close  float64   `json:"close" yaml:"close" msgpack:"close"`
	Volume int64     `json:"volume" yaml:"volume" msgpack:"volume"`
}

// Fundamentals is a point-in-time snapshot. Nil fields are unknown.
// Ratios are fractions (0.15 = 15%) except P/E and P/B.
type Fundamentals struct {
	PERatio       *float64 `json:"pe_ratio,omitempty" yaml:"pe_ratio,omitempty" msgpack:"pe_ratio,omitempty"`
	PBRatio       *float64 `json:"pb_ratio,omitempty" yaml:"pb_ratio,omitempty" msgpack:"pb_ratio,omitempty"`
	ROE           *float64 `json:"roe,omitempty" yaml:"roe,omitempty" msgpack:"roe,omitempty"`
	ProfitMargin  *float64 `json:"profit_margin,omitempty" yaml:"profit_margin,omitempty" msgpack:"profit_margin,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty" yaml:"debt_to_equity,omitempty" msgpack:"debt_to_equity,omitempty"`
	ExpenseRatio  *float64 `json:"expense_ratio,omitempty" yaml:"expense_ratio,omitempty" msgpack:"expense_ratio,omitempty"`
	AUM           *float64 `json:"aum,omitempty" yaml:"aum,omitempty" msgpack:"aum,omitempty"`
	Yield         *float64 `json:"yield,omitempty" yaml:"yield,omitempty" msgpack:"yield,omitempty"`
	CreditQuality string   `json:"credit_quality,omitempty" yaml:"credit_quality,omitempty" msgpack:"credit_quality,omitempty"`
}

// SentimentReading is the external sentiment provider's answer
type SentimentReading struct {
	Score      float64 `json:"score" yaml:"score" msgpack:"score"`
	Confidence float64 `json:"confidence" yaml:"confidence" msgpack:"confidence"`
	Neutral    bool    `json:"neutral" yaml:"neutral" msgpack:"neutral"`
}

// NeutralSentimentScore is used whenever no sentiment data exists
const NeutralSentimentScore = 50.0

// NeutralSentiment is the explicit "no data" reading
func NeutralSentiment() SentimentReading {
	return SentimentReading{Score: NeutralSentimentScore, Neutral: true}
}

// Availability describes how much market data a provider could supply
type Availability string

const (
	DataAvailable           Availability = "available"
	DataInsufficientHistory Availability = "insufficient_history"
	DataUnavailable         Availability = "unavailable"
)

// AvailabilityFor classifies a price series length
func AvailabilityFor(bars int) Availability {
	switch {
	case bars == 0:
		return DataUnavailable
	case bars < MinFullHistory:
		return DataInsufficientHistory
	default:
		return DataAvailable
	}
}

// MarketData is the read-only bundle of inputs for one asset in one run
type MarketData struct {
	Prices       []PriceBar        `json:"prices,omitempty"`
	Fundamentals *Fundamentals     `json:"fundamentals,omitempty"`
	Sentiment    *SentimentReading `json:"sentiment,omitempty"`
	Availability Availability      `json:"availability"`
}

// Closes returns closing prices, oldest first
func (m MarketData) Closes() []float64 {
	closes := make([]float64, 0, len(m.Prices))
	for _, bar := range m.Prices {
		closes = append(closes, bar.Close)
	}
	return closes
}

// HasFullHistory reports whether the full scoring path applies
func (m MarketData) HasFullHistory() bool {
	return len(m.Prices) >= MinFullHistory && m.Fundamentals != nil
}
