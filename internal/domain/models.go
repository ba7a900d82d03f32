// Package domain provides the core value types of the scoring and allocation pipeline.
// Everything here is request-scoped and immutable once built.
package domain

import (
	"strings"
)

// AssetClass tags the kind of instrument; fundamental scoring dispatches on it
type AssetClass string

const (
	// AssetClassEquity represents individual stocks
	AssetClassEquity AssetClass = "equity"
	// AssetClassETF represents exchange traded funds
	AssetClassETF AssetClass = "etf"
	// AssetClassFund represents mutual funds
	AssetClassFund AssetClass = "fund"
	// AssetClassCrypto represents crypto assets
	AssetClassCrypto AssetClass = "crypto"
	// AssetClassFixedIncome represents bonds, deposits and debt funds
	AssetClassFixedIncome AssetClass = "fixed_income"
)

// AllAssetClasses lists every known class in a stable order
var AllAssetClasses = []AssetClass{
	AssetClassEquity,
	AssetClassETF,
	AssetClassFund,
	AssetClassFixedIncome,
	AssetClassCrypto,
}

// Valid reports whether c is a known class tag
func (c AssetClass) Valid() bool {
	for _, known := range AllAssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// ParseAssetClass normalises a user supplied class name
func ParseAssetClass(s string) (AssetClass, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "stock", "stocks", "equities":
		normalized = string(AssetClassEquity)
	case "etfs":
		normalized = string(AssetClassETF)
	case "mutual_fund", "mutual_funds", "funds":
		normalized = string(AssetClassFund)
	case "fd", "bond", "bonds", "fixed-income", "fixedincome":
		normalized = string(AssetClassFixedIncome)
	}
	c := AssetClass(normalized)
	if !c.Valid() {
		return "", &InvalidRequestError{Field: "asset_classes", Reason: "unknown asset class " + s}
	}
	return c, nil
}

// MarketCapTier buckets an asset by size
type MarketCapTier string

const (
	MarketCapLarge   MarketCapTier = "large"
	MarketCapMid     MarketCapTier = "mid"
	MarketCapSmall   MarketCapTier = "small"
	MarketCapUnknown MarketCapTier = "unknown"
)

// Market capitalisation thresholds in crore
const (
	LargeCapThreshold = 100000.0
	MidCapThreshold   = 30000.0
)

// TierFromMarketCap derives the tier from a raw market capitalisation in crore
func TierFromMarketCap(marketCap *float64) MarketCapTier {
	if marketCap == nil || *marketCap <= 0 {
		return MarketCapUnknown
	}
	switch {
	case *marketCap > LargeCapThreshold:
		return MarketCapLarge
	case *marketCap > MidCapThreshold:
		return MarketCapMid
	default:
		return MarketCapSmall
	}
}

// Asset is the immutable identity of a tradeable instrument
type Asset struct {
	MarketCap *float64      `json:"market_cap,omitempty" yaml:"market_cap,omitempty" msgpack:"market_cap,omitempty"`
	Symbol    string        `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Name      string        `json:"name" yaml:"name" msgpack:"name"`
	Class     AssetClass    `json:"class" yaml:"class" msgpack:"class"`
	Sector    string        `json:"sector" yaml:"sector" msgpack:"sector"`
	Industry  string        `json:"industry" yaml:"industry" msgpack:"industry"`
	CapTier   MarketCapTier `json:"cap_tier" yaml:"cap_tier" msgpack:"cap_tier"`
}

// Tier returns the explicit tier, or one derived from the raw market cap
func (a Asset) Tier() MarketCapTier {
	if a.CapTier != "" && a.CapTier != MarketCapUnknown {
		return a.CapTier
	}
	return TierFromMarketCap(a.MarketCap)
}

// Validate checks the asset identity
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return &InvalidAssetError{Symbol: a.Symbol, Reason: "empty symbol"}
	}
	if !a.Class.Valid() {
		return &InvalidAssetError{Symbol: a.Symbol, Reason: "unknown asset class " + string(a.Class)}
	}
	return nil
}

// ScoreBreakdown is the per-asset score record. All values are in [0,100].
type ScoreBreakdown struct {
	Technical   float64 `json:"technical" msgpack:"technical"`
	Fundamental float64 `json:"fundamental" msgpack:"fundamental"`
	Sentiment   float64 `json:"sentiment" msgpack:"sentiment"`
	Risk        float64 `json:"risk" msgpack:"risk"`
	Final       float64 `json:"final" msgpack:"final"`
	Confidence  float64 `json:"confidence" msgpack:"confidence"`
	IsFallback  bool    `json:"is_fallback" msgpack:"is_fallback"`
}

// SubScores returns technical, fundamental, sentiment and risk in that order
func (s ScoreBreakdown) SubScores() []float64 {
	return []float64{s.Technical, s.Fundamental, s.Sentiment, s.Risk}
}
