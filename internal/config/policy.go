package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/advisor/internal/domain"
)

// Policy is the deployment-time scoring and allocation policy. It is loaded once and
// handed to each component at construction; components never modify it.
type Policy struct {
	FactorWeights FactorWeights                                        `yaml:"factor_weights" json:"factor_weights"`
	MinScores     map[domain.RiskProfile]float64                       `yaml:"min_scores" json:"min_scores"`
	TargetMixes   map[domain.RiskProfile]map[domain.AssetClass]float64 `yaml:"target_mixes" json:"target_mixes"`
	Selection     SelectionPolicy                                      `yaml:"selection" json:"selection"`
	Fallback      FallbackPolicy                                       `yaml:"fallback" json:"fallback"`
	Optimizer     OptimizerPolicy                                      `yaml:"optimizer" json:"optimizer"`
	Reasoning     ReasoningPolicy                                      `yaml:"reasoning" json:"reasoning"`
}

// FactorWeights are the blend weights of the four sub-scores
type FactorWeights struct {
	Technical   float64 `yaml:"technical" json:"technical"`
	Fundamental float64 `yaml:"fundamental" json:"fundamental"`
	Sentiment   float64 `yaml:"sentiment" json:"sentiment"`
	Risk        float64 `yaml:"risk" json:"risk"`
}

// Slice returns the weights in technical, fundamental, sentiment, risk order
func (w FactorWeights) Slice() []float64 {
	return []float64{w.Technical, w.Fundamental, w.Sentiment, w.Risk}
}

// SelectionPolicy bounds the diversification selector
type SelectionPolicy struct {
	SectorCap      int     `yaml:"sector_cap" json:"sector_cap"`
	ClassTolerance float64 `yaml:"class_tolerance" json:"class_tolerance"` // percentage points
}

// Band is an inclusive integer jitter range
type Band struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// FallbackPolicy configures the deterministic fallback scorer
type FallbackPolicy struct {
	SectorSentiment map[string]Band `yaml:"sector_sentiment" json:"sector_sentiment"`
	BaseScore       float64         `yaml:"base_score" json:"base_score"`
	RankStep        float64         `yaml:"rank_step" json:"rank_step"`
	MinScore        float64         `yaml:"min_score" json:"min_score"`
	MaxScore        float64         `yaml:"max_score" json:"max_score"`
	MinPricePoints  int             `yaml:"min_price_points" json:"min_price_points"`
	PriceWindow     int             `yaml:"price_window" json:"price_window"`
}

// OptimizerPolicy configures expected-return priors and the Sharpe solver
type OptimizerPolicy struct {
	ReturnPriors       map[domain.AssetClass]float64 `yaml:"return_priors" json:"return_priors"`
	VolatilityPriors   map[domain.AssetClass]float64 `yaml:"volatility_priors" json:"volatility_priors"`
	RiskFreeRate       float64                       `yaml:"risk_free_rate" json:"risk_free_rate"`
	ExpectedReturnMin  float64                       `yaml:"expected_return_min" json:"expected_return_min"`
	ExpectedReturnMax  float64                       `yaml:"expected_return_max" json:"expected_return_max"`
	MaxConditionNumber float64                       `yaml:"max_condition_number" json:"max_condition_number"`
	MinHistory         int                           `yaml:"min_history" json:"min_history"`
	MinOverlap         int                           `yaml:"min_overlap" json:"min_overlap"`
	MaxIterations      int                           `yaml:"max_iterations" json:"max_iterations"`
	MaxFuncEvaluations int                           `yaml:"max_func_evaluations" json:"max_func_evaluations"`
}

// BandPhrases holds the phrase for each score band
type BandPhrases struct {
	High string `yaml:"high" json:"high"`
	Mid  string `yaml:"mid" json:"mid"`
	Low  string `yaml:"low" json:"low"`
}

// ReasoningPolicy holds the phrase tables of the reasoning builder
type ReasoningPolicy struct {
	ProfileFit    map[domain.RiskProfile]string   `yaml:"profile_fit" json:"profile_fit"`
	SectorThesis  map[string]string               `yaml:"sector_thesis" json:"sector_thesis"`
	SizeNotes     map[domain.MarketCapTier]string `yaml:"size_notes" json:"size_notes"`
	Technical     BandPhrases                     `yaml:"technical" json:"technical"`
	Fundamental   BandPhrases                     `yaml:"fundamental" json:"fundamental"`
	Risk          BandPhrases                     `yaml:"risk" json:"risk"`
	DefaultThesis string                          `yaml:"default_thesis" json:"default_thesis"`
	HighBand      float64                         `yaml:"high_band" json:"high_band"`
	MidBand       float64                         `yaml:"mid_band" json:"mid_band"`
}

// DefaultPolicy returns a fresh copy of the built-in policy
func DefaultPolicy() Policy {
	return Policy{
		FactorWeights: FactorWeights{
			Technical:   0.25,
			Fundamental: 0.30,
			Sentiment:   0.25,
			Risk:        0.20,
		},
		MinScores: map[domain.RiskProfile]float64{
			domain.RiskConservative: 65,
			domain.RiskModerate:     60,
			domain.RiskAggressive:   55,
		},
		TargetMixes: map[domain.RiskProfile]map[domain.AssetClass]float64{
			domain.RiskConservative: {
				domain.AssetClassEquity:      15,
				domain.AssetClassETF:         20,
				domain.AssetClassFund:        35,
				domain.AssetClassFixedIncome: 25,
				domain.AssetClassCrypto:      5,
			},
			domain.RiskModerate: {
				domain.AssetClassEquity:      30,
				domain.AssetClassETF:         25,
				domain.AssetClassFund:        25,
				domain.AssetClassFixedIncome: 15,
				domain.AssetClassCrypto:      5,
			},
			domain.RiskAggressive: {
				domain.AssetClassEquity:      40,
				domain.AssetClassETF:         20,
				domain.AssetClassFund:        20,
				domain.AssetClassFixedIncome: 5,
				domain.AssetClassCrypto:      15,
			},
		},
		Selection: SelectionPolicy{
			SectorCap:      2,
			ClassTolerance: 10,
		},
		Fallback: FallbackPolicy{
			BaseScore:      75,
			RankStep:       2,
			MinScore:       50,
			MaxScore:       95,
			MinPricePoints: 5,
			PriceWindow:    20,
			SectorSentiment: map[string]Band{
				"Technology":         {Min: 70, Max: 80},
				"Financial Services": {Min: 65, Max: 75},
				"Healthcare":         {Min: 68, Max: 78},
				"Consumer Goods":     {Min: 65, Max: 75},
				"Energy":             {Min: 60, Max: 70},
				"Industrials":        {Min: 65, Max: 75},
			},
		},
		Optimizer: OptimizerPolicy{
			RiskFreeRate:      0.06,
			ExpectedReturnMin: -0.50,
			ExpectedReturnMax: 1.00,
			ReturnPriors: map[domain.AssetClass]float64{
				domain.AssetClassEquity:      0.12,
				domain.AssetClassETF:         0.10,
				domain.AssetClassFund:        0.09,
				domain.AssetClassFixedIncome: 0.065,
				domain.AssetClassCrypto:      0.20,
			},
			VolatilityPriors: map[domain.AssetClass]float64{
				domain.AssetClassEquity:      0.20,
				domain.AssetClassETF:         0.15,
				domain.AssetClassFund:        0.12,
				domain.AssetClassFixedIncome: 0.05,
				domain.AssetClassCrypto:      0.60,
			},
			MaxConditionNumber: 1e12,
			MinHistory:         20,
			MinOverlap:         20,
			MaxIterations:      2000,
			MaxFuncEvaluations: 50000,
		},
		Reasoning: ReasoningPolicy{
			HighBand: 75,
			MidBand:  65,
			Technical: BandPhrases{
				High: "positive trend indicators",
				Mid:  "neutral signals",
				Low:  "consolidating setup",
			},
			Fundamental: BandPhrases{
				High: "strong quality metrics",
				Mid:  "acceptable valuation",
				Low:  "value opportunity with turnaround potential",
			},
			Risk: BandPhrases{
				High: "low volatility",
				Mid:  "balanced volatility",
				Low:  "higher risk-reward",
			},
			ProfileFit: map[domain.RiskProfile]string{
				domain.RiskConservative: "suits a capital preservation focus",
				domain.RiskModerate:     "fits a balanced growth allocation",
				domain.RiskAggressive:   "matches a growth maximisation mandate",
			},
			SectorThesis: map[string]string{
				"Technology":         "digitalisation and cloud adoption tailwinds",
				"Financial Services": "credit growth leverage and dividend yield",
				"Healthcare":         "defensive, inelastic demand",
				"Consumer Goods":     "rising discretionary spending and brand power",
				"Energy":             "inflation hedge with commodity price leverage",
				"Industrials":        "infrastructure spending and manufacturing growth",
				"Real Estate":        "housing demand and improving commercial occupancy",
				"Utilities":          "stable, regulated cash flows",
			},
			DefaultThesis: "sector diversification",
			SizeNotes: map[domain.MarketCapTier]string{
				domain.MarketCapLarge: "large-cap stability",
				domain.MarketCapMid:   "mid-cap opportunity",
				domain.MarketCapSmall: "small-cap potential",
			},
		},
	}
}

// LoadPolicy overlays the YAML file at path on the default policy.
// An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}

	return policy, nil
}

// Validate checks the internal consistency of the policy
func (p Policy) Validate() error {
	var weightSum float64
	for _, w := range p.FactorWeights.Slice() {
		if w < 0 {
			return fmt.Errorf("factor weights must be non-negative")
		}
		weightSum += w
	}
	if math.Abs(weightSum-1) > 1e-6 {
		return fmt.Errorf("factor weights must sum to 1, got %.6f", weightSum)
	}

	for _, profile := range []domain.RiskProfile{domain.RiskConservative, domain.RiskModerate, domain.RiskAggressive} {
		if _, ok := p.MinScores[profile]; !ok {
			return fmt.Errorf("missing minimum score for profile %s", profile)
		}
		mix, ok := p.TargetMixes[profile]
		if !ok {
			return fmt.Errorf("missing target mix for profile %s", profile)
		}
		var total float64
		for class, pct := range mix {
			if !class.Valid() {
				return fmt.Errorf("target mix for %s has unknown asset class %q", profile, class)
			}
			if pct < 0 {
				return fmt.Errorf("target mix for %s has negative share for %s", profile, class)
			}
			total += pct
		}
		if math.Abs(total-100) > 1e-6 {
			return fmt.Errorf("target mix for %s must sum to 100, got %.4f", profile, total)
		}
	}

	if p.Selection.SectorCap < 1 {
		return fmt.Errorf("sector cap must be at least 1")
	}
	if p.Selection.ClassTolerance < 0 {
		return fmt.Errorf("class tolerance must be non-negative")
	}
	if p.Fallback.MinScore >= p.Fallback.MaxScore {
		return fmt.Errorf("fallback min score must be below max score")
	}
	for sector, band := range p.Fallback.SectorSentiment {
		if band.Min > band.Max {
			return fmt.Errorf("fallback sentiment band for %s is inverted", sector)
		}
	}
	if p.Optimizer.MaxIterations <= 0 || p.Optimizer.MaxFuncEvaluations <= 0 {
		return fmt.Errorf("optimizer iteration caps must be positive")
	}
	if p.Optimizer.MinHistory < 2 || p.Optimizer.MinOverlap < 2 {
		return fmt.Errorf("optimizer history thresholds must be at least 2")
	}
	if p.Reasoning.MidBand > p.Reasoning.HighBand {
		return fmt.Errorf("reasoning mid band must not exceed high band")
	}

	return nil
}

// TargetMix returns a copy of the target mix for profile
func (p Policy) TargetMix(profile domain.RiskProfile) map[domain.AssetClass]float64 {
	mix := make(map[domain.AssetClass]float64, len(p.TargetMixes[profile]))
	for class, pct := range p.TargetMixes[profile] {
		mix[class] = pct
	}
	return mix
}

// ToYAML renders the policy as a YAML document
func (p Policy) ToYAML() ([]byte, error) {
	return yaml.Marshal(p)
}
