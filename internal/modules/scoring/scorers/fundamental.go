package scorers

import (
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/scoring"
	"github.com/aristath/advisor/pkg/formulas"
)

// FundamentalScorer scores a fundamental snapshot; the rules depend on the asset class
type FundamentalScorer struct{}

// FundamentalScore represents the result of fundamental scoring
type FundamentalScore struct {
	Components map[string]float64 `json:"components"`
	Score      float64            `json:"score"`
}

// NewFundamentalScorer creates a new fundamental scorer
func NewFundamentalScorer() *FundamentalScorer {
	return &FundamentalScorer{}
}

// Calculate dispatches on the asset class
func (fs *FundamentalScorer) Calculate(class domain.AssetClass, tier domain.MarketCapTier, f *domain.Fundamentals) FundamentalScore {
	if f == nil {
		f = &domain.Fundamentals{}
	}

	components := make(map[string]float64)
	var total float64
	add := func(name string, points float64) {
		components[name] = points
		total += points
	}

	switch class {
	case domain.AssetClassEquity:
		add("valuation", scorePE(f.PERatio))
		add("profitability", scoreMargin(f.ProfitMargin))
		add("leverage", scoreDebtToEquity(f.DebtToEquity))
		add("returns", scoreROE(f.ROE))
	case domain.AssetClassETF, domain.AssetClassFund:
		add("cost", scoreExpenseRatio(f.ExpenseRatio))
		add("size", scoreAUM(f.AUM))
	case domain.AssetClassFixedIncome:
		add("yield", scoreYield(f.Yield))
		add("credit", scoreCreditQuality(f.CreditQuality))
	case domain.AssetClassCrypto:
		add("size", scoreCryptoTier(tier))
	default:
		add("neutral", 50)
	}

	return FundamentalScore{
		Score:      formulas.Round(formulas.Clamp(total, 0, 100), 2),
		Components: components,
	}
}

func scorePE(pe *float64) float64 {
	if pe == nil || *pe <= 0 {
		return scoring.MissingRatioPoints
	}
	switch {
	case *pe < scoring.PEExcellent:
		return scoring.EquityRatioPoints
	case *pe < scoring.PEGood:
		return 20
	case *pe < scoring.PEFair:
		return 10
	default:
		return 5
	}
}

func scoreMargin(margin *float64) float64 {
	if margin == nil {
		return scoring.MissingRatioPoints
	}
	switch {
	case *margin > scoring.MarginHigh:
		return scoring.EquityRatioPoints
	case *margin > scoring.MarginMid:
		return 15
	case *margin > 0:
		return 8
	default:
		return 0
	}
}

func scoreDebtToEquity(de *float64) float64 {
	if de == nil || *de < 0 {
		return scoring.MissingRatioPoints
	}
	switch {
	case *de < scoring.DebtEquityLow:
		return scoring.EquityRatioPoints
	case *de < scoring.DebtEquityMid:
		return 20
	case *de < scoring.DebtEquityHigh:
		return 10
	default:
		return 0
	}
}

func scoreROE(roe *float64) float64 {
	if roe == nil {
		return scoring.MissingRatioPoints
	}
	switch {
	case *roe > scoring.ROEExcellent:
		return scoring.EquityRatioPoints
	case *roe > scoring.ROEGood:
		return 20
	case *roe > scoring.ROEFair:
		return 15
	default:
		return 5
	}
}

func scoreExpenseRatio(er *float64) float64 {
	if er == nil || *er < 0 {
		return scoring.MissingFundPoints
	}
	switch {
	case *er < scoring.ExpenseRatioLow:
		return scoring.FundComponentPoints
	case *er < scoring.ExpenseRatioMid:
		return 40
	case *er < scoring.ExpenseRatioHigh:
		return 25
	default:
		return 10
	}
}

func scoreAUM(aum *float64) float64 {
	if aum == nil || *aum <= 0 {
		return scoring.MissingFundPoints
	}
	switch {
	case *aum > scoring.AUMLarge:
		return scoring.FundComponentPoints
	case *aum > scoring.AUMMid:
		return 35
	case *aum > scoring.AUMSmall:
		return 20
	default:
		return 10
	}
}

func scoreYield(y *float64) float64 {
	if y == nil {
		return scoring.MissingFundPoints
	}
	switch {
	case *y >= scoring.YieldHigh:
		return scoring.FundComponentPoints
	case *y >= scoring.YieldMid:
		return 40
	default:
		return 25
	}
}

func scoreCreditQuality(rating string) float64 {
	r := strings.ToUpper(strings.TrimSpace(rating))
	switch {
	case r == "":
		return scoring.MissingFundPoints
	case strings.HasPrefix(r, "AAA"), strings.HasPrefix(r, "AA"), r == "SOVEREIGN":
		return scoring.FundComponentPoints
	case strings.HasPrefix(r, "A"):
		return 35
	case strings.HasPrefix(r, "BBB"):
		return 20
	default:
		return 10
	}
}

func scoreCryptoTier(tier domain.MarketCapTier) float64 {
	switch tier {
	case domain.MarketCapLarge:
		return scoring.CryptoNeutral + scoring.CryptoTierAdjust
	case domain.MarketCapSmall:
		return scoring.CryptoNeutral - scoring.CryptoTierAdjust
	default:
		return scoring.CryptoNeutral
	}
}
