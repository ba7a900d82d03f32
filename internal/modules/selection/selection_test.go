package selection

import (
	"github.com/aristath/advisor/internal/domain"
)

func candidate(symbol string, class domain.AssetClass, sector string, final float64) domain.Candidate {
	return domain.Candidate{
		Asset: domain.Asset{Symbol: symbol, Class: class, Sector: sector, Industry: sector + " Industry"},
		Score: domain.ScoreBreakdown{Final: final},
	}
}

func symbols(candidates []domain.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Asset.Symbol
	}
	return out
}

func request(profile domain.RiskProfile, maxAssets int, classes ...domain.AssetClass) domain.PortfolioRequest {
	return domain.PortfolioRequest{
		Capital:          100000,
		Currency:         "INR",
		Profile:          profile,
		PermittedClasses: classes,
		MaxAssets:        maxAssets,
	}
}
