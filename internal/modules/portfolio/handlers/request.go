package handlers

import (
	"encoding/json"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
)

// DefaultMaxAssets is used when a request does not set max_assets
const DefaultMaxAssets = 10

// RecommendationRequest is the JSON body of a recommendation request. Capital is
// a decimal amount in major units; either profile or risk_appetite selects the
// risk profile.
type RecommendationRequest struct {
	Capital           json.Number `json:"capital"`
	Currency          string      `json:"currency"`
	Profile           string      `json:"profile"`
	RiskAppetite      *int        `json:"risk_appetite"`
	ExcludeSectors    []string    `json:"exclude_sectors"`
	ExcludeIndustries []string    `json:"exclude_industries"`
	AssetClasses      []string    `json:"asset_classes"`
	MaxAssets         *int        `json:"max_assets"`
}

// ToDomain converts the body into a PortfolioRequest, applying defaults
func (r RecommendationRequest) ToDomain(defaultCurrency string) (domain.PortfolioRequest, error) {
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	capital, err := allocation.ParseCapital(r.Capital.String(), currency)
	if err != nil {
		return domain.PortfolioRequest{}, err
	}

	var profile domain.RiskProfile
	switch {
	case strings.TrimSpace(r.Profile) != "":
		if profile, err = domain.ParseRiskProfile(r.Profile); err != nil {
			return domain.PortfolioRequest{}, err
		}
	case r.RiskAppetite != nil:
		if *r.RiskAppetite < 0 || *r.RiskAppetite > 100 {
			return domain.PortfolioRequest{}, &domain.InvalidRequestError{Field: "risk_appetite", Reason: "must be between 0 and 100"}
		}
		profile = domain.RiskProfileFromAppetite(*r.RiskAppetite)
	default:
		return domain.PortfolioRequest{}, &domain.InvalidRequestError{Field: "profile", Reason: "profile or risk_appetite is required"}
	}

	classes := domain.AllAssetClasses
	if r.AssetClasses != nil {
		classes = make([]domain.AssetClass, 0, len(r.AssetClasses))
		for _, name := range r.AssetClasses {
			c, err := domain.ParseAssetClass(name)
			if err != nil {
				return domain.PortfolioRequest{}, err
			}
			classes = append(classes, c)
		}
	}

	maxAssets := DefaultMaxAssets
	if r.MaxAssets != nil {
		maxAssets = *r.MaxAssets
	}

	return domain.PortfolioRequest{
		Capital:            capital,
		Currency:           currency,
		Profile:            profile,
		ExcludedSectors:    r.ExcludeSectors,
		ExcludedIndustries: r.ExcludeIndustries,
		PermittedClasses:   classes,
		MaxAssets:          maxAssets,
	}, nil
}
