// Package selection narrows the scored universe down to the candidate set that the
// optimizer weights: exclusion and threshold filtering, then diversification.
package selection

import (
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

// AssetFilter drops candidates that violate the request's exclusions or score below
// the profile minimum
type AssetFilter struct {
	minScores map[domain.RiskProfile]float64
}

// NewAssetFilter creates a filter using the policy's per-profile minimum scores
func NewAssetFilter(policy config.Policy) *AssetFilter {
	minScores := make(map[domain.RiskProfile]float64, len(policy.MinScores))
	for profile, min := range policy.MinScores {
		minScores[profile] = min
	}
	return &AssetFilter{minScores: minScores}
}

// MinScore returns the minimum final score for profile
func (f *AssetFilter) MinScore(profile domain.RiskProfile) float64 {
	return f.minScores[profile]
}

// Apply returns the surviving candidates sorted by (final desc, symbol asc).
// The input slice is not modified.
func (f *AssetFilter) Apply(candidates []domain.Candidate, req domain.PortfolioRequest) []domain.Candidate {
	excludedSectors := labelSet(req.ExcludedSectors)
	excludedIndustries := labelSet(req.ExcludedIndustries)
	minScore := f.minScores[req.Profile]

	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if excludedSectors[domain.NormalizeLabel(c.Asset.Sector)] {
			continue
		}
		if excludedIndustries[domain.NormalizeLabel(c.Asset.Industry)] {
			continue
		}
		if !req.Permits(c.Asset.Class) {
			continue
		}
		if c.Score.Final < minScore {
			continue
		}
		kept = append(kept, c)
	}

	domain.SortCandidates(kept)
	return kept
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		if key := domain.NormalizeLabel(l); key != "" {
			set[key] = true
		}
	}
	return set
}
