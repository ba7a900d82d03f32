package domain

import (
	"sort"
	"strings"
)

// AssetInput is one asset together with the market data fetched for it
type AssetInput struct {
	Asset Asset      `json:"asset"`
	Data  MarketData `json:"data"`
}

// Candidate pairs an asset with its blended score and the market data it was scored on
type Candidate struct {
	Asset Asset          `json:"asset"`
	Score ScoreBreakdown `json:"score"`
	Data  MarketData     `json:"-"`
}

// SortCandidates orders candidates by final score descending, then symbol ascending
func SortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score.Final != candidates[j].Score.Final {
			return candidates[i].Score.Final > candidates[j].Score.Final
		}
		return candidates[i].Asset.Symbol < candidates[j].Asset.Symbol
	})
}

// NormalizeLabel is the comparison key used for sectors and industries
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
