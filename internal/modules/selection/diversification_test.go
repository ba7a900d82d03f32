package selection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

func newTestSelector() *DiversificationSelector {
	return NewDiversificationSelector(config.DefaultPolicy())
}

func TestDiversificationSelector_ClassToleranceAndSectorCap(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("E1", domain.AssetClassEquity, "A", 90),
		candidate("E2", domain.AssetClassEquity, "A", 88),
		candidate("E3", domain.AssetClassEquity, "A", 86),
		candidate("E4", domain.AssetClassEquity, "B", 84),
		candidate("E5", domain.AssetClassEquity, "C", 82),
		candidate("E6", domain.AssetClassEquity, "D", 80),
		candidate("FI", domain.AssetClassFixedIncome, "Government", 61),
	}
	req := request(domain.RiskModerate, 4, domain.AssetClassEquity, domain.AssetClassFixedIncome)

	selected := newTestSelector().Select(candidates, req)

	// E3 hits the sector cap; a fourth equity would push equities past 2/3 + 10pp
	assert.Equal(t, []string{"E1", "E2", "E4", "FI"}, symbols(selected))
}

func TestDiversificationSelector_RelaxedPassFillsEmptyClass(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("E1", domain.AssetClassEquity, "A", 90),
		candidate("E2", domain.AssetClassEquity, "B", 85),
		candidate("E3", domain.AssetClassEquity, "C", 80),
		candidate("BTC", domain.AssetClassCrypto, "Digital Assets", 56),
	}
	req := request(domain.RiskAggressive, 2, domain.AssetClassEquity, domain.AssetClassCrypto)

	selected := newTestSelector().Select(candidates, req)

	assert.Equal(t, []string{"E1", "BTC"}, symbols(selected))
}

func TestDiversificationSelector_RelaxedPassKeepsSectorCap(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("A1", domain.AssetClassEquity, "Same", 90),
		candidate("A2", domain.AssetClassEquity, "same ", 80),
		candidate("A3", domain.AssetClassEquity, "SAME", 70),
	}
	// Funds are targeted but absent, so the relaxed pass runs and fills by score
	req := request(domain.RiskConservative, 3, domain.AssetClassEquity, domain.AssetClassFund)

	selected := newTestSelector().Select(candidates, req)

	assert.Equal(t, []string{"A1", "A2"}, symbols(selected))
}

func TestDiversificationSelector_SectorCapProperty(t *testing.T) {
	var candidates []domain.Candidate
	sectors := []string{"Technology", "Energy", "Healthcare"}
	classes := domain.AllAssetClasses
	for i := 0; i < 30; i++ {
		candidates = append(candidates, candidate(
			fmt.Sprintf("S%02d", i),
			classes[i%len(classes)],
			sectors[i%len(sectors)],
			float64(95-i),
		))
	}

	for _, profile := range []domain.RiskProfile{domain.RiskConservative, domain.RiskModerate, domain.RiskAggressive} {
		for maxAssets := 1; maxAssets <= 12; maxAssets++ {
			selected := newTestSelector().Select(candidates, request(profile, maxAssets, domain.AllAssetClasses...))

			require.LessOrEqual(t, len(selected), maxAssets)
			perSector := map[string]int{}
			for _, c := range selected {
				perSector[c.Asset.Sector]++
			}
			for sector, n := range perSector {
				assert.LessOrEqual(t, n, 2, "sector %s for %s/%d", sector, profile, maxAssets)
			}
		}
	}
}

func TestDiversificationSelector_OrderedByScore(t *testing.T) {
	candidates := []domain.Candidate{
		candidate("ZED", domain.AssetClassEquity, "A", 80),
		candidate("ABC", domain.AssetClassEquity, "B", 80),
		candidate("TOP", domain.AssetClassEquity, "C", 95),
	}
	domain.SortCandidates(candidates)

	selected := newTestSelector().Select(candidates, request(domain.RiskModerate, 5, domain.AssetClassEquity))

	assert.Equal(t, []string{"TOP", "ABC", "ZED"}, symbols(selected))
}

func TestDiversificationSelector_Empty(t *testing.T) {
	selected := newTestSelector().Select(nil, request(domain.RiskModerate, 5, domain.AssetClassEquity))
	assert.NotNil(t, selected)
	assert.Empty(t, selected)
}

func TestPermittedMix(t *testing.T) {
	selector := newTestSelector()

	mix := selector.PermittedMix(request(domain.RiskModerate, 5, domain.AssetClassEquity, domain.AssetClassFixedIncome))
	require.Len(t, mix, 2)
	assert.InDelta(t, 66.6667, mix[domain.AssetClassEquity], 1e-3)
	assert.InDelta(t, 33.3333, mix[domain.AssetClassFixedIncome], 1e-3)

	full := selector.PermittedMix(request(domain.RiskConservative, 5, domain.AllAssetClasses...))
	assert.InDelta(t, 35.0, full[domain.AssetClassFund], 1e-9)
}
