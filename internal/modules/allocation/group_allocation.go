package allocation

import (
	"math"
	"sort"

	"github.com/aristath/advisor/internal/domain"
)

// GroupAllocation is one group's share of an allocated portfolio. Percentages are
// fractions of the whole (0.25 = 25%).
type GroupAllocation struct {
	Name      string  `json:"name"`
	TargetPct float64 `json:"target_pct"`
	ActualPct float64 `json:"actual_pct"`
	Amount    int64   `json:"amount"`
	Deviation float64 `json:"deviation"`
	Count     int     `json:"count"`
}

// Position is the minimal view of an allocated asset needed for breakdowns
type Position struct {
	Class  domain.AssetClass
	Sector string
	Amount int64
}

// ClassBreakdown aggregates amounts by asset class against the target mix
// (percentages, summing to 100)
func ClassBreakdown(positions []Position, targetMix map[domain.AssetClass]float64) []GroupAllocation {
	values := make(map[string]int64)
	counts := make(map[string]int)
	for _, p := range positions {
		values[string(p.Class)] += p.Amount
		counts[string(p.Class)]++
	}

	targets := make(map[string]float64, len(targetMix))
	for class, pct := range targetMix {
		targets[string(class)] = pct / 100
	}

	return buildGroupAllocations(values, counts, targets, totalAmount(positions))
}

// SectorBreakdown aggregates amounts by sector. Sectors have no target.
func SectorBreakdown(positions []Position) []GroupAllocation {
	values := make(map[string]int64)
	counts := make(map[string]int)
	for _, p := range positions {
		name := p.Sector
		if name == "" {
			name = "OTHER"
		}
		values[name] += p.Amount
		counts[name]++
	}
	return buildGroupAllocations(values, counts, nil, totalAmount(positions))
}

func totalAmount(positions []Position) int64 {
	var total int64
	for _, p := range positions {
		total += p.Amount
	}
	return total
}

// buildGroupAllocations creates GroupAllocation structs from group values and targets
func buildGroupAllocations(
	groupValues map[string]int64,
	groupCounts map[string]int,
	groupTargets map[string]float64,
	totalValue int64,
) []GroupAllocation {
	// Collect all group names (from both values and targets)
	groupNames := make(map[string]bool)
	for name := range groupValues {
		groupNames[name] = true
	}
	for name := range groupTargets {
		groupNames[name] = true
	}

	allocations := make([]GroupAllocation, 0, len(groupNames))
	for groupName := range groupNames {
		value := groupValues[groupName]
		targetPct := groupTargets[groupName]

		var actualPct float64
		if totalValue > 0 {
			actualPct = float64(value) / float64(totalValue)
		}

		allocations = append(allocations, GroupAllocation{
			Name:      groupName,
			TargetPct: round(targetPct, 4),
			ActualPct: round(actualPct, 4),
			Amount:    value,
			Deviation: round(actualPct-targetPct, 4),
			Count:     groupCounts[groupName],
		})
	}

	// Sort by name for consistent output
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].Name < allocations[j].Name
	})

	return allocations
}

// round rounds a float64 to n decimal places
func round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}
