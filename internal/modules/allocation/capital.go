// Package allocation converts optimizer weights into exact currency amounts and
// summarises the resulting portfolio by asset class and sector.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CapitalAllocator splits an integer amount of minor currency units by weight
type CapitalAllocator struct{}

// NewCapitalAllocator creates a capital allocator
func NewCapitalAllocator() *CapitalAllocator {
	return &CapitalAllocator{}
}

// share is one position's ideal amount split into whole and fractional units
type share struct {
	index    int
	floor    int64
	fraction decimal.Decimal
}

// Allocate returns amounts (minor units) whose sum is exactly capital.
//
// amount_i = floor(w_i × capital); the remainder is handed out one unit at a time by
// largest fractional part, earlier positions first on ties. If the weights sum above
// one the floors overshoot, and units are taken back from the smallest fractional parts.
func (ca *CapitalAllocator) Allocate(weights []float64, capital int64) ([]int64, error) {
	if capital <= 0 {
		return nil, fmt.Errorf("capital must be positive, got %d", capital)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights to allocate")
	}

	total := decimal.NewFromInt(capital)
	shares := make([]share, len(weights))
	var allocated int64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %v at position %d", w, i)
		}
		ideal := decimal.NewFromFloat(w).Mul(total)
		floor := ideal.Floor()
		shares[i] = share{
			index:    i,
			floor:    floor.IntPart(),
			fraction: ideal.Sub(floor),
		}
		allocated += shares[i].floor
	}

	amounts := make([]int64, len(weights))
	for _, s := range shares {
		amounts[s.index] = s.floor
	}

	remainder := capital - allocated
	switch {
	case remainder > 0:
		order := orderByFraction(shares, true)
		for k := 0; remainder > 0; k++ {
			amounts[order[k%len(order)]]++
			remainder--
		}
	case remainder < 0:
		order := orderByFraction(shares, false)
		for k := 0; remainder < 0; k++ {
			idx := order[k%len(order)]
			if amounts[idx] == 0 {
				continue
			}
			amounts[idx]--
			remainder++
		}
	}

	return amounts, nil
}

// orderByFraction returns position indices sorted by fractional part (descending when
// largestFirst), ties broken by position
func orderByFraction(shares []share, largestFirst bool) []int {
	sorted := make([]share, len(shares))
	copy(sorted, shares)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].fraction.Cmp(sorted[j].fraction)
		if cmp == 0 {
			return sorted[i].index < sorted[j].index
		}
		if largestFirst {
			return cmp > 0
		}
		return cmp < 0
	})

	order := make([]int, len(sorted))
	for i, s := range sorted {
		order[i] = s.index
	}
	return order
}
