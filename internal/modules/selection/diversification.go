package selection

import (
	"sort"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

// DiversificationSelector picks a sector-capped candidate set whose asset-class
// proportions track the profile's target mix
type DiversificationSelector struct {
	policy    config.Policy
	sectorCap int
	tolerance float64
}

// NewDiversificationSelector creates a selector from the policy's selection rules
func NewDiversificationSelector(policy config.Policy) *DiversificationSelector {
	return &DiversificationSelector{
		policy:    policy,
		sectorCap: policy.Selection.SectorCap,
		tolerance: policy.Selection.ClassTolerance,
	}
}

// selectionState tracks what has been accepted so far
type selectionState struct {
	selected    []domain.Candidate
	used        []bool
	sectorCount map[string]int
	classCount  map[domain.AssetClass]int
	slots       int
	sectorCap   int
}

func (s *selectionState) full() bool {
	return len(s.selected) >= s.slots
}

func (s *selectionState) sectorOpen(c domain.Candidate) bool {
	return s.sectorCount[domain.NormalizeLabel(c.Asset.Sector)] < s.sectorCap
}

func (s *selectionState) take(i int, c domain.Candidate) {
	s.used[i] = true
	s.selected = append(s.selected, c)
	s.sectorCount[domain.NormalizeLabel(c.Asset.Sector)]++
	s.classCount[c.Asset.Class]++
}

// Select runs the greedy pass and, when a targeted class is still empty, the relaxed
// pass. candidates must already be filtered and sorted. Zero candidates yield an
// empty set.
func (ds *DiversificationSelector) Select(candidates []domain.Candidate, req domain.PortfolioRequest) []domain.Candidate {
	slots := req.MaxAssets
	if len(candidates) < slots {
		slots = len(candidates)
	}
	if slots <= 0 {
		return []domain.Candidate{}
	}

	target := ds.PermittedMix(req)
	state := &selectionState{
		selected:    make([]domain.Candidate, 0, slots),
		used:        make([]bool, len(candidates)),
		sectorCount: make(map[string]int),
		classCount:  make(map[domain.AssetClass]int),
		slots:       slots,
		sectorCap:   ds.sectorCap,
	}

	// Greedy pass: sector cap and class tolerance
	for i, c := range candidates {
		if state.full() {
			break
		}
		if !state.sectorOpen(c) {
			continue
		}
		share := float64(state.classCount[c.Asset.Class]+1) / float64(slots) * 100
		if share > target[c.Asset.Class]+ds.tolerance {
			continue
		}
		state.take(i, c)
	}

	if !state.full() {
		if empty := emptyTargetClasses(target, state.classCount); len(empty) > 0 {
			ds.relaxedPass(candidates, state, empty)
		}
	}

	domain.SortCandidates(state.selected)
	return state.selected
}

// relaxedPass ignores the class tolerance but keeps the sector cap. It first seeds
// every empty class with its best candidate, then fills by score.
func (ds *DiversificationSelector) relaxedPass(candidates []domain.Candidate, state *selectionState, empty []domain.AssetClass) {
	for _, class := range empty {
		if state.full() {
			return
		}
		for i, c := range candidates {
			if state.used[i] || c.Asset.Class != class || !state.sectorOpen(c) {
				continue
			}
			state.take(i, c)
			break
		}
	}

	for i, c := range candidates {
		if state.full() {
			return
		}
		if state.used[i] || !state.sectorOpen(c) {
			continue
		}
		state.take(i, c)
	}
}

// PermittedMix returns the profile's target mix restricted to the request's permitted
// classes and rescaled to sum to 100. If the policy gives every permitted class a zero
// target, the classes share equally.
func (ds *DiversificationSelector) PermittedMix(req domain.PortfolioRequest) map[domain.AssetClass]float64 {
	mix := ds.policy.TargetMix(req.Profile)

	permitted := make(map[domain.AssetClass]float64)
	var total float64
	for _, class := range domain.AllAssetClasses {
		if !req.Permits(class) {
			continue
		}
		permitted[class] = mix[class]
		total += mix[class]
	}

	if total <= 0 {
		for class := range permitted {
			permitted[class] = 100 / float64(len(permitted))
		}
		return permitted
	}
	for class, pct := range permitted {
		permitted[class] = pct / total * 100
	}
	return permitted
}

// emptyTargetClasses lists classes with a positive target and no selection yet,
// largest target first
func emptyTargetClasses(target map[domain.AssetClass]float64, classCount map[domain.AssetClass]int) []domain.AssetClass {
	var empty []domain.AssetClass
	for _, class := range domain.AllAssetClasses {
		if target[class] > 0 && classCount[class] == 0 {
			empty = append(empty, class)
		}
	}
	sort.SliceStable(empty, func(i, j int) bool {
		return target[empty[i]] > target[empty[j]]
	})
	return empty
}
