// Package reasoning renders the structured explanation attached to each allocated asset.
package reasoning

import (
	"strings"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
)

// Fragment kinds, in output order
const (
	KindTechnical   = "technical"
	KindFundamental = "fundamental"
	KindRiskFit     = "risk_profile_fit"
	KindSector      = "sector_thesis"
	KindSize        = "size_note"
)

// Fragment is one phrase of a reasoning record
type Fragment struct {
	Kind string `json:"kind" msgpack:"kind"`
	Text string `json:"text" msgpack:"text"`
}

// Record is the reasoning for one allocation
type Record struct {
	Fragments []Fragment `json:"fragments" msgpack:"fragments"`
	Text      string     `json:"text" msgpack:"text"`
}

// Builder selects phrases from the policy's lookup tables
type Builder struct {
	policy       config.ReasoningPolicy
	sectorThesis map[string]string
}

// NewBuilder creates a reasoning builder
func NewBuilder(policy config.ReasoningPolicy) *Builder {
	thesis := make(map[string]string, len(policy.SectorThesis))
	for sector, phrase := range policy.SectorThesis {
		thesis[domain.NormalizeLabel(sector)] = phrase
	}
	return &Builder{policy: policy, sectorThesis: thesis}
}

// Build renders the record. Fragment order is fixed: technical, fundamental,
// risk with profile fit, sector thesis, size note. The size note is omitted for
// assets of unknown size.
func (b *Builder) Build(score domain.ScoreBreakdown, sector string, tier domain.MarketCapTier, profile domain.RiskProfile) Record {
	fragments := []Fragment{
		{Kind: KindTechnical, Text: b.band(score.Technical, b.policy.Technical)},
		{Kind: KindFundamental, Text: b.band(score.Fundamental, b.policy.Fundamental)},
		{Kind: KindRiskFit, Text: b.riskFit(score.Risk, profile)},
		{Kind: KindSector, Text: b.thesis(sector)},
	}
	if note, ok := b.policy.SizeNotes[tier]; ok && note != "" {
		fragments = append(fragments, Fragment{Kind: KindSize, Text: note})
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return Record{Fragments: fragments, Text: strings.Join(texts, "; ")}
}

func (b *Builder) band(score float64, phrases config.BandPhrases) string {
	switch {
	case score >= b.policy.HighBand:
		return phrases.High
	case score >= b.policy.MidBand:
		return phrases.Mid
	default:
		return phrases.Low
	}
}

func (b *Builder) riskFit(risk float64, profile domain.RiskProfile) string {
	phrase := b.band(risk, b.policy.Risk)
	if fit := b.policy.ProfileFit[profile]; fit != "" {
		return phrase + ", " + fit
	}
	return phrase
}

func (b *Builder) thesis(sector string) string {
	if phrase, ok := b.sectorThesis[domain.NormalizeLabel(sector)]; ok {
		return phrase
	}
	return b.policy.DefaultThesis
}
