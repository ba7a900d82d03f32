package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// RiskProfile selects thresholds, target mixes and tilts
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// Valid reports whether p is a known profile
func (p RiskProfile) Valid() bool {
	switch p {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

// ParseRiskProfile normalises a profile name
func ParseRiskProfile(s string) (RiskProfile, error) {
	p := RiskProfile(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", &InvalidRequestError{Field: "profile", Reason: "unknown risk profile " + s}
	}
	return p, nil
}

// RiskProfileFromAppetite maps a 0-100 appetite score onto a profile
func RiskProfileFromAppetite(appetite int) RiskProfile {
	switch {
	case appetite <= 30:
		return RiskConservative
	case appetite <= 60:
		return RiskModerate
	default:
		return RiskAggressive
	}
}

// PortfolioRequest is the caller supplied input of one run
type PortfolioRequest struct {
	// Capital in minor units of Currency (e.g. paise, cents)
	Capital            int64        `json:"capital" msgpack:"capital"`
	Currency           string       `json:"currency" msgpack:"currency"`
	Profile            RiskProfile  `json:"profile" msgpack:"profile"`
	ExcludedSectors    []string     `json:"excluded_sectors,omitempty" msgpack:"excluded_sectors,omitempty"`
	ExcludedIndustries []string     `json:"excluded_industries,omitempty" msgpack:"excluded_industries,omitempty"`
	PermittedClasses   []AssetClass `json:"permitted_classes" msgpack:"permitted_classes"`
	MaxAssets          int          `json:"max_assets" msgpack:"max_assets"`
}

// Validate fails fast on malformed requests
func (r PortfolioRequest) Validate() error {
	if r.Capital <= 0 {
		return &InvalidRequestError{Field: "capital", Reason: "must be positive"}
	}
	if money.GetCurrency(strings.ToUpper(r.Currency)) == nil {
		return &InvalidRequestError{Field: "currency", Reason: "unknown currency " + r.Currency}
	}
	if !r.Profile.Valid() {
		return &InvalidRequestError{Field: "profile", Reason: "unknown risk profile " + string(r.Profile)}
	}
	if len(r.PermittedClasses) == 0 {
		return &InvalidRequestError{Field: "permitted_classes", Reason: "at least one asset class is required"}
	}
	for _, c := range r.PermittedClasses {
		if !c.Valid() {
			return &InvalidRequestError{Field: "permitted_classes", Reason: "unknown asset class " + string(c)}
		}
	}
	if r.MaxAssets < 1 {
		return &InvalidRequestError{Field: "max_assets", Reason: "must be at least 1"}
	}
	return nil
}

// Permits reports whether class c may be selected
func (r PortfolioRequest) Permits(c AssetClass) bool {
	for _, p := range r.PermittedClasses {
		if p == c {
			return true
		}
	}
	return false
}
