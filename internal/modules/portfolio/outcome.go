package portfolio

import (
	"errors"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/reasoning"
)

// Status tells the caller which variant of Outcome it received
type Status string

const (
	StatusAllocated        Status = "allocated"
	StatusNoEligibleAssets Status = "no_eligible_assets"
)

// ErrRunNotFound is returned when an archived run does not exist
var ErrRunNotFound = errors.New("run not found")

// ErrArchiveDisabled is returned when run retrieval is requested without an archive
var ErrArchiveDisabled = errors.New("run archive disabled")

// Outcome is the result of one pipeline run. Exactly one of Allocations+Report
// or NoEligible is populated, according to Status.
type Outcome struct {
	RunID       string                  `json:"run_id" msgpack:"run_id"`
	CreatedAt   time.Time               `json:"created_at" msgpack:"created_at"`
	Status      Status                  `json:"status" msgpack:"status"`
	Request     domain.PortfolioRequest `json:"request" msgpack:"request"`
	Allocations []Allocation            `json:"allocations,omitempty" msgpack:"allocations,omitempty"`
	Report      *Report                 `json:"report,omitempty" msgpack:"report,omitempty"`
	NoEligible  *NoEligibleAssetsResult `json:"no_eligible,omitempty" msgpack:"no_eligible,omitempty"`
	Skipped     []SkippedAsset          `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
}

// Allocation is one asset of the final portfolio
type Allocation struct {
	Asset         domain.Asset          `json:"asset" msgpack:"asset"`
	Weight        float64               `json:"weight" msgpack:"weight"`
	Amount        int64                 `json:"amount" msgpack:"amount"`
	DisplayAmount string                `json:"display_amount" msgpack:"display_amount"`
	Score         domain.ScoreBreakdown `json:"score" msgpack:"score"`
	Reasoning     reasoning.Record      `json:"reasoning" msgpack:"reasoning"`
}

// Report summarises an allocated run
type Report struct {
	Capital          int64                        `json:"capital" msgpack:"capital"`
	DisplayCapital   string                       `json:"display_capital" msgpack:"display_capital"`
	Currency         string                       `json:"currency" msgpack:"currency"`
	Profile          domain.RiskProfile           `json:"profile" msgpack:"profile"`
	Method           optimization.Method          `json:"method" msgpack:"method"`
	Degraded         bool                         `json:"degraded" msgpack:"degraded"`
	DegradedReason   string                       `json:"degraded_reason,omitempty" msgpack:"degraded_reason,omitempty"`
	ExpectedReturn   float64                      `json:"expected_return" msgpack:"expected_return"`
	Volatility       float64                      `json:"volatility" msgpack:"volatility"`
	Sharpe           float64                      `json:"sharpe" msgpack:"sharpe"`
	ConsideredAssets int                          `json:"considered_assets" msgpack:"considered_assets"`
	EligibleAssets   int                          `json:"eligible_assets" msgpack:"eligible_assets"`
	SelectedAssets   int                          `json:"selected_assets" msgpack:"selected_assets"`
	FallbackScored   int                          `json:"fallback_scored" msgpack:"fallback_scored"`
	ClassBreakdown   []allocation.GroupAllocation `json:"class_breakdown" msgpack:"class_breakdown"`
	SectorBreakdown  []allocation.GroupAllocation `json:"sector_breakdown" msgpack:"sector_breakdown"`
}

// NoEligibleAssetsResult explains why nothing could be selected
type NoEligibleAssetsResult struct {
	Reason     string `json:"reason" msgpack:"reason"`
	Considered int    `json:"considered" msgpack:"considered"`
	Scored     int    `json:"scored" msgpack:"scored"`
	Eligible   int    `json:"eligible" msgpack:"eligible"`
}

// SkippedAsset records an asset excluded for a malformed identity
type SkippedAsset struct {
	Symbol string `json:"symbol" msgpack:"symbol"`
	Reason string `json:"reason" msgpack:"reason"`
}

// TotalAmount sums the allocated amounts
func (o *Outcome) TotalAmount() int64 {
	var total int64
	for _, a := range o.Allocations {
		total += a.Amount
	}
	return total
}
