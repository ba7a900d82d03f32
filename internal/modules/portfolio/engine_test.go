package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/optimization"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultPolicy(), 4, nil, zerolog.Nop())
}

func equity(symbol, sector string) domain.Asset {
	return domain.Asset{Symbol: symbol, Name: symbol, Class: domain.AssetClassEquity, Sector: sector, Industry: sector + " services"}
}

func bareInput(a domain.Asset) domain.AssetInput {
	return domain.AssetInput{Asset: a, Data: domain.MarketData{Availability: domain.DataUnavailable}}
}

func request(profile domain.RiskProfile, maxAssets int, classes ...domain.AssetClass) domain.PortfolioRequest {
	return domain.PortfolioRequest{
		Capital:          1_000_000,
		Currency:         "inr",
		Profile:          profile,
		PermittedClasses: classes,
		MaxAssets:        maxAssets,
	}
}

func f64(v float64) *float64 { return &v }

// historyInput builds a full-history asset with a trending, oscillating series
func historyInput(a domain.Asset, step, freq float64) domain.AssetInput {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, 260)
	for i := range bars {
		c := 100 + step*float64(i) + 1.5*math.Sin(freq*float64(i))
		bars[i] = domain.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	neutral := domain.NeutralSentiment()
	return domain.AssetInput{
		Asset: a,
		Data: domain.MarketData{
			Prices: bars,
			Fundamentals: &domain.Fundamentals{
				PERatio:      f64(12),
				ProfitMargin: f64(0.25),
				DebtToEquity: f64(0.3),
				ROE:          f64(0.25),
			},
			Sentiment:    &neutral,
			Availability: domain.DataAvailable,
		},
	}
}

func assertAllocationInvariants(t *testing.T, outcome *Outcome, req domain.PortfolioRequest) {
	t.Helper()
	require.Equal(t, StatusAllocated, outcome.Status)
	require.NotNil(t, outcome.Report)
	require.NotEmpty(t, outcome.Allocations)
	assert.LessOrEqual(t, len(outcome.Allocations), req.MaxAssets)

	var weights float64
	sectors := make(map[string]int)
	for _, a := range outcome.Allocations {
		assert.GreaterOrEqual(t, a.Weight, 0.0)
		assert.GreaterOrEqual(t, a.Amount, int64(0))
		assert.NotEmpty(t, a.Reasoning.Text)
		assert.NotEmpty(t, a.DisplayAmount)
		for _, s := range append(a.Score.SubScores(), a.Score.Final, a.Score.Confidence) {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
		weights += a.Weight
		sectors[domain.NormalizeLabel(a.Asset.Sector)]++
	}
	assert.InDelta(t, 1.0, weights, 1e-9)
	assert.Equal(t, req.Capital, outcome.TotalAmount())
	for sector, n := range sectors {
		assert.LessOrEqual(t, n, 2, "sector %s over cap", sector)
	}
}

func TestEngine_ScenarioA_ScoredEquities(t *testing.T) {
	e := newTestEngine()
	req := request(domain.RiskConservative, 10, domain.AssetClassEquity)
	req.Capital = 100000
	req.Currency = "INR"

	finals := []float64{82, 77, 74, 70, 66}
	sectors := []string{"Technology", "Healthcare", "Energy", "Industrials", "Utilities"}
	candidates := make([]domain.Candidate, len(finals))
	for i, f := range finals {
		candidates[i] = domain.Candidate{
			Asset: equity(sectors[i][:3]+"X", sectors[i]),
			Score: domain.ScoreBreakdown{Technical: f, Fundamental: f, Sentiment: f, Risk: f, Final: f, Confidence: 100},
		}
	}

	eligible := e.filter.Apply(candidates, req)
	require.Len(t, eligible, 5)
	selected := e.selector.Select(eligible, req)
	require.Len(t, selected, 5)

	outcome := &Outcome{Request: req}
	require.NoError(t, e.allocate(outcome, req, selected, runObserver{}))

	assertAllocationInvariants(t, outcome, req)
	assert.Equal(t, int64(100000), outcome.TotalAmount())
	top := outcome.Allocations[0]
	assert.Equal(t, 82.0, top.Score.Final)
	for _, a := range outcome.Allocations[1:] {
		assert.GreaterOrEqual(t, top.Amount, a.Amount)
	}
}

func TestEngine_ScenarioB_NoEligibleAssets(t *testing.T) {
	e := newTestEngine()
	req := request(domain.RiskModerate, 5, domain.AssetClassEquity)
	req.ExcludedSectors = []string{"technology", " HEALTHCARE "}

	inputs := []domain.AssetInput{
		bareInput(equity("AAA", "Technology")),
		bareInput(equity("BBB", "Healthcare")),
	}

	outcome, err := e.Run(context.Background(), req, inputs)
	require.NoError(t, err)
	assert.Equal(t, StatusNoEligibleAssets, outcome.Status)
	require.NotNil(t, outcome.NoEligible)
	assert.Equal(t, 2, outcome.NoEligible.Considered)
	assert.Equal(t, 2, outcome.NoEligible.Scored)
	assert.Equal(t, 0, outcome.NoEligible.Eligible)
	assert.Empty(t, outcome.Allocations)
	assert.Nil(t, outcome.Report)
}

func TestEngine_ScenarioC_SingleAsset(t *testing.T) {
	e := newTestEngine()
	req := request(domain.RiskAggressive, 5, domain.AssetClassEquity)

	outcome, err := e.Run(context.Background(), req, []domain.AssetInput{bareInput(equity("ONLY", "Technology"))})
	require.NoError(t, err)

	assertAllocationInvariants(t, outcome, req)
	require.Len(t, outcome.Allocations, 1)
	assert.Equal(t, 1.0, outcome.Allocations[0].Weight)
	assert.Equal(t, req.Capital, outcome.Allocations[0].Amount)
	assert.Equal(t, optimization.MethodSingleAsset, outcome.Report.Method)
}

func TestEngine_FallbackUniverse(t *testing.T) {
	e := newTestEngine()
	req := request(domain.RiskAggressive, 4, domain.AssetClassEquity)

	inputs := []domain.AssetInput{
		bareInput(equity("T1", "Technology")),
		bareInput(equity("T2", "Technology")),
		bareInput(domain.Asset{Symbol: "  ", Class: domain.AssetClassEquity, Sector: "Technology"}),
		bareInput(equity("T3", "Technology")),
		bareInput(equity("H1", "Healthcare")),
		bareInput(equity("E1", "Energy")),
	}

	outcome, err := e.Run(context.Background(), req, inputs)
	require.NoError(t, err)

	assertAllocationInvariants(t, outcome, req)
	assert.Len(t, outcome.Allocations, 4)
	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, "empty symbol", outcome.Skipped[0].Reason)

	report := outcome.Report
	assert.Equal(t, 6, report.ConsideredAssets)
	assert.Equal(t, 5, report.EligibleAssets)
	assert.Equal(t, 5, report.FallbackScored)
	assert.Equal(t, optimization.MethodInverseVolatility, report.Method)
	assert.True(t, report.Degraded)
	assert.Equal(t, optimization.ReasonMissingVolatility, report.DegradedReason)
	assert.Equal(t, "INR", report.Currency)
	assert.Equal(t, "INR", outcome.Request.Currency)

	require.Len(t, report.ClassBreakdown, 1)
	assert.Equal(t, "equity", report.ClassBreakdown[0].Name)
	assert.InDelta(t, 1.0, report.ClassBreakdown[0].ActualPct, 1e-4)
	for _, a := range outcome.Allocations {
		assert.True(t, a.Score.IsFallback)
	}
}

func TestEngine_FullHistoryUniverse(t *testing.T) {
	e := newTestEngine()
	req := request(domain.RiskAggressive, 5, domain.AssetClassEquity)

	big := equity("BIG", "Technology")
	big.CapTier = domain.MarketCapLarge
	inputs := []domain.AssetInput{
		historyInput(big, 0.5, 0.3),
		historyInput(equity("MID", "Healthcare"), 0.3, 0.7),
		historyInput(equity("LOW", "Energy"), 0.1, 1.1),
	}

	outcome, err := e.Run(context.Background(), req, inputs)
	require.NoError(t, err)

	assertAllocationInvariants(t, outcome, req)
	assert.Equal(t, 0, outcome.Report.FallbackScored)
	for _, a := range outcome.Allocations {
		assert.False(t, a.Score.IsFallback)
	}
}

func TestEngine_IsDeterministic(t *testing.T) {
	req := request(domain.RiskModerate, 3, domain.AssetClassEquity, domain.AssetClassETF)
	inputs := []domain.AssetInput{
		bareInput(equity("A", "Technology")),
		historyInput(equity("B", "Healthcare"), 0.4, 0.5),
		bareInput(domain.Asset{Symbol: "C", Class: domain.AssetClassETF, Sector: "Index"}),
		bareInput(equity("D", "Energy")),
	}

	first, err := newTestEngine().Run(context.Background(), req, inputs)
	require.NoError(t, err)
	second, err := NewEngine(config.DefaultPolicy(), 1, nil, zerolog.Nop()).Run(context.Background(), req, inputs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_InvalidRequest(t *testing.T) {
	req := request(domain.RiskModerate, 3, domain.AssetClassEquity)
	req.Capital = 0

	outcome, err := newTestEngine().Run(context.Background(), req, nil)
	assert.Nil(t, outcome)

	var invalid *domain.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "capital", invalid.Field)
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Run(ctx, request(domain.RiskModerate, 3, domain.AssetClassEquity), []domain.AssetInput{bareInput(equity("A", "Technology"))})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_EmitsPhaseEvents(t *testing.T) {
	var events []Event
	obs := ObserverFunc(func(e Event) { events = append(events, e) })

	inputs := []domain.AssetInput{
		bareInput(equity("A", "Technology")),
		bareInput(domain.Asset{Symbol: "", Class: domain.AssetClassEquity}),
	}
	_, err := newTestEngine().RunWithObserver(context.Background(), request(domain.RiskAggressive, 3, domain.AssetClassEquity), inputs, obs)
	require.NoError(t, err)

	var phases []string
	var skipped int
	for _, e := range events {
		switch e.Type {
		case EventPhaseCompleted:
			phases = append(phases, e.Phase)
		case EventAssetSkipped:
			skipped++
		}
	}
	assert.Equal(t, []string{PhaseScore, PhaseFilter, PhaseSelect, PhaseOptimize, PhaseAllocate, PhaseReason}, phases)
	assert.Equal(t, 1, skipped)
}
