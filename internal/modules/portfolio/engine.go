// Package portfolio runs the scoring-and-allocation pipeline: per-asset scoring on a
// worker pool, filtering, diversified selection, weight optimisation, exact capital
// allocation and reasoning.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/reasoning"
	"github.com/aristath/advisor/internal/modules/scoring/scorers"
	"github.com/aristath/advisor/internal/modules/selection"
	"github.com/aristath/advisor/internal/workers"
)

// Engine is the in-memory pipeline. It performs no I/O; inputs arrive fully loaded.
type Engine struct {
	scorer    *scorers.FactorScorer
	blender   *scorers.Blender
	filter    *selection.AssetFilter
	selector  *selection.DiversificationSelector
	optimizer *optimization.AllocationOptimizer
	allocator *allocation.CapitalAllocator
	reasoning *reasoning.Builder
	workers   int
	metrics   *metrics.Registry
	log       zerolog.Logger
}

// NewEngine wires the pipeline components from one policy. workerCount bounds
// the scoring pool (non-positive means one per CPU); m may be nil.
func NewEngine(policy config.Policy, workerCount int, m *metrics.Registry, log zerolog.Logger) *Engine {
	return &Engine{
		scorer:    scorers.NewFactorScorer(policy.Fallback, log),
		blender:   scorers.NewBlender(policy.FactorWeights),
		filter:    selection.NewAssetFilter(policy),
		selector:  selection.NewDiversificationSelector(policy),
		optimizer: optimization.NewAllocationOptimizer(policy.Optimizer, m, log),
		allocator: allocation.NewCapitalAllocator(),
		reasoning: reasoning.NewBuilder(policy.Reasoning),
		workers:   workerCount,
		metrics:   m,
		log:       log.With().Str("component", "portfolio_engine").Logger(),
	}
}

// Run executes the pipeline without progress events
func (e *Engine) Run(ctx context.Context, req domain.PortfolioRequest, inputs []domain.AssetInput) (*Outcome, error) {
	return e.RunWithObserver(ctx, req, inputs, nil)
}

// RunWithObserver executes the pipeline. A malformed request fails with
// *domain.InvalidRequestError before anything is computed. Cancellation is
// honoured between phases up to the optimizer; from there the run completes.
func (e *Engine) RunWithObserver(ctx context.Context, req domain.PortfolioRequest, inputs []domain.AssetInput, obs Observer) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	events := asRunObserver(obs)

	e.metrics.RunStarted()
	status := "failed"
	defer func() { e.metrics.RunFinished(status) }()

	if err := checkpoint(ctx, PhaseScore); err != nil {
		status = "cancelled"
		return nil, err
	}

	scored := e.scoreAll(req, inputs, events)
	if err := checkpoint(ctx, PhaseFilter); err != nil {
		status = "cancelled"
		return nil, err
	}

	timer := e.metrics.StartPhase(PhaseFilter)
	eligible := e.filter.Apply(scored.candidates, req)
	events.phase(PhaseFilter, len(eligible), timer.Stop())

	outcome := &Outcome{Request: req, Skipped: scored.skipped}
	if len(eligible) == 0 {
		e.noEligible(outcome, "no asset passed the exclusion, class and minimum score filters", len(inputs), len(scored.candidates), 0)
		status = string(outcome.Status)
		return outcome, nil
	}

	if err := checkpoint(ctx, PhaseSelect); err != nil {
		status = "cancelled"
		return nil, err
	}
	timer = e.metrics.StartPhase(PhaseSelect)
	selected := e.selector.Select(eligible, req)
	events.phase(PhaseSelect, len(selected), timer.Stop())

	if len(selected) == 0 {
		e.noEligible(outcome, "diversification constraints left no candidate", len(inputs), len(scored.candidates), len(eligible))
		status = string(outcome.Status)
		return outcome, nil
	}

	if err := checkpoint(ctx, PhaseOptimize); err != nil {
		status = "cancelled"
		return nil, err
	}

	if err := e.allocate(outcome, req, selected, events); err != nil {
		return nil, err
	}
	outcome.Report.ConsideredAssets = len(inputs)
	outcome.Report.EligibleAssets = len(eligible)
	outcome.Report.FallbackScored = scored.fallback

	e.log.Info().
		Str("profile", string(req.Profile)).
		Int("considered", len(inputs)).
		Int("eligible", len(eligible)).
		Int("selected", len(selected)).
		Str("method", string(outcome.Report.Method)).
		Bool("degraded", outcome.Report.Degraded).
		Msg("Portfolio allocated")

	status = string(outcome.Status)
	return outcome, nil
}

type scoreResult struct {
	candidates []domain.Candidate
	skipped    []SkippedAsset
	fallback   int
}

type scoredAsset struct {
	candidate domain.Candidate
	err       error
}

// scoreAll scores and blends every asset on the worker pool. Results keep input
// order; rank is the asset's index in inputs.
func (e *Engine) scoreAll(req domain.PortfolioRequest, inputs []domain.AssetInput, events runObserver) scoreResult {
	timer := e.metrics.StartPhase(PhaseScore)
	pool := workers.NewWorkerPool(e.workers)

	results := workers.Map(pool, inputs, func(rank int, in domain.AssetInput) scoredAsset {
		breakdown, err := e.scorer.Score(in.Asset, in.Data, rank, req.Profile)
		if err != nil {
			return scoredAsset{err: err}
		}
		return scoredAsset{candidate: domain.Candidate{
			Asset: in.Asset,
			Score: e.blender.Blend(breakdown),
			Data:  in.Data,
		}}
	})

	var out scoreResult
	out.candidates = make([]domain.Candidate, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			reason := r.err.Error()
			var invalid *domain.InvalidAssetError
			if errors.As(r.err, &invalid) {
				reason = invalid.Reason
			}
			out.skipped = append(out.skipped, SkippedAsset{Symbol: inputs[i].Asset.Symbol, Reason: reason})
			e.log.Warn().Err(r.err).Str("symbol", inputs[i].Asset.Symbol).Msg("Skipping malformed asset")
			events.emit(Event{Type: EventAssetSkipped, Symbol: inputs[i].Asset.Symbol, Message: reason})
			continue
		}
		if r.candidate.Score.IsFallback {
			out.fallback++
		}
		out.candidates = append(out.candidates, r.candidate)
	}

	e.metrics.RecordFallbackScores(out.fallback)
	e.metrics.RecordSkippedAssets(len(out.skipped))
	events.phase(PhaseScore, len(out.candidates), timer.Stop())

	e.log.Debug().
		Int("scored", len(out.candidates)).
		Int("fallback", out.fallback).
		Int("skipped", len(out.skipped)).
		Int("workers", pool.Size()).
		Msg("Scoring complete")

	return out
}

// allocate runs the optimizer, capital allocator and reasoning builder over
// the selected candidates and fills outcome.
func (e *Engine) allocate(outcome *Outcome, req domain.PortfolioRequest, selected []domain.Candidate, events runObserver) error {
	timer := e.metrics.StartPhase(PhaseOptimize)
	result := e.optimizer.Optimize(selected)
	events.phase(PhaseOptimize, len(result.Weights), timer.Stop())

	timer = e.metrics.StartPhase(PhaseAllocate)
	amounts, err := e.allocator.Allocate(result.Weights, req.Capital)
	if err != nil {
		return fmt.Errorf("failed to allocate capital: %w", err)
	}
	events.phase(PhaseAllocate, len(amounts), timer.Stop())

	timer = e.metrics.StartPhase(PhaseReason)
	allocations := make([]Allocation, len(selected))
	positions := make([]allocation.Position, len(selected))
	for i, c := range selected {
		allocations[i] = Allocation{
			Asset:         c.Asset,
			Weight:        result.Weights[i],
			Amount:        amounts[i],
			DisplayAmount: allocation.FormatAmount(amounts[i], req.Currency),
			Score:         c.Score,
			Reasoning:     e.reasoning.Build(c.Score, c.Asset.Sector, c.Asset.Tier(), req.Profile),
		}
		positions[i] = allocation.Position{Class: c.Asset.Class, Sector: c.Asset.Sector, Amount: amounts[i]}
	}
	events.phase(PhaseReason, len(allocations), timer.Stop())

	outcome.Status = StatusAllocated
	outcome.Allocations = allocations
	outcome.Report = &Report{
		Capital:         req.Capital,
		DisplayCapital:  allocation.FormatAmount(req.Capital, req.Currency),
		Currency:        req.Currency,
		Profile:         req.Profile,
		Method:          result.Method,
		Degraded:        result.Degraded,
		DegradedReason:  result.DegradedReason,
		ExpectedReturn:  result.ExpectedReturn,
		Volatility:      result.Volatility,
		Sharpe:          result.Sharpe,
		SelectedAssets:  len(allocations),
		ClassBreakdown:  allocation.ClassBreakdown(positions, e.selector.PermittedMix(req)),
		SectorBreakdown: allocation.SectorBreakdown(positions),
	}
	return nil
}

func (e *Engine) noEligible(outcome *Outcome, reason string, considered, scored, eligible int) {
	outcome.Status = StatusNoEligibleAssets
	outcome.NoEligible = &NoEligibleAssetsResult{
		Reason:     reason,
		Considered: considered,
		Scored:     scored,
		Eligible:   eligible,
	}
	e.log.Info().
		Str("profile", string(outcome.Request.Profile)).
		Int("considered", considered).
		Int("eligible", eligible).
		Msg("No eligible assets")
}

// checkpoint returns a wrapped context error when the run was cancelled
func checkpoint(ctx context.Context, next string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", next, err)
	}
	return nil
}

func asRunObserver(obs Observer) runObserver {
	if ro, ok := obs.(runObserver); ok {
		return ro
	}
	return runObserver{next: obs}
}

func (o runObserver) phase(name string, count int, d time.Duration) {
	o.emit(Event{
		Type:       EventPhaseCompleted,
		Phase:      name,
		Count:      count,
		DurationMs: float64(d.Microseconds()) / 1000,
	})
}

// OnEvent forwards e with the run ID stamped
func (o runObserver) OnEvent(e Event) {
	o.emit(e)
}
