package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/metrics"
)

// InputLoader fetches the asset universe with its market data
type InputLoader interface {
	Load(ctx context.Context) ([]domain.AssetInput, error)
}

// RunArchive persists completed runs
type RunArchive interface {
	Save(ctx context.Context, outcome *Outcome) error
	Load(ctx context.Context, runID string) (*Outcome, error)
}

// Service loads market data, runs the engine and archives the outcome
type Service struct {
	loader  InputLoader
	engine  *Engine
	archive RunArchive
	metrics *metrics.Registry
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates the service. archive and m may be nil.
func NewService(loader InputLoader, engine *Engine, archive RunArchive, m *metrics.Registry, log zerolog.Logger) *Service {
	return &Service{
		loader:  loader,
		engine:  engine,
		archive: archive,
		metrics: m,
		log:     log.With().Str("service", "portfolio").Logger(),
		now:     time.Now,
	}
}

// Recommend runs the pipeline for req
func (s *Service) Recommend(ctx context.Context, req domain.PortfolioRequest) (*Outcome, error) {
	return s.RecommendWithObserver(ctx, req, nil)
}

// RecommendWithObserver runs the pipeline for req and reports progress to obs.
// Archiving is best effort: a failed write is logged and the outcome returned.
func (s *Service) RecommendWithObserver(ctx context.Context, req domain.PortfolioRequest, obs Observer) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	events := runObserver{runID: runID, next: obs}
	log := s.log.With().Str("run_id", runID).Logger()
	events.emit(Event{Type: EventRunStarted})

	timer := s.metrics.StartPhase(PhaseLoad)
	inputs, err := s.loader.Load(ctx)
	if err != nil {
		events.emit(Event{Type: EventRunFailed, Message: err.Error()})
		return nil, fmt.Errorf("failed to load market data: %w", err)
	}
	events.phase(PhaseLoad, len(inputs), timer.Stop())

	outcome, err := s.engine.RunWithObserver(ctx, req, inputs, events)
	if err != nil {
		events.emit(Event{Type: EventRunFailed, Message: err.Error()})
		return nil, err
	}
	outcome.RunID = runID
	outcome.CreatedAt = s.now().UTC()

	if s.archive != nil {
		if err := s.archive.Save(ctx, outcome); err != nil {
			log.Warn().Err(err).Msg("Failed to archive run")
		}
	}

	events.emit(Event{Type: EventRunCompleted, Message: string(outcome.Status), Count: len(outcome.Allocations)})
	log.Info().Str("status", string(outcome.Status)).Int("allocations", len(outcome.Allocations)).Msg("Run completed")
	return outcome, nil
}

// GetRun returns an archived run
func (s *Service) GetRun(ctx context.Context, runID string) (*Outcome, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if _, err := uuid.Parse(runID); err != nil {
		return nil, ErrRunNotFound
	}
	return s.archive.Load(ctx, runID)
}
