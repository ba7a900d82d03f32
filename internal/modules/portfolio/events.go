package portfolio

// Pipeline phases, in execution order
const (
	PhaseLoad     = "load"
	PhaseScore    = "score"
	PhaseFilter   = "filter"
	PhaseSelect   = "select"
	PhaseOptimize = "optimize"
	PhaseAllocate = "allocate"
	PhaseReason   = "reason"
)

// EventType identifies a run progress event
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventPhaseCompleted EventType = "phase_completed"
	EventAssetSkipped   EventType = "asset_skipped"
	EventRunCompleted   EventType = "run_completed"
	EventRunFailed      EventType = "run_failed"
)

// Event is a progress notification emitted while a run executes
type Event struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Symbol     string    `json:"symbol,omitempty"`
	Message    string    `json:"message,omitempty"`
	Count      int       `json:"count,omitempty"`
	DurationMs float64   `json:"duration_ms,omitempty"`
}

// Observer receives run events. Calls happen on the goroutine running the
// pipeline, in order.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// OnEvent calls f(e)
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// runObserver stamps the run ID on events and tolerates a nil observer
type runObserver struct {
	runID string
	next  Observer
}

func (o runObserver) emit(e Event) {
	if o.next == nil {
		return
	}
	e.RunID = o.runID
	o.next.OnEvent(e)
}
