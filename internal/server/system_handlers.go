package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/scheduler"
)

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status           string   `json:"status"`
	UptimeSeconds    int64    `json:"uptime_seconds"`
	CPUPercent       float64  `json:"cpu_percent"`
	MemoryPercent    float64  `json:"memory_percent"`
	Goroutines       int      `json:"goroutines"`
	ArchiveBackend   string   `json:"archive_backend"`
	SentimentSource  string   `json:"sentiment_source"`
	SentimentBreaker string   `json:"sentiment_breaker,omitempty"`
	MarketDatabase   string   `json:"market_database,omitempty"`
	Jobs             []string `json:"jobs"`
}

// SystemHandlers serves host status and manual job triggers
type SystemHandlers struct {
	cfg       Config
	jobs      map[string]scheduler.Job
	startedAt time.Time
	now       func() time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates the handlers
func NewSystemHandlers(cfg Config, startedAt time.Time) *SystemHandlers {
	jobs := make(map[string]scheduler.Job, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		jobs[job.Name()] = job
	}
	return &SystemHandlers{
		cfg:       cfg,
		jobs:      jobs,
		startedAt: startedAt,
		now:       time.Now,
		log:       cfg.Log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus returns host and component status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:          "ok",
		UptimeSeconds:   int64(h.now().Sub(h.startedAt).Seconds()),
		CPUPercent:      cpuPercent,
		MemoryPercent:   memPercent,
		Goroutines:      runtime.NumGoroutine(),
		ArchiveBackend:  config.ArchiveBackendNone,
		SentimentSource: "store",
		Jobs:            h.jobNames(),
	}
	if h.cfg.Archive != nil {
		resp.ArchiveBackend = h.cfg.Archive.Backend()
	}
	if h.cfg.Sentiment != nil {
		resp.SentimentSource = "service"
		resp.SentimentBreaker = h.cfg.Sentiment.State()
	}
	if h.cfg.MarketDB != nil {
		resp.MarketDatabase = h.cfg.MarketDB.Path()
	}

	writeJSON(w, http.StatusOK, resp, h.log)
}

// HandleListJobs lists jobs that can be triggered manually
// GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"jobs": h.jobNames()}, h.log)
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job " + name}, h.log)
		return
	}

	var err error
	if h.cfg.Scheduler != nil {
		err = h.cfg.Scheduler.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"job":     name,
			"message": err.Error(),
		}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "job": name}, h.log)
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.cfg.Jobs))
	for _, job := range h.cfg.Jobs {
		names = append(names, job.Name())
	}
	return names
}

// getSystemStats samples CPU over a short window and reads memory usage
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuAvg := 0.0
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuAvg, 0
	}

	return cpuAvg, memStat.UsedPercent
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
