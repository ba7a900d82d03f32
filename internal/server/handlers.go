package server

import (
	"net/http"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

const serviceName = "advisor"

// handleHealth reports healthy when the market database (if any) answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MarketDB != nil {
		if err := s.cfg.MarketDB.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("Health check failed")
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": serviceName,
	})
}

// handlePolicy returns the effective scoring and allocation policy
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.Policy)
}

// handleListRuns lists archived runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Archive == nil {
		s.writeError(w, http.StatusNotFound, portfolio.ErrArchiveDisabled.Error())
		return
	}

	entries, err := s.cfg.Archive.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list archived runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list archived runs")
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"backend": s.cfg.Archive.Backend(),
		"runs":    entries,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data, s.log)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
