package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"default_model": s.cfg.DefaultModel,
		"queue_depth":   s.orchestrator.QueueDepth(),
		"stats":         s.stats.Snapshot(),
	})
}
