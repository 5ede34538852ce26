package handlers

import "net/http"

// StatsHandler reports index coverage.
type StatsHandler struct {
	library Library
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(lib Library) *StatsHandler {
	return &StatsHandler{library: lib}
}

// ServeHTTP answers GET /api/stats with indexer.CoverageStats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.library.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
