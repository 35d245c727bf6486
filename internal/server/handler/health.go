package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint. Backing-service pingers
// are optional; a nil entry is reported as "disabled".
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. db and cache may be nil.
func NewHealthHandler(db, cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// HealthCheck responds with the server status and the state of each backing
// service. The endpoint stays 200 even when a dependency is down; the scan
// pipeline degrades rather than dies, and so does this report.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"postgres": h.pingState(ctx, h.db),
			"redis":    h.pingState(ctx, h.cache),
		},
	})
}

func (h *HealthHandler) pingState(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.logger.Warn("health ping failed", slog.String("error", err.Error()))
		return "down"
	}
	return "up"
}
