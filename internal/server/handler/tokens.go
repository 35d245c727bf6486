package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/poolscout/internal/domain"
	"github.com/alanyoungcy/poolscout/internal/scanner"
)

// TokensHandler serves token discovery endpoints. GET /api/tokens runs a
// full scan cycle inline so every poll observes fresh chain state; the /top
// variant reads the store without touching the chain.
type TokensHandler struct {
	coord     *scanner.Coordinator
	store     domain.TokenStore
	topLimit  int
	freshness time.Duration
	logger    *slog.Logger
}

// NewTokensHandler creates a TokensHandler.
func NewTokensHandler(
	coord *scanner.Coordinator,
	store domain.TokenStore,
	topLimit int,
	freshness time.Duration,
	logger *slog.Logger,
) *TokensHandler {
	return &TokensHandler{
		coord:     coord,
		store:     store,
		topLimit:  topLimit,
		freshness: freshness,
		logger:    logger,
	}
}

// ListTokens runs a scan cycle and returns its summary.
//
// A degraded cycle (chain unreachable, data served from the store or the
// cache) still answers 200 with the error attached, so dashboards keep
// rendering the last known tokens. Only a cycle with no data source left
// answers 503.
// GET /api/tokens
func (h *TokensHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	summary, err := h.coord.RunCycle(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	var cycleErr *scanner.CycleError
	if errors.As(err, &cycleErr) {
		h.logger.Error("scan cycle failed with no fallback",
			slog.String("error", cycleErr.Error()),
		)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     "scan and store both unavailable",
			"scanError": errString(cycleErr.ScanErr),
			"dbError":   errString(cycleErr.StoreErr),
			"tokens":    []domain.TokenRecord{},
		})
		return
	}

	writeJSON(w, http.StatusOK, degradedResponse{
		ScanSummary: summary,
		Error:       "scan unavailable, serving stored data",
		Details:     err.Error(),
	})
}

// TopTokens returns the highest-scoring visible tokens straight from the
// store, without running a scan.
// GET /api/tokens/top?limit=N
func (h *TokensHandler) TopTokens(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, h.topLimit, 500)

	tokens, err := h.store.QueryTop(r.Context(), limit, h.freshness)
	if err != nil {
		h.logger.Error("top tokens query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	if tokens == nil {
		tokens = []domain.TokenRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// degradedResponse is a scan summary annotated with the failure that forced
// the fallback data path.
type degradedResponse struct {
	domain.ScanSummary
	Error   string `json:"error"`
	Details string `json:"details"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
