package handler

import (
	"log/slog"
	"net/http"
)

// ScanHandler exposes the manual scan trigger. The trigger is a nudge to
// the background scan loop, not an inline scan, so the response returns
// immediately.
type ScanHandler struct {
	trigger chan<- struct{}
	logger  *slog.Logger
}

// NewScanHandler creates a ScanHandler that signals the given channel.
func NewScanHandler(trigger chan<- struct{}, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{trigger: trigger, logger: logger}
}

// TriggerScan requests an out-of-schedule scan cycle. When a cycle is
// already pending the request is coalesced into it.
// POST /api/scan/trigger
func (h *ScanHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		writeError(w, http.StatusConflict, "scan loop not running")
		return
	}

	select {
	case h.trigger <- struct{}{}:
		h.logger.Info("manual scan triggered")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan scheduled"})
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan already pending"})
	}
}
