package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// ArchivesHandler lists token snapshots that were archived to blob storage
// before expiry deleted them from the primary store.
type ArchivesHandler struct {
	lister domain.BlobLister
	prefix string
	logger *slog.Logger
}

// NewArchivesHandler creates an ArchivesHandler. lister may be nil when
// blob storage is disabled.
func NewArchivesHandler(lister domain.BlobLister, prefix string, logger *slog.Logger) *ArchivesHandler {
	return &ArchivesHandler{lister: lister, prefix: prefix, logger: logger}
}

// ListArchives returns metadata for all archived snapshot objects.
// GET /api/archives
func (h *ArchivesHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"archives": []domain.BlobInfo{},
			"enabled":  false,
		})
		return
	}

	infos, err := h.lister.List(r.Context(), h.prefix)
	if err != nil {
		h.logger.Error("archive list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "blob storage unavailable")
		return
	}
	if infos == nil {
		infos = []domain.BlobInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archives": infos,
		"enabled":  true,
	})
}
