package stats

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"civica/pkg/platform/httputil"
)

// Handler exposes the stats snapshot over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a stats handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the stats endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.HandleSnapshot)
}

// HandleSnapshot handles GET /stats.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}
