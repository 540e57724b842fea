package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civica/internal/enforcement/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the enforcement operations the handler exposes.
type Service interface {
	IssueWanted(ctx context.Context, citizenID id.CitizenID, reason string) (*models.WantedRecord, error)
	ClearWanted(ctx context.Context, citizenID id.CitizenID) (*models.WantedRecord, error)
	IsWanted(ctx context.Context, citizenID id.CitizenID) (bool, error)
	IssueFine(ctx context.Context, citizenID id.CitizenID, amount int64, reason string) (*models.Fine, error)
	PayFine(ctx context.Context, fineID id.FineID, payerID id.CitizenID) (*models.Fine, error)
	WaiveFine(ctx context.Context, fineID id.FineID) (*models.Fine, error)
	History(ctx context.Context, citizenID id.CitizenID) (*models.History, error)
}

// Handler wires enforcement endpoints to the enforcement service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an enforcement handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts enforcement endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/citizens/{citizenID}/wanted", h.HandleIssueWanted)
	r.Delete("/citizens/{citizenID}/wanted", h.HandleClearWanted)
	r.Get("/citizens/{citizenID}/wanted", h.HandleIsWanted)
	r.Post("/citizens/{citizenID}/fines", h.HandleIssueFine)
	r.Post("/fines/{fineID}/pay", h.HandlePayFine)
	r.Post("/fines/{fineID}/waive", h.HandleWaiveFine)
	r.Get("/citizens/{citizenID}/enforcement", h.HandleHistory)
}

// HandleIssueWanted handles POST /citizens/{citizenID}/wanted.
func (h *Handler) HandleIssueWanted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[IssueWantedRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.service.IssueWanted(ctx, citizenID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "wanted issue failed",
			"request_id", requestcontext.RequestID(ctx),
			"citizen_id", citizenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromWanted(record))
}

// HandleClearWanted handles DELETE /citizens/{citizenID}/wanted.
func (h *Handler) HandleClearWanted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.ClearWanted(ctx, citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wanted record cleared",
		"request_id", requestcontext.RequestID(ctx),
		"citizen_id", citizenID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromWanted(record))
}

// HandleIsWanted handles GET /citizens/{citizenID}/wanted.
func (h *Handler) HandleIsWanted(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	wanted, err := h.service.IsWanted(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &WantedStatusResponse{Wanted: wanted})
}

// HandleIssueFine handles POST /citizens/{citizenID}/fines.
func (h *Handler) HandleIssueFine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[IssueFineRequest](w, r, h.logger)
	if !ok {
		return
	}

	fine, err := h.service.IssueFine(ctx, citizenID, req.Amount, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromFine(fine))
}

// HandlePayFine handles POST /fines/{fineID}/pay.
func (h *Handler) HandlePayFine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fineID, err := id.ParseFineID(chi.URLParam(r, "fineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[PayFineRequest](w, r, h.logger)
	if !ok {
		return
	}
	payerID, err := id.ParseCitizenID(req.CitizenID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "citizen_id is not a valid citizen id"))
		return
	}

	fine, err := h.service.PayFine(ctx, fineID, payerID)
	if err != nil {
		h.logger.WarnContext(ctx, "fine payment failed",
			"request_id", requestcontext.RequestID(ctx),
			"fine_id", fineID,
			"payer_id", payerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFine(fine))
}

// HandleWaiveFine handles POST /fines/{fineID}/waive.
func (h *Handler) HandleWaiveFine(w http.ResponseWriter, r *http.Request) {
	fineID, err := id.ParseFineID(chi.URLParam(r, "fineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	fine, err := h.service.WaiveFine(r.Context(), fineID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFine(fine))
}

// HandleHistory handles GET /citizens/{citizenID}/enforcement.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.service.History(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(history))
}
