package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	citizenhandler "civica/internal/citizen/handler"
	citizenmodels "civica/internal/citizen/models"
	"civica/internal/employment/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the employment operations the handler exposes.
type Service interface {
	Jobs() []models.Job
	AssignJob(ctx context.Context, citizenID id.CitizenID, kind id.JobKind) (*citizenmodels.Citizen, error)
	Earn(ctx context.Context, citizenID id.CitizenID) (models.Job, error)
	NextEarnAt(ctx context.Context, citizenID id.CitizenID) (time.Time, error)
}

// Handler wires employment endpoints to the employment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an employment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts employment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/jobs", h.HandleJobs)
	r.Post("/citizens/{citizenID}/job", h.HandleAssignJob)
	r.Post("/citizens/{citizenID}/earn", h.HandleEarn)
	r.Get("/citizens/{citizenID}/next-earn", h.HandleNextEarn)
}

// HandleJobs handles GET /jobs.
func (h *Handler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromJobs(h.service.Jobs()))
}

// HandleAssignJob handles POST /citizens/{citizenID}/job.
func (h *Handler) HandleAssignJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[AssignJobRequest](w, r, h.logger)
	if !ok {
		return
	}
	kind, err := id.ParseJobKind(req.Job)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	citizen, err := h.service.AssignJob(ctx, citizenID, kind)
	if err != nil {
		h.logger.WarnContext(ctx, "job assignment failed",
			"request_id", requestcontext.RequestID(ctx),
			"citizen_id", citizenID,
			"job", req.Job,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, citizenhandler.FromCitizen(citizen))
}

// HandleEarn handles POST /citizens/{citizenID}/earn.
func (h *Handler) HandleEarn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	job, err := h.service.Earn(ctx, citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payout earned",
		"request_id", requestcontext.RequestID(ctx),
		"citizen_id", citizenID,
		"job", job.Kind,
		"amount", job.Payout,
	)
	httputil.WriteJSON(w, http.StatusOK, &EarnResponse{
		Job:    string(job.Kind),
		Payout: job.Payout,
	})
}

// HandleNextEarn handles GET /citizens/{citizenID}/next-earn.
func (h *Handler) HandleNextEarn(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	at, err := h.service.NextEarnAt(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := &NextEarnResponse{Ready: at.IsZero()}
	if !at.IsZero() {
		resp.NextEarnAt = &at
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
