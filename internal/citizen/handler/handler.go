package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civica/internal/citizen/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the citizen operations the handler exposes.
type Service interface {
	Register(ctx context.Context, externalAccountID, displayName string, age int) (*models.Citizen, error)
	Lookup(ctx context.Context, externalAccountID string) (*models.Citizen, error)
	Get(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error)
	List(ctx context.Context, offset, limit int) ([]*models.Citizen, error)
	Rename(ctx context.Context, citizenID id.CitizenID, displayName string) (*models.Citizen, error)
	SetAge(ctx context.Context, citizenID id.CitizenID, age int) (*models.Citizen, error)
	Archive(ctx context.Context, citizenID id.CitizenID) error
}

// Handler wires citizen endpoints to the citizen service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a citizen handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts citizen endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/citizens", h.HandleRegister)
	r.Get("/citizens", h.HandleList)
	r.Get("/citizens/lookup", h.HandleLookup)
	r.Get("/citizens/{citizenID}", h.HandleGet)
	r.Patch("/citizens/{citizenID}/name", h.HandleRename)
	r.Patch("/citizens/{citizenID}/age", h.HandleSetAge)
	r.Post("/citizens/{citizenID}/archive", h.HandleArchive)
}

// HandleRegister handles POST /citizens.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	citizen, err := h.service.Register(ctx, req.ExternalAccountID, req.DisplayName, req.Age)
	if err != nil {
		h.logger.WarnContext(ctx, "citizen registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"external_account_id", req.ExternalAccountID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "citizen registered",
		"request_id", requestcontext.RequestID(ctx),
		"citizen_id", citizen.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCitizen(citizen))
}

// HandleList handles GET /citizens with offset/limit query params.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	citizens, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCitizenList(citizens))
}

// HandleLookup handles GET /citizens/lookup?account=...
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "account query parameter is required"))
		return
	}

	citizen, err := h.service.Lookup(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCitizen(citizen))
}

// HandleGet handles GET /citizens/{citizenID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	citizen, err := h.service.Get(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCitizen(citizen))
}

// HandleRename handles PATCH /citizens/{citizenID}/name.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[RenameRequest](w, r, h.logger)
	if !ok {
		return
	}

	citizen, err := h.service.Rename(r.Context(), citizenID, req.DisplayName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCitizen(citizen))
}

// HandleSetAge handles PATCH /citizens/{citizenID}/age.
func (h *Handler) HandleSetAge(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[SetAgeRequest](w, r, h.logger)
	if !ok {
		return
	}

	citizen, err := h.service.SetAge(r.Context(), citizenID, req.Age)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCitizen(citizen))
}

// HandleArchive handles POST /citizens/{citizenID}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Archive(ctx, citizenID); err != nil {
		h.logger.WarnContext(ctx, "citizen archive failed",
			"request_id", requestcontext.RequestID(ctx),
			"citizen_id", citizenID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, derrors.Newf(derrors.CodeBadRequest, "%s must be an integer", name)
	}
	return value, nil
}
