package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civica/internal/business/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the business operations the handler exposes.
type Service interface {
	Create(ctx context.Context, name, businessType string, founderID id.CitizenID) (*models.Business, error)
	Get(ctx context.Context, businessID id.BusinessID) (*models.Business, error)
	ListByOwner(ctx context.Context, ownerID id.CitizenID) ([]*models.Business, error)
	TransferOwnership(ctx context.Context, businessID id.BusinessID, newOwnerID id.CitizenID) (*models.Business, error)
	DepositRevenue(ctx context.Context, businessID id.BusinessID, amount int64) (*models.Business, error)
	WithdrawRevenue(ctx context.Context, businessID id.BusinessID, amount int64, toCitizenID id.CitizenID) (*models.Business, error)
}

// Handler wires business endpoints to the business service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a business handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts business endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/businesses", h.HandleCreate)
	r.Get("/businesses/{businessID}", h.HandleGet)
	r.Get("/citizens/{citizenID}/businesses", h.HandleListByOwner)
	r.Post("/businesses/{businessID}/transfer", h.HandleTransfer)
	r.Post("/businesses/{businessID}/revenue/deposit", h.HandleDepositRevenue)
	r.Post("/businesses/{businessID}/revenue/withdraw", h.HandleWithdrawRevenue)
}

// HandleCreate handles POST /businesses.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	founderID, err := id.ParseCitizenID(req.FounderID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "founder_id is not a valid citizen id"))
		return
	}

	business, err := h.service.Create(ctx, req.Name, req.Type, founderID)
	if err != nil {
		h.logger.WarnContext(ctx, "business creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"founder_id", founderID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromBusiness(business))
}

// HandleGet handles GET /businesses/{businessID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	businessID, err := id.ParseBusinessID(chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	business, err := h.service.Get(r.Context(), businessID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBusiness(business))
}

// HandleListByOwner handles GET /citizens/{citizenID}/businesses.
func (h *Handler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	businesses, err := h.service.ListByOwner(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBusinessList(businesses))
}

// HandleTransfer handles POST /businesses/{businessID}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	businessID, err := id.ParseBusinessID(chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	newOwnerID, err := id.ParseCitizenID(req.NewOwnerID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "new_owner_id is not a valid citizen id"))
		return
	}

	business, err := h.service.TransferOwnership(ctx, businessID, newOwnerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "business ownership transferred",
		"request_id", requestcontext.RequestID(ctx),
		"business_id", businessID,
		"new_owner_id", newOwnerID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromBusiness(business))
}

// HandleDepositRevenue handles POST /businesses/{businessID}/revenue/deposit.
func (h *Handler) HandleDepositRevenue(w http.ResponseWriter, r *http.Request) {
	businessID, err := id.ParseBusinessID(chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[DepositRequest](w, r, h.logger)
	if !ok {
		return
	}

	business, err := h.service.DepositRevenue(r.Context(), businessID, req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBusiness(business))
}

// HandleWithdrawRevenue handles POST /businesses/{businessID}/revenue/withdraw.
func (h *Handler) HandleWithdrawRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, err := id.ParseBusinessID(chi.URLParam(r, "businessID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[WithdrawRequest](w, r, h.logger)
	if !ok {
		return
	}
	toCitizenID, err := id.ParseCitizenID(req.ToCitizenID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "to_citizen_id is not a valid citizen id"))
		return
	}

	business, err := h.service.WithdrawRevenue(ctx, businessID, req.Amount, toCitizenID)
	if err != nil {
		h.logger.WarnContext(ctx, "revenue withdrawal failed",
			"request_id", requestcontext.RequestID(ctx),
			"business_id", businessID,
			"amount", req.Amount,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBusiness(business))
}
