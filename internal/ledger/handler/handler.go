package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civica/internal/ledger/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	Balance(ctx context.Context, citizenID id.CitizenID) (*models.Account, error)
	Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Debit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Transfer(ctx context.Context, from, to id.CitizenID, amount int64) error
	Deposit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Withdraw(ctx context.Context, citizenID id.CitizenID, amount int64) error
	AdminAdjust(ctx context.Context, citizenID id.CitizenID, delta int64) error
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/citizens/{citizenID}/account", h.HandleBalance)
	r.Post("/citizens/{citizenID}/account/credit", h.moneyOp(h.service.Credit, "credit"))
	r.Post("/citizens/{citizenID}/account/debit", h.moneyOp(h.service.Debit, "debit"))
	r.Post("/citizens/{citizenID}/account/deposit", h.moneyOp(h.service.Deposit, "deposit"))
	r.Post("/citizens/{citizenID}/account/withdraw", h.moneyOp(h.service.Withdraw, "withdraw"))
	r.Post("/citizens/{citizenID}/account/adjust", h.HandleAdjust)
	r.Post("/transfers", h.HandleTransfer)
}

// HandleBalance handles GET /citizens/{citizenID}/account.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.Balance(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

// moneyOp builds a POST handler for the single-citizen amount operations,
// which differ only in the service method they call.
func (h *Handler) moneyOp(op func(context.Context, id.CitizenID, int64) error, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := httputil.Decode[AmountRequest](w, r, h.logger)
		if !ok {
			return
		}

		if err := op(ctx, citizenID, req.Amount); err != nil {
			h.logger.WarnContext(ctx, "ledger operation failed",
				"request_id", requestcontext.RequestID(ctx),
				"op", name,
				"citizen_id", citizenID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		h.logger.InfoContext(ctx, "ledger operation applied",
			"request_id", requestcontext.RequestID(ctx),
			"op", name,
			"citizen_id", citizenID,
			"amount", req.Amount,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		account, err := h.service.Balance(ctx, citizenID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
	}
}

// HandleAdjust handles POST /citizens/{citizenID}/account/adjust.
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[AdjustRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.AdminAdjust(ctx, citizenID, req.Delta); err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := h.service.Balance(ctx, citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(account))
}

// HandleTransfer handles POST /transfers.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}

	from, err := id.ParseCitizenID(req.From)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "from is not a valid citizen id"))
		return
	}
	to, err := id.ParseCitizenID(req.To)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "to is not a valid citizen id"))
		return
	}

	if err := h.service.Transfer(ctx, from, to, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "transfer failed",
			"request_id", requestcontext.RequestID(ctx),
			"from", from,
			"to", to,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
