package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civica/internal/property/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/httputil"
	"civica/pkg/requestcontext"
)

// Service defines the property operations the handler exposes.
type Service interface {
	AddListing(ctx context.Context, kind, name string, price int64) (*models.Property, error)
	Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListByOccupant(ctx context.Context, citizenID id.CitizenID) ([]*models.Property, error)
	Purchase(ctx context.Context, propertyID id.PropertyID, buyerID id.CitizenID) (*models.Property, error)
	Rent(ctx context.Context, propertyID id.PropertyID, renterID id.CitizenID, period time.Duration) (*models.Property, error)
	Vacate(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
}

// Handler wires property endpoints to the property service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a property handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts property endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties", h.HandleAddListing)
	r.Get("/properties/{propertyID}", h.HandleGet)
	r.Get("/citizens/{citizenID}/properties", h.HandleListByOccupant)
	r.Post("/properties/{propertyID}/purchase", h.HandlePurchase)
	r.Post("/properties/{propertyID}/rent", h.HandleRent)
	r.Post("/properties/{propertyID}/vacate", h.HandleVacate)
}

// HandleAddListing handles POST /properties.
func (h *Handler) HandleAddListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[AddListingRequest](w, r, h.logger)
	if !ok {
		return
	}

	property, err := h.service.AddListing(ctx, req.Kind, req.Name, req.Price)
	if err != nil {
		h.logger.WarnContext(ctx, "listing creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProperty(property))
}

// HandleGet handles GET /properties/{propertyID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	property, err := h.service.Get(r.Context(), propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(property))
}

// HandleListByOccupant handles GET /citizens/{citizenID}/properties.
func (h *Handler) HandleListByOccupant(w http.ResponseWriter, r *http.Request) {
	citizenID, err := id.ParseCitizenID(chi.URLParam(r, "citizenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	properties, err := h.service.ListByOccupant(r.Context(), citizenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPropertyList(properties))
}

// HandlePurchase handles POST /properties/{propertyID}/purchase.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[PurchaseRequest](w, r, h.logger)
	if !ok {
		return
	}
	buyerID, err := id.ParseCitizenID(req.CitizenID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "citizen_id is not a valid citizen id"))
		return
	}

	property, err := h.service.Purchase(ctx, propertyID, buyerID)
	if err != nil {
		h.logger.WarnContext(ctx, "purchase failed",
			"request_id", requestcontext.RequestID(ctx),
			"property_id", propertyID,
			"buyer_id", buyerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(property))
}

// HandleRent handles POST /properties/{propertyID}/rent.
func (h *Handler) HandleRent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[RentRequest](w, r, h.logger)
	if !ok {
		return
	}
	renterID, err := id.ParseCitizenID(req.CitizenID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "citizen_id is not a valid citizen id"))
		return
	}

	property, err := h.service.Rent(ctx, propertyID, renterID, time.Duration(req.PeriodSeconds)*time.Second)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(property))
}

// HandleVacate handles POST /properties/{propertyID}/vacate.
func (h *Handler) HandleVacate(w http.ResponseWriter, r *http.Request) {
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	property, err := h.service.Vacate(r.Context(), propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(property))
}
