package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/storecart/internal/catalog"
	"github.com/noah-isme/storecart/internal/common"
	"github.com/noah-isme/storecart/internal/pricing"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc       *Service
	Currency  string
	Validator *validator.Validate
}

type setItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type membershipRequest struct {
	Active *bool `json:"active" validate:"required"`
}

var defaultValidator = common.NewValidator()

func (h *Handler) validate() *validator.Validate {
	if h.Validator != nil {
		return h.Validator
	}
	return defaultValidator
}

// Create starts a new cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	id, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{"cartId": id},
	})
}

// Get returns cart contents and pricing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	snap, err := h.Svc.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(snap.Lines))
	for i, line := range snap.Lines {
		priced := snap.Quote.Lines[i]
		items = append(items, map[string]any{
			"sku":          line.SKU,
			"name":         line.Item.Name(),
			"quantity":     line.Quantity,
			"unitPrice":    money(line.Item.Price()),
			"bulkQuantity": line.Item.BulkQuantity(),
			"bulkPrice":    money(line.Item.BulkPrice()),
			"bulkApplied":  priced.BulkApplied,
			"bulkSets":     priced.BulkSets,
			"remainder":    priced.Remainder,
			"regular":      money(priced.Regular),
			"charged":      money(priced.Charged),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":         snap.ID,
			"membership": snap.Membership,
			"items":      items,
			"size":       sizeBody(snap.Size),
			"pricing": map[string]any{
				"subtotal": money(snap.Quote.Subtotal),
				"savings":  money(snap.Quote.Savings),
				"total":    money(snap.Quote.Total),
			},
			"currency":  h.Currency,
			"expiresAt": snap.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

// SetItem sets the quantity for one SKU, replacing any previous quantity.
func (h *Handler) SetItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload setItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "validation failed", common.ValidationDetails(err))
		return
	}
	h.setQuantity(w, r, *payload.Quantity)
}

// RemoveItem drops the line for one SKU.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	h.setQuantity(w, r, 0)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request, qty int) {
	cartID := chi.URLParam(r, "id")
	res, err := h.Svc.SetOrder(r.Context(), cartID, chi.URLParam(r, "sku"), qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	size, err := h.Svc.Size(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"action": res.String(),
			"size":   sizeBody(size),
		},
	})
}

// SetMembership toggles membership pricing.
func (h *Handler) SetMembership(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "validation failed", common.ValidationDetails(err))
		return
	}
	if err := h.Svc.SetMembership(r.Context(), chi.URLParam(r, "id"), *payload.Active); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"membership": *payload.Active},
	})
}

// Total returns the rounded cart total.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	total, err := h.Svc.Total(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"total": money(total), "currency": h.Currency},
	})
}

// Size returns the number of orders and units in the cart.
func (h *Handler) Size(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	size, err := h.Svc.Size(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sizeBody(size)})
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete discards the cart.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		common.WriteAppError(w, appErr)
	case errors.Is(err, ErrLimitReached):
		common.JSONError(w, http.StatusTooManyRequests, "CART_LIMIT", "too many open carts", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "item not found", nil)
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, pricing.ErrInvalidArgument),
		errors.Is(err, pricing.ErrNilReference):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func sizeBody(size pricing.CartSize) map[string]int {
	return map[string]int{"itemOrderCount": size.ItemOrderCount, "itemCount": size.ItemCount}
}
