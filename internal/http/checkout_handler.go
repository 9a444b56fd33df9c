package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront/internal/checkout"
	"storefront/internal/pricing"
)

type CheckoutHandler struct {
	checkouts *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkouts: svc}
}

type DiscountDTO struct {
	Kind  string `json:"kind"`            // "percent" or "flat"
	Value string `json:"value,omitempty"` // decimal string, e.g. "0.25" or "5.00"
}

type CheckoutRequestDTO struct {
	DeliveryMethodID string       `json:"delivery_method_id"`
	PaymentMethodID  string       `json:"payment_method_id"`
	Discount         *DiscountDTO `json:"discount,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.DeliveryMethodID == "" || req.PaymentMethodID == "" {
		respondError(w, http.StatusBadRequest, "missing_method",
			"delivery_method_id and payment_method_id are required")
		return
	}

	discount, err := parseDiscount(req.Discount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_discount", err.Error())
		return
	}

	o, err := h.checkouts.Checkout(r.Context(), userID, checkout.Request{
		DeliveryMethodID: req.DeliveryMethodID,
		PaymentMethodID:  req.PaymentMethodID,
		Discount:         discount,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func parseDiscount(dto *DiscountDTO) (pricing.Discount, error) {
	if dto == nil {
		return pricing.Discount{}, nil
	}

	value, err := decimal.NewFromString(dto.Value)
	if err != nil {
		return pricing.Discount{}, err
	}
	return pricing.Discount{
		Kind:  pricing.DiscountKind(dto.Kind),
		Value: value,
	}, nil
}
