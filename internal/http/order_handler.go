package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	"github.com/jyotishankar04/watch-store-server/internal/service"
)

type OrderHandler struct {
	placement service.PlacementService
	timeout   time.Duration
}

func NewOrderHandler(placement service.PlacementService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		placement: placement,
		timeout:   timeout,
	}
}

type PlaceOrderRequestDTO struct {
	AddressID string `json:"address_id"`
}

type ConfirmPaymentRequestDTO struct {
	TransactionID string `json:"transaction_id"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	req, err := decodeAddressBody(r)
	if err != nil {
		respondError(w, err)
		return
	}

	order, err := h.placement.PlaceOrder(ctx, userID, req.AddressID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Order created successfully", order)
}

func (h *OrderHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	req, err := decodeAddressBody(r)
	if err != nil {
		respondError(w, err)
		return
	}

	initiation, err := h.placement.InitiatePayment(ctx, userID, req.AddressID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Payment initiated", initiation)
}

func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	var req ConfirmPaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		respondError(w, d.ErrValidation)
		return
	}

	order, err := h.placement.ConfirmPayment(ctx, userID, req.TransactionID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Payment confirmed", order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	orders, err := h.placement.ListOrders(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Orders fetched successfully", orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "id")
	order, err := h.placement.GetOrder(ctx, userID, orderID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Order fetched successfully", order)
}

func decodeAddressBody(r *http.Request) (*PlaceOrderRequestDTO, error) {
	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AddressID == "" {
		return nil, d.ErrValidation
	}
	return &req, nil
}
