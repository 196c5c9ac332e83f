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

type CartHandler struct {
	cart    service.CartService
	timeout time.Duration
}

func NewCartHandler(cart service.CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	Quantity int32 `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int32 `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	items, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Cart items retrieved successfully", items)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, d.ErrValidation)
		return
	}

	// Quantity defaults to 1; changes go through update.
	req := AddItemRequestDTO{Quantity: 1}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, d.ErrValidation)
			return
		}
	}

	item, err := h.cart.AddItem(ctx, userID, productID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Product added to cart successfully", item)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	itemID := chi.URLParam(r, "id")
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, d.ErrValidation)
		return
	}

	item, err := h.cart.UpdateItem(ctx, userID, itemID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Cart item updated successfully", item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, d.ErrUnauthorized)
		return
	}

	itemID := chi.URLParam(r, "id")
	if err := h.cart.RemoveItem(ctx, userID, itemID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, "Cart item deleted successfully", nil)
}
