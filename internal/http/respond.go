package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

// Envelope is the caller-facing result contract: every operation returns
// success/failure plus a categorized code on failures, never just free text.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Message: err.Error(),
		Code:    code,
	}); encErr != nil {
		zap.L().Error("failed to encode error response", zap.Error(encErr))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, d.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, d.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, d.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, d.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, d.ErrOutOfStock):
		return http.StatusConflict, "out_of_stock"
	case errors.Is(err, d.ErrGatewayUnavailable):
		return http.StatusBadGateway, "gateway_unavailable"
	case errors.Is(err, d.ErrGatewayDeclined):
		return http.StatusPaymentRequired, "gateway_declined"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
