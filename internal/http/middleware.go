package http

import (
	"context"
	"net/http"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware resolves the caller's identity from the X-User-ID header.
// Token validation happens upstream; this service only needs the identity.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respondError(w, d.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
