package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/auth"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const userIDKey contextKey = "userID"

// requireAuth validates a Bearer JWT and injects the authenticated user id
// into the request context.
func requireAuth(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, common.ErrorUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, common.ErrorUnauthorized)
				return
			}

			claims, err := auth.ParseToken(parts[1], jwtSecret)
			if err != nil {
				writeError(w, common.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID extracts the authenticated user id injected by requireAuth.
func userID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(userIDKey).(int64)
	return id, ok
}

// clientIP returns the request's origin address (populated by the RealIP
// middleware), or nil when it cannot be determined.
func clientIP(r *http.Request) *string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return nil
		}
		host = r.RemoteAddr
	}
	return &host
}
