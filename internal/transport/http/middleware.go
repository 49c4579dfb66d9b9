package http

import (
	"context"
	"net/http"
	"strings"

	"formrank-service/internal/auth"
)

type contextKey string

const claimsKey contextKey = "adminClaims"

// RequireAdmin verifies the bearer token and stores the admin claims on the
// request context.
func RequireAdmin(tokens *auth.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminClaims pulls the verified claims back off the context. The second
// return is false on routes that skipped RequireAdmin.
func adminClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
