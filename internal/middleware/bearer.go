// Package middleware provides HTTP middlewares for authentication, logging
// and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/meucrm/crmdesk/internal/auth"
)

type ctxKey string

const userKey ctxKey = "user"

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// signed with secret.
//
// On success the user ID from the token subject is stored in the request
// context, so it can be used downstream via GetUserIDFromContext.
func BearerAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			userID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), secret)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID stored by BearerAuth.
// Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
