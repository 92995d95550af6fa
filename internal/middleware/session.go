// Package middleware provides HTTP middlewares for session lookup and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const userKey ctxKey = "user"

// UserResolver reports the id of the user owning local data.
type UserResolver interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// WithSession stores the current user id in the request context when a
// session is active. Requests without a session pass through unchanged.
func WithSession(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := users.CurrentUserID(r.Context())
			if err != nil || id == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that WithSession found no user for.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromContext(r.Context()) == "" {
			http.Error(w, "no active session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext extracts the user ID from the request context.
// Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
