package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"docqa/internal/storage"
)

// Authenticator maps a bearer token to a user id.
type Authenticator interface {
	UserIDForToken(ctx context.Context, token string) (string, error)
}

type contextKey string

const userIDKey contextKey = "userID"

// RequireUser authenticates the request's bearer token and stores the
// resolved user id in the request context. No detail about the failure is
// leaked to the client.
func RequireUser(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}

			userID, err := auth.UserIDForToken(r.Context(), header[len(prefix):])
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
					return
				}
				httpError(w, http.StatusInternalServerError, "api_error", "authentication backend unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// userID returns the authenticated user id stored by RequireUser.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
