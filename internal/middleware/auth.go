package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

type contextKey string

const UserKey contextKey = "user"

// Authenticator verifies a username and password pair
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*users.User, error)
}

// BasicAuth resolves the caller from HTTP Basic credentials and stores
// the account in the request context. Pending accounts get 403.
func BasicAuth(auth Authenticator, realm string) func(http.Handler) http.Handler {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || username == "" {
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			u, err := auth.Authenticate(r.Context(), username, password)
			switch {
			case errors.Is(err, users.ErrPendingApproval):
				WriteError(w, http.StatusForbidden, err.Error())
				return
			case errors.Is(err, users.ErrInvalidLogin):
				AuthFailuresTotal.WithLabelValues("invalid_login").Inc()
				w.Header().Set("WWW-Authenticate", challenge)
				WriteError(w, http.StatusUnauthorized, "Invalid username or password.")
				return
			case err != nil:
				WriteError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated account, or nil
func UserFromContext(ctx context.Context) *users.User {
	if u, ok := ctx.Value(UserKey).(*users.User); ok {
		return u
	}
	return nil
}

// RequireAdmin rejects callers that are not administrators
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := users.RequireAdmin(UserFromContext(r.Context())); err != nil {
			WriteError(w, http.StatusForbidden, "Administrator access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
