package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wealthpulse/backend/internal/httpx"
)

type contextKey string

const usernameKey contextKey = "username"

// SessionLookup resolves a session id to a username ("" when unknown).
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// RequireAuth is middleware that validates the session cookie and
// injects the username into the request context.
func RequireAuth(sessions SessionLookup, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			username, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				slog.WarnContext(r.Context(), "session lookup failed", "error", err)
			}
			if err != nil || username == "" {
				httpx.Error(w, http.StatusUnauthorized, "session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// WithUsername returns a copy of ctx carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// Username returns the authenticated username stored by RequireAuth.
func Username(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(usernameKey).(string)
	return u, ok && u != ""
}
