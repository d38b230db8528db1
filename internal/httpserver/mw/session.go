package mw

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "session"

// SessionVerifier reports whether a token is a live session.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// SessionToken returns the session cookie value, or "".
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireSession rejects requests without a live session with 401.
func RequireSession(v SessionVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := v.Verify(r.Context(), SessionToken(r))
			if err != nil {
				log.Error("session check failed",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
