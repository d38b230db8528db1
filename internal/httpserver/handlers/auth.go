package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/utils"
)

type authRequest struct {
	Action   string `json:"action"`
	Password string `json:"password"`
}

type verifyResponse struct {
	Authenticated bool `json:"authenticated"`
}

// AuthGet serves ?action=status and ?action=verify.
func AuthGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := mw.SessionToken(r)

		switch r.URL.Query().Get("action") {
		case "status":
			st, err := d.Auth.Status(r.Context(), token)
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			writeJSON(w, http.StatusOK, st)
		case "verify":
			ok, err := d.Auth.Verify(r.Context(), token)
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			writeJSON(w, http.StatusOK, verifyResponse{Authenticated: ok})
		default:
			writeError(w, http.StatusBadRequest, "Invalid action")
		}
	}
}

// AuthPost serves setup, login and logout.
func AuthPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		switch req.Action {
		case "setup":
			sess, err := d.Auth.Setup(r.Context(), req.Password)
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			setSessionCookie(w, d, sess)
			writeJSON(w, http.StatusOK, successResponse{Success: true})

		case "login":
			identity := utils.ClientIP(r, d.TrustProxy)
			sess, err := d.Auth.Login(r.Context(), req.Password, identity)
			d.Metrics.LoginAttempts.WithLabelValues(loginOutcome(err)).Inc()
			if err != nil {
				var rle *domain.RateLimitError
				if errors.As(err, &rle) {
					d.Logger.Warn("login rate limited",
						logger.String("identity", identity),
						logger.Bool("locked_now", rle.Locked))
				}
				writeDomainError(w, r, d.Logger, err)
				return
			}
			setSessionCookie(w, d, sess)
			writeJSON(w, http.StatusOK, successResponse{Success: true})

		case "logout":
			// The server-side record is left to expire on its own.
			clearSessionCookie(w, d)
			writeJSON(w, http.StatusOK, successResponse{Success: true})

		default:
			writeError(w, http.StatusBadRequest, "Invalid action")
		}
	}
}

func loginOutcome(err error) string {
	var rle *domain.RateLimitError
	var ipe *domain.InvalidPasswordError
	switch {
	case err == nil:
		return metrics.LoginSuccess
	case errors.As(err, &rle) && rle.Locked:
		return metrics.LoginLocked
	case errors.As(err, &rle):
		return metrics.LoginThrottle
	case errors.As(err, &ipe):
		return metrics.LoginInvalid
	default:
		return metrics.LoginRejected
	}
}

func setSessionCookie(w http.ResponseWriter, d deps.Deps, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(d.Auth.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, d deps.Deps) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
