package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

const readyPingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// Readyz answers 503 while the store does not answer a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("backend", d.Store.Backend()),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Backend: d.Store.Backend(),
				Error:   "store unreachable",
			})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Backend: d.Store.Backend()})
	}
}
