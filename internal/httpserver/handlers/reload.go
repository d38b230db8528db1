package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/utils"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the seed importer for an immediate pass.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)

		if d.ReloadTrigger == nil {
			writeError(w, http.StatusNotFound, "No seed file configured")
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed import triggered via endpoint",
				logger.String("remote_ip", ip))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "Seed import triggered"})
		default:
			d.Logger.Warn("seed import already pending",
				logger.String("remote_ip", ip))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Message: "Seed import already pending, please wait"})
		}
	}
}
