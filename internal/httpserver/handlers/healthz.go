package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
	Backend       string  `json:"backend,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(start).Seconds(),
		}
		if d.Store != nil {
			resp.Backend = d.Store.Backend()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// uptime is rounded for the infra report.
func uptime(d deps.Deps) string {
	return d.Now().Sub(d.StartTime).Round(time.Second).String()
}
