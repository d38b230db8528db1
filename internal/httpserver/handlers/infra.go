package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/redirect"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Entries *int   `json:"entries,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Uptime     string                     `json:"uptime"`
	Components map[string]componentStatus `json:"components"`
	Cache      redirect.CacheStats        `json:"cache"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store": checkStore(ctx, d),
			"links": countLinks(ctx, d),
			"seed": {
				OK:   true,
				Mode: seedMode(d),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Uptime:     uptime(d),
			Components: components,
			Cache:      d.Resolver.CacheStats(),
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if s, ok := components["store"]; ok && !s.OK {
		return "critical"
	}
	if l, ok := components["links"]; ok && !l.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	status := componentStatus{Mode: d.Store.Backend()}
	if err := d.Store.Ping(ctx); err != nil {
		status.Error = "unreachable"
		return status
	}
	status.OK = true
	if status.Mode == "memory" {
		status.Error = "data is lost on restart"
	}
	return status
}

func countLinks(ctx context.Context, d deps.Deps) componentStatus {
	keys, err := d.Store.Keys(ctx, store.LinkPattern())
	if err != nil {
		return componentStatus{Error: "scan failed"}
	}
	n := len(keys)
	return componentStatus{OK: true, Entries: &n}
}

func seedMode(d deps.Deps) string {
	if d.ReloadTrigger == nil {
		return "disabled"
	}
	return "enabled"
}
