package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	ops := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	ops.Get("/healthz", handlers.Healthz(d))
	ops.Get("/infra", handlers.Infra(d))
	ops.Method("GET", "/metrics", handlers.Metrics(d))
}
