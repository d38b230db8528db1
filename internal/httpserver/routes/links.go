package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	api := r.With(
		throttle(d),
		mw.SecureHeaders,
		mw.NoStore,
		mw.LimitBody,
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireSession(d.Auth, d.Logger),
	)
	api.Get("/api/links", handlers.LinksGet(d))
	api.Post("/api/links", handlers.LinksCreate(d))
	api.Put("/api/links", handlers.LinksUpdate(d))
	api.Delete("/api/links", handlers.LinksDelete(d))
}
