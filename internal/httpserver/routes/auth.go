package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	api := r.With(
		throttle(d),
		mw.SecureHeaders,
		mw.NoStore,
		mw.LimitBody,
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	api.Get("/api/auth", handlers.AuthGet(d))
	api.Post("/api/auth", handlers.AuthPost(d))
}
