package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
)

func init() { Register(registerQR) }

func registerQR(r chi.Router, d deps.Deps) {
	r.With(
		throttle(d),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireSession(d.Auth, d.Logger),
	).Get("/api/qr", handlers.QRCode(d))
}
