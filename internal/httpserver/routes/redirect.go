package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/handlers"
)

func init() { Register(registerRedirect) }

func registerRedirect(r chi.Router, d deps.Deps) {
	r.With(throttle(d)).Get("/r/{slug}", handlers.Redirect(d))
}
