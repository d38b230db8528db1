package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
)

// Redirect sends /r/{slug} to its destination with a 307. Unknown slugs,
// and lookups that fail, go to the home URL instead of an error page.
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		if links.ValidateSlug(slug) != nil {
			d.Metrics.Redirects.WithLabelValues(metrics.RedirectFallback).Inc()
			http.Redirect(w, r, d.HomeURL, http.StatusTemporaryRedirect)
			return
		}

		dest, err := d.Resolver.Resolve(r.Context(), slug)
		if err != nil {
			if errors.Is(err, domain.ErrLinkNotFound) {
				d.Logger.Debug("unknown slug, redirecting home", logger.String("slug", slug))
				d.Metrics.Redirects.WithLabelValues(metrics.RedirectFallback).Inc()
			} else {
				d.Logger.Error("redirect lookup failed",
					logger.String("slug", slug),
					logger.Error(err))
				d.Metrics.Redirects.WithLabelValues(metrics.RedirectError).Inc()
			}
			http.Redirect(w, r, d.HomeURL, http.StatusTemporaryRedirect)
			return
		}

		d.Metrics.Redirects.WithLabelValues(metrics.RedirectHit).Inc()
		http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
	}
}
