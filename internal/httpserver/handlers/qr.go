package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
)

// QRCode renders the short URL of ?slug= as a PNG.
func QRCode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		slug := q.Get("slug")
		if slug == "" {
			writeError(w, http.StatusBadRequest, "slug is required")
			return
		}
		size, err := qr.ParseSize(q.Get("size"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		level, err := qr.ParseLevel(q.Get("level"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if _, err := d.Links.Get(r.Context(), slug); err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}

		target := shortURL(publicBase(r, d), slug)
		png, err := qr.Render(target, level, size)
		if err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(png); err != nil {
			d.Logger.Debug("failed to write qr response", logger.Error(err))
			return
		}

		d.Logger.Debug("qr code rendered",
			logger.String("slug", slug),
			logger.Int("size", size),
			logger.String("level", qr.LevelName(level)))
	}
}
