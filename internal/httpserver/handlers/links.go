package handlers

import (
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
)

type linkResponse struct {
	domain.Link
	RedirectURL string `json:"redirectUrl"`
}

type listResponse struct {
	Links   []linkResponse `json:"links"`
	IsLocal bool           `json:"isLocal"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Deleted string `json:"deleted"`
}

type createRequest struct {
	Slug        string `json:"slug"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	QRCode      string `json:"qrCode"`
	RenderQR    bool   `json:"renderQr"`
}

type updateRequest struct {
	Slug        string  `json:"slug"`
	Destination *string `json:"destination"`
	Status      *string `json:"status"`
	QRCode      *string `json:"qrCode"`
	RenderQR    bool    `json:"renderQr"`
}

// LinksGet lists every link, or returns one with ?slug=.
func LinksGet(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := publicBase(r, d)

		if slug := r.URL.Query().Get("slug"); slug != "" {
			link, err := d.Links.Get(r.Context(), slug)
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			writeJSON(w, http.StatusOK, withRedirect(link, base))
			return
		}

		all, err := d.Links.List(r.Context())
		if err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}
		out := listResponse{
			Links:   make([]linkResponse, 0, len(all)),
			IsLocal: d.Store.Backend() == "memory",
		}
		for _, l := range all {
			out.Links = append(out.Links, withRedirect(l, base))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// LinksCreate creates a link and answers 201.
func LinksCreate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		base := publicBase(r, d)

		qrCode := req.QRCode
		if qrCode == "" && req.RenderQR && links.ValidateSlug(req.Slug) == nil {
			rendered, err := qr.DataURL(shortURL(base, req.Slug))
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			qrCode = rendered
		}

		link, err := d.Links.Create(r.Context(), links.CreateInput{
			Slug:        req.Slug,
			Destination: req.Destination,
			Status:      req.Status,
			QRCode:      qrCode,
		})
		if err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}

		d.Metrics.LinkOperations.WithLabelValues("create").Inc()
		d.Logger.Info("link created",
			logger.String("slug", link.Slug),
			logger.String("status", string(link.Status)))
		writeJSON(w, http.StatusCreated, withRedirect(link, base))
	}
}

// LinksUpdate applies a partial update.
func LinksUpdate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Slug == "" {
			writeError(w, http.StatusBadRequest, "slug is required")
			return
		}
		base := publicBase(r, d)

		var patch domain.LinkPatch
		patch.Destination = req.Destination
		if req.Status != nil {
			st := domain.LinkStatus(*req.Status)
			patch.Status = &st
		}
		patch.QRCode = req.QRCode
		if patch.QRCode == nil && req.RenderQR {
			rendered, err := qr.DataURL(shortURL(base, req.Slug))
			if err != nil {
				writeDomainError(w, r, d.Logger, err)
				return
			}
			patch.QRCode = &rendered
		}

		link, err := d.Links.Update(r.Context(), req.Slug, patch)
		if err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}

		d.Metrics.LinkOperations.WithLabelValues("update").Inc()
		d.Logger.Info("link updated", logger.String("slug", link.Slug))
		writeJSON(w, http.StatusOK, withRedirect(link, base))
	}
}

// LinksDelete removes ?slug=.
func LinksDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		if slug == "" {
			writeError(w, http.StatusBadRequest, "slug is required")
			return
		}
		if err := d.Links.Delete(r.Context(), slug); err != nil {
			writeDomainError(w, r, d.Logger, err)
			return
		}

		d.Metrics.LinkOperations.WithLabelValues("delete").Inc()
		d.Logger.Info("link deleted", logger.String("slug", slug))
		writeJSON(w, http.StatusOK, deleteResponse{Success: true, Deleted: slug})
	}
}

func withRedirect(l domain.Link, base string) linkResponse {
	return linkResponse{Link: l, RedirectURL: shortURL(base, l.Slug)}
}

func shortURL(base, slug string) string {
	return base + "/r/" + url.PathEscape(slug)
}

// publicBase returns the configured origin, or one derived from the request.
func publicBase(r *http.Request, d deps.Deps) string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if d.TrustProxy {
		if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}
