package handlers

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", domain.ErrInvalidSlug, http.StatusBadRequest, `{"error":"slug may only contain letters, numbers, hyphens and underscores"}`},
		{"already set up", domain.ErrAlreadySetUp, http.StatusBadRequest, `{"error":"password already set up"}`},
		{"duplicate", domain.ErrDuplicateSlug, http.StatusConflict, `{"error":"slug already exists"}`},
		{"not found", domain.ErrLinkNotFound, http.StatusNotFound, `{"error":"link not found"}`},
		{"invalid password", &domain.InvalidPasswordError{Remaining: 2}, http.StatusUnauthorized, `{"error":"Invalid password","remainingAttempts":2}`},
		{"storage", fmt.Errorf("%w: get link:x: boom", domain.ErrStorage), http.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
			writeDomainError(rec, req, logger.Nop(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody+"\n" {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestWriteDomainErrorRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
	writeDomainError(rec, req, logger.Nop(), &domain.RateLimitError{RetryAfter: 90500 * time.Millisecond, Locked: true})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "91" {
		t.Errorf("Retry-After = %q, want 91", got)
	}
}

func TestLoginOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.LoginSuccess},
		{&domain.RateLimitError{Locked: true}, metrics.LoginLocked},
		{&domain.RateLimitError{}, metrics.LoginThrottle},
		{&domain.InvalidPasswordError{Remaining: 1}, metrics.LoginInvalid},
		{domain.ErrNotSetUp, metrics.LoginRejected},
	}
	for _, tt := range tests {
		if got := loginOutcome(tt.err); got != tt.want {
			t.Errorf("loginOutcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPublicBase(t *testing.T) {
	tests := []struct {
		name   string
		d      deps.Deps
		header string
		tls    bool
		want   string
	}{
		{"configured", deps.Deps{BaseURL: "https://qr.example.org"}, "", false, "https://qr.example.org"},
		{"plain request", deps.Deps{}, "", false, "http://example.com"},
		{"tls request", deps.Deps{}, "", true, "https://example.com"},
		{"trusted proxy", deps.Deps{TrustProxy: true}, "https", false, "https://example.com"},
		{"untrusted proxy header", deps.Deps{}, "https", false, "http://example.com"},
		{"garbage proto", deps.Deps{TrustProxy: true}, "gopher", false, "http://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/links", nil)
			if tt.header != "" {
				r.Header.Set("X-Forwarded-Proto", tt.header)
			}
			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if got := publicBase(r, tt.d); got != tt.want {
				t.Errorf("publicBase = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortURLEscapes(t *testing.T) {
	if got := shortURL("https://qr.example.org", "promo_2024"); got != "https://qr.example.org/r/promo_2024" {
		t.Errorf("shortURL = %q", got)
	}
}
