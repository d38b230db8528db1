package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func do(h http.Handler, method, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	rejected := 0
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 1,
		OnReject:          func() { rejected++ },
	})(okHandler)

	from := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.RemoteAddr = ip + ":1234" }
	}

	for i := 0; i < 2; i++ {
		if rec := do(h, "GET", "/r/x", from("10.0.0.1")); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}

	rec := do(h, "GET", "/r/x", from("10.0.0.1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After = %q", ra)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rejected != 1 {
		t.Errorf("OnReject called %d times", rejected)
	}

	// separate bucket per IP
	if rec := do(h, "GET", "/r/x", from("10.0.0.2")); rec.Code != http.StatusOK {
		t.Errorf("other IP: status %d", rec.Code)
	}
}

func TestLimiterSweep(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 60, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()
	l.allow("a", now)
	l.allow("b", now)
	if l.size() != 2 {
		t.Fatalf("size = %d", l.size())
	}
	l.allow("c", now.Add(2*time.Minute))
	if l.size() != 1 {
		t.Errorf("idle visitors not swept, size = %d", l.size())
	}

	// refill after a second at 60/min
	ok, _, _ := l.allow("c", now.Add(2*time.Minute))
	if ok {
		t.Error("bucket of 1 allowed twice at the same instant")
	}
	ok, _, _ = l.allow("c", now.Add(2*time.Minute+time.Second))
	if !ok {
		t.Error("bucket did not refill")
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"qr.domain.ext", "*.example.com"}, logger.Nop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"qr.domain.ext", http.StatusOK},
		{"QR.domain.ext:8443", http.StatusOK},
		{"a.example.com", http.StatusOK},
		{"evil.ext", http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := do(h, "GET", "/api/links", func(r *http.Request) { r.Host = tt.host })
		if rec.Code != tt.want {
			t.Errorf("Host %q: status %d, want %d", tt.host, rec.Code, tt.want)
		}
	}

	open := EnforceHost(nil, logger.Nop())(okHandler)
	if rec := do(open, "GET", "/", nil); rec.Code != http.StatusOK {
		t.Errorf("passthrough status %d", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(okHandler)

	if rec := do(h, "GET", "/metrics", func(r *http.Request) { r.RemoteAddr = "10.1.1.1:80" }); rec.Code != http.StatusOK {
		t.Errorf("allowed IP: status %d", rec.Code)
	}
	rec := do(h, "GET", "/metrics", func(r *http.Request) {
		r.RemoteAddr = "8.8.8.8:80"
		r.Header.Set("X-Forwarded-For", "10.1.1.1")
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("spoofed XFF without trust: status %d", rec.Code)
	}
}

type stubVerifier struct {
	valid string
	err   error
}

func (s stubVerifier) Verify(_ context.Context, token string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return token != "" && token == s.valid, nil
}

func TestRequireSession(t *testing.T) {
	h := RequireSession(stubVerifier{valid: "tok"}, logger.Nop())(okHandler)

	withCookie := func(v string) func(*http.Request) {
		return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: v}) }
	}

	if rec := do(h, "GET", "/api/links", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no cookie: status %d", rec.Code)
	}
	rec := do(h, "GET", "/api/links", withCookie("nope"))
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Unauthorized") {
		t.Errorf("bad cookie: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(h, "GET", "/api/links", withCookie("tok")); rec.Code != http.StatusOK {
		t.Errorf("good cookie: status %d", rec.Code)
	}

	broken := RequireSession(stubVerifier{err: errors.New("redis down")}, logger.Nop())(okHandler)
	rec = do(broken, "GET", "/api/links", withCookie("tok"))
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "redis") {
		t.Errorf("storage failure leaked or wrong status: %d %q", rec.Code, rec.Body.String())
	}
}

func TestHeaders(t *testing.T) {
	h := SecureHeaders(NoStore(okHandler))
	rec := do(h, "GET", "/", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("headers = %v", rec.Header())
	}
}

func TestLogCapturesStatus(t *testing.T) {
	h := Log(logger.Nop(), false, "/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	if rec := do(h, "GET", "/", nil); rec.Code != http.StatusTeapot {
		t.Errorf("status %d", rec.Code)
	}
}
