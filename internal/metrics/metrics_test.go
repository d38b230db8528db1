package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersExposed(t *testing.T) {
	m := New()
	m.Redirects.WithLabelValues(RedirectHit).Inc()
	m.Redirects.WithLabelValues(RedirectHit).Inc()
	m.LoginAttempts.WithLabelValues(LoginLocked).Inc()
	m.ClickFailures.Inc()

	if got := testutil.ToFloat64(m.Redirects.WithLabelValues(RedirectHit)); got != 2 {
		t.Errorf("redirects{hit} = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`qrlink_redirects_total{result="hit"} 2`,
		`qrlink_login_attempts_total{outcome="locked"} 1`,
		`qrlink_click_increment_failures_total 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestIndependentRegistries(t *testing.T) {
	// building twice must not panic on duplicate registration
	a, b := New(), New()
	a.ThrottledHTTP.Inc()
	if testutil.ToFloat64(b.ThrottledHTTP) != 0 {
		t.Error("registries share state")
	}
}
