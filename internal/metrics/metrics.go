package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qrlink"

// Redirect results.
const (
	RedirectHit      = "hit"
	RedirectFallback = "fallback"
	RedirectError    = "error"
)

// Login outcomes.
const (
	LoginSuccess  = "success"
	LoginInvalid  = "invalid"
	LoginLocked   = "locked"
	LoginThrottle = "rate_limited"
	LoginRejected = "rejected"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Redirects      *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
	LinkOperations *prometheus.CounterVec
	ClickFailures  prometheus.Counter
	ThrottledHTTP  prometheus.Counter
	SweptRecords   *prometheus.CounterVec
	SeededLinks    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirects served, by result.",
		}, []string{"result"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),
		LinkOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_operations_total",
			Help:      "Successful link registry writes, by operation.",
		}, []string{"op"}),
		ClickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_increment_failures_total",
			Help:      "Click increments that failed after the redirect was sent.",
		}),
		ThrottledHTTP: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_throttled_total",
			Help:      "Requests rejected by the per-IP throttle.",
		}),
		SweptRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_records_total",
			Help:      "Expired records removed by the sweeper, by kind.",
		}, []string{"kind"}),
		SeededLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeded_links_total",
			Help:      "Links created from the seed file.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Redirects,
		m.LoginAttempts,
		m.LinkOperations,
		m.ClickFailures,
		m.ThrottledHTTP,
		m.SweptRecords,
		m.SeededLinks,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
