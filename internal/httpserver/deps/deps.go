package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/auth"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/redirect"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to reach the admin API
	AllowedCIDRS []string // IPs allowed to access ops endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Store    store.Store        // backend chosen at startup
	Auth     *auth.Manager      // password + sessions
	Links    *links.Registry    // link CRUD
	Resolver *redirect.Resolver // public redirect path
	Metrics  *metrics.Metrics

	BaseURL       string // public origin for short URLs, derived from the request when empty
	HomeURL       string // fallback redirect for unknown slugs
	SecureCookies bool   // set Secure on the session cookie

	// Throttle is the shared per-IP limiter for public routes.
	// nil means no throttling.
	Throttle func(http.Handler) http.Handler

	ReloadTrigger chan struct{} // manual seed import, nil when no seed file is configured
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
