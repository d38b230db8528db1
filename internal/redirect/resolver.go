package redirect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
)

const defaultClickTimeout = 5 * time.Second

// LinkSource is the slice of the link registry the resolver needs.
type LinkSource interface {
	Get(ctx context.Context, slug string) (domain.Link, error)
	IncrementClicks(ctx context.Context, slug string) (int64, error)
}

// Resolver is the public read path: slug in, destination out.
type Resolver struct {
	links        LinkSource
	cache        *Cache
	metrics      *metrics.Metrics
	log          logger.Logger
	clickTimeout time.Duration

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewResolver(links LinkSource, cache *Cache, m *metrics.Metrics, log logger.Logger) *Resolver {
	return &Resolver{
		links:        links,
		cache:        cache,
		metrics:      m,
		log:          log,
		clickTimeout: defaultClickTimeout,
	}
}

// Resolve returns the destination of slug and schedules a click increment.
// An unknown slug yields domain.ErrLinkNotFound; the caller falls back home.
func (r *Resolver) Resolve(ctx context.Context, slug string) (string, error) {
	if dest, ok := r.cache.Get(slug); ok {
		r.countClick(slug)
		return dest, nil
	}

	link, err := r.links.Get(ctx, slug)
	if err != nil {
		return "", err
	}

	r.cache.Set(slug, link.Destination)
	r.countClick(slug)
	return link.Destination, nil
}

// Forget drops a cached destination. Wired to registry changes.
func (r *Resolver) Forget(slug string) {
	r.cache.Forget(slug)
}

// countClick increments in the background. The redirect never waits on it
// and its failures only reach the logs and metrics.
func (r *Resolver) countClick(slug string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Debug("click dropped after drain", logger.String("slug", slug))
		return
	}
	r.pending.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.clickTimeout)
		defer cancel()

		if _, err := r.links.IncrementClicks(ctx, slug); err != nil {
			if errors.Is(err, domain.ErrLinkNotFound) {
				// deleted right after the lookup
				r.log.Debug("click dropped for vanished link", logger.String("slug", slug))
				return
			}
			r.metrics.ClickFailures.Inc()
			r.log.Warn("failed to increment clicks",
				logger.String("slug", slug),
				logger.Error(err))
		}
	}()
}

// Drain stops scheduling click increments, then waits for the ones in
// flight. Resolve keeps answering afterwards but no longer counts.
func (r *Resolver) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Wait(ctx)
}

// Wait blocks until in-flight click increments finish or ctx ends.
// Callers must not resolve concurrently; use Drain at shutdown.
func (r *Resolver) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CacheStats reports the redirect cache counters.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.Stats()
}
