package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/auth"
	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// sweepable is implemented by backends that keep expired entries around.
type sweepable interface {
	Sweep() int
}

// SweepResult counts what one pass removed.
type SweepResult struct {
	Sessions   int
	RateLimits int
	Expired    int
}

// Sweeper purges expired sessions and stale rate-limit records. Readers
// already ignore them; this only reclaims space.
type Sweeper struct {
	store    store.Store
	limiter  *auth.Limiter
	metrics  *metrics.Metrics
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSweeper(
	s store.Store,
	limiter *auth.Limiter,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		store:    s,
		limiter:  limiter,
		metrics:  m,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one pass immediately, then every interval.
func (sw *Sweeper) Start(ctx context.Context) error {
	if _, err := sw.Collect(ctx); err != nil {
		sw.logger.Warn("initial sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(sw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sw.Collect(ctx); err != nil {
					sw.logger.Error("sweep failed",
						logger.Error(err))
				}
			case <-sw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() { close(sw.stopCh) })
}

// Collect runs one sweep pass.
func (sw *Sweeper) Collect(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := sw.now()

	sessions, err := sw.sweepPattern(ctx, store.SessionPattern(), func(data []byte) bool {
		return auth.SessionExpired(data, now)
	})
	if err != nil {
		return res, err
	}
	res.Sessions = sessions

	rateLimits, err := sw.sweepPattern(ctx, store.RateLimitPattern(), func(data []byte) bool {
		var rec domain.RateLimitRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return true
		}
		return sw.limiter.Stale(rec, now)
	})
	if err != nil {
		return res, err
	}
	res.RateLimits = rateLimits

	if s, ok := sw.store.(sweepable); ok {
		res.Expired = s.Sweep()
	}

	sw.metrics.SweptRecords.WithLabelValues("session").Add(float64(res.Sessions))
	sw.metrics.SweptRecords.WithLabelValues("ratelimit").Add(float64(res.RateLimits))
	sw.metrics.SweptRecords.WithLabelValues("expired").Add(float64(res.Expired))

	if total := res.Sessions + res.RateLimits + res.Expired; total > 0 {
		sw.logger.Info("sweep completed",
			logger.Int("sessions_deleted", res.Sessions),
			logger.Int("ratelimits_deleted", res.RateLimits),
			logger.Int("expired_reclaimed", res.Expired))
	} else {
		sw.logger.Debug("nothing to sweep")
	}
	return res, nil
}

func (sw *Sweeper) sweepPattern(ctx context.Context, pattern string, expired func([]byte) bool) (int, error) {
	keys, err := sw.store.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		data, err := sw.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		if !expired(data) {
			continue
		}
		if err := sw.store.Del(ctx, key); err != nil {
			sw.logger.Warn("failed to delete expired record",
				logger.String("key", key),
				logger.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}
