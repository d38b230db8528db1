package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/sources/seed"
)

// SeedResult summarizes one import pass.
type SeedResult struct {
	Created  int
	Existing int
	Rejected int
}

// SeedReloader imports the seed file periodically and on demand.
// Existing slugs are never overwritten.
type SeedReloader struct {
	loader        *seed.Loader
	registry      *links.Registry
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

func NewSeedReloader(
	seedFile string,
	registry *links.Registry,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        seed.NewLoader(seedFile),
		registry:      registry,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then keeps importing every interval.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if _, err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to import seed file",
						logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed import triggered")
				if _, err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to import seed file",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Reload creates every valid seed entry whose slug is still free.
func (sr *SeedReloader) Reload(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	file, err := sr.loader.Load()
	if err != nil {
		return res, err
	}

	inputs, rejected := seed.Map(file)
	for _, r := range rejected {
		sr.logger.Warn("skipping invalid seed entry",
			logger.Int("index", r.Index),
			logger.String("slug", r.Slug),
			logger.Error(r.Err))
	}
	res.Rejected = len(rejected)

	for _, in := range inputs {
		_, err := sr.registry.Create(ctx, in)
		switch {
		case err == nil:
			res.Created++
			sr.metrics.SeededLinks.Inc()
			sr.metrics.LinkOperations.WithLabelValues("create").Inc()
		case errors.Is(err, domain.ErrDuplicateSlug):
			res.Existing++
		default:
			return res, fmt.Errorf("failed to create seed link %q: %w", in.Slug, err)
		}
	}

	sr.logger.Info("seed file imported",
		logger.String("file", sr.loader.Path()),
		logger.Int("created", res.Created),
		logger.Int("existing", res.Existing),
		logger.Int("rejected", res.Rejected))
	return res, nil
}
