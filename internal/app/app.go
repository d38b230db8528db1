package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/auth"
	"github.com/MrSnakeDoc/qrlink/internal/config"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/mw"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/redirect"
	"github.com/MrSnakeDoc/qrlink/internal/redis"
	"github.com/MrSnakeDoc/qrlink/internal/scheduler"
	"github.com/MrSnakeDoc/qrlink/internal/store"
	"github.com/MrSnakeDoc/qrlink/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/qrlink/internal/store/redis"
	"github.com/MrSnakeDoc/qrlink/internal/utils"
	"github.com/MrSnakeDoc/qrlink/internal/version"
)

// resolveCacheItems bounds the redirect cache.
const resolveCacheItems = 10_000

type stopper interface {
	Start() error
	Stop(ctx context.Context) error
}

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   stopper
	store    store.Store
	cache    *redirect.Cache
	resolver *redirect.Resolver
	sweeper  *scheduler.Sweeper
	seeder   *scheduler.SeedReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The backend is chosen once; nothing falls back at runtime.
	st, err := openStore(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open store: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized", logger.String("backend", st.Backend()))

	m := metrics.New()

	limiter := auth.NewLimiter(st, auth.LimiterOptions{
		Window:      cfg.LoginWindow,
		MaxAttempts: cfg.LoginMaxAttempts,
		Lockout:     cfg.LoginLockout,
	})
	manager := auth.NewManager(st, limiter, auth.Options{
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionTTL,
	}, loggerClient)

	registry := links.NewRegistry(st, loggerClient)

	cache, err := redirect.NewCache(cfg.ResolveCacheTTL, resolveCacheItems)
	if err != nil {
		loggerClient.Errorf("Failed to build redirect cache: %v", err)
		os.Exit(1)
	}
	resolver := redirect.NewResolver(registry, cache, m, loggerClient)
	registry.OnChange(resolver.Forget)

	sweeper := scheduler.NewSweeper(st, limiter, m, loggerClient, cfg.SweepInterval)

	var seeder *scheduler.SeedReloader
	var reloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile))
		reloadTrigger = make(chan struct{}, 1)
		seeder = scheduler.NewSeedReloader(
			cfg.SeedFile,
			registry,
			m,
			loggerClient,
			cfg.SeedInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, links are managed through the API only")
	}

	throttle := mw.RateLimit(mw.RateLimitConfig{
		Burst:             cfg.RequestBurst,
		RefillPerIPPerMin: cfg.RequestPerMin,
		MaxEntries:        10_000,
		SweepInterval:     time.Minute,
		IdleTTL:           10 * time.Minute,
		TrustProxy:        cfg.TrustProxy,
		OnReject:          m.ThrottledHTTP.Inc,
	})

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Store:         st,
		Auth:          manager,
		Links:         registry,
		Resolver:      resolver,
		Metrics:       m,
		BaseURL:       cfg.BaseURL,
		HomeURL:       cfg.HomeURL,
		SecureCookies: cfg.IsProduction(),
		Throttle:      throttle,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    st,
		cache:    cache,
		resolver: resolver,
		sweeper:  sweeper,
		seeder:   seeder,
	}
}

func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	if !cfg.UsesRedis() {
		log.Warn("no Redis URL configured, using the in-memory store: data is lost on restart")
		return memory.New(), nil
	}

	client, err := redis.New(redis.ConnectOptions{
		URL:            cfg.RedisURL,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, err
	}
	return redisstore.NewStore(client), nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting qrlink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("qrlink %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.seeder != nil {
		if err := a.seeder.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	a.logger.Info("sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.shutdownWorkers()
		return err
	}

	a.shutdownWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.teardown(shutdownCtx)
}

// teardown stops the server, then releases everything else even when the
// server did not stop in time.
func (a *App) teardown(shutdownCtx context.Context) error {
	stopErr := a.server.Stop(shutdownCtx)
	if stopErr != nil {
		a.logger.Error("failed to stop server cleanly", logger.Error(stopErr))
	}

	// Click increments still in flight get the rest of the shutdown budget.
	if err := a.resolver.Drain(shutdownCtx); err != nil {
		a.logger.Warn("pending click updates dropped", logger.Error(err))
	}

	a.cache.Close()
	utils.CloseLogged(a.store, a.store.Backend()+" store", a.logger)

	if stopErr != nil {
		return fmt.Errorf("failed to stop server: %w", stopErr)
	}
	a.logger.Info("✅ qrlink stopped cleanly")
	return nil
}

func (a *App) shutdownWorkers() {
	if a.seeder != nil {
		a.seeder.Stop()
	}
	a.sweeper.Stop()
}
