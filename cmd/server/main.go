package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nutricycle/backend/internal/analytics"
	"github.com/nutricycle/backend/internal/delivery/http"
	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/internal/repository/postgres"
	"github.com/nutricycle/backend/internal/service"
	"github.com/nutricycle/backend/pkg/cache"
	"github.com/nutricycle/backend/pkg/config"
	"github.com/nutricycle/backend/pkg/logger"
	"github.com/nutricycle/backend/pkg/metrics"
)

const (
	version      = "1.0.0"
	layeredL1TTL = 5 * time.Second
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dependency Injection: Repository
	dataRepo, closeRepo := openRepository(ctx, cfg, log)
	defer closeRepo()

	// Dependency Injection: Cache
	respCache, err := openCache(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory cache",
			logger.String("backend", cfg.Cache.Backend),
			logger.Error(err),
		)
	}
	defer respCache.Close()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}

	// Dependency Injection: Services
	equivalence, err := analytics.EquivalenceFor(cfg.Analytics.EquivalenceVersion)
	if err != nil {
		log.Fatal("invalid equivalence version", logger.Error(err))
	}
	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal("invalid display timezone", logger.Error(err))
	}

	impactSvc := service.NewImpactService(dataRepo, respCache, recorder, log, service.Options{
		Equivalence: equivalence,
		Location:    loc,
		DefaultProfile: domain.ContainerProfile{
			TankVolumeLiters: cfg.Analytics.DefaultTankVolume,
			SoilVolumeLiters: cfg.Analytics.DefaultSoilVolume,
		},
		FleetConcurrency: cfg.Analytics.FleetConcurrency,
		RecentLogsLimit:  cfg.Analytics.RecentLogsLimit,
		CacheTTL:         cfg.Cache.TTL,
	})

	// Fiber App
	app := http.NewApp(impactSvc, http.RouterConfig{
		Version:      version,
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       log,
		Metrics:      recorder,
		MetricsPath:  cfg.Metrics.Path,
	}, fiber.Config{
		AppName:               "NutriCycle API v" + version,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("server starting",
			logger.String("addr", addr),
			logger.String("environment", cfg.Environment),
			logger.String("equivalence_version", equivalence.Version),
		)
		if err := app.Listen(addr); err != nil {
			log.Error("server error", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}
	log.Info("server exited gracefully")
}

// openRepository connects to PostgreSQL, falling back to the demo dataset
// when no database is configured or reachable.
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.DataRepository, func()) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, running with demo data only")
		return postgres.NewMockRepository(), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	pool, err := postgres.Connect(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Warn("could not connect to database, running with demo data only", logger.Error(err))
		return postgres.NewMockRepository(), func() {}
	}

	repo, err := postgres.NewPostgresRepository(pool, postgres.RetryPolicy{
		Attempts: cfg.Database.RetryAttempts,
		Backoff:  cfg.Database.RetryBackoff,
	})
	if err != nil {
		pool.Close()
		log.Fatal("failed to load queries", logger.Error(err))
	}

	log.Info("connected to PostgreSQL", logger.Int("max_conns", int(cfg.Database.MaxConns)))
	return repo, pool.Close
}

// openCache builds the configured backend. When redis cannot be reached it
// returns a memory cache together with the error.
func openCache(ctx context.Context, cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.CleanupEvery),
		)
	}
	redisCache := func() (*cache.RedisCache, error) {
		return cache.NewRedisCache(ctx,
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
		)
	}

	switch cfg.Cache.Backend {
	case "none":
		return cache.NopCache{}, nil
	case "redis":
		rc, err := redisCache()
		if err != nil {
			return memory(), err
		}
		return rc, nil
	case "layered":
		rc, err := redisCache()
		if err != nil {
			return memory(), err
		}
		// short L1 so instances converge quickly after invalidation
		return cache.NewLayeredCache(rc, layeredL1TTL,
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.CleanupEvery),
		), nil
	default:
		return memory(), nil
	}
}
