package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/cmd"
	"github.com/nulzo/provider-hub/internal/catalog"
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/platform/logger"
	"github.com/nulzo/provider-hub/internal/platform/metrics"
	"github.com/nulzo/provider-hub/internal/platform/otel"
	"github.com/nulzo/provider-hub/internal/server"
	"github.com/nulzo/provider-hub/internal/store/cache"
	"github.com/nulzo/provider-hub/internal/store/sqlite"

	// provider types register themselves in init()
	_ "github.com/nulzo/provider-hub/internal/llm/lmstudio"
	_ "github.com/nulzo/provider-hub/internal/llm/ollama"
	_ "github.com/nulzo/provider-hub/internal/llm/openai"
	_ "github.com/nulzo/provider-hub/internal/llm/tachyon"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.Initialize(cfg.Log)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cmd.CheckForUpdates(ctx, log)

	shutdownTracer, err := otel.InitTracer(cfg.Tracing, log, os.Stdout)
	if err != nil {
		log.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.Path, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		_ = repo.Close()
	}()

	var cacheStore cache.CacheService
	if cfg.Redis.Enabled {
		cacheStore, err = cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		log.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheStore = cache.NewMemoryCache(cfg.Health.TTL, 10*time.Minute)
	}
	defer func() {
		_ = cacheStore.Close()
	}()

	registry, err := gateway.Bootstrap(ctx, cfg.Providers, repo.Settings(), log)
	if err != nil {
		log.Fatal("failed to register providers", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// discovery and probes share one connection pool per provider host
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	upstream := &http.Client{Transport: transport}

	prober := health.NewProber(log, health.WithMetrics(m), health.WithHTTPClient(upstream))
	models := catalog.New(log,
		catalog.WithMetrics(m),
		catalog.WithTimeout(cfg.Discovery.Timeout),
		catalog.WithHTTPClient(upstream),
	)
	service := gateway.NewService(gateway.Deps{
		Registry:      registry,
		Catalog:       models,
		Prober:        prober,
		Repo:          repo,
		Cache:         cacheStore,
		ServerEnv:     config.ServerEnv(),
		Logger:        log,
		HealthTimeout: cfg.Health.Timeout,
	})

	if cfg.Health.Enabled {
		monitor, err := health.NewMonitor(prober, service.HealthTargets, cacheStore, repo.Health(), log, health.MonitorConfig{
			Interval:  cfg.Health.Interval,
			Timeout:   cfg.Health.Timeout,
			TTL:       cfg.Health.TTL,
			Retention: cfg.Health.Retention,
		})
		if err != nil {
			log.Fatal("failed to create health monitor", zap.Error(err))
		}
		if err := monitor.Start(ctx); err != nil {
			log.Fatal("failed to start health monitor", zap.Error(err))
		}
		defer func() {
			_ = monitor.Stop()
		}()
	}

	srv := server.New(cfg, log, service, prometheus.DefaultGatherer)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
	}
}
