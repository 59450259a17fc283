package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/store"
	"github.com/nulzo/provider-hub/internal/store/cache"
	"github.com/nulzo/provider-hub/pkg/api"
)

// ErrNoReading is returned by Latest before the first probe of a provider.
var ErrNoReading = errors.New("no health reading yet")

// Target is one provider to poll together with its resolved connection.
type Target struct {
	Provider llm.Provider
	Conn     api.ConnectionInfo
}

// TargetFunc returns the providers to poll. It is called on every tick so
// enable toggles take effect without restarting the monitor.
type TargetFunc func() []Target

type MonitorConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	// TTL of the cached latest reading.
	TTL time.Duration
	// Retention of stored readings; zero keeps everything.
	Retention time.Duration
}

// Monitor polls providers on a schedule. Each reading replaces the previous
// one in the cache and is appended to the store.
type Monitor struct {
	prober    *Prober
	targets   TargetFunc
	cache     cache.CacheService
	readings  store.HealthRepository
	logger    *zap.Logger
	cfg       MonitorConfig
	scheduler gocron.Scheduler
}

func NewMonitor(prober *Prober, targets TargetFunc, c cache.CacheService, readings store.HealthRepository, logger *zap.Logger, cfg MonitorConfig) (*Monitor, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("health interval must be positive, got %s", cfg.Interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Monitor{
		prober:    prober,
		targets:   targets,
		cache:     c,
		readings:  readings,
		logger:    logger.Named("health.monitor"),
		cfg:       cfg,
		scheduler: scheduler,
	}, nil
}

// Start schedules the polling job and runs the first round immediately.
func (m *Monitor) Start(ctx context.Context) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(m.cfg.Interval),
		gocron.NewTask(func() {
			m.RunOnce(ctx)
		}),
		gocron.WithName("provider_health"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule health job: %w", err)
	}

	m.scheduler.Start()
	m.logger.Info("health monitor started", zap.Duration("interval", m.cfg.Interval))
	return nil
}

func (m *Monitor) Stop() error {
	return m.scheduler.Shutdown()
}

// RunOnce probes every target concurrently and stores the readings.
func (m *Monitor) RunOnce(ctx context.Context) []api.HealthStatus {
	targets := m.targets()
	results := make([]api.HealthStatus, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			results[i] = m.prober.Check(ctx, t.Provider, t.Conn, m.cfg.Timeout)
			m.record(ctx, &results[i])
		}(i, t)
	}
	wg.Wait()

	if m.cfg.Retention > 0 && m.readings != nil {
		if n, err := m.readings.Prune(ctx, time.Now().Add(-m.cfg.Retention)); err != nil {
			m.logger.Warn("failed to prune health readings", zap.Error(err))
		} else if n > 0 {
			m.logger.Debug("pruned health readings", zap.Int64("count", n))
		}
	}

	return results
}

func (m *Monitor) record(ctx context.Context, status *api.HealthStatus) {
	if m.readings != nil {
		if err := m.readings.Record(ctx, status); err != nil {
			m.logger.Error("failed to store health reading", zap.String("provider", status.Provider), zap.Error(err))
		}
	}
	if m.cache != nil {
		if err := m.cache.Set(ctx, cacheKey(status.Provider), status, m.cfg.TTL); err != nil {
			m.logger.Warn("failed to cache health reading", zap.String("provider", status.Provider), zap.Error(err))
		}
	}
}

// Latest looks up the last reading written by a Monitor, from the cache when
// possible and from the store otherwise. Either source may be nil.
func Latest(ctx context.Context, c cache.CacheService, readings store.HealthRepository, logger *zap.Logger, provider string) (*api.HealthStatus, error) {
	if c != nil {
		var status api.HealthStatus
		err := c.Get(ctx, cacheKey(provider), &status)
		if err == nil {
			return &status, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && logger != nil {
			logger.Warn("health cache read failed", zap.String("provider", provider), zap.Error(err))
		}
	}

	if readings == nil {
		return nil, ErrNoReading
	}
	status, err := readings.Latest(ctx, provider)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoReading
	}
	return status, err
}

func cacheKey(provider string) string {
	return "health:" + provider
}
