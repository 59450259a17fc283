package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/catalog"
	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/store"
	"github.com/nulzo/provider-hub/internal/store/cache"
	"github.com/nulzo/provider-hub/internal/store/model"
	"github.com/nulzo/provider-hub/pkg/api"
)

// Service is the provider management surface used by the HTTP API and the CLI.
type Service interface {
	Providers(ctx context.Context, onlyEnabled bool) []api.ProviderView
	Provider(ctx context.Context, name string) (api.ProviderView, error)
	// UpdateSettings persists the patched overlay and then publishes it.
	UpdateSettings(ctx context.Context, name string, patch api.SettingsPatch) (api.ProviderView, error)

	// Connection resolves the endpoint of name. Session keys are indexed by provider name.
	Connection(ctx context.Context, name string, apiKeys map[string]string) (api.ConnectionInfo, error)
	Models(ctx context.Context, name string, apiKeys map[string]string) (catalog.Result, error)
	ModelHandle(ctx context.Context, name, model string, apiKeys map[string]string) (llm.Handle, error)

	CheckHealth(ctx context.Context, name string, apiKeys map[string]string) (api.HealthStatus, error)
	LatestHealth(ctx context.Context, name string) (*api.HealthStatus, error)
	// HealthHistory returns up to limit stored readings of name, newest first.
	HealthHistory(ctx context.Context, name string, limit int) ([]api.HealthStatus, error)
	// HealthTargets lists the enabled providers with their server side connection.
	HealthTargets() []health.Target
}

type Deps struct {
	Registry  *Registry
	Catalog   *catalog.Catalog
	Prober    *health.Prober
	Repo      store.Repository
	Cache     cache.CacheService
	ServerEnv map[string]string
	Logger    *zap.Logger

	HealthTimeout time.Duration
}

type service struct {
	registry      *Registry
	catalog       *catalog.Catalog
	prober        *health.Prober
	repo          store.Repository
	cache         cache.CacheService
	serverEnv     map[string]string
	logger        *zap.Logger
	healthTimeout time.Duration
}

func NewService(d Deps) Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.ServerEnv == nil {
		d.ServerEnv = map[string]string{}
	}
	return &service{
		registry:      d.Registry,
		catalog:       d.Catalog,
		prober:        d.Prober,
		repo:          d.Repo,
		cache:         d.Cache,
		serverEnv:     d.ServerEnv,
		logger:        d.Logger.Named("gateway"),
		healthTimeout: d.HealthTimeout,
	}
}

func (s *service) Providers(_ context.Context, onlyEnabled bool) []api.ProviderView {
	entries := s.registry.List(onlyEnabled)
	views := make([]api.ProviderView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	return views
}

func (s *service) Provider(_ context.Context, name string) (api.ProviderView, error) {
	e, err := s.registry.Get(name)
	if err != nil {
		return api.ProviderView{}, err
	}
	return e.View(), nil
}

func (s *service) UpdateSettings(ctx context.Context, name string, patch api.SettingsPatch) (api.ProviderView, error) {
	var err error
	if s.repo == nil {
		_, err = s.registry.SetSettings(name, patch)
	} else {
		_, err = s.registry.Update(name, func(cur api.ProviderSettings) (api.ProviderSettings, error) {
			next := patch.Apply(cur)
			if err := s.repo.Settings().Upsert(ctx, model.SettingsFromAPI(name, next)); err != nil {
				return cur, fmt.Errorf("failed to persist settings of %s: %w", name, err)
			}
			return next, nil
		})
	}
	if err != nil {
		return api.ProviderView{}, err
	}

	s.logger.Info("provider settings updated",
		zap.String("provider", name),
		zap.Bool("enabled_changed", patch.Enabled != nil),
		zap.Bool("base_url_changed", patch.BaseURL != nil),
		zap.Bool("api_key_changed", patch.APIKey != nil),
		zap.Bool("models_changed", patch.Models != nil),
	)

	return s.Provider(ctx, name)
}

func (s *service) Connection(_ context.Context, name string, apiKeys map[string]string) (api.ConnectionInfo, error) {
	e, err := s.registry.Get(name)
	if err != nil {
		return api.ConnectionInfo{}, err
	}
	return llm.ConnectionFor(e.Provider, apiKeys, e.Settings, s.serverEnv), nil
}

func (s *service) Models(ctx context.Context, name string, apiKeys map[string]string) (catalog.Result, error) {
	e, err := s.registry.Get(name)
	if err != nil {
		return catalog.Result{}, err
	}
	conn := llm.ConnectionFor(e.Provider, apiKeys, e.Settings, s.serverEnv)
	return s.catalog.Discover(ctx, e.Provider, conn, e.Settings), nil
}

func (s *service) ModelHandle(_ context.Context, name, model string, apiKeys map[string]string) (llm.Handle, error) {
	e, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return llm.NewHandle(e.Provider, model, apiKeys, e.Settings, s.serverEnv)
}

func (s *service) CheckHealth(ctx context.Context, name string, apiKeys map[string]string) (api.HealthStatus, error) {
	e, err := s.registry.Get(name)
	if err != nil {
		return api.HealthStatus{}, err
	}
	conn := llm.ConnectionFor(e.Provider, apiKeys, e.Settings, s.serverEnv)
	return s.prober.Check(ctx, e.Provider, conn, s.healthTimeout), nil
}

func (s *service) LatestHealth(ctx context.Context, name string) (*api.HealthStatus, error) {
	if _, err := s.registry.Get(name); err != nil {
		return nil, err
	}
	var readings store.HealthRepository
	if s.repo != nil {
		readings = s.repo.Health()
	}
	return health.Latest(ctx, s.cache, readings, s.logger, name)
}

func (s *service) HealthHistory(ctx context.Context, name string, limit int) ([]api.HealthStatus, error) {
	if _, err := s.registry.Get(name); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return []api.HealthStatus{}, nil
	}
	readings, err := s.repo.Health().Recent(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load health history of %s: %w", name, err)
	}
	if readings == nil {
		readings = []api.HealthStatus{}
	}
	return readings, nil
}

func (s *service) HealthTargets() []health.Target {
	entries := s.registry.List(true)
	targets := make([]health.Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, health.Target{
			Provider: e.Provider,
			Conn:     llm.ConnectionFor(e.Provider, nil, e.Settings, s.serverEnv),
		})
	}
	return targets
}
