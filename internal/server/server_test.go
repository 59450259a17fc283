package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/catalog"
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/llm"
	_ "github.com/nulzo/provider-hub/internal/llm/lmstudio"
	_ "github.com/nulzo/provider-hub/internal/llm/ollama"
	_ "github.com/nulzo/provider-hub/internal/llm/openai"
	_ "github.com/nulzo/provider-hub/internal/llm/tachyon"
	"github.com/nulzo/provider-hub/internal/platform/metrics"
	"github.com/nulzo/provider-hub/internal/store/cache"
	"github.com/nulzo/provider-hub/internal/store/sqlite"
	"github.com/nulzo/provider-hub/pkg/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

// MockService mocks gateway.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Providers(ctx context.Context, onlyEnabled bool) []api.ProviderView {
	args := m.Called(ctx, onlyEnabled)
	return args.Get(0).([]api.ProviderView)
}

func (m *MockService) Provider(ctx context.Context, name string) (api.ProviderView, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(api.ProviderView), args.Error(1)
}

func (m *MockService) UpdateSettings(ctx context.Context, name string, patch api.SettingsPatch) (api.ProviderView, error) {
	args := m.Called(ctx, name, patch)
	return args.Get(0).(api.ProviderView), args.Error(1)
}

func (m *MockService) Connection(ctx context.Context, name string, apiKeys map[string]string) (api.ConnectionInfo, error) {
	args := m.Called(ctx, name, apiKeys)
	return args.Get(0).(api.ConnectionInfo), args.Error(1)
}

func (m *MockService) Models(ctx context.Context, name string, apiKeys map[string]string) (catalog.Result, error) {
	args := m.Called(ctx, name, apiKeys)
	return args.Get(0).(catalog.Result), args.Error(1)
}

func (m *MockService) ModelHandle(ctx context.Context, name, model string, apiKeys map[string]string) (llm.Handle, error) {
	args := m.Called(ctx, name, model, apiKeys)
	if h := args.Get(0); h != nil {
		return h.(llm.Handle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) CheckHealth(ctx context.Context, name string, apiKeys map[string]string) (api.HealthStatus, error) {
	args := m.Called(ctx, name, apiKeys)
	return args.Get(0).(api.HealthStatus), args.Error(1)
}

func (m *MockService) LatestHealth(ctx context.Context, name string) (*api.HealthStatus, error) {
	args := m.Called(ctx, name)
	if s := args.Get(0); s != nil {
		return s.(*api.HealthStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) HealthHistory(ctx context.Context, name string, limit int) ([]api.HealthStatus, error) {
	args := m.Called(ctx, name, limit)
	if r := args.Get(0); r != nil {
		return r.([]api.HealthStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) HealthTargets() []health.Target {
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestModels_PassesSessionKey(t *testing.T) {
	svc := new(MockService)
	svc.On("Models", mock.Anything, "Tachyon", map[string]string{"Tachyon": "sk-session"}).Return(catalog.Result{
		Models:  []api.ModelInfo{{Name: "tachyon-model", Label: "Tachyon Model (Default)", Provider: "Tachyon", MaxTokenAllowed: 8000}},
		Outcome: catalog.OutcomeFallback,
		Source:  catalog.SourceStatic,
		Reason:  catalog.ErrNoEndpoint,
	}, nil)

	s := New(testConfig(), zap.NewNop(), svc, prometheus.NewRegistry())
	w := do(t, s.Handler(), http.MethodGet, "/v1/providers/Tachyon/models", "", map[string]string{"X-Provider-Key": "sk-session"})

	require.Equal(t, http.StatusOK, w.Code)
	var body api.ModelList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "list", body.Object)
	assert.Equal(t, "fallback", body.Outcome)
	assert.Equal(t, "static", body.Source)
	assert.Equal(t, catalog.ErrNoEndpoint.Error(), body.Reason)
	require.Len(t, body.Data, 1)
	svc.AssertExpectations(t)
}

func TestUnknownProvider_IsProblem404(t *testing.T) {
	svc := new(MockService)
	svc.On("Provider", mock.Anything, "Nope").Return(api.ProviderView{}, gateway.ErrProviderNotFound)

	s := New(testConfig(), zap.NewNop(), svc, prometheus.NewRegistry())
	w := do(t, s.Handler(), http.MethodGet, "/v1/providers/Nope", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "Not Found", problem["title"])
	assert.Equal(t, "/v1/providers/Nope", problem["instance"])
}

func TestUpdateSettings_Validation(t *testing.T) {
	svc := new(MockService)
	s := New(testConfig(), zap.NewNop(), svc, prometheus.NewRegistry())

	w := do(t, s.Handler(), http.MethodPatch, "/v1/providers/Tachyon/settings", `{"baseUrl":"not a url"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Error", problem["title"])
	assert.Contains(t, problem["errors"], "baseUrl")
	svc.AssertNotCalled(t, "UpdateSettings", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_RequiresModel(t *testing.T) {
	s := New(testConfig(), zap.NewNop(), new(MockService), prometheus.NewRegistry())

	w := do(t, s.Handler(), http.MethodGet, "/v1/providers/Tachyon/handle", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLatestHealth_NoReading(t *testing.T) {
	svc := new(MockService)
	svc.On("LatestHealth", mock.Anything, "Tachyon").Return(nil, health.ErrNoReading)

	s := New(testConfig(), zap.NewNop(), svc, prometheus.NewRegistry())
	w := do(t, s.Handler(), http.MethodGet, "/v1/providers/Tachyon/health/latest", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	svc := new(MockService)
	svc.On("Providers", mock.Anything, false).Return([]api.ProviderView{})

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	s := New(cfg, zap.NewNop(), svc, prometheus.NewRegistry())

	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/v1/providers", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s.Handler(), http.MethodGet, "/v1/providers", "", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := New(testConfig(), zap.NewNop(), new(MockService), prometheus.NewRegistry())

	w := do(t, s.Handler(), http.MethodOptions, "/v1/providers/Tachyon/settings", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Provider-Key")
}

// newIntegrationServer wires the real service against sqlite and a fake provider.
func newIntegrationServer(t *testing.T, upstream *httptest.Server) (*Server, *prometheus.Registry) {
	t.Helper()

	repo, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "server.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	registry, err := gateway.Bootstrap(context.Background(), config.DefaultProviders(), repo.Settings(), zap.NewNop())
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	svc := gateway.NewService(gateway.Deps{
		Registry:      registry,
		Catalog:       catalog.New(zap.NewNop(), catalog.WithMetrics(m), catalog.WithTimeout(time.Second)),
		Prober:        health.NewProber(zap.NewNop(), health.WithMetrics(m)),
		Repo:          repo,
		Cache:         cache.NewMemoryCache(time.Minute, time.Minute),
		ServerEnv:     map[string]string{"TACHYON_API_BASE_URL": upstream.URL + "/v1"},
		HealthTimeout: time.Second,
	})

	return New(testConfig(), zap.NewNop(), svc, promReg), promReg
}

func TestIntegration_ProviderLifecycle(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusOK)
				return
			}
			_, _ = w.Write([]byte(`[{"id":"a","type":"chat"},{"id":"b","type":"image"},{"id":"c"}]`))
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"pong"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	s, promReg := newIntegrationServer(t, upstream)
	h := s.Handler()
	key := map[string]string{"X-Provider-Key": "sk-session"}

	// only Tachyon is enabled out of the box
	w := do(t, h, http.MethodGet, "/v1/providers?enabled=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []api.ProviderView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Tachyon", list.Data[0].Name)

	// remote discovery with the session key
	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/models", "", key)
	require.Equal(t, http.StatusOK, w.Code)
	var models api.ModelList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &models))
	assert.Equal(t, "remote", models.Source)
	require.Len(t, models.Data, 2)
	assert.Equal(t, "a", models.Data[0].Name)
	assert.Equal(t, "c", models.Data[1].Name)

	// operator override wins over discovery
	w = do(t, h, http.MethodPatch, "/v1/providers/Tachyon/settings", `{"models":"m1, m2"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/models", "", key)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &models))
	assert.Equal(t, "override", models.Source)
	require.Len(t, models.Data, 2)

	// health
	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status api.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, api.HealthOperational, status.State)

	// handle and completion
	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/handle?model=m1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info api.HandleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, upstream.URL+"/v1", info.BaseURL)
	assert.True(t, info.HasKey)

	w = do(t, h, http.MethodPost, "/v1/providers/Tachyon/chat", `{"model":"m1","messages":[{"role":"user","content":"ping"}]}`, key)
	require.Equal(t, http.StatusOK, w.Code)
	var completion api.CompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &completion))
	assert.Equal(t, "pong", completion.Content)

	// disable
	w = do(t, h, http.MethodPatch, "/v1/providers/Tachyon/settings", `{"enabled":false}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/v1/providers?enabled=true", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Data)

	// metrics were recorded on the injected registry
	w = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "provider_hub_discovery_total")

	families, err := promReg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestIntegration_BlankModelIsBadRequest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call to %s", r.URL.Path)
	}))
	defer upstream.Close()

	s, _ := newIntegrationServer(t, upstream)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/v1/providers/Tachyon/handle?model=%20%20", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	var problem api.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "Bad Request", problem.Title)
	assert.Equal(t, llm.ErrModelRequired.Error(), problem.Detail)

	w = do(t, h, http.MethodPost, "/v1/providers/Tachyon/chat", `{"model":"  ","messages":[{"role":"user","content":"ping"}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// surrounding whitespace is not part of the model name
	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/handle?model=%20m1%20", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info api.HandleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "m1", info.Model)
}

func TestHealthHistory(t *testing.T) {
	latency := int64(15)
	readings := []api.HealthStatus{
		{ID: "r2", Provider: "Tachyon", State: api.HealthOperational, ResponseTimeMs: &latency},
		{ID: "r1", Provider: "Tachyon", State: api.HealthDown, Message: "connection refused"},
	}
	svc := new(MockService)
	svc.On("HealthHistory", mock.Anything, "Tachyon", 2).Return(readings, nil)
	svc.On("HealthHistory", mock.Anything, "Nope", 0).Return(nil, gateway.ErrProviderNotFound)

	s := New(testConfig(), zap.NewNop(), svc, prometheus.NewRegistry())
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/v1/providers/Tachyon/health/history?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Object string             `json:"object"`
		Data   []api.HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "list", body.Object)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "r2", body.Data[0].ID)

	w = do(t, h, http.MethodGet, "/v1/providers/Nope/health/history", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/v1/providers/Tachyon/health/history?limit=1000", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}
