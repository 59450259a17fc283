package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/llm/openai"
	"github.com/nulzo/provider-hub/internal/platform/metrics"
	"github.com/nulzo/provider-hub/pkg/api"
)

func newProvider(t *testing.T, defaultURL string) llm.Provider {
	t.Helper()
	p, err := openai.NewAdapter(config.ProviderConfig{Name: "Tachyon", DefaultBaseURL: defaultURL})
	require.NoError(t, err)
	return p
}

func TestCheck_Operational(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	m := metrics.NewNop()
	prober := health.NewProber(zap.NewNop(), health.WithMetrics(m))

	status := prober.Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: server.URL + "/v1", APIKey: "secret"}, time.Second)

	assert.Equal(t, "Tachyon", status.Provider)
	assert.Equal(t, api.HealthOperational, status.State)
	assert.Equal(t, "Tachyon is reachable and responding.", status.Message)
	require.NotNil(t, status.ResponseTimeMs)
	assert.GreaterOrEqual(t, *status.ResponseTimeMs, int64(0))
	assert.False(t, status.LastCheckedAt.IsZero())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HealthChecks.WithLabelValues("Tachyon", "operational")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderHealth.WithLabelValues("Tachyon")))
}

func TestCheck_NoKeyNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	status := health.NewProber(nil).Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: server.URL}, time.Second)
	assert.Equal(t, api.HealthOperational, status.State)
}

func TestCheck_Degraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	status := health.NewProber(zap.NewNop()).Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: server.URL}, time.Second)

	assert.Equal(t, api.HealthDegraded, status.State)
	assert.Equal(t, "Tachyon responded with status: 503", status.Message)
	assert.NotNil(t, status.ResponseTimeMs)
}

func TestCheck_Down(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	status := health.NewProber(zap.NewNop()).Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: url}, time.Second)

	assert.Equal(t, api.HealthDown, status.State)
	assert.NotEmpty(t, status.Message)
	assert.False(t, status.LastCheckedAt.IsZero())
	// latency is recorded even when the connection fails
	require.NotNil(t, status.ResponseTimeMs)
	assert.GreaterOrEqual(t, *status.ResponseTimeMs, int64(0))
}

func TestCheck_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	status := health.NewProber(zap.NewNop()).Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: server.URL}, 50*time.Millisecond)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, api.HealthDown, status.State)
}

func TestCheck_DefaultBaseURL(t *testing.T) {
	var hit atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		assert.Equal(t, "/v1/models", r.URL.Path)
	}))
	defer server.Close()

	status := health.NewProber(zap.NewNop()).Check(context.Background(), newProvider(t, server.URL+"/v1"), api.ConnectionInfo{}, time.Second)

	assert.True(t, hit.Load())
	assert.Equal(t, api.HealthOperational, status.State)
}

func TestCheck_MalformedURL(t *testing.T) {
	status := health.NewProber(zap.NewNop()).Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: "http://bad host\x7f"}, time.Second)

	assert.Equal(t, api.HealthDown, status.State)
	assert.Nil(t, status.ResponseTimeMs)
}

type clientFunc func(*http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestCheck_WithHTTPClient(t *testing.T) {
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "http://tachyon.internal/v1/models", req.URL.String())
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       http.NoBody,
			Header:     http.Header{},
		}, nil
	})

	prober := health.NewProber(zap.NewNop(), health.WithHTTPClient(client))
	status := prober.Check(context.Background(), newProvider(t, ""), api.ConnectionInfo{BaseURL: "http://tachyon.internal/v1"}, time.Second)

	assert.Equal(t, api.HealthDegraded, status.State)
	assert.Equal(t, "Tachyon responded with status: 429", status.Message)
}
