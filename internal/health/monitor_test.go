package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/store/cache"
	"github.com/nulzo/provider-hub/internal/store/sqlite"
	"github.com/nulzo/provider-hub/pkg/api"
)

func TestMonitor_RunOnceAndLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	repo, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "health.db"), nil)
	require.NoError(t, err)
	defer repo.Close()

	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	targets := func() []health.Target {
		return []health.Target{{Provider: newProvider(t, ""), Conn: api.ConnectionInfo{BaseURL: server.URL}}}
	}

	m, err := health.NewMonitor(health.NewProber(zap.NewNop()), targets, mem, repo.Health(), zap.NewNop(),
		health.MonitorConfig{Interval: time.Hour, Timeout: time.Second, TTL: time.Minute, Retention: time.Hour})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = health.Latest(ctx, mem, repo.Health(), nil, "Tachyon")
	assert.ErrorIs(t, err, health.ErrNoReading)

	results := m.RunOnce(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, api.HealthOperational, results[0].State)

	latest, err := health.Latest(ctx, mem, repo.Health(), nil, "Tachyon")
	require.NoError(t, err)
	assert.Equal(t, api.HealthOperational, latest.State)

	// no cache: falls back to the store
	latest, err = health.Latest(ctx, nil, repo.Health(), nil, "Tachyon")
	require.NoError(t, err)
	assert.Equal(t, results[0].ID, latest.ID)

	stored, err := repo.Health().Recent(ctx, "Tachyon", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMonitor_Start(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	targets := func() []health.Target {
		return []health.Target{{Provider: newProvider(t, ""), Conn: api.ConnectionInfo{BaseURL: server.URL}}}
	}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	m, err := health.NewMonitor(health.NewProber(zap.NewNop()), targets, mem, nil, zap.NewNop(),
		health.MonitorConfig{Interval: 20 * time.Millisecond, Timeout: time.Second, TTL: time.Minute})
	require.NoError(t, err)

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Stop())

	latest, err := health.Latest(context.Background(), mem, nil, nil, "Tachyon")
	require.NoError(t, err)
	assert.Equal(t, api.HealthOperational, latest.State)
}

func TestNewMonitor_RequiresInterval(t *testing.T) {
	_, err := health.NewMonitor(health.NewProber(nil), nil, nil, nil, nil, health.MonitorConfig{})
	assert.Error(t, err)
}
