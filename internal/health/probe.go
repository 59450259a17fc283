package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/platform/metrics"
	"github.com/nulzo/provider-hub/pkg/api"
)

const DefaultTimeout = 5 * time.Second

// Prober performs single reachability checks. It keeps no history and never retries.
type Prober struct {
	client  httpclient.HTTPClient
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Prober)

func WithHTTPClient(client httpclient.HTTPClient) Option {
	return func(p *Prober) { p.client = client }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Prober) { p.metrics = m }
}

func NewProber(logger *zap.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Prober{
		client: &http.Client{},
		logger: logger.Named("health"),
		tracer: otel.Tracer("github.com/nulzo/provider-hub/internal/health"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check issues one GET {baseUrl}/models and classifies the answer:
// 2xx is operational, any other status degraded, no answer down.
// An empty conn.BaseURL falls back to the provider's default endpoint.
func (p *Prober) Check(ctx context.Context, provider llm.Provider, conn api.ConnectionInfo, timeout time.Duration) api.HealthStatus {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "health.Check",
		trace.WithAttributes(attribute.String("provider", provider.Name())))
	defer span.End()

	baseURL := conn.BaseURL
	if baseURL == "" {
		baseURL = provider.Defaults().BaseURL
	}

	status := p.probe(ctx, provider.Name(), baseURL+"/models", conn.APIKey)

	span.SetAttributes(attribute.String("state", string(status.State)))
	p.metrics.ObserveHealth(status)

	fields := []zap.Field{
		zap.String("provider", status.Provider),
		zap.String("state", string(status.State)),
		zap.String("message", status.Message),
	}
	if status.ResponseTimeMs != nil {
		fields = append(fields, zap.Int64("response_time_ms", *status.ResponseTimeMs))
	}
	if status.State == api.HealthOperational {
		p.logger.Debug("health check", fields...)
	} else {
		p.logger.Warn("health check", fields...)
	}

	return status
}

func (p *Prober) probe(ctx context.Context, name, url, apiKey string) api.HealthStatus {
	status := api.HealthStatus{Provider: name}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		status.State = api.HealthDown
		status.Message = err.Error()
		status.LastCheckedAt = p.now()
		return status
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range httpclient.BearerHeaders(apiKey) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	status.ResponseTimeMs = &elapsed
	status.LastCheckedAt = p.now()

	if err != nil {
		status.State = api.HealthDown
		status.Message = err.Error()
		if status.Message == "" {
			status.Message = "connection failed"
		}
		return status
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		status.State = api.HealthOperational
		status.Message = fmt.Sprintf("%s is reachable and responding.", name)
	} else {
		status.State = api.HealthDegraded
		status.Message = fmt.Sprintf("%s responded with status: %d", name, resp.StatusCode)
	}

	return status
}
