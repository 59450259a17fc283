package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/platform/metrics"
	"github.com/nulzo/provider-hub/pkg/api"
)

// DefaultTimeout bounds a remote listing when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Outcome tells whether the caller got the list it asked for.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeFallback Outcome = "fallback"
)

// Source indicates where the returned models came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceRemote   Source = "remote"
	SourceStatic   Source = "static"
)

var (
	// ErrNoEndpoint means the connection lacks a base URL or credential.
	ErrNoEndpoint = errors.New("no base url or api key configured")
	// ErrEmptyCatalog means the endpoint answered but listed no chat models.
	ErrEmptyCatalog = errors.New("remote catalog has no chat models")
)

// Result is the outcome of one discovery. Models is never nil.
type Result struct {
	Models  []api.ModelInfo
	Outcome Outcome
	Source  Source
	// Reason is set when Outcome is fallback.
	Reason error
}

// Catalog lists the models a provider offers.
type Catalog struct {
	client  httpclient.HTTPClient
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	timeout time.Duration
}

type Option func(*Catalog)

func WithHTTPClient(client httpclient.HTTPClient) Option {
	return func(c *Catalog) { c.client = client }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		client:  &http.Client{},
		logger:  logger.Named("catalog"),
		tracer:  otel.Tracer("github.com/nulzo/provider-hub/internal/catalog"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover returns the models of p. Failures never surface as errors: the
// static catalog is returned instead, with Outcome fallback and the cause in
// Reason.
//
// Precedence: a non-empty settings.Models override, then GET {baseUrl}/models,
// then the static catalog.
func (c *Catalog) Discover(ctx context.Context, p llm.Provider, conn api.ConnectionInfo, settings api.ProviderSettings) Result {
	ctx, span := c.tracer.Start(ctx, "catalog.Discover",
		trace.WithAttributes(attribute.String("provider", p.Name())))
	defer span.End()

	res := c.discover(ctx, p, conn, settings)

	span.SetAttributes(
		attribute.String("source", string(res.Source)),
		attribute.String("outcome", string(res.Outcome)),
		attribute.Int("models", len(res.Models)),
	)
	if res.Reason != nil {
		span.SetStatus(codes.Error, res.Reason.Error())
	}
	c.metrics.ObserveDiscovery(p.Name(), string(res.Source), string(res.Outcome))

	return res
}

func (c *Catalog) discover(ctx context.Context, p llm.Provider, conn api.ConnectionInfo, settings api.ProviderSettings) Result {
	if names := ParseOverride(settings.Models); len(names) > 0 {
		models := make([]api.ModelInfo, 0, len(names))
		for _, name := range names {
			models = append(models, api.ModelInfo{
				Name:            name,
				Label:           name,
				Provider:        p.Name(),
				MaxTokenAllowed: p.MaxTokens(),
			})
		}
		return Result{Models: models, Outcome: OutcomeOK, Source: SourceOverride}
	}

	if conn.BaseURL == "" || conn.APIKey == "" {
		c.logger.Debug("no endpoint configured, using static catalog", zap.String("provider", p.Name()))
		return fallback(p, ErrNoEndpoint)
	}

	models, err := c.fetch(ctx, p, conn)
	if err != nil {
		c.logger.Warn("model discovery failed, using static catalog",
			zap.String("provider", p.Name()),
			zap.String("base_url", conn.BaseURL),
			zap.Error(err),
		)
		return fallback(p, err)
	}

	return Result{Models: models, Outcome: OutcomeOK, Source: SourceRemote}
}

func (c *Catalog) fetch(ctx context.Context, p llm.Provider, conn api.ConnectionInfo) ([]api.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var raw json.RawMessage
	err := httpclient.SendRequest(ctx, c.client, http.MethodGet, conn.BaseURL+"/models",
		httpclient.BearerHeaders(conn.APIKey), nil, &raw)
	if c.metrics != nil {
		c.metrics.DiscoveryTime.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	// the body may have been read completely just as the deadline passed
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	entries, err := decodeListing(raw)
	if err != nil {
		return nil, &httpclient.DecodeError{URL: conn.BaseURL + "/models", Err: err}
	}

	models := make([]api.ModelInfo, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "chat" {
			continue
		}
		name := firstOf(e.ID, e.Name)
		if name == "" {
			continue
		}
		models = append(models, api.ModelInfo{
			Name:            name,
			Label:           firstOf(e.DisplayName, e.Name, e.ID),
			Provider:        p.Name(),
			MaxTokenAllowed: p.MaxTokens(),
		})
	}
	if len(models) == 0 {
		return nil, ErrEmptyCatalog
	}

	return models, nil
}

// ParseOverride splits a comma separated model list. Tokens are trimmed,
// empty tokens dropped and duplicates removed keeping the first occurrence.
func ParseOverride(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

type remoteModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// decodeListing accepts a bare array or an OpenAI style {"data": [...]} envelope.
func decodeListing(raw json.RawMessage) ([]remoteModel, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil, nil
	case strings.HasPrefix(trimmed, "["):
		var list []remoteModel
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	case strings.HasPrefix(trimmed, "{"):
		var envelope struct {
			Data []remoteModel `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	default:
		return nil, fmt.Errorf("unexpected model listing: %.32s", trimmed)
	}
}

func fallback(p llm.Provider, reason error) Result {
	models := p.StaticModels()
	if models == nil {
		models = []api.ModelInfo{}
	}
	return Result{Models: models, Outcome: OutcomeFallback, Source: SourceStatic, Reason: reason}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
