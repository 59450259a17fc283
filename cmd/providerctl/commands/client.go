package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/server/middleware"
	"github.com/nulzo/provider-hub/pkg/api"
)

// Client talks to the provider-hub HTTP API.
type Client struct {
	baseURL    string
	sessionKey string
	http       httpclient.HTTPClient
}

func NewClient(baseURL, sessionKey string, client httpclient.HTTPClient) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionKey: sessionKey,
		http:       client,
	}
}

func (c *Client) Providers(ctx context.Context, onlyEnabled bool) ([]api.ProviderView, error) {
	var out struct {
		Data []api.ProviderView `json:"data"`
	}
	path := "/v1/providers"
	if onlyEnabled {
		path += "?enabled=true"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Models(ctx context.Context, name string) (api.ModelList, error) {
	var out api.ModelList
	err := c.do(ctx, http.MethodGet, providerPath(name, "/models"), nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context, name string, latest bool) (api.HealthStatus, error) {
	suffix := "/health"
	if latest {
		suffix += "/latest"
	}
	var out api.HealthStatus
	err := c.do(ctx, http.MethodGet, providerPath(name, suffix), nil, &out)
	return out, err
}

// HealthHistory lists stored monitor readings, newest first. A limit <= 0
// leaves the page size to the server.
func (c *Client) HealthHistory(ctx context.Context, name string, limit int) ([]api.HealthStatus, error) {
	var out struct {
		Data []api.HealthStatus `json:"data"`
	}
	path := providerPath(name, "/health/history")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UpdateSettings(ctx context.Context, name string, patch api.SettingsPatch) (api.ProviderView, error) {
	var out api.ProviderView
	err := c.do(ctx, http.MethodPatch, providerPath(name, "/settings"), patch, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var headers map[string]string
	if c.sessionKey != "" {
		headers = map[string]string{middleware.ProviderKeyHeader: c.sessionKey}
	}

	err := httpclient.SendRequest(ctx, c.http, method, c.baseURL+path, headers, body, out)

	var upstream *httpclient.UpstreamError
	if errors.As(err, &upstream) {
		var problem api.Problem
		if json.Unmarshal(upstream.Body, &problem) == nil && problem.Title != "" {
			problem.Status = upstream.StatusCode
			return &problem
		}
		return fmt.Errorf("server returned status %d", upstream.StatusCode)
	}
	return err
}

func providerPath(name, suffix string) string {
	return "/v1/providers/" + url.PathEscape(name) + suffix
}
