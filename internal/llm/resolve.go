package llm

import (
	"strings"

	"github.com/nulzo/provider-hub/pkg/api"
)

// ResolveInput carries the three configuration sources for one provider.
type ResolveInput struct {
	ProviderName string
	// APIKeys holds session scoped credentials keyed by provider name.
	APIKeys   map[string]string
	Settings  api.ProviderSettings
	ServerEnv map[string]string

	BaseURLKey string
	APIKeyKey  string
}

// ResolveConnection merges the configuration sources into one ConnectionInfo.
//
// baseUrl: settings override, then ServerEnv[BaseURLKey].
// apiKey:  APIKeys[ProviderName], then ServerEnv[APIKeyKey].
//
// The first non-empty value wins. Missing values stay empty; callers decide
// whether that matters. The function performs no I/O.
func ResolveConnection(in ResolveInput) api.ConnectionInfo {
	baseURL := firstNonEmpty(
		in.Settings.BaseURL,
		lookup(in.ServerEnv, in.BaseURLKey),
	)
	apiKey := firstNonEmpty(
		lookup(in.APIKeys, in.ProviderName),
		lookup(in.ServerEnv, in.APIKeyKey),
	)

	return api.ConnectionInfo{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}
}

// ConnectionFor resolves the connection of p using its declared env keys.
// Providers implementing BaseURLNormalizer get the resolved base URL normalized.
func ConnectionFor(p Provider, apiKeys map[string]string, settings api.ProviderSettings, serverEnv map[string]string) api.ConnectionInfo {
	conn := ResolveConnection(ResolveInput{
		ProviderName: p.Name(),
		APIKeys:      apiKeys,
		Settings:     settings,
		ServerEnv:    serverEnv,
		BaseURLKey:   p.BaseURLKey(),
		APIKeyKey:    p.APIKeyKey(),
	})
	conn.BaseURL = normalizeBaseURL(p, conn.BaseURL)
	return conn
}

// WithDefaults fills empty fields of conn from the provider's hard-coded defaults.
func WithDefaults(p Provider, conn api.ConnectionInfo) api.ConnectionInfo {
	defaults := p.Defaults()
	if conn.BaseURL == "" {
		conn.BaseURL = normalizeBaseURL(p, strings.TrimRight(defaults.BaseURL, "/"))
	}
	if conn.APIKey == "" {
		conn.APIKey = defaults.APIKey
	}
	return conn
}

func normalizeBaseURL(p Provider, baseURL string) string {
	if baseURL == "" {
		return ""
	}
	if n, ok := p.(BaseURLNormalizer); ok {
		return n.NormalizeBaseURL(baseURL)
	}
	return baseURL
}

func lookup(m map[string]string, key string) string {
	if key == "" || m == nil {
		return ""
	}
	return m[key]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// NewHandle resolves the connection of p, fills the gaps from its defaults and
// builds a runnable handle for model.
func NewHandle(p Provider, model string, apiKeys map[string]string, settings api.ProviderSettings, serverEnv map[string]string) (Handle, error) {
	conn := WithDefaults(p, ConnectionFor(p, apiKeys, settings, serverEnv))
	return p.BuildHandle(model, conn)
}
