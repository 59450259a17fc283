package llm

import (
	"context"
	"errors"

	"github.com/nulzo/provider-hub/pkg/api"
)

// ErrModelRequired is returned by BuildHandle for a blank model name.
var ErrModelRequired = errors.New("model name is required")

type ProviderType string

const (
	Tachyon    ProviderType = "tachyon"
	Ollama     ProviderType = "ollama"
	LMStudio   ProviderType = "lmstudio"
	OpenAILike ProviderType = "openai"
)

// Provider is a registered provider descriptor. Implementations are plain data
// records; identity never changes after construction.
type Provider interface {
	Name() string
	Type() string // e.g., "tachyon", "ollama"

	// BaseURLKey names the server env variable supplying the default endpoint.
	BaseURLKey() string
	// APIKeyKey names the server env variable supplying the default credential.
	// Empty for providers that never need one.
	APIKeyKey() string

	// StaticModels is the built-in fallback catalog.
	StaticModels() []api.ModelInfo
	// MaxTokens is the ceiling assigned to discovered and overridden models.
	MaxTokens() int
	// Defaults is the hard-coded endpoint and credential used when resolution yields nothing.
	Defaults() api.ConnectionInfo

	BuildHandle(model string, conn api.ConnectionInfo) (Handle, error)
}

// BaseURLNormalizer is implemented by providers whose API lives under a fixed
// path of the configured host, e.g. Ollama's /v1.
type BaseURLNormalizer interface {
	NormalizeBaseURL(baseURL string) string
}

// Handle is a runnable model reference bound to one endpoint and model name.
type Handle interface {
	Provider() string
	Model() string
	BaseURL() string
	HasKey() bool
	Complete(ctx context.Context, messages []api.Message) (string, error)
}

// Describe returns the public description of a handle.
func Describe(h Handle) api.HandleInfo {
	return api.HandleInfo{
		Provider: h.Provider(),
		Model:    h.Model(),
		BaseURL:  h.BaseURL(),
		HasKey:   h.HasKey(),
	}
}
