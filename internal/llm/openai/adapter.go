package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gpt "github.com/sashabaranov/go-openai"

	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
)

// DefaultMaxTokens is the ceiling used when a provider declares none.
const DefaultMaxTokens = 8000

func init() {
	llm.Register(string(llm.OpenAILike), NewAdapter)
}

// Defaults are the built-in values of a provider type. Config fields that are
// set take precedence over them.
type Defaults struct {
	Type       string
	BaseURLKey string
	APIKeyKey  string
	BaseURL    string
	APIKey     string
	MaxTokens  int
	Models     []api.ModelInfo
	// BasePath is appended to base URLs that do not already end with it.
	BasePath string
}

// Adapter is a descriptor for any OpenAI-compatible endpoint.
type Adapter struct {
	name         string
	providerType string
	baseURLKey   string
	apiKeyKey    string
	defaults     api.ConnectionInfo
	basePath     string
	maxTokens    int
	staticModels []api.ModelInfo
	client       *http.Client
}

// NewAdapter builds a generic OpenAI-compatible descriptor.
func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	a, err := New(cfg, Defaults{
		Type:       string(llm.OpenAILike),
		BaseURLKey: "OPENAI_LIKE_API_BASE_URL",
		APIKeyKey:  "OPENAI_LIKE_API_KEY",
		BaseURL:    "http://127.0.0.1:8080/v1",
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// New merges cfg over the type defaults. Provider types that speak the
// OpenAI protocol wrap it with their own Defaults.
func New(cfg config.ProviderConfig, d Defaults) (*Adapter, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errors.New("provider name is required")
	}

	a := &Adapter{
		name:         cfg.Name,
		providerType: d.Type,
		baseURLKey:   pick(cfg.BaseURLKey, d.BaseURLKey),
		apiKeyKey:    pick(cfg.APIKeyKey, d.APIKeyKey),
		basePath:     strings.TrimRight(d.BasePath, "/"),
		maxTokens:    cfg.MaxTokens,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
	a.defaults = api.ConnectionInfo{
		BaseURL: a.NormalizeBaseURL(pick(cfg.DefaultBaseURL, d.BaseURL)),
		APIKey:  pick(cfg.DefaultAPIKey, d.APIKey),
	}
	if a.maxTokens <= 0 {
		a.maxTokens = d.MaxTokens
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}

	models := cfg.Models
	if len(models) == 0 {
		models = d.Models
	}
	a.staticModels = make([]api.ModelInfo, 0, len(models))
	for _, m := range models {
		if m.Name == "" {
			return nil, fmt.Errorf("provider %s: static model without a name", cfg.Name)
		}
		if m.Label == "" {
			m.Label = m.Name
		}
		if m.Provider == "" {
			m.Provider = cfg.Name
		}
		if m.MaxTokenAllowed <= 0 {
			m.MaxTokenAllowed = a.maxTokens
		}
		a.staticModels = append(a.staticModels, m)
	}

	return a, nil
}

func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) Type() string {
	return a.providerType
}

func (a *Adapter) BaseURLKey() string {
	return a.baseURLKey
}

func (a *Adapter) APIKeyKey() string {
	return a.apiKeyKey
}

// StaticModels returns a copy so callers cannot alter the declared catalog.
func (a *Adapter) StaticModels() []api.ModelInfo {
	out := make([]api.ModelInfo, len(a.staticModels))
	copy(out, a.staticModels)
	return out
}

func (a *Adapter) MaxTokens() int {
	return a.maxTokens
}

func (a *Adapter) Defaults() api.ConnectionInfo {
	return a.defaults
}

// NormalizeBaseURL trims trailing slashes and appends the base path when missing.
func (a *Adapter) NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" || a.basePath == "" || strings.HasSuffix(baseURL, a.basePath) {
		return baseURL
	}
	return baseURL + a.basePath
}

func (a *Adapter) BuildHandle(model string, conn api.ConnectionInfo) (llm.Handle, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, llm.ErrModelRequired
	}
	if conn.BaseURL == "" {
		return nil, fmt.Errorf("provider %s: no base url", a.name)
	}

	cfg := gpt.DefaultConfig(conn.APIKey)
	cfg.BaseURL = strings.TrimRight(conn.BaseURL, "/")
	cfg.HTTPClient = a.client

	return &Handle{
		provider: a.name,
		model:    model,
		baseURL:  cfg.BaseURL,
		hasKey:   conn.APIKey != "",
		client:   gpt.NewClientWithConfig(cfg),
	}, nil
}

// Handle is a chat completion client bound to one model.
type Handle struct {
	provider string
	model    string
	baseURL  string
	hasKey   bool
	client   *gpt.Client
}

func (h *Handle) Provider() string { return h.provider }
func (h *Handle) Model() string    { return h.model }
func (h *Handle) BaseURL() string  { return h.baseURL }
func (h *Handle) HasKey() bool     { return h.hasKey }

// Complete sends the conversation and returns the first choice.
func (h *Handle) Complete(ctx context.Context, messages []api.Message) (string, error) {
	req := gpt.ChatCompletionRequest{
		Model:    h.model,
		Messages: make([]gpt.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, gpt.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := h.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s/%s completion failed: %w", h.provider, h.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s/%s returned no choices", h.provider, h.model)
	}

	return resp.Choices[0].Message.Content, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
