package tachyon

import (
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/llm/openai"
	"github.com/nulzo/provider-hub/pkg/api"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000/v1"
	// DefaultAPIKey is accepted by the local server, which does not check credentials.
	DefaultAPIKey = "no-key-needed"
	MaxTokens     = 8000
)

func init() {
	llm.Register(string(llm.Tachyon), NewAdapter)
}

// NewAdapter builds the descriptor of the local Tachyon inference server.
func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	a, err := openai.New(cfg, openai.Defaults{
		Type:       string(llm.Tachyon),
		BaseURLKey: "TACHYON_API_BASE_URL",
		APIKeyKey:  "TACHYON_API_KEY",
		BaseURL:    DefaultBaseURL,
		APIKey:     DefaultAPIKey,
		MaxTokens:  MaxTokens,
		Models: []api.ModelInfo{
			{Name: "tachyon-model", Label: "Tachyon Model (Default)", MaxTokenAllowed: MaxTokens},
		},
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
