package lmstudio

import (
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/llm/openai"
)

const DefaultBaseURL = "http://127.0.0.1:1234/v1"

func init() {
	llm.Register(string(llm.LMStudio), NewAdapter)
}

// NewAdapter builds the LM Studio descriptor. LM Studio serves whatever is
// loaded locally, so there is no static catalog.
func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	a, err := openai.New(cfg, openai.Defaults{
		Type:       string(llm.LMStudio),
		BaseURLKey: "LMSTUDIO_API_BASE_URL",
		APIKeyKey:  "LMSTUDIO_API_KEY",
		BaseURL:    DefaultBaseURL,
		APIKey:     "lm-studio",
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
