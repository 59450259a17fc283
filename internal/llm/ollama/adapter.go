package ollama

import (
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/llm/openai"
)

const DefaultBaseURL = "http://127.0.0.1:11434/v1"

func init() {
	llm.Register(string(llm.Ollama), NewAdapter)
}

// NewAdapter builds the Ollama descriptor on top of its OpenAI-compatible
// endpoint. Root URLs from config, settings or env get /v1 appended.
func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	a, err := openai.New(cfg, openai.Defaults{
		Type:       string(llm.Ollama),
		BaseURLKey: "OLLAMA_API_BASE_URL",
		APIKeyKey:  "OLLAMA_API_KEY",
		BaseURL:    DefaultBaseURL,
		APIKey:     "ollama",
		BasePath:   "/v1",
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
