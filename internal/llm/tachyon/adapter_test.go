package tachyon

import (
	"testing"

	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapter(t *testing.T) {
	p, err := llm.CreateProvider(config.ProviderConfig{Name: "Tachyon", Type: "tachyon"})
	require.NoError(t, err)

	assert.Equal(t, "tachyon", p.Type())
	assert.Equal(t, "TACHYON_API_BASE_URL", p.BaseURLKey())
	assert.Equal(t, "TACHYON_API_KEY", p.APIKeyKey())
	assert.Equal(t, MaxTokens, p.MaxTokens())
	assert.Equal(t, api.ConnectionInfo{BaseURL: DefaultBaseURL, APIKey: DefaultAPIKey}, p.Defaults())

	assert.Equal(t, []api.ModelInfo{{
		Name:            "tachyon-model",
		Label:           "Tachyon Model (Default)",
		Provider:        "Tachyon",
		MaxTokenAllowed: 8000,
	}}, p.StaticModels())
}

func TestResolveWithDefaults(t *testing.T) {
	p, err := NewAdapter(config.ProviderConfig{Name: "Tachyon"})
	require.NoError(t, err)

	conn := llm.ConnectionFor(p, nil, api.ProviderSettings{}, map[string]string{"TACHYON_API_KEY": "env-key"})
	assert.Equal(t, api.ConnectionInfo{APIKey: "env-key"}, conn)

	conn = llm.WithDefaults(p, conn)
	assert.Equal(t, api.ConnectionInfo{BaseURL: DefaultBaseURL, APIKey: "env-key"}, conn)
}
