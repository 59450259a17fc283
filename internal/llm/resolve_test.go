package llm

import (
	"fmt"
	"testing"

	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/stretchr/testify/assert"
)

func TestResolveConnection_Precedence(t *testing.T) {
	const (
		settingsURL = "http://settings:1/v1"
		envURL      = "http://env:2/v1"
		sessionKey  = "session-key"
		envKey      = "env-key"
	)

	// every combination of the three sources per field
	for mask := 0; mask < 8; mask++ {
		withSettings := mask&1 != 0
		withSession := mask&2 != 0
		withEnv := mask&4 != 0

		t.Run(fmt.Sprintf("settings=%t session=%t env=%t", withSettings, withSession, withEnv), func(t *testing.T) {
			in := ResolveInput{
				ProviderName: "Tachyon",
				APIKeys:      map[string]string{},
				ServerEnv:    map[string]string{},
				BaseURLKey:   "TACHYON_API_BASE_URL",
				APIKeyKey:    "TACHYON_API_KEY",
			}
			if withSettings {
				in.Settings.BaseURL = settingsURL
			}
			if withSession {
				in.APIKeys["Tachyon"] = sessionKey
			}
			if withEnv {
				in.ServerEnv["TACHYON_API_BASE_URL"] = envURL
				in.ServerEnv["TACHYON_API_KEY"] = envKey
			}

			conn := ResolveConnection(in)

			switch {
			case withSettings:
				assert.Equal(t, settingsURL, conn.BaseURL)
			case withEnv:
				assert.Equal(t, envURL, conn.BaseURL)
			default:
				assert.Empty(t, conn.BaseURL)
			}

			switch {
			case withSession:
				assert.Equal(t, sessionKey, conn.APIKey)
			case withEnv:
				assert.Equal(t, envKey, conn.APIKey)
			default:
				assert.Empty(t, conn.APIKey)
			}
		})
	}
}

func TestResolveConnection_NilSourcesAndBlankValues(t *testing.T) {
	conn := ResolveConnection(ResolveInput{
		ProviderName: "Ollama",
		Settings:     api.ProviderSettings{BaseURL: "   "},
		BaseURLKey:   "OLLAMA_API_BASE_URL",
	})
	assert.Equal(t, api.ConnectionInfo{}, conn)
}

func TestResolveConnection_SessionKeyIsPerProvider(t *testing.T) {
	conn := ResolveConnection(ResolveInput{
		ProviderName: "Ollama",
		APIKeys:      map[string]string{"Tachyon": "not-mine"},
		ServerEnv:    map[string]string{"": "ignored"},
	})
	assert.Empty(t, conn.APIKey)
}

func TestResolveConnection_TrimsTrailingSlash(t *testing.T) {
	conn := ResolveConnection(ResolveInput{
		Settings: api.ProviderSettings{BaseURL: "http://localhost:8000/v1/"},
	})
	assert.Equal(t, "http://localhost:8000/v1", conn.BaseURL)
}
