package model

import (
	"time"

	"github.com/nulzo/provider-hub/pkg/api"
)

// ProviderSettings is the stored overlay row of one provider.
type ProviderSettings struct {
	Provider  string    `db:"provider"`
	Enabled   bool      `db:"enabled"`
	BaseURL   string    `db:"base_url"`
	APIKey    string    `db:"api_key"`
	Models    string    `db:"models"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s ProviderSettings) ToAPI() api.ProviderSettings {
	return api.ProviderSettings{
		BaseURL: s.BaseURL,
		APIKey:  s.APIKey,
		Models:  s.Models,
		Enabled: s.Enabled,
	}
}

func SettingsFromAPI(provider string, s api.ProviderSettings) *ProviderSettings {
	return &ProviderSettings{
		Provider:  provider,
		Enabled:   s.Enabled,
		BaseURL:   s.BaseURL,
		APIKey:    s.APIKey,
		Models:    s.Models,
		UpdatedAt: time.Now().UTC(),
	}
}
