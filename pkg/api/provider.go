package api

// ProviderSettings is the per-provider overlay edited from the settings surface.
// Empty strings mean "not set".
type ProviderSettings struct {
	BaseURL string `json:"baseUrl,omitempty" db:"base_url" mapstructure:"base_url"`
	APIKey  string `json:"apiKey,omitempty" db:"api_key" mapstructure:"api_key"`
	// Models is a comma separated list of model names.
	Models  string `json:"models,omitempty" db:"models" mapstructure:"models"`
	Enabled bool   `json:"enabled" db:"enabled" mapstructure:"enabled"`
}

// SettingsPatch is a partial update of ProviderSettings. Nil fields are left untouched.
type SettingsPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	BaseURL *string `json:"baseUrl,omitempty" binding:"omitempty,url"`
	APIKey  *string `json:"apiKey,omitempty"`
	Models  *string `json:"models,omitempty" binding:"omitempty,max=4096,modellist"`
}

// Apply returns s with every non-nil field of the patch written over it.
func (p SettingsPatch) Apply(s ProviderSettings) ProviderSettings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.BaseURL != nil {
		s.BaseURL = *p.BaseURL
	}
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.Models != nil {
		s.Models = *p.Models
	}
	return s
}

// ConnectionInfo is the resolved endpoint and credential for a provider.
// It is derived on demand and never persisted.
type ConnectionInfo struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"-"`
}

// ProviderView is a provider descriptor with its settings overlay applied.
type ProviderView struct {
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Enabled      bool             `json:"enabled"`
	BaseURLKey   string           `json:"baseUrlEnvKey"`
	APIKeyKey    string           `json:"apiKeyEnvKey,omitempty"`
	Settings     ProviderSettings `json:"settings"`
	StaticModels []ModelInfo      `json:"staticModels"`
}

// HandleInfo describes a resolved model handle without exposing the credential.
type HandleInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"baseUrl"`
	HasKey   bool   `json:"hasKey"`
}
