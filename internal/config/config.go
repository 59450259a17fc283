package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/provider-hub/internal/platform/logger"
	"github.com/nulzo/provider-hub/internal/platform/otel"
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       logger.Config    `mapstructure:"log"`
	Tracing   otel.Config      `mapstructure:"tracing"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Redis     RedisConfig      `mapstructure:"redis"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Discovery DiscoveryConfig  `mapstructure:"discovery"`
	Health    HealthConfig     `mapstructure:"health"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type DiscoveryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type HealthConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// TTL of the latest reading kept in the cache.
	TTL       time.Duration `mapstructure:"ttl"`
	Retention time.Duration `mapstructure:"retention"`
}

// ProviderConfig declares one provider. Empty fields fall back to the
// built-in defaults of the provider type.
type ProviderConfig struct {
	Name           string          `mapstructure:"name" validate:"required"`
	Type           string          `mapstructure:"type" validate:"required"`
	Enabled        bool            `mapstructure:"enabled"`
	BaseURLKey     string          `mapstructure:"base_url_key"`
	APIKeyKey      string          `mapstructure:"api_key_key"`
	DefaultBaseURL string          `mapstructure:"default_base_url" validate:"omitempty,url"`
	DefaultAPIKey  string          `mapstructure:"default_api_key"`
	MaxTokens      int             `mapstructure:"max_tokens" validate:"gte=0"`
	Models         []api.ModelInfo `mapstructure:"models"`
}

// LoadConfig reads configuration from file or environment variables.
// CONFIG_FILE points at an explicit file; otherwise config.yaml is searched
// in the working directory and ./config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	for i, p := range cfg.Providers {
		if strings.HasPrefix(p.DefaultAPIKey, "ENV:") {
			envVar := strings.TrimPrefix(p.DefaultAPIKey, "ENV:")
			val := os.Getenv(envVar)
			if val == "" {
				val = v.GetString(envVar)
			}
			cfg.Providers[i].DefaultAPIKey = val
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.color", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "provider-hub")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("database.path", "provider-hub.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("discovery.timeout", 5*time.Second)
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.interval", 30*time.Second)
	v.SetDefault("health.timeout", 5*time.Second)
	v.SetDefault("health.ttl", 5*time.Minute)
	v.SetDefault("health.retention", 24*time.Hour)
}

// DefaultProviders is the provider table used when the config declares none.
// Only the local Tachyon server is enabled out of the box.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "Tachyon", Type: "tachyon", Enabled: true},
		{Name: "Ollama", Type: "ollama"},
		{Name: "LMStudio", Type: "lmstudio"},
		{Name: "OpenAILike", Type: "openai", BaseURLKey: "OPENAI_LIKE_API_BASE_URL", APIKeyKey: "OPENAI_LIKE_API_KEY"},
	}
}

// ServerEnv snapshots the process environment. The snapshot is taken once at
// startup and passed explicitly to the components that need it.
func ServerEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
