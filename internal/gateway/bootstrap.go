package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/cli"
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/store"
	"github.com/nulzo/provider-hub/pkg/api"
)

// Bootstrap builds and registers every configured provider, then overlays the
// persisted settings. Any configuration error is returned: a bad provider
// table is a wiring bug, not a runtime condition.
func Bootstrap(ctx context.Context, providers []config.ProviderConfig, settings store.SettingsRepository, log *zap.Logger) (*Registry, error) {
	registry := NewRegistry()
	validate := validator.New()

	for _, pCfg := range providers {
		if err := validate.Struct(&pCfg); err != nil {
			return nil, fmt.Errorf("invalid provider config %q: %w", pCfg.Name, err)
		}

		providerInstance, err := llm.CreateProvider(pCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize provider %q: %w", pCfg.Name, err)
		}

		if err := registry.Register(providerInstance, api.ProviderSettings{Enabled: pCfg.Enabled}); err != nil {
			return nil, err
		}

		badge := cli.Stylize("disabled", cli.DimCode)
		if pCfg.Enabled {
			badge = cli.Stylize("enabled", cli.Green)
		}
		log.Info(fmt.Sprintf("%s %s %s",
			cli.CheckMark(),
			cli.Stylize(fmt.Sprintf("%-12s", providerInstance.Name()), cli.BoldCode),
			badge,
		), zap.String("type", providerInstance.Type()))
	}

	if settings == nil {
		return registry, nil
	}

	stored, err := settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider settings: %w", err)
	}
	for _, row := range stored {
		overlay := row.ToAPI()
		_, err := registry.Update(row.Provider, func(api.ProviderSettings) (api.ProviderSettings, error) {
			return overlay, nil
		})
		if errors.Is(err, ErrProviderNotFound) {
			log.Warn(fmt.Sprintf("%s %s",
				cli.WarningSign(),
				cli.Stylize("Ignoring stored settings of unknown provider "+row.Provider, cli.Yellow),
			))
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	if len(registry.List(true)) == 0 {
		log.Warn("No providers are enabled. Discovery and health checks will have nothing to do.")
	}

	return registry, nil
}
