package store

import (
	"context"
	"errors"
	"time"

	"github.com/nulzo/provider-hub/internal/store/model"
	"github.com/nulzo/provider-hub/pkg/api"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository is the main contract for the data layer.
type Repository interface {
	Settings() SettingsRepository
	Health() HealthRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

// SettingsRepository persists the user editable overlay of each provider.
type SettingsRepository interface {
	// List returns every stored overlay ordered by provider name.
	List(ctx context.Context) ([]model.ProviderSettings, error)
	// Upsert replaces the stored overlay of s.Provider.
	Upsert(ctx context.Context, s *model.ProviderSettings) error
}

// HealthRepository keeps the stream of probe readings.
type HealthRepository interface {
	Record(ctx context.Context, status *api.HealthStatus) error
	// Latest returns the newest reading of provider.
	Latest(ctx context.Context, provider string) (*api.HealthStatus, error)
	// Recent returns up to limit readings, newest first. A limit <= 0 means 20.
	Recent(ctx context.Context, provider string, limit int) ([]api.HealthStatus, error)
	// Prune deletes readings older than before and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
