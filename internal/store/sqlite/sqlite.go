package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nulzo/provider-hub/internal/store"
	"github.com/nulzo/provider-hub/internal/store/model"
	"github.com/nulzo/provider-hub/pkg/api"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Settings() store.SettingsRepository {
	return &settingsRepo{db: r.executor}
}

func (r *SqliteRepository) Health() store.HealthRepository {
	return &healthRepo{db: r.executor}
}

type settingsRepo struct {
	db DB
}

func (r *settingsRepo) List(ctx context.Context) ([]model.ProviderSettings, error) {
	var settings []model.ProviderSettings
	err := r.db.SelectContext(ctx, &settings, `SELECT * FROM provider_settings ORDER BY provider`)
	return settings, err
}

func (r *settingsRepo) Upsert(ctx context.Context, s *model.ProviderSettings) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	query := `
	INSERT INTO provider_settings (provider, enabled, base_url, api_key, models, updated_at)
	VALUES (:provider, :enabled, :base_url, :api_key, :models, :updated_at)
	ON CONFLICT(provider) DO UPDATE SET
		enabled = excluded.enabled,
		base_url = excluded.base_url,
		api_key = excluded.api_key,
		models = excluded.models,
		updated_at = excluded.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, s)
	return err
}

type healthRepo struct {
	db DB
}

func (r *healthRepo) Record(ctx context.Context, status *api.HealthStatus) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	if status.LastCheckedAt.IsZero() {
		status.LastCheckedAt = time.Now()
	}
	// stored in UTC so checked_at sorts lexically
	status.LastCheckedAt = status.LastCheckedAt.UTC()
	query := `
	INSERT INTO health_readings (id, provider, state, message, response_time_ms, checked_at)
	VALUES (:id, :provider, :state, :message, :response_time_ms, :checked_at)`
	_, err := r.db.NamedExecContext(ctx, query, status)
	return err
}

func (r *healthRepo) Latest(ctx context.Context, provider string) (*api.HealthStatus, error) {
	var s api.HealthStatus
	query := `SELECT * FROM health_readings WHERE provider = ? ORDER BY checked_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &s, query, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *healthRepo) Recent(ctx context.Context, provider string, limit int) ([]api.HealthStatus, error) {
	if limit <= 0 {
		limit = 20
	}
	var readings []api.HealthStatus
	query := `SELECT * FROM health_readings WHERE provider = ? ORDER BY checked_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &readings, query, provider, limit)
	return readings, err
}

func (r *healthRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_readings WHERE checked_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
