package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/store"
	"github.com/nulzo/provider-hub/internal/store/model"
	"github.com/nulzo/provider-hub/internal/store/sqlite"
	"github.com/nulzo/provider-hub/pkg/api"
)

// seed fills a development database with provider settings and a short
// health history so the settings and status surfaces have data to show.
func main() {
	dsn := flag.String("db", "provider-hub.db", "sqlite database path")
	flag.Parse()

	repo, err := sqlite.NewSQLiteStorage(*dsn, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	settings := map[string]api.ProviderSettings{
		"Tachyon":  {Enabled: true},
		"Ollama":   {Enabled: true, BaseURL: "http://127.0.0.1:11434/v1"},
		"LMStudio": {Enabled: false, Models: "qwen2.5-7b-instruct, llama-3.2-3b-instruct"},
	}

	// settings and readings land together or not at all
	err = repo.WithTx(ctx, func(tx store.Repository) error {
		for name, s := range settings {
			if err := tx.Settings().Upsert(ctx, model.SettingsFromAPI(name, s)); err != nil {
				return fmt.Errorf("failed to seed settings of %s: %w", name, err)
			}
			fmt.Printf("Seeded settings: %s (enabled=%t)\n", name, s.Enabled)
		}

		now := time.Now().UTC()
		for i := 5; i >= 0; i-- {
			latency := int64(20 + i*3)
			reading := &api.HealthStatus{
				ID:             uuid.NewString(),
				Provider:       "Tachyon",
				State:          api.HealthOperational,
				Message:        "Tachyon is reachable and responding.",
				ResponseTimeMs: &latency,
				LastCheckedAt:  now.Add(-time.Duration(i) * 30 * time.Second),
			}
			if i == 3 {
				reading.State = api.HealthDegraded
				reading.Message = "Tachyon responded with status: 503"
			}
			if err := tx.Health().Record(ctx, reading); err != nil {
				return fmt.Errorf("failed to seed health reading: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nSuccessfully seeded database %s\n", *dsn)
}
