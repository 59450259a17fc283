package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/provider-hub/pkg/api"
)

func TestMergeModels(t *testing.T) {
	// "a" was tuned by hand, "b" is new, "" is skipped
	existing := []api.ModelInfo{
		{Name: "a", Label: "A (manual)", Provider: "Tachyon", MaxTokenAllowed: 4096},
	}
	discovered := []api.ModelInfo{
		{Name: "a", Label: "a", Provider: "Tachyon", MaxTokenAllowed: 8000},
		{Name: "b", MaxTokenAllowed: 8000},
		{Name: ""},
		{Name: "b"},
	}

	merged, added := MergeModels(existing, discovered, "Tachyon")

	assert.Equal(t, 1, added)
	require.Len(t, merged, 2)
	assert.Equal(t, "A (manual)", merged[0].Label)
	assert.Equal(t, 4096, merged[0].MaxTokenAllowed)
	assert.Equal(t, api.ModelInfo{Name: "b", Label: "b", Provider: "Tachyon", MaxTokenAllowed: 8000}, merged[1])
}

func TestHarvest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tachyon.yaml")

	added, err := Harvest(path, "Tachyon", []api.ModelInfo{{Name: "a", MaxTokenAllowed: 8000}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = Harvest(path, "Tachyon", []api.ModelInfo{{Name: "a"}, {Name: "c"}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	models, err := loadModels(path)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name)
	assert.Equal(t, 8000, models[0].MaxTokenAllowed)
	assert.Equal(t, "c", models[1].Name)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "max_token_allowed: 8000")
}

func TestHarvest_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: {not: [a list"), 0o600))

	_, err := Harvest(path, "Tachyon", nil)
	assert.Error(t, err)
}
