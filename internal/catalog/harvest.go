package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nulzo/provider-hub/pkg/api"
)

// modelFile is the layout of a harvested catalog. The models block has the
// same shape as the models list of a provider in config.yaml.
type modelFile struct {
	Models []api.ModelInfo `yaml:"models"`
}

// Harvest merges discovered models into the YAML catalog at path and
// returns how many entries were added. A missing file starts empty.
func Harvest(path, provider string, discovered []api.ModelInfo) (int, error) {
	existing, err := loadModels(path)
	if err != nil {
		return 0, err
	}

	merged, added := MergeModels(existing, discovered, provider)

	data, err := yaml.Marshal(modelFile{Models: merged})
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to save catalog to %s: %w", path, err)
	}
	return added, nil
}

// MergeModels appends the discovered models that are not in existing yet.
// Existing entries are matched by name and never overwritten; labels and
// token limits in the file may have been tuned by hand.
func MergeModels(existing, discovered []api.ModelInfo, provider string) ([]api.ModelInfo, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[m.Name] = struct{}{}
	}

	added := 0
	for _, m := range discovered {
		if _, ok := seen[m.Name]; ok || m.Name == "" {
			continue
		}
		if m.Provider == "" {
			m.Provider = provider
		}
		if m.Label == "" {
			m.Label = m.Name
		}
		existing = append(existing, m)
		seen[m.Name] = struct{}{}
		added++
	}
	return existing, added
}

func loadModels(path string) ([]api.ModelInfo, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return f.Models, nil
}
