package gateway

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDuplicateProvider = errors.New("provider already registered")
)

// Entry is a registered descriptor together with its current overlay.
type Entry struct {
	Provider llm.Provider
	Settings api.ProviderSettings
}

func (e Entry) Enabled() bool {
	return e.Settings.Enabled
}

// View renders the entry for the settings surface. The credential is masked.
func (e Entry) View() api.ProviderView {
	settings := e.Settings
	settings.APIKey = maskKey(settings.APIKey)

	return api.ProviderView{
		Name:         e.Provider.Name(),
		Type:         e.Provider.Type(),
		Enabled:      e.Settings.Enabled,
		BaseURLKey:   e.Provider.BaseURLKey(),
		APIKeyKey:    e.Provider.APIKeyKey(),
		Settings:     settings,
		StaticModels: e.Provider.StaticModels(),
	}
}

// Registry is an ordered name -> provider table. Descriptors are immutable
// once registered; only the overlay changes, always under the write lock.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds p with its initial overlay. A repeated name is rejected and
// the first registration is kept.
func (r *Registry) Register(p llm.Provider, initial api.ProviderSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}

	r.entries[name] = &Entry{Provider: p, Settings: initial}
	r.order = append(r.order, name)
	return nil
}

// List returns entries in registration order.
func (r *Registry) List(onlyEnabled bool) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		if onlyEnabled && !e.Settings.Enabled {
			continue
		}
		out = append(out, *e)
	}
	return out
}

func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return *e, nil
}

// Update runs fn on the overlay of name while holding the write lock. The
// overlay is replaced only when fn succeeds.
//
// fn may do I/O such as persisting the overlay. List and Get block until it
// returns; in exchange the stored and published overlays see writes in the
// same order.
func (r *Registry) Update(name string, fn func(api.ProviderSettings) (api.ProviderSettings, error)) (api.ProviderSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return api.ProviderSettings{}, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	next, err := fn(e.Settings)
	if err != nil {
		return e.Settings, err
	}
	e.Settings = next
	return next, nil
}

func (r *Registry) SetEnabled(name string, enabled bool) error {
	_, err := r.SetSettings(name, api.SettingsPatch{Enabled: &enabled})
	return err
}

// SetSettings merges patch into the overlay of name. Last write wins.
func (r *Registry) SetSettings(name string, patch api.SettingsPatch) (api.ProviderSettings, error) {
	return r.Update(name, func(cur api.ProviderSettings) (api.ProviderSettings, error) {
		return patch.Apply(cur), nil
	})
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", 4) + key[len(key)-4:]
}
