package abbrev

import (
	"sync"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
)

// Registry holds the Abbreviator currently serving requests and swaps it on
// reload. A failed reload leaves the previous Abbreviator in place.
type Registry struct {
	mu       sync.RWMutex
	current  *Abbreviator
	rulesDir string
}

// NewRegistry creates a registry for the given rules directory.
// An empty directory means the embedded defaults only.
func NewRegistry(rulesDir string) *Registry {
	return &Registry{rulesDir: rulesDir}
}

// Load builds a new rule Store and Abbreviator from disk and installs them.
func (r *Registry) Load() error {
	store, err := rules.LoadDir(r.rulesDir)
	if err != nil {
		return err
	}
	a, err := New(store)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = a
	r.mu.Unlock()
	return nil
}

// Reload reloads all rule packs from disk (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

// Current returns the serving Abbreviator, or the embedded defaults before
// the first successful Load.
func (r *Registry) Current() *Abbreviator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return Default()
	}
	return r.current
}

// RulesDir returns the directory the registry loads from.
func (r *Registry) RulesDir() string {
	return r.rulesDir
}

// LocaleCount returns the number of locales with at least one rule pack.
func (r *Registry) LocaleCount() int {
	return len(r.Current().Store().Locales())
}

// PackCount returns the number of rule packs loaded.
func (r *Registry) PackCount() int {
	return len(r.Current().Store().Manifests())
}
