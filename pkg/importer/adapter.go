package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter defines a data source importer that downloads a public code list
// and turns it into rule packs.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "gleif-elf").
	ID() string
	// PackID returns the prefix of the rule packs it writes (e.g. "elf").
	PackID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "CC0").
	License() string
	// Import downloads the source from sourceURL, transforms it, and writes
	// one <PackID>-<locale>.yaml rule pack per locale into outputDir.
	Import(ctx context.Context, sourceURL, outputDir string) (*Result, error)
}

// Result is what one import fetched and wrote. It is recorded in the
// source DB so the checker can tell when either side has moved.
type Result struct {
	// Version names the code-list release the packs were built from.
	Version string
	Fetched Fetched
	Packs   []Pack
}

// Fetched identifies the downloaded code list.
type Fetched struct {
	SHA256       string
	Size         int64
	ETag         string
	LastModified string
}

// Pack is one rule pack file written by an import.
type Pack struct {
	Locale  string
	Path    string
	SHA256  string
	Entries int
}

// Paths returns the pack file paths in write order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Packs))
	for i, p := range r.Packs {
		paths[i] = p.Path
	}
	return paths
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
