package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// DefaultManifests parses the rule packs shipped with the binary, sorted by file name.
func DefaultManifests() ([]*Manifest, error) {
	return manifestsFromFS(defaultFS, "defaults")
}

var defaultStore = sync.OnceValues(func() (*Store, error) {
	manifests, err := DefaultManifests()
	if err != nil {
		return nil, err
	}
	return NewStore(manifests)
})

// Default returns the Store built from the embedded rule packs.
// The embedded packs are part of the binary, so a failure here is a build defect.
func Default() *Store {
	s, err := defaultStore()
	if err != nil {
		panic(fmt.Sprintf("rules: embedded defaults: %v", err))
	}
	return s
}

func manifestsFromFS(fsys fs.FS, dir string) ([]*Manifest, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isManifestFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	manifests := make([]*Manifest, 0, len(names))
	for _, name := range names {
		p := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", p, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func isManifestFile(name string) bool {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
