// CLAUDE:SUMMARY Loads a rule Store from the embedded defaults overlaid with a rules directory (gob bundle first, then YAML packs).
package rules

import (
	"fmt"
	"os"
	"path/filepath"
)

// BundleFile is the compiled bundle name looked up in a rules directory.
const BundleFile = "rules.gob"

// LoadDir builds a Store from the embedded defaults followed by the packs of dir.
//
// If dir holds a rules.gob bundle it is used instead of the YAML files.
// An empty dir yields the defaults alone.
func LoadDir(dir string) (*Store, error) {
	manifests, err := DefaultManifests()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return NewStore(manifests)
	}

	extra, err := dirManifests(dir)
	if err != nil {
		return nil, err
	}
	return NewStore(append(manifests, extra...))
}

func dirManifests(dir string) ([]*Manifest, error) {
	bundlePath := filepath.Join(dir, BundleFile)
	if _, err := os.Stat(bundlePath); err == nil {
		manifests, err := LoadGob(bundlePath)
		if err != nil {
			return nil, fmt.Errorf("rules dir %s: %w", dir, err)
		}
		return manifests, nil
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("rules dir %s: %w", dir, err)
	}
	return manifestsFromFS(os.DirFS(dir), ".")
}

// DirManifests returns the YAML packs of dir, ignoring any compiled bundle.
func DirManifests(dir string) ([]*Manifest, error) {
	return manifestsFromFS(os.DirFS(dir), ".")
}
