// CLAUDE:SUMMARY Gob serialization of rule packs into a single compiled bundle for fast loading.
package rules

import (
	"encoding/gob"
	"fmt"
	"os"
)

// LoadGob deserializes rule packs from a gob-encoded bundle.
func LoadGob(path string) ([]*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var manifests []*Manifest
	if err := gob.NewDecoder(f).Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	for i, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("bundle entry %d: %w", i, err)
		}
	}
	return manifests, nil
}

// SaveGob serializes rule packs to a gob-encoded bundle at path.
func SaveGob(manifests []*Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(manifests); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
