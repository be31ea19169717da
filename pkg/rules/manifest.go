// CLAUDE:SUMMARY Manifest YAML schema for a locale rule pack (title tiers, legal suffixes, noise words).
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes one rule pack for one locale.
type Manifest struct {
	ID      string        `yaml:"id" json:"id"`
	Version string        `yaml:"version" json:"version"`
	Locale  string        `yaml:"locale" json:"locale"`
	Source  string        `yaml:"source" json:"source"`
	License string        `yaml:"license,omitempty" json:"license,omitempty"`
	Replace bool          `yaml:"replace,omitempty" json:"replace,omitempty"`
	Title   *TitleRules   `yaml:"title,omitempty" json:"title,omitempty"`
	Company *CompanyRules `yaml:"company,omitempty" json:"company,omitempty"`
}

// LoadManifest reads and parses a rule pack file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a YAML rule pack and checks its shape.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields and every title rule.
func (m *Manifest) Validate() error {
	m.Locale = strings.TrimSpace(m.Locale)
	if m.Locale == "" {
		return fmt.Errorf("missing locale")
	}
	if m.ID == "" {
		m.ID = m.Locale
	}
	if m.Title != nil {
		if err := m.Title.validate(); err != nil {
			return fmt.Errorf("%s: %w", m.ID, err)
		}
	}
	return nil
}
