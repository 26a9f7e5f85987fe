// Package yamlfile loads templates from YAML manifests into a
// TemplateEngine, so template source can ship as data files instead of
// being embedded in Go source.
package yamlfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/orcarun/orca"
)

// ErrInvalidManifest wraps a YAML manifest that is missing a required
// field.
var ErrInvalidManifest = fmt.Errorf("yamlfile: invalid manifest")

// Manifest is the YAML shape of one template file.
type Manifest struct {
	ID          string   `yaml:"id"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Source      string   `yaml:"source"`
}

// ParseBytes parses a single YAML manifest.
func ParseBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidManifest)
	}
	if m.Source == "" {
		return nil, fmt.Errorf("%w: missing source", ErrInvalidManifest)
	}
	return &m, nil
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the caller
	if err != nil {
		return nil, fmt.Errorf("yamlfile: read file: %w", err)
	}
	return ParseBytes(data)
}

// LoadFile parses the manifest at path and registers it on engine under its
// own ID.
func LoadFile(engine *orca.TemplateEngine, path string) (*Manifest, error) {
	m, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := engine.RegisterTemplate(m.ID, m.Source); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadDir parses every *.yaml/*.yml file directly under dir (no recursion)
// and registers each on engine, returning the manifests in the order
// loaded.
func LoadDir(engine *orca.TemplateEngine, dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("yamlfile: read dir: %w", err)
	}
	var out []*Manifest
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		m, err := LoadFile(engine, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("yamlfile: %s: %w", entry.Name(), err)
		}
		out = append(out, m)
	}
	return out, nil
}
