// Package config implements Storm's project manifest and recognized
// source-file extensions (SPEC_FULL.md §6 "Project manifest"), grounded on
// the teacher's funxy.yaml (internal/ext/config.go) and its constants.go
// extension table.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the root-level project manifest name (spec §6 expansion:
// "A root-level storm.yaml").
const ManifestFile = "storm.yaml"

// Import is one `name=path` overlay, declarable either on the command line
// (spec §6 original) or in the manifest (spec §6 expansion).
type Import struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Manifest is storm.yaml's top-level shape.
type Manifest struct {
	Imports []Import `yaml:"imports"`
}

// Load reads and parses root/storm.yaml. A missing manifest is not an
// error: the root directory alone is always a valid compilation unit (spec
// §6 "the compiler takes a root-directory path at startup"); imports may
// come from the command line alone.
func Load(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &m, nil
}

// ParseOverlay parses a command-line `name=path` import overlay (spec §6
// "imports may be declared on the command line as name=path").
func ParseOverlay(s string) (Import, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return Import{Name: s[:i], Path: s[i+1:]}, nil
		}
	}
	return Import{}, fmt.Errorf("config: invalid import overlay %q, expected name=path", s)
}
