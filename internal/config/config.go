package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store backends accepted in the store field.
const (
	StoreMemory = "memory"
	StoreKuzu   = "kuzu"
)

// ProjectConfig holds project-level settings loaded from explorer.yml.
type ProjectConfig struct {
	Models            []string `yaml:"models,omitempty"`
	SourceRoots       []string `yaml:"sourceRoots,omitempty"`
	Languages         []string `yaml:"languages,omitempty"`
	ExcludeDirs       []string `yaml:"excludeDirs,omitempty"`
	ReadOnlyPatterns  []string `yaml:"readOnlyPatterns,omitempty"`
	DefaultFilters    []string `yaml:"defaultFilters,omitempty"`
	AttributeGrouping bool     `yaml:"attributeGrouping,omitempty"`
	Store             string   `yaml:"store,omitempty"`
	KuzuPath          string   `yaml:"kuzuPath,omitempty"`
	MCPAddr           string   `yaml:"mcpAddr,omitempty"`
	Verbose           bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read explorer.yml or explorer.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists. Relative model and source paths are resolved against dir.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"explorer.yml", "explorer.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cfg.Models = absPaths(dir, cfg.Models)
		cfg.SourceRoots = absPaths(dir, cfg.SourceRoots)
		if cfg.KuzuPath != "" && !filepath.IsAbs(cfg.KuzuPath) {
			cfg.KuzuPath = filepath.Join(dir, cfg.KuzuPath)
		}
		return cfg, nil
	}
	return &ProjectConfig{}, nil
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Store {
	case "", StoreMemory, StoreKuzu:
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", cfg.Store, StoreMemory, StoreKuzu)
	}
	return &cfg, nil
}

// StoreBackend returns the configured backend, defaulting to memory.
func (c *ProjectConfig) StoreBackend() string {
	if c.Store == "" {
		return StoreMemory
	}
	return c.Store
}

func absPaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
