package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
	assert.Equal(t, StoreMemory, cfg.StoreBackend())
}

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "explorer.yml", `
models: [models/library.yml, /abs/core.yml]
sourceRoots: [src]
languages: [go, python]
excludeDirs: [vendor]
readOnlyPatterns: ["lib/*"]
defaultFilters: [hide-read-only]
attributeGrouping: true
store: kuzu
kuzuPath: .explorer/db
mcpAddr: ":8090"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "models/library.yml"), "/abs/core.yml"}, cfg.Models)
	assert.Equal(t, []string{filepath.Join(dir, "src")}, cfg.SourceRoots)
	assert.Equal(t, []string{"go", "python"}, cfg.Languages)
	assert.Equal(t, []string{"vendor"}, cfg.ExcludeDirs)
	assert.Equal(t, []string{"lib/*"}, cfg.ReadOnlyPatterns)
	assert.Equal(t, []string{"hide-read-only"}, cfg.DefaultFilters)
	assert.True(t, cfg.AttributeGrouping)
	assert.Equal(t, StoreKuzu, cfg.StoreBackend())
	assert.Equal(t, filepath.Join(dir, ".explorer/db"), cfg.KuzuPath)
	assert.Equal(t, ":8090", cfg.MCPAddr)
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "explorer.yaml", "verbose: true\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Nil(t, cfg.Models)
}

func TestLoad_PrefersYML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "explorer.yml", "mcpAddr: a\n")
	writeConfig(t, dir, "explorer.yaml", "mcpAddr: b\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.MCPAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "models: [unclosed\n"},
		{"unknown store", "store: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "explorer.yml", tt.body)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}
