package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default("/proj")
	require.Equal(t, "/proj", cfg.ProjectRoot)
	require.True(t, cfg.Highlight.Enabled)
	require.True(t, cfg.Completion.FilterAndSort)
	require.Greater(t, cfg.IndexerWorkers, 0)
	require.Greater(t, cfg.Xref.MaxNum, 0)
}

func TestLoadWithNoConfigFilesReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.ProjectRoot)
	require.Equal(t, "json", cfg.CacheFormat)
}

func TestLoadMergesProjectKDLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	kdl := `
index {
    workers 8
    cache_format "binary"
}
diagnostics {
    frequency_ms 1000
    blacklist "unused-variable" "unused-include"
}
highlight {
    enabled false
}
workspace_symbol {
    max_num 50
    sort false
}
exclude {
    "**/third_party/**"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cxxls.kdl"), []byte(kdl), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, 8, cfg.IndexerWorkers)
	require.Equal(t, "binary", cfg.CacheFormat)
	require.Equal(t, 1000, cfg.Diagnostics.FrequencyMs)
	require.Equal(t, []string{"unused-variable", "unused-include"}, cfg.Diagnostics.Blacklist)
	require.False(t, cfg.Highlight.Enabled)
	require.Equal(t, 50, cfg.WorkspaceSymbol.MaxNum)
	require.False(t, cfg.WorkspaceSymbol.Sort)
	require.Equal(t, []string{"**/third_party/**"}, cfg.Exclude)
}

func TestLoadRejectsMalformedProjectKDL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cxxls.kdl"), []byte("index { workers"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestProjectKDLOverridesUserTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgDir := filepath.Join(home, ".config", "cxxls")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(`
indexer_workers = 2
cache_format = "binary"
`), 0644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cxxls.kdl"), []byte(`
index {
    workers 16
}
`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.IndexerWorkers)    // project wins
	require.Equal(t, "binary", cfg.CacheFormat) // user default survives, unset by project
}
