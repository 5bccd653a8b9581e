// Package config implements the project and user-level configuration
// loaders. Project settings live in a `.cxxls.kdl` file at the
// workspace root; an optional `~/.config/cxxls/config.toml` supplies
// editor-agnostic defaults that are merged in before the project file is
// applied.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cxxls/cxxls/internal/errors"
)

// Diagnostics controls which diagnostic categories are surfaced and how
// often publishDiagnostics notifications are sent.
type Diagnostics struct {
	Whitelist   []string
	Blacklist   []string
	FrequencyMs int
}

// Highlight controls the semantic-highlight pass.
type Highlight struct {
	Enabled   bool
	Whitelist []string
	Blacklist []string
}

// Completion controls workspace/textDocument completion behavior.
type Completion struct {
	FilterAndSort bool
}

// WorkspaceSymbol controls the workspace/symbol fuzzy search.
type WorkspaceSymbol struct {
	MaxNum int
	Sort   bool
}

// Xref controls textDocument/references and friends.
type Xref struct {
	MaxNum int
}

// Config is the fully-resolved configuration driving one server session.
type Config struct {
	ProjectRoot string
	CacheDir    string
	CacheFormat string // "json" or "binary"

	IndexerWorkers int

	EnableIndexOnDidChange      bool
	ShowDocumentLinksOnIncludes bool
	EmitInactiveRegions         bool

	Diagnostics     Diagnostics
	Highlight       Highlight
	Completion      Completion
	WorkspaceSymbol WorkspaceSymbol
	Xref            Xref

	Include []string
	Exclude []string
}

// Default returns the built-in configuration applied when no `.cxxls.kdl`
// or user-level config.toml is present.
func Default(projectRoot string) *Config {
	return &Config{
		ProjectRoot:    projectRoot,
		CacheDir:       filepath.Join(os.TempDir(), "cxxls-cache"),
		CacheFormat:    "json",
		IndexerWorkers: runtime.NumCPU(),

		EnableIndexOnDidChange:      true,
		ShowDocumentLinksOnIncludes: true,
		EmitInactiveRegions:         true,

		Diagnostics: Diagnostics{FrequencyMs: 500},
		Highlight:   Highlight{Enabled: true},
		Completion:  Completion{FilterAndSort: true},
		WorkspaceSymbol: WorkspaceSymbol{
			MaxNum: 1000,
			Sort:   true,
		},
		Xref: Xref{MaxNum: 2000},

		Exclude: []string{
			"**/.git/**",
			"**/build/**",
			"**/cmake-build-*/**",
			"**/node_modules/**",
		},
	}
}

// Load resolves the configuration for a project rooted at projectRoot: it
// starts from Default, merges in ~/.config/cxxls/config.toml if present,
// then merges in <projectRoot>/.cxxls.kdl if present. Either file's absence
// is not an error; a malformed file that does exist is.
func Load(projectRoot string) (*Config, error) {
	cfg := Default(projectRoot)

	if home, err := os.UserHomeDir(); err == nil {
		tomlPath := filepath.Join(home, ".config", "cxxls", "config.toml")
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := mergeUserTOML(cfg, tomlPath); err != nil {
				return nil, errors.New(errors.KindConfig, "load user config", err).WithPath(tomlPath)
			}
		}
	}

	kdlPath := filepath.Join(projectRoot, ".cxxls.kdl")
	if _, statErr := os.Stat(kdlPath); statErr == nil {
		if err := mergeProjectKDL(cfg, kdlPath); err != nil {
			return nil, errors.New(errors.KindConfig, "load project config", err).WithPath(kdlPath)
		}
	}

	return cfg, nil
}
