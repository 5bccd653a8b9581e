package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// userTOML mirrors the subset of Config a user-level preferences file may
// override. Unset fields keep whatever Default already put in cfg.
type userTOML struct {
	CacheDir       string `toml:"cache_dir"`
	CacheFormat    string `toml:"cache_format"`
	IndexerWorkers int    `toml:"indexer_workers"`

	Diagnostics struct {
		FrequencyMs int `toml:"frequency_ms"`
	} `toml:"diagnostics"`

	Highlight struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"highlight"`
}

// mergeUserTOML decodes path as TOML and overlays any fields it sets onto
// cfg. It is applied before the project's .cxxls.kdl, so the project file
// always has the final say.
func mergeUserTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var u userTOML
	if err := toml.Unmarshal(data, &u); err != nil {
		return err
	}

	if u.CacheDir != "" {
		cfg.CacheDir = u.CacheDir
	}
	if u.CacheFormat != "" {
		cfg.CacheFormat = u.CacheFormat
	}
	if u.IndexerWorkers > 0 {
		cfg.IndexerWorkers = u.IndexerWorkers
	}
	if u.Diagnostics.FrequencyMs > 0 {
		cfg.Diagnostics.FrequencyMs = u.Diagnostics.FrequencyMs
	}
	if u.Highlight.Enabled != nil {
		cfg.Highlight.Enabled = *u.Highlight.Enabled
	}

	return nil
}
