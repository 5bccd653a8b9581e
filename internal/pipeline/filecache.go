package pipeline

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/cxxls/cxxls/internal/indexfile"
)

// CacheFormat selects the on-disk encoding for a DiskCache. No
// MessagePack/CBOR library appears anywhere in the example corpus (see
// DESIGN.md), so the compact form falls back to the standard library's gob
// encoder rather than invent a dependency.
type CacheFormat int

const (
	// CacheFormatJSON is human-debuggable, via encoding/json.
	CacheFormatJSON CacheFormat = iota
	// CacheFormatBinary is compact, via encoding/gob.
	CacheFormatBinary
)

// ParseCacheFormat maps the config value ("json" or "binary") to a
// CacheFormat, defaulting to JSON for anything unrecognized.
func ParseCacheFormat(s string) CacheFormat {
	if s == "binary" {
		return CacheFormatBinary
	}
	return CacheFormatJSON
}

// DiskCache persists one IndexFile per path under dir, keyed by a hash of
// the normalized path (paths may contain separators that don't survive a
// round trip through a single filename component).
type DiskCache struct {
	dir    string
	format CacheFormat
}

// NewDiskCache returns a DiskCache rooted at dir, creating it if needed.
func NewDiskCache(dir string, format CacheFormat) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DiskCache{dir: dir, format: format}, nil
}

func (c *DiskCache) pathFor(path string) string {
	name := fmt.Sprintf("%016x", xxhash.Sum64String(path))
	ext := ".json"
	if c.format == CacheFormatBinary {
		ext = ".gob"
	}
	return filepath.Join(c.dir, name+ext)
}

// Load returns the cached IndexFile for path, if present and decodable.
func (c *DiskCache) Load(path string) (*indexfile.IndexFile, bool) {
	f, err := os.Open(c.pathFor(path))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var file indexfile.IndexFile
	switch c.format {
	case CacheFormatBinary:
		if err := gob.NewDecoder(f).Decode(&file); err != nil {
			return nil, false
		}
	default:
		if err := json.NewDecoder(f).Decode(&file); err != nil {
			return nil, false
		}
	}
	return &file, true
}

// Store persists file as path's cached IndexFile, overwriting any previous
// entry.
func (c *DiskCache) Store(path string, file *indexfile.IndexFile) error {
	tmp := c.pathFor(path) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create cache entry for %s: %w", path, err)
	}

	var encErr error
	switch c.format {
	case CacheFormatBinary:
		encErr = gob.NewEncoder(f).Encode(file)
	default:
		enc := json.NewEncoder(f)
		encErr = enc.Encode(file)
	}
	if cerr := f.Close(); encErr == nil {
		encErr = cerr
	}
	if encErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("encode cache entry for %s: %w", path, encErr)
	}
	return os.Rename(tmp, c.pathFor(path))
}
