// Package project discovers the C/C++/Objective-C sources belonging to a
// workspace (include/exclude glob filtering over the project root) and
// watches them for out-of-band changes so the indexing pipeline can be fed
// without an editor in the loop.
package project

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cxxls/cxxls/internal/config"
	"github.com/cxxls/cxxls/internal/parser"
)

// Scanner walks a project root and yields the absolute paths of every
// indexable source file, subject to the config's Include/Exclude globs.
type Scanner struct {
	root    string
	include []string
	exclude []string
}

// NewScanner builds a Scanner from the resolved configuration.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{
		root:    cfg.ProjectRoot,
		include: cfg.Include,
		exclude: cfg.Exclude,
	}
}

// Matches reports whether path should be indexed: it must be a supported
// source language, must not hit any exclude glob, and, if include globs are
// configured, must hit at least one of them. Patterns are matched against
// both the absolute path and the slash-form path relative to the root.
func (s *Scanner) Matches(path string) bool {
	if !parser.IsSupported(path) {
		return false
	}

	rel := path
	if r, err := filepath.Rel(s.root, path); err == nil {
		rel = filepath.ToSlash(r)
	}

	for _, pattern := range s.exclude {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return false
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return false
		}
	}

	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// skipDir reports whether an entire directory subtree can be pruned from
// the walk because an exclude glob of the `prefix/**` form covers it.
func (s *Scanner) skipDir(path string) bool {
	rel := path
	if r, err := filepath.Rel(s.root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	for _, pattern := range s.exclude {
		// `**/build/**` prunes at the `build` directory itself; match the
		// directory against the pattern with the trailing globstar dropped.
		trimmed := pattern
		if len(pattern) > 3 && pattern[len(pattern)-3:] == "/**" {
			trimmed = pattern[:len(pattern)-3]
		}
		if matched, err := doublestar.Match(trimmed, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(trimmed, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

// Scan walks the project root and returns every matching source file as an
// absolute path. Unreadable entries are skipped, not fatal: a workspace with
// one permission-denied subtree should still index everything else.
func (s *Scanner) Scan() ([]string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && s.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return files, walkErr
	}
	return files, nil
}
