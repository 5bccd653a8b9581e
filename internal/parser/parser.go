// Package parser adapts github.com/tree-sitter/go-tree-sitter and the
// tree-sitter-cpp grammar into indexfile.IndexFile facts: it is the
// indexer whose output the rest of the system treats as opaque input.
// Unlike a real clang-based indexer it has no
// semantic type system and no preprocessor, so USRs are a lossy hash of a
// scope-qualified spelling rather than a compiler-verified identity; see
// DESIGN.md for the tradeoffs this implies.
package parser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/errors"
	"github.com/cxxls/cxxls/internal/indexfile"
)

// Parser parses C/C++/Objective-C/Objective-C++ source text into IndexFile
// facts. It holds no per-file state and is safe for concurrent use; each
// ParseFile call borrows a tree-sitter parser from the shared pool.
type Parser struct{}

// New returns a ready-to-use Parser.
func New() *Parser { return &Parser{} }

// ParseFile parses content (the current text of the file at path) and
// returns the IndexFile the indexing pipeline feeds into IdMap/delta
// computation. modTime is recorded verbatim into the result for the
// pipeline's cache-skip check (see handleIndexRequest in
// internal/pipeline/workers.go).
func (p *Parser) ParseFile(path string, content []byte, modTime time.Time) (*indexfile.IndexFile, error) {
	lang := LanguageForPath(path)

	ts := getTSParser()
	if ts == nil {
		return nil, errors.New(errors.KindParserFailure, "acquire tree-sitter parser", fmt.Errorf("parser pool exhausted or misconfigured")).WithPath(path)
	}
	defer putTSParser(ts)

	tree := ts.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.KindParserFailure, "parse", fmt.Errorf("tree-sitter returned no tree")).WithPath(path)
	}
	defer tree.Close()

	debug.LogParser("parsed %s as %s", path, lang)

	ex := newExtractor(content, path, lang)
	ex.walk(tree.RootNode())
	ex.finalizeCallees()

	return &indexfile.IndexFile{
		Path:                 path,
		Language:             lang,
		LastModificationTime: modTime,
		Types:                ex.types,
		Funcs:                ex.funcs,
		Vars:                 ex.vars,
		Includes:             ex.includes,
		SkippedRanges:        ex.skipped,
	}, nil
}

// Parse implements pipeline.Parser: it adapts ParseFile's explicit-modTime
// signature for callers that only have a path and its current contents, by
// stat'ing path for the modTime ParseFile records into the result. ctx is
// accepted for interface compatibility; parsing is not currently
// cancelable.
func (p *Parser) Parse(ctx context.Context, path string, contents []byte) (*indexfile.IndexFile, error) {
	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return p.ParseFile(path, contents, modTime)
}
