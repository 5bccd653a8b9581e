package parser

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

var (
	cppLanguage     *tree_sitter.Language
	cppLanguageOnce sync.Once
)

func getCppLanguage() *tree_sitter.Language {
	cppLanguageOnce.Do(func() {
		cppLanguage = tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	})
	return cppLanguage
}

// tsParserPool pools *tree_sitter.Parser instances. A tree-sitter Parser is
// not safe for concurrent use, but it is cheap to reset between files, so a
// pool avoids re-loading the grammar on every call while still letting the
// indexing pipeline's worker pool parse many files in parallel.
var tsParserPool = sync.Pool{
	New: func() any {
		p := tree_sitter.NewParser()
		if err := p.SetLanguage(getCppLanguage()); err != nil {
			// SetLanguage only fails for an ABI mismatch between the Go
			// binding and the grammar; both are pinned in go.mod so this
			// is not reachable in practice.
			return nil
		}
		return p
	},
}

func getTSParser() *tree_sitter.Parser {
	p, _ := tsParserPool.Get().(*tree_sitter.Parser)
	return p
}

func putTSParser(p *tree_sitter.Parser) {
	if p != nil {
		tsParserPool.Put(p)
	}
}
