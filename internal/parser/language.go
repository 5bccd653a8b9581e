package parser

import (
	"path/filepath"
	"strings"

	"github.com/cxxls/cxxls/internal/types"
)

// LanguageForPath classifies a file by extension. Everything it recognizes
// is parsed with the same tree-sitter-cpp grammar (see treesitter.go); the
// Language value is stored on the resulting IndexFile and does not change
// how the extractor walks the tree, so Objective-C's
// @interface/@protocol/@implementation and category syntax gets no special
// mapping (see walk in extractor.go).
func LanguageForPath(path string) types.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return types.LangC
	case ".h":
		// Headers are ambiguous between C and C++; default to C++ since
		// tree-sitter-cpp's grammar is a strict superset and most mixed
		// C/C++ codebases that reach this adapter are C++-dominant.
		return types.LangCpp
	case ".cc", ".cpp", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".h++", ".inl", ".ipp", ".tcc":
		return types.LangCpp
	case ".m":
		return types.LangObjC
	case ".mm":
		return types.LangObjCpp
	default:
		return types.LangUnknown
	}
}

// IsSupported reports whether path names a file this parser can index.
func IsSupported(path string) bool {
	return LanguageForPath(path) != types.LangUnknown
}
