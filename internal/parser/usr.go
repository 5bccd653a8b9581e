package parser

import (
	"strings"

	"github.com/cxxls/cxxls/internal/types"
)

// makeUSR builds the parser's Unified Symbol Resolution spelling and hashes
// it into a types.USR. qualifiedName is the fully scope-qualified name
// (namespace::class::member); sig is an extra disambiguator appended for
// overloaded functions. The join of parameter type spellings is
// best-effort: two overloads whose parameter text happens to match
// textually collide, an accepted consequence of hashing a spelling
// string rather than a resolved type.
func makeUSR(kind types.SymbolKind, qualifiedName, sig string) types.USR {
	var b strings.Builder
	b.WriteString(kind.String())
	b.WriteByte('|')
	b.WriteString(qualifiedName)
	if sig != "" {
		b.WriteByte('|')
		b.WriteString(sig)
	}
	return types.HashUSR(b.String())
}

// qualify joins a scope stack and a leaf name with "::", the spelling
// tree-sitter-cpp's own node text uses for qualified_identifier.
func qualify(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, "::") + "::" + name
}
