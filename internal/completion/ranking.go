package completion

import (
	"sort"
	"strings"

	"github.com/cxxls/cxxls/internal/fuzzy"
	"github.com/cxxls/cxxls/internal/types"
)

// prefixAt returns the run of identifier characters ending at pos in
// buffer, the partial word the client is completing.
func prefixAt(buffer string, pos types.Position) string {
	line := 0
	lineStart := 0
	for i := 0; i < len(buffer) && line < pos.Line; i++ {
		if buffer[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	if line != pos.Line {
		return ""
	}
	col := pos.Column
	end := lineStart + col
	if end > len(buffer) {
		end = len(buffer)
	}
	start := end
	for start > lineStart && isIdentByte(buffer[start-1]) {
		start--
	}
	return buffer[start:end]
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// candidate pairs a rankable name with the Item it expands to.
type candidate struct {
	name string
	item Item
}

// computeItems ranks candidate names (local declarations from the
// session's own completion TU plus every workspace-indexed symbol) against
// the identifier prefix at pos, returning the top matches by score.
func (m *Manager) computeItems(sess *Session, pos types.Position) []Item {
	prefix := prefixAt(sess.completion.buffer, pos)

	var cands []candidate
	seen := map[string]bool{}
	addCandidate := func(name string, item Item) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		cands = append(cands, candidate{name: name, item: item})
	}

	if idx := sess.completion.index; idx != nil {
		for _, t := range idx.Types {
			addCandidate(t.Def.ShortName, Item{Label: t.Def.ShortName, Kind: types.KindType, Detail: t.Def.DetailedName})
		}
		for _, f := range idx.Funcs {
			addCandidate(f.Def.ShortName, Item{Label: f.Def.ShortName, Kind: types.KindFunc, Detail: f.Def.DetailedName})
		}
		for _, v := range idx.Vars {
			addCandidate(v.Def.ShortName, Item{Label: v.Def.ShortName, Kind: types.KindVar, Detail: v.Def.DetailedName})
		}
	}

	for _, s := range m.db.AllIndexedSymbols() {
		addCandidate(s.ShortName, Item{Label: s.ShortName, Kind: s.Kind, Detail: s.Name})
	}

	return rankCandidates(m.matcher, prefix, cands, m.filterAndSortEnabled())
}

// computeSignatures ranks function-shaped candidates only, the
// signatureHelp use of the same machinery.
func (m *Manager) computeSignatures(sess *Session, pos types.Position) []Item {
	prefix := callTargetPrefix(sess.completion.buffer, pos)

	var cands []candidate
	seen := map[string]bool{}
	addFunc := func(name, detail string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		cands = append(cands, candidate{name: name, item: Item{Label: name, Kind: types.KindFunc, Detail: detail}})
	}

	if idx := sess.completion.index; idx != nil {
		for _, f := range idx.Funcs {
			addFunc(f.Def.ShortName, f.Def.DetailedName)
		}
	}
	for _, s := range m.db.AllIndexedSymbols() {
		if s.Kind == types.KindFunc {
			addFunc(s.ShortName, s.Name)
		}
	}

	return rankCandidates(m.matcher, prefix, cands, m.filterAndSortEnabled())
}

func (m *Manager) filterAndSortEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterAndSort
}

// rankCandidates scores candidates against prefix and returns the top
// matches. With filterAndSort disabled it returns everything in
// declaration order and leaves filtering to the client.
func rankCandidates(matcher *fuzzy.Matcher, prefix string, cands []candidate, filterAndSort bool) []Item {
	if !filterAndSort {
		if len(cands) > maxCompletionItems {
			cands = cands[:maxCompletionItems]
		}
		items := make([]Item, len(cands))
		for i, c := range cands {
			items[i] = c.item
		}
		return items
	}

	type scored struct {
		candidate
		score int
	}
	out := make([]scored, 0, len(cands))
	for _, c := range cands {
		if prefix == "" {
			out = append(out, scored{c, 0})
			continue
		}
		s := matcher.Score(prefix, c.name)
		if matcher.Accepts(s) {
			out = append(out, scored{c, s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].name < out[j].name
	})

	if len(out) > maxCompletionItems {
		out = out[:maxCompletionItems]
	}
	items := make([]Item, len(out))
	for i, s := range out {
		items[i] = s.item
	}
	return items
}

// callTargetPrefix returns the identifier immediately preceding an open
// paren before pos, a crude call-site detector good enough to scope
// signature-help candidates without a real parse-tree cursor at the
// request position.
func callTargetPrefix(buffer string, pos types.Position) string {
	upto := prefixUpToPosition(buffer, pos)
	i := strings.LastIndexByte(upto, '(')
	if i < 0 {
		return ""
	}
	end := i
	start := end
	for start > 0 && isIdentByte(upto[start-1]) {
		start--
	}
	return upto[start:end]
}

func prefixUpToPosition(buffer string, pos types.Position) string {
	line := 0
	lineStart := 0
	for i := 0; i < len(buffer) && line < pos.Line; i++ {
		if buffer[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	if line != pos.Line {
		return buffer
	}
	end := lineStart + pos.Column
	if end > len(buffer) {
		end = len(buffer)
	}
	return buffer[:end]
}
