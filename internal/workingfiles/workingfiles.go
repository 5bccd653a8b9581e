// Package workingfiles implements the working-files store: the
// server's view of every file the client currently has open, including
// its live buffer, version, a cached diagnostics set, and the buffer
// snapshot last handed to the indexer.
package workingfiles

import (
	"sort"
	"sync"

	"github.com/cxxls/cxxls/internal/types"
)

// Diagnostic is a cached diagnostic against a working file's buffer.
type Diagnostic struct {
	Range    types.Range
	Severity int
	Message  string
	Source   string
}

// TextEdit is one LSP incremental-change edit: replace Range with NewText.
// A nil Range (zero value with equal Start/End at 0,0 is a valid edit;
// use HasRange to distinguish a full-document replace) means "replace the
// whole buffer".
type TextEdit struct {
	HasRange bool
	Range    types.Range
	NewText  string
}

// WorkingFile is one open document's server-side state.
type WorkingFile struct {
	Path    string
	Version int
	Buffer  string

	Diagnostics []Diagnostic

	// LastIndexedSnapshot is the buffer content the indexer last produced
	// an IndexFile from; used by completion to decide whether a cached
	// session's parse is still close enough to reuse without reparsing.
	LastIndexedSnapshot string
}

// FindStableCompletionSource shifts pos back over the identifier token
// ending at it: start is the token's first character (the position a
// cached completion answer stays valid for regardless of how much of the
// token has been typed), existing is the token itself (for fuzzy-filtering
// cached results), isGlobal is false when the token follows a member or
// scope access operator (`.`, `->`, `::`), and end is the token's last
// character plus one.
func (f *WorkingFile) FindStableCompletionSource(pos types.Position) (start types.Position, existing string, isGlobal bool, end types.Position) {
	starts := lineIndex(f.Buffer)
	off := offsetOf(f.Buffer, starts, pos)

	tokStart := off
	for tokStart > 0 && isIdentByte(f.Buffer[tokStart-1]) {
		tokStart--
	}
	tokEnd := off
	for tokEnd < len(f.Buffer) && isIdentByte(f.Buffer[tokEnd]) {
		tokEnd++
	}

	isGlobal = true
	if tokStart >= 2 {
		two := f.Buffer[tokStart-2 : tokStart]
		if two == "->" || two == "::" {
			isGlobal = false
		}
	}
	if isGlobal && tokStart >= 1 && f.Buffer[tokStart-1] == '.' {
		isGlobal = false
	}

	start = types.Position{Line: pos.Line, Column: pos.Column - (off - tokStart)}
	end = types.Position{Line: pos.Line, Column: pos.Column + (tokEnd - off)}
	return start, f.Buffer[tokStart:tokEnd], isGlobal, end
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// lineIndex returns the byte offset of the start of each line in buf
// (line 0 starts at offset 0).
func lineIndex(buf string) []int {
	starts := []int{0}
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetOf(buf string, starts []int, pos types.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(starts) {
		return len(buf)
	}
	off := starts[pos.Line] + pos.Column
	if off > len(buf) {
		return len(buf)
	}
	if off < starts[pos.Line] {
		return starts[pos.Line]
	}
	return off
}

// applyEdit applies one TextEdit to buf, recomputing the line index
// against buf's current state (edits are applied serially, each against
// the result of the previous one, per LSP's textDocument/didChange rule).
func applyEdit(buf string, e TextEdit) string {
	if !e.HasRange {
		return e.NewText
	}
	starts := lineIndex(buf)
	start := offsetOf(buf, starts, e.Range.Start)
	end := offsetOf(buf, starts, e.Range.End)
	if end < start {
		start, end = end, start
	}
	return buf[:start] + e.NewText + buf[end:]
}

// Store holds every currently-open working file, keyed by normalized URI
// path.
type Store struct {
	mu    sync.RWMutex
	files map[string]*WorkingFile
}

// New returns an empty working-files store.
func New() *Store {
	return &Store{files: map[string]*WorkingFile{}}
}

// Open registers a newly-opened document.
func (s *Store) Open(path string, version int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = &WorkingFile{Path: path, Version: version, Buffer: text}
}

// Close removes a document from the store.
func (s *Store) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
}

// OnChange applies a batch of incremental edits in order, bumping the
// file's version. Returns false if path is not open.
func (s *Store) OnChange(path string, version int, edits []TextEdit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	if !ok {
		return false
	}
	buf := f.Buffer
	for _, e := range edits {
		buf = applyEdit(buf, e)
	}
	f.Buffer = buf
	f.Version = version
	return true
}

// SetDiagnostics replaces a file's cached diagnostics.
func (s *Store) SetDiagnostics(path string, diags []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		f.Diagnostics = diags
	}
}

// MarkIndexed records that the indexer just consumed the file's current
// buffer contents, so future completion requests can tell whether the
// buffer has drifted since.
func (s *Store) MarkIndexed(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		f.LastIndexedSnapshot = f.Buffer
	}
}

// Get returns a copy of a working file's current state.
func (s *Store) Get(path string) (WorkingFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return WorkingFile{}, false
	}
	return *f, true
}

// DoActionOnFile runs fn against path's current WorkingFile under the
// store's write lock, so multi-step read/modify sequences (e.g. applying
// a diagnostics rate-limit decision) see a consistent snapshot.
func (s *Store) DoActionOnFile(path string, fn func(*WorkingFile)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	if !ok {
		return false
	}
	fn(f)
	return true
}

// UnchangedSinceIndex reports whether path's buffer is unchanged since it
// was last handed to the indexer; if so, per-file state derived from the
// index (semantic highlighting, outline) still lines up with what the
// client is displaying.
func (s *Store) UnchangedSinceIndex(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return false
	}
	return f.Buffer == f.LastIndexedSnapshot
}

// Paths returns every currently-open file path, sorted.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
