package completion

import (
	"sync"
	"time"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/parser"
	"golang.org/x/sync/singleflight"
)

// translationUnit is one of a Session's two parsed views of a file (the
// completion TU or the diagnostics TU). Each TU is
// guarded by its own mutex so a long reparse of one never blocks a request
// against the other, and both record when they were last (re)parsed so a
// caller can decide whether a cached parse is still worth using.
type translationUnit struct {
	mu         sync.Mutex
	path       string
	buffer     string
	index      *indexfile.IndexFile
	lastParsed time.Time
}

// reparse re-runs the tree-sitter parser over buffer and records the
// result. Caller must hold tu.mu. Parse failures are logged and leave the
// TU's previous index in place, the same "keep the last good state"
// policy the indexing pipeline applies to a failed reparse.
func (tu *translationUnit) reparse(p *parser.Parser, buffer string) {
	idx, err := p.ParseFile(tu.path, []byte(buffer), time.Now())
	if err != nil {
		debug.LogCompletion("reparse %s: %v", tu.path, err)
		return
	}
	tu.buffer = buffer
	tu.index = idx
	tu.lastParsed = time.Now()
}

// Session is one open file's completion state: two independently-locked
// translation units plus the per-session single-flight gate that gives
// code_complete its "one in-flight request at a time, others block or
// coalesce" semantics.
type Session struct {
	path        string
	completion  *translationUnit
	diagnostics *translationUnit
	flight      singleflight.Group

	mu              sync.Mutex
	lastActive      time.Time
	latestRequestID string
}

func newSession(path string) *Session {
	now := time.Now()
	return &Session{
		path:        path,
		completion:  &translationUnit{path: path},
		diagnostics: &translationUnit{path: path},
		lastActive:  now,
	}
}

// touch records recent activity; called on notify_edit so a session that
// is being actively typed into doesn't look idle to anything inspecting
// lastActive (nothing currently evicts on idleness beyond plain LRU order,
// but the timestamp is kept for that natural extension).
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LastActive returns when this session last saw notify_edit activity.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// beginRequest records requestID as this session's newest request. A
// request still waiting on the TU lock when a newer one arrives has been
// superseded; see Session.superseded.
func (s *Session) beginRequest(requestID string) {
	if requestID == "" {
		return
	}
	s.mu.Lock()
	s.latestRequestID = requestID
	s.mu.Unlock()
}

// superseded reports whether requestID is no longer this session's latest
// request. An empty requestID (the caller doesn't care about cancellation)
// is never superseded.
func (s *Session) superseded(requestID string) bool {
	if requestID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestRequestID != requestID
}
