// Package completion implements the completion session cache: two
// bounded LRU caches of CompletionSession (preloaded files and files the
// user actually completed in), per-session dual translation units, and the
// global/non-global result caches that decide whether code_complete can
// answer from memory.
package completion

import (
	"fmt"
	"sync"
	"time"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/errors"
	"github.com/cxxls/cxxls/internal/fuzzy"
	"github.com/cxxls/cxxls/internal/lru"
	"github.com/cxxls/cxxls/internal/parser"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/types"
	"github.com/cxxls/cxxls/internal/workingfiles"
)

const (
	maxPreloadedSessions  = 10
	maxCompletionSessions = 5

	maxCompletionItems = 100
)

// Manager owns both session caches and the result caches layered on top of
// them. One mutex covers both session LRUs so a move between them is
// atomic; resultCache guards itself.
type Manager struct {
	parser  *parser.Parser
	db      *querydb.DB
	matcher *fuzzy.Matcher

	// filterAndSort mirrors the completion.filterAndSort option: when
	// false, candidates come back in declaration order, unranked, and the
	// client does its own filtering. Read/written under mu.
	filterAndSort bool

	mu         sync.Mutex
	preloaded  *lru.Cache[string, *Session]
	completion *lru.Cache[string, *Session]

	results *resultCache
}

// New builds a completion Manager around an existing parser and QueryDB.
func New(p *parser.Parser, db *querydb.DB) *Manager {
	return &Manager{
		parser:        p,
		db:            db,
		matcher:       fuzzy.NewMatcher(0),
		filterAndSort: true,
		preloaded:     lru.New[string, *Session](maxPreloadedSessions),
		completion:    lru.New[string, *Session](maxCompletionSessions),
		results:       newResultCache(),
	}
}

// SetFilterAndSort applies the completion.filterAndSort config option.
func (m *Manager) SetFilterAndSort(enabled bool) {
	m.mu.Lock()
	m.filterAndSort = enabled
	m.mu.Unlock()
}

// NotifyView ensures a preloaded session exists for path, creating one (and
// LRU-evicting the least-recently-viewed preloaded session if over bound)
// if absent. Corresponds to textDocument/didOpen.
func (m *Manager) NotifyView(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, evicted, didEvict := m.preloaded.GetOrCreate(path, func() *Session { return newSession(path) })
	if didEvict {
		debug.LogCompletion("preloaded session cache evicted %s", evicted)
	}
}

// NotifyEdit marks path's session (wherever it lives) as recently active
// and drops its cached results, since the buffer just changed underneath
// them. Corresponds to textDocument/didChange.
func (m *Manager) NotifyEdit(path string) {
	m.mu.Lock()
	if s, ok := m.completion.GetPromote(path); ok {
		s.touch()
	} else if s, ok := m.preloaded.GetPromote(path); ok {
		s.touch()
	}
	m.mu.Unlock()
	m.results.invalidatePath(path)
}

// NotifySave schedules a reparse of both of path's translation units
// against buffer and drops cached results. Corresponds to
// textDocument/didSave.
func (m *Manager) NotifySave(path, buffer string) {
	sess := m.sessionFor(path)
	if sess == nil {
		return
	}
	go func() {
		sess.completion.mu.Lock()
		sess.completion.reparse(m.parser, buffer)
		sess.completion.mu.Unlock()

		sess.diagnostics.mu.Lock()
		sess.diagnostics.reparse(m.parser, buffer)
		sess.diagnostics.mu.Unlock()
	}()
	m.results.invalidatePath(path)
}

// NotifyClose drops path's session from both caches. Corresponds to
// textDocument/didClose.
func (m *Manager) NotifyClose(path string) {
	m.mu.Lock()
	m.preloaded.Remove(path)
	m.completion.Remove(path)
	m.mu.Unlock()
	m.results.invalidatePath(path)
}

// FlushAll drops every session from both caches and every cached result,
// the "flush all completion sessions" step workspace/didChangeConfiguration
// triggers once the project's settings (and therefore everything a session
// might have cached) can no longer be trusted.
func (m *Manager) FlushAll() {
	m.mu.Lock()
	m.preloaded = lru.New[string, *Session](maxPreloadedSessions)
	m.completion = lru.New[string, *Session](maxCompletionSessions)
	m.mu.Unlock()
	m.results = newResultCache()
}

// sessionFor looks up path in the completion cache first (the bound the
// user has actually completed in), then the preloaded cache, promoting
// whichever hits. Returns nil if path has no session in either cache.
func (m *Manager) sessionFor(path string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.completion.GetPromote(path); ok {
		return s
	}
	if s, ok := m.preloaded.GetPromote(path); ok {
		return s
	}
	return nil
}

// promoteToCompletion moves (or copies the reference of) sess into the
// completion cache, which tracks files the user actually completed in,
// evicting that cache's LRU entry if over its bound.
func (m *Manager) promoteToCompletion(path string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completion.GetPromote(path); ok {
		return
	}
	if evicted, didEvict := m.completion.Insert(path, sess); didEvict {
		debug.LogCompletion("completion session cache evicted %s", evicted)
	}
}

// Callback is invoked once per code_complete dispatch with the results
// (or, on the background-refresh-only dispatch following a global cache
// hit, never invoked at all; see CodeComplete). isCachedResult tells the
// caller whether this reply came from a result cache or a fresh parse.
type Callback func(requestID string, items []Item, isCachedResult bool)

// CodeComplete routes a completion request into path's session. requestID
// is optional (empty means "no cancellation tracking"); global selects
// which result cache governs this request (the caller knows from the LSP
// trigger kind whether a narrower, position-keyed cache applies). buffer
// is the current in-memory contents of the document. onComplete is called
// with the results; onDropped (if non-nil) is called instead if this
// request was superseded by a newer one before it could run.
func (m *Manager) CodeComplete(requestID, path string, pos types.Position, buffer string, global bool, onComplete Callback, onDropped func(requestID string)) {
	sess := m.sessionOrCreate(path)
	sess.beginRequest(requestID)

	if cached, ok := m.results.get("complete", path, pos, global); ok {
		onComplete(requestID, cached, true)
		if global {
			// Background refresh-only dispatch: computes a fresh answer and
			// recaches it, but never replies (the client already has its
			// answer for this request).
			go m.dispatch(sess, requestID, path, pos, buffer, global, nil, nil)
		}
		return
	}

	m.dispatch(sess, requestID, path, pos, buffer, global, onComplete, onDropped)
}

func (m *Manager) sessionOrCreate(path string) *Session {
	if sess := m.sessionFor(path); sess != nil {
		return sess
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, _, _ := m.preloaded.GetOrCreate(path, func() *Session { return newSession(path) })
	return sess
}

func (m *Manager) dispatch(sess *Session, requestID, path string, pos types.Position, buffer string, global bool, onComplete Callback, onDropped func(string)) {
	key := path
	if !global {
		key = fmt.Sprintf("%s@%s", path, pos)
	}

	v, err, _ := sess.flight.Do(key, func() (interface{}, error) {
		sess.completion.mu.Lock()
		defer sess.completion.mu.Unlock()

		if sess.superseded(requestID) {
			return nil, errors.New(errors.KindRequestDropped, "code_complete", fmt.Errorf("request %s superseded", requestID))
		}

		if sess.completion.buffer != buffer {
			sess.completion.reparse(m.parser, buffer)
		}
		items := m.computeItems(sess, pos)
		m.results.put("complete", path, pos, global, items)
		return items, nil
	})

	if err != nil {
		if onDropped != nil {
			onDropped(requestID)
		}
		if ce, ok := err.(*errors.CoreError); !ok || ce.Kind != errors.KindRequestDropped {
			debug.LogCompletion("code_complete %s: %v", path, err)
		}
		return
	}

	m.promoteToCompletion(path, sess)
	if onComplete != nil {
		onComplete(requestID, v.([]Item), false)
	}
}

// SignatureHelp reuses the completion machinery, with a
// non-global cache keyed on position (signature help is only ever valid
// for the exact call-site position it was requested at).
func (m *Manager) SignatureHelp(requestID, path string, pos types.Position, buffer string, onComplete Callback) {
	if cached, ok := m.results.get("sighelp", path, pos, false); ok {
		onComplete(requestID, cached, true)
		return
	}

	sess := m.sessionOrCreate(path)
	sess.completion.mu.Lock()
	defer sess.completion.mu.Unlock()

	if sess.completion.buffer != buffer {
		sess.completion.reparse(m.parser, buffer)
	}
	items := m.computeSignatures(sess, pos)
	m.results.put("sighelp", path, pos, false, items)
	onComplete(requestID, items, false)
}

// DiagnosticsUpdate reparses path's diagnostics TU against buffer and
// derives diagnostics from the parse. There is no semantic checker behind
// internal/parser, so the only signal available here is structural: dead
// (#if 0) code ranges surface as informational diagnostics. A real
// compile-error checker is outside what a tree-sitter grammar can provide
// and is left as a natural extension point.
func (m *Manager) DiagnosticsUpdate(path, buffer string) []workingfiles.Diagnostic {
	sess := m.sessionOrCreate(path)
	sess.diagnostics.mu.Lock()
	defer sess.diagnostics.mu.Unlock()

	idx, err := m.parser.ParseFile(path, []byte(buffer), time.Now())
	if err != nil {
		return []workingfiles.Diagnostic{{
			Severity: 1, // Error
			Message:  err.Error(),
			Source:   "cxxls",
		}}
	}
	sess.diagnostics.buffer = buffer
	sess.diagnostics.index = idx
	sess.diagnostics.lastParsed = time.Now()

	diags := make([]workingfiles.Diagnostic, 0, len(idx.SkippedRanges))
	for _, r := range idx.SkippedRanges {
		diags = append(diags, workingfiles.Diagnostic{
			Range:    r,
			Severity: 3, // Information
			Message:  "inactive code (#if 0)",
			Source:   "cxxls",
		})
	}
	return diags
}
