package lspserver

import (
	"encoding/json"

	"github.com/cxxls/cxxls/internal/config"
	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/pipeline"
	"github.com/cxxls/cxxls/internal/uri"
	"github.com/cxxls/cxxls/internal/workingfiles"
)

func (s *Server) pathForURI(u string) (string, bool) {
	path, err := uri.FromURI(u)
	if err != nil {
		debug.LogLSP("invalid uri %q: %v", u, err)
		return "", false
	}
	s.uris.Remember(path, u)
	return path, true
}

func (s *Server) handleDidOpen(_ requestID, raw json.RawMessage) {
	var p didOpenParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("didOpen: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	s.working.Open(path, p.TextDocument.Version, p.TextDocument.Text)
	s.pl.EnqueueIndexRequest(pipeline.Request{Path: path, Contents: []byte(p.TextDocument.Text), IsInteractive: true}, true)
	s.working.MarkIndexed(path)
	s.completion.NotifyView(path)
	s.refreshDiagnostics(path, p.TextDocument.Text)
}

func (s *Server) handleDidChange(_ requestID, raw json.RawMessage) {
	var p didChangeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("didChange: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}

	edits := make([]workingfiles.TextEdit, len(p.ContentChanges))
	for i, c := range p.ContentChanges {
		if c.Range == nil {
			edits[i] = workingfiles.TextEdit{NewText: c.Text}
			continue
		}
		edits[i] = workingfiles.TextEdit{
			HasRange: true,
			Range:    wireRange(*c.Range).toRange(),
			NewText:  c.Text,
		}
	}
	if !s.working.OnChange(path, p.TextDocument.Version, edits) {
		debug.LogLSP("didChange on unopened file %s", path)
		return
	}

	wf, _ := s.working.Get(path)
	if s.cfg.EnableIndexOnDidChange {
		s.pl.EnqueueIndexRequest(pipeline.Request{Path: path, Contents: []byte(wf.Buffer), IsInteractive: true}, true)
		s.working.MarkIndexed(path)
	}
	s.completion.NotifyEdit(path)
	s.refreshDiagnostics(path, wf.Buffer)
}

func (s *Server) handleDidSave(_ requestID, raw json.RawMessage) {
	var p didSaveParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("didSave: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	wf, found := s.working.Get(path)
	if !found {
		return
	}
	if !s.cfg.EnableIndexOnDidChange {
		s.pl.EnqueueIndexRequest(pipeline.Request{Path: path, Contents: []byte(wf.Buffer), IsInteractive: true}, true)
	}
	s.completion.NotifySave(path, wf.Buffer)
	s.refreshDiagnostics(path, wf.Buffer)
}

func (s *Server) handleDidClose(_ requestID, raw json.RawMessage) {
	var p didCloseParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("didClose: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	s.working.SetDiagnostics(path, nil)
	s.publishDiagnostics(path, nil)
	s.working.Close(path)
	s.completion.NotifyClose(path)
	s.highlight.Forget(path)
	s.uris.Forget(path)
}

func (s *Server) handleDidChangeConfiguration(_ requestID, _ json.RawMessage) {
	cfg, err := config.Load(s.cfg.ProjectRoot)
	if err != nil {
		debug.LogLSP("reload configuration: %v", err)
		return
	}
	s.cfg = cfg
	s.diag = newDiagnosticsRateLimiter(cfg.Diagnostics.FrequencyMs)
	s.completion.SetFilterAndSort(cfg.Completion.FilterAndSort)
	s.completion.FlushAll()

	for _, path := range s.working.Paths() {
		wf, ok := s.working.Get(path)
		if !ok {
			continue
		}
		s.pl.EnqueueIndexRequest(pipeline.Request{Path: path, Contents: []byte(wf.Buffer), IsInteractive: true}, true)
	}
}

func (s *Server) handleDidChangeWatchedFiles(_ requestID, raw json.RawMessage) {
	var p didChangeWatchedFilesParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("didChangeWatchedFiles: %v", err)
		return
	}
	for _, ev := range p.Changes {
		path, err := uri.FromURI(ev.URI)
		if err != nil {
			debug.LogLSP("invalid uri %q: %v", ev.URI, err)
			continue
		}
		if ev.Type == 3 { // Deleted
			s.pl.EnqueueIndexRequest(pipeline.Request{Path: path, Deleted: true}, false)
			continue
		}
		s.pl.EnqueueIndexRequest(pipeline.Request{Path: path}, false)
	}
}

// refreshDiagnostics reparses path's diagnostics TU against buffer and
// publishes the result, subject to the rate limiter.
func (s *Server) refreshDiagnostics(path, buffer string) {
	diags := s.completion.DiagnosticsUpdate(path, buffer)
	s.working.SetDiagnostics(path, diags)
	s.publishDiagnostics(path, diags)
}

func (s *Server) publishDiagnostics(path string, diags []workingfiles.Diagnostic) {
	// A clear (empty set) always goes out, even for a path the filters
	// exclude: a reconfiguration must be able to retract what an earlier
	// configuration published.
	if len(diags) > 0 && !pathPassesFilters(path, s.cfg.Diagnostics.Whitelist, s.cfg.Diagnostics.Blacklist) {
		return
	}
	if !s.diag.allow(path, len(diags) == 0) {
		return
	}
	out := make([]diagnostic, len(diags))
	for i, d := range diags {
		out[i] = diagnostic{Range: fromRange(d.Range), Severity: d.Severity, Message: d.Message, Source: d.Source}
	}
	s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{URI: s.uris.URIFor(path), Diagnostics: out})
}
