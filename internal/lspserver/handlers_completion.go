package lspserver

import (
	"encoding/json"
	"sort"

	"github.com/cxxls/cxxls/internal/completion"
	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/fuzzy"
)

func toCompletionItems(items []completion.Item) []completionItem {
	out := make([]completionItem, len(items))
	for i, it := range items {
		out[i] = completionItem{Label: it.Label, Kind: completionItemKind(it.Kind), Detail: it.Detail}
	}
	return out
}

// isGlobalTrigger decides which of the two completion result caches governs this
// request. A manually-invoked completion (no context, or TriggerKind
// Invoked) answers the same regardless of exact cursor column as long as
// the file hasn't changed, so it uses the broader, path-keyed global
// cache; a completion triggered by typing a specific character only ever
// answers for that exact position, so it uses the narrower one.
func isGlobalTrigger(ctx *completionContext) bool {
	return ctx == nil || ctx.TriggerKind != 2
}

func (s *Server) handleCompletion(id requestID, raw json.RawMessage) {
	var p completionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("completion: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	wf, found := s.working.Get(path)
	if !found {
		s.replyError(id, s.fileUnknownError("completion", path))
		return
	}

	// Shift the request position back to the start of the token under the
	// cursor: every keystroke inside one token then shares a cache entry,
	// and the extracted token re-filters whatever the cache answers with.
	stable, existing, tokenGlobal, _ := wf.FindStableCompletionSource(p.Position.toPosition())
	global := isGlobalTrigger(p.Context) && tokenGlobal

	s.completion.CodeComplete(id.String(), path, stable, wf.Buffer, global,
		func(requestID string, items []completion.Item, isCachedResult bool) {
			if existing != "" && s.cfg.Completion.FilterAndSort {
				items = filterByToken(s.matcher, existing, items)
			}
			s.reply(id, toCompletionItems(items))
		},
		func(requestID string) {
			debug.LogLSP("completion request %s superseded", requestID)
		},
	)
}

// filterByToken re-ranks completion items against the partially-typed
// token. Results served from a position-stable cache were computed with no
// prefix at all, so this pass is what makes them answer the token actually
// on screen.
func filterByToken(matcher *fuzzy.Matcher, token string, items []completion.Item) []completion.Item {
	type scored struct {
		item  completion.Item
		score int
	}
	kept := make([]scored, 0, len(items))
	for _, it := range items {
		sc := matcher.Score(token, it.Label)
		if matcher.Accepts(sc) {
			kept = append(kept, scored{it, sc})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	out := make([]completion.Item, len(kept))
	for i, k := range kept {
		out[i] = k.item
	}
	return out
}

func (s *Server) handleSignatureHelp(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("signatureHelp: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	wf, found := s.working.Get(path)
	if !found {
		s.replyError(id, s.fileUnknownError("signatureHelp", path))
		return
	}

	s.completion.SignatureHelp(id.String(), path, p.Position.toPosition(), wf.Buffer,
		func(requestID string, items []completion.Item, isCachedResult bool) {
			sigs := make([]map[string]interface{}, len(items))
			for i, it := range items {
				sigs[i] = map[string]interface{}{"label": it.Detail, "documentation": ""}
				if it.Detail == "" {
					sigs[i]["label"] = it.Label
				}
			}
			s.reply(id, map[string]interface{}{"signatures": sigs, "activeSignature": 0, "activeParameter": 0})
		},
	)
}
