package lspserver

import "github.com/cxxls/cxxls/internal/types"

// The structs below are the minimal LSP JSON shapes this server consumes
// or produces; the rest of each LSP payload is never looked at and is
// left undeclared.

type wirePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func (p wirePosition) toPosition() types.Position {
	return types.Position{Line: p.Line, Column: p.Character}
}

func fromPosition(p types.Position) wirePosition {
	return wirePosition{Line: p.Line, Character: p.Column}
}

type wireRange struct {
	Start wirePosition `json:"start"`
	End   wirePosition `json:"end"`
}

func fromRange(r types.Range) wireRange {
	return wireRange{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

func (r wireRange) toRange() types.Range {
	return types.Range{Start: r.Start.toPosition(), End: r.End.toPosition()}
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type versionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type textDocumentItem struct {
	URI     string `json:"uri"`
	Text    string `json:"text"`
	Version int    `json:"version"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     wirePosition           `json:"position"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type contentChange struct {
	Range *wireRange `json:"range,omitempty"`
	Text  string     `json:"text"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                 `json:"contentChanges"`
}

type didSaveParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type fileEvent struct {
	URI  string `json:"uri"`
	Type int    `json:"type"` // 1 Created, 2 Changed, 3 Deleted
}

type didChangeWatchedFilesParams struct {
	Changes []fileEvent `json:"changes"`
}

type completionContext struct {
	TriggerKind      int    `json:"triggerKind"`
	TriggerCharacter string `json:"triggerCharacter,omitempty"`
}

type completionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     wirePosition           `json:"position"`
	Context      *completionContext     `json:"context,omitempty"`
}

type completionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

type location struct {
	URI   string    `json:"uri"`
	Range wireRange `json:"range"`
}

type diagnostic struct {
	Range    wireRange `json:"range"`
	Severity int       `json:"severity"`
	Message  string    `json:"message"`
	Source   string    `json:"source,omitempty"`
}

type publishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []diagnostic `json:"diagnostics"`
}

type documentSymbol struct {
	Name     string    `json:"name"`
	Kind     int       `json:"kind"`
	Range    wireRange `json:"range"`
	SelRange wireRange `json:"selectionRange"`
}

type workspaceSymbol struct {
	Name     string   `json:"name"`
	Kind     int      `json:"kind"`
	Location location `json:"location"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

type hoverResult struct {
	Contents string `json:"contents"`
}

type logMessageParams struct {
	Type    int    `json:"type"`
	Message string `json:"message"`
}

// completionItemKind and symbolKindLSP map our internal SymbolKind onto the
// LSP CompletionItemKind and SymbolKind integer enumerations. The two
// enumerations number the three kinds this server reports differently
// (CompletionItemKind/SymbolKind: Class=7/5, Function=3/12, Variable=6/13),
// so each caller uses the function for the enumeration it replies with.
func completionItemKind(k types.SymbolKind) int {
	switch k {
	case types.KindType:
		return 7 // Class
	case types.KindFunc:
		return 3 // Function
	case types.KindVar:
		return 6 // Variable
	default:
		return 1 // Text
	}
}

func symbolKindLSP(k types.SymbolKind) int {
	switch k {
	case types.KindType:
		return 5 // Class
	case types.KindFunc:
		return 12 // Function
	case types.KindVar:
		return 13 // Variable
	case types.KindFile:
		return 1 // File
	default:
		return 1
	}
}
