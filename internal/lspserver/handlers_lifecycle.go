package lspserver

import (
	"encoding/json"
	"sync/atomic"

	"github.com/cxxls/cxxls/internal/version"
)

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// serverCapabilities advertises exactly the methods methodTable actually
// serves, so a conformant client never sends one this core would reject.
type serverCapabilities struct {
	TextDocumentSync                int                    `json:"textDocumentSync"`
	CompletionProvider              map[string]interface{} `json:"completionProvider"`
	SignatureHelpProvider           map[string]interface{} `json:"signatureHelpProvider"`
	DefinitionProvider              bool                   `json:"definitionProvider"`
	TypeDefinitionProvider          bool                   `json:"typeDefinitionProvider"`
	ImplementationProvider          bool                   `json:"implementationProvider"`
	ReferencesProvider              bool                   `json:"referencesProvider"`
	DocumentHighlightProvider       bool                   `json:"documentHighlightProvider"`
	DocumentSymbolProvider          bool                   `json:"documentSymbolProvider"`
	DocumentLinkProvider            map[string]interface{} `json:"documentLinkProvider,omitempty"`
	HoverProvider                   bool                   `json:"hoverProvider"`
	RenameProvider                  bool                   `json:"renameProvider"`
	DocumentFormattingProvider      bool                   `json:"documentFormattingProvider"`
	DocumentRangeFormattingProvider bool                   `json:"documentRangeFormattingProvider"`
	WorkspaceSymbolProvider         bool                   `json:"workspaceSymbolProvider"`
	ExecuteCommandProvider          map[string]interface{} `json:"executeCommandProvider,omitempty"`
}

func (s *Server) handleInitialize(id requestID, _ json.RawMessage) {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.reply(id, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync:                2, // Incremental
			CompletionProvider:              map[string]interface{}{"resolveProvider": false},
			SignatureHelpProvider:           map[string]interface{}{"triggerCharacters": []string{"(", ","}},
			DefinitionProvider:              true,
			TypeDefinitionProvider:          true,
			ImplementationProvider:          true,
			ReferencesProvider:              true,
			DocumentHighlightProvider:       true,
			DocumentSymbolProvider:          true,
			DocumentLinkProvider:            map[string]interface{}{"resolveProvider": false},
			HoverProvider:                   true,
			RenameProvider:                  true,
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			WorkspaceSymbolProvider:         true,
			ExecuteCommandProvider:          map[string]interface{}{"commands": []string{}},
		},
		ServerInfo: serverInfo{Name: "cxxls", Version: version.Info()},
	})
}

func (s *Server) handleInitialized(_ requestID, _ json.RawMessage) {
	s.logMessage("cxxls %s ready", version.FullInfo())
}

func (s *Server) handleShutdown(id requestID, _ json.RawMessage) {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.reply(id, nil)
}

func (s *Server) handleExit(_ requestID, _ json.RawMessage) {
	s.pl.Close()
	atomic.StoreInt32(&s.exiting, 1)
	if s.cancel != nil {
		s.cancel()
	}
}
