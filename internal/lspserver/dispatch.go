package lspserver

import (
	"encoding/json"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/errors"
)

// handlerFunc serves both requests and notifications: id.present is false
// for a notification, and such a handler must never call s.reply.
type handlerFunc func(s *Server, id requestID, params json.RawMessage)

var methodTable = map[string]handlerFunc{
	"initialize":  (*Server).handleInitialize,
	"initialized": (*Server).handleInitialized,
	"shutdown":    (*Server).handleShutdown,
	"exit":        (*Server).handleExit,

	"textDocument/didOpen":   (*Server).handleDidOpen,
	"textDocument/didChange": (*Server).handleDidChange,
	"textDocument/didSave":   (*Server).handleDidSave,
	"textDocument/didClose":  (*Server).handleDidClose,

	"workspace/didChangeConfiguration": (*Server).handleDidChangeConfiguration,
	"workspace/didChangeWatchedFiles":  (*Server).handleDidChangeWatchedFiles,

	"textDocument/completion":    (*Server).handleCompletion,
	"textDocument/signatureHelp": (*Server).handleSignatureHelp,

	"textDocument/definition":        (*Server).handleDefinition,
	"textDocument/typeDefinition":    (*Server).handleTypeDefinition,
	"textDocument/implementation":    (*Server).handleImplementation,
	"textDocument/references":        (*Server).handleReferences,
	"textDocument/documentHighlight": (*Server).handleDocumentHighlight,
	"textDocument/documentSymbol":    (*Server).handleDocumentSymbol,
	"textDocument/documentLink":      (*Server).handleDocumentLink,
	"textDocument/hover":             (*Server).handleHover,
	"textDocument/rename":            (*Server).handleRename,
	"textDocument/formatting":        (*Server).handleFormatting,
	"textDocument/rangeFormatting":   (*Server).handleRangeFormatting,
	"workspace/symbol":               (*Server).handleWorkspaceSymbol,
	"workspace/executeCommand":       (*Server).handleExecuteCommand,

	"$cquery/callHierarchy":        (*Server).handleCallHierarchy,
	"$cquery/inheritanceHierarchy": (*Server).handleInheritanceHierarchy,
	"$cquery/vars":                 (*Server).handleVars,
	"$cquery/freshenIndex":         (*Server).handleFreshenIndex,
}

// dispatch looks up method in the table and invokes it. An unknown method
// on a request gets a MethodNotFound response; on a notification it is
// logged and dropped (LSP clients routinely send optional notifications
// this core has no use for).
func (s *Server) dispatch(id requestID, method string, params json.RawMessage) {
	h, ok := methodTable[method]
	if !ok {
		if id.present {
			s.replyError(id, errors.New(errors.KindMethodNotFound, method, nil).WithPath(method))
		} else {
			debug.LogLSP("unhandled notification %q", method)
		}
		return
	}

	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized && method != "initialize" && method != "exit" {
		if id.present {
			le := notInitializedError()
			s.enqueueOut(outboundResponse{JSONRPC: jsonrpcVersion, ID: id, Error: &le})
		}
		return
	}

	h(s, id, params)
}
