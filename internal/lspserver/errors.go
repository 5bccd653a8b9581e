package lspserver

import (
	"github.com/cxxls/cxxls/internal/errors"
	"github.com/cxxls/cxxls/internal/pipeline"
)

// Standard JSON-RPC / LSP error codes (the subset this server emits).
const (
	codeParseError           = -32700
	codeInvalidRequest       = -32600
	codeMethodNotFound       = -32601
	codeInternalError        = -32603
	codeServerNotInitialized = -32002
)

// lspErrorFor maps a CoreError kind to its response code and message.
// Only called for kinds that produce a response rather than a fatal exit
// or a silent log-and-continue.
func lspErrorFor(err *errors.CoreError) responseError {
	switch err.Kind {
	case errors.KindMethodNotFound:
		return responseError{Code: codeMethodNotFound, Message: "method not found: " + err.Operation}
	case errors.KindFileIndexing:
		return responseError{Code: codeServerNotInitialized, Message: err.Path + " is being indexed."}
	case errors.KindFileUnknown:
		return responseError{Code: codeInternalError, Message: "Unable to find file " + err.Path}
	default:
		return responseError{Code: codeInternalError, Message: err.Error()}
	}
}

// notInitializedError builds the response sent for any request that
// arrives before `initialize` completes.
func notInitializedError() responseError {
	return responseError{Code: codeServerNotInitialized, Message: "server has not been initialized"}
}

// fileUnknownError builds the error for a request against a path the
// working-files store has never seen opened. A path the pipeline is
// still mid-index on gets KindFileIndexing (ServerNotInitialized,
// "<path> is being indexed."); a path the pipeline has never touched
// gets KindFileUnknown (InternalError, "Unable to find file <path>").
func (s *Server) fileUnknownError(op, path string) *errors.CoreError {
	switch s.pl.ImportManager().Status(path) {
	case pipeline.ProcessingInitialImport, pipeline.ProcessingUpdate:
		return errors.New(errors.KindFileIndexing, op, nil).WithPath(path)
	default:
		return errors.New(errors.KindFileUnknown, op, nil).WithPath(path)
	}
}
