// Package errors defines the typed error kinds the core and its stdio
// transport use to decide between "log and continue", "reply with an
// LSP error code", and "terminate the process".
package errors

import (
	"fmt"
	"time"
)

// Kind classifies an error by how the caller must react to it.
type Kind string

const (
	// KindFraming and KindJSONRPCParse are fatal: the input stream is
	// unrecoverable once framing or top-level JSON shape is broken.
	KindFraming      Kind = "framing"
	KindJSONRPCParse Kind = "jsonrpc_parse"

	// KindMethodNotFound maps to a JSON-RPC MethodNotFound response.
	KindMethodNotFound Kind = "method_not_found"

	// KindFileIndexing maps to ServerNotInitialized: the path is known but
	// still being indexed.
	KindFileIndexing Kind = "file_indexing"

	// KindFileUnknown maps to InternalError: the path has never been seen.
	KindFileUnknown Kind = "file_unknown"

	// KindParserFailure is logged and recovered from: the file's previous
	// defs remain in QueryDB.
	KindParserFailure Kind = "parser_failure"

	// KindCacheLoad is recoverable: treated as "no previous IndexFile".
	KindCacheLoad Kind = "cache_load"

	// KindRequestDropped marks a completion request superseded before its
	// callback fired.
	KindRequestDropped Kind = "request_dropped"

	KindConfig   Kind = "config"
	KindInternal Kind = "internal"
)

// CoreError is the common shape for all typed errors in this system: a
// kind, optional path context, the wrapped cause, and a timestamp for
// diagnostics/logging correlation.
type CoreError struct {
	Kind       Kind
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// New creates a CoreError of the given kind wrapping err.
func New(kind Kind, op string, err error) *CoreError {
	return &CoreError{Kind: kind, Operation: op, Underlying: err, Timestamp: time.Now()}
}

// WithPath attaches file context and returns the receiver for chaining.
func (e *CoreError) WithPath(path string) *CoreError {
	e.Path = path
	return e
}

func (e *CoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

func (e *CoreError) Unwrap() error { return e.Underlying }

// Fatal reports whether the error kind requires terminating the process;
// only stdio framing and JSON-RPC schema violations escalate that far.
func (e *CoreError) Fatal() bool {
	return e.Kind == KindFraming || e.Kind == KindJSONRPCParse
}

// Recoverable reports whether local recovery (skip, fall back, log) applies.
func (e *CoreError) Recoverable() bool {
	switch e.Kind {
	case KindParserFailure, KindCacheLoad, KindRequestDropped:
		return true
	default:
		return false
	}
}

// MultiError aggregates independent failures, e.g. from a batch reindex.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nils and wraps the remainder.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors[0])
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
