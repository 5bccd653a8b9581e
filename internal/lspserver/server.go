// Package lspserver implements the JSON-RPC-over-stdio transport and
// method dispatch table: the stdin reader, the stdout writer, and the
// glue wiring each inbound method to the working-files store, the indexing
// pipeline, the completion session cache, and QueryDB.
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cxxls/cxxls/internal/completion"
	"github.com/cxxls/cxxls/internal/config"
	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/errors"
	"github.com/cxxls/cxxls/internal/fuzzy"
	"github.com/cxxls/cxxls/internal/highlight"
	"github.com/cxxls/cxxls/internal/pipeline"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/uri"
	"github.com/cxxls/cxxls/internal/workingfiles"
)

// Server owns the stdio transport and every capability handlers reach
// into: QueryDB, the indexing pipeline, the completion manager, the
// working-files store, the semantic-highlight cache, and the URI
// normalization cache. These are capabilities threaded explicitly through
// Server rather than process-wide singletons, so teardown order stays
// under the caller's control.
type Server struct {
	cfg        *config.Config
	db         *querydb.DB
	pl         *pipeline.Pipeline
	completion *completion.Manager
	highlight  *highlight.Cache
	working    *workingfiles.Store
	uris       *uri.Cache
	matcher    *fuzzy.Matcher

	writer *frameWriter
	diag   *diagnosticsRateLimiter

	mu          sync.Mutex
	initialized bool
	shutdown    bool

	// lastSeenMTime records, per path, the file mtime $cquery/freshenIndex
	// last observed, so it only re-enqueues files that changed since its
	// previous run. Guarded by mu.
	lastSeenMTime map[string]time.Time

	exiting int32 // atomic; set by the `exit` notification
	cancel  context.CancelFunc
}

// Deps bundles every collaborator Server needs, so New's signature doesn't
// grow a parameter per component.
type Deps struct {
	Config     *config.Config
	DB         *querydb.DB
	Pipeline   *pipeline.Pipeline
	Completion *completion.Manager
	Highlight  *highlight.Cache
	Working    *workingfiles.Store
	URIs       *uri.Cache
}

// New builds a Server around an already-wired set of components.
func New(d Deps) *Server {
	s := &Server{
		cfg:        d.Config,
		db:         d.DB,
		pl:         d.Pipeline,
		completion: d.Completion,
		highlight:  d.Highlight,
		working:    d.Working,
		uris:       d.URIs,
		matcher:    fuzzy.NewMatcher(0),
		diag:       newDiagnosticsRateLimiter(d.Config.Diagnostics.FrequencyMs),
	}
	if d.Pipeline != nil {
		d.Pipeline.SetOnApplied(s.onIndexApplied)
	}
	return s
}

// Run reads framed JSON-RPC messages from in, dispatches them, and writes
// framed responses/notifications to out via the pipeline's forStdout
// queue, so exactly one goroutine owns the real output stream. Run blocks
// until the `exit` notification arrives, in returns EOF, or ctx is
// canceled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.writer = newFrameWriter(out)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.stdoutLoop(ctx)
	}()

	reader := newFrameReader(in)
	var runErr error
readLoop:
	for {
		select {
		case <-ctx.Done():
			break readLoop
		default:
		}

		body, err := reader.readMessage()
		if err != nil {
			if ce, ok := err.(*errors.CoreError); ok && ce.Fatal() {
				debug.LogLSP("fatal framing error: %v", err)
				runErr = err
				break readLoop
			}
			runErr = err
			break readLoop
		}

		s.handleMessage(body)

		if atomic.LoadInt32(&s.exiting) == 1 {
			break readLoop
		}
	}

	cancel()
	wg.Wait()
	return runErr
}

// stdoutLoop drains the pipeline's forStdout queue and writes each
// already-serialized message frame. Handlers on any goroutine may enqueue
// into this queue; only this loop ever touches the real stdout writer.
func (s *Server) stdoutLoop(ctx context.Context) {
	for {
		msg, ok := s.pl.DequeueForStdout()
		if !ok {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		if err := s.writer.writeMessage([]byte(msg)); err != nil {
			debug.LogLSP("write stdout frame: %v", err)
		}
	}
}

func (s *Server) enqueueOut(v interface{}) {
	s.pl.EnqueueForStdout(string(mustMarshal(v)))
}

func (s *Server) reply(id requestID, result interface{}) {
	s.enqueueOut(outboundResponse{JSONRPC: jsonrpcVersion, ID: id, Result: mustMarshal(result)})
}

func (s *Server) replyError(id requestID, err *errors.CoreError) {
	le := lspErrorFor(err)
	s.enqueueOut(outboundResponse{JSONRPC: jsonrpcVersion, ID: id, Error: &le})
}

func (s *Server) notify(method string, params interface{}) {
	s.enqueueOut(outboundNotification{JSONRPC: jsonrpcVersion, Method: method, Params: params})
}

func (s *Server) logMessage(format string, args ...interface{}) {
	s.notify("window/logMessage", logMessageParams{Type: 4, Message: fmt.Sprintf(format, args...)})
}

// handleMessage decodes one frame and routes it to a request or
// notification handler. A malformed top-level envelope or unsupported
// jsonrpc version is fatal.
func (s *Server) handleMessage(body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		debug.LogLSP("malformed message: %v", err)
		atomic.StoreInt32(&s.exiting, 1)
		return
	}
	if env.JSONRPC != jsonrpcVersion {
		debug.LogLSP("unsupported jsonrpc version %q", env.JSONRPC)
		atomic.StoreInt32(&s.exiting, 1)
		return
	}
	id, err := parseRequestID(env.ID)
	if err != nil {
		debug.LogLSP("malformed request id: %v", err)
		atomic.StoreInt32(&s.exiting, 1)
		return
	}

	s.dispatch(id, env.Method, env.Params)
}
