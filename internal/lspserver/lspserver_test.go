package lspserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cxxls/cxxls/internal/completion"
	"github.com/cxxls/cxxls/internal/config"
	"github.com/cxxls/cxxls/internal/errors"
	"github.com/cxxls/cxxls/internal/highlight"
	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/pipeline"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/uri"
	"github.com/cxxls/cxxls/internal/workingfiles"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type nopParser struct{}

func (nopParser) Parse(ctx context.Context, path string, contents []byte) (*indexfile.IndexFile, error) {
	return &indexfile.IndexFile{}, nil
}

type memCache struct {
	mu    sync.Mutex
	files map[string]*indexfile.IndexFile
}

func newMemCache() *memCache { return &memCache{files: map[string]*indexfile.IndexFile{}} }

func (c *memCache) Load(path string) (*indexfile.IndexFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[path]
	return f, ok
}

func (c *memCache) Store(path string, file *indexfile.IndexFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = file
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := querydb.New()
	pl := pipeline.New(db, nopParser{}, newMemCache(), 1)
	t.Cleanup(pl.Close)
	return New(Deps{
		Config:     config.Default("/proj"),
		DB:         db,
		Pipeline:   pl,
		Completion: completion.New(nil, db),
		Highlight:  highlight.New(),
		Working:    workingfiles.New(),
		URIs:       uri.New(),
	})
}

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestFrameReaderReadsExactBody(t *testing.T) {
	fr := newFrameReader(strings.NewReader(frame("abcd")))
	body, err := fr.readMessage()
	require.NoError(t, err)
	require.Equal(t, "abcd", string(body))
}

func TestFrameReaderTruncatedBodyIsFatal(t *testing.T) {
	fr := newFrameReader(strings.NewReader("Content-Length: 5\r\n\r\nab"))
	_, err := fr.readMessage()
	require.Error(t, err)
}

func TestFrameReaderRejectsUnknownHeader(t *testing.T) {
	fr := newFrameReader(strings.NewReader("Content-Length: 4\r\nX-Foo: 1\r\n\r\nabcd"))
	_, err := fr.readMessage()
	require.Error(t, err)
}

func TestFrameReaderAcceptsContentType(t *testing.T) {
	fr := newFrameReader(strings.NewReader("Content-Length: 4\r\nContent-Type: application/vscode-jsonrpc\r\n\r\nabcd"))
	body, err := fr.readMessage()
	require.NoError(t, err)
	require.Equal(t, "abcd", string(body))
}

func TestFrameWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf)
	require.NoError(t, fw.writeMessage([]byte("hello")))

	fr := newFrameReader(&buf)
	body, err := fr.readMessage()
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestParseRequestIDInteger(t *testing.T) {
	id, err := parseRequestID(json.RawMessage(`7`))
	require.NoError(t, err)
	require.True(t, id.present)
	require.False(t, id.isString)
	require.Equal(t, "7", id.String())

	b, err := json.Marshal(id)
	require.NoError(t, err)
	require.Equal(t, "7", string(b))
}

func TestParseRequestIDStringEchoesAsString(t *testing.T) {
	id, err := parseRequestID(json.RawMessage(`"42"`))
	require.NoError(t, err)
	require.True(t, id.present)
	require.True(t, id.isString)

	b, err := json.Marshal(id)
	require.NoError(t, err)
	require.Equal(t, `"42"`, string(b))
}

func TestParseRequestIDMissingMeansNotification(t *testing.T) {
	id, err := parseRequestID(nil)
	require.NoError(t, err)
	require.False(t, id.present)
}

func TestParseRequestIDNonDecimalStringErrors(t *testing.T) {
	_, err := parseRequestID(json.RawMessage(`"not-a-number"`))
	require.Error(t, err)
}

func TestDispatchUnknownMethodRepliesMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	s.writer = newFrameWriter(&bytes.Buffer{})
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.dispatch(requestID{present: true, value: 1}, "textDocument/bogus", nil)

	msg, ok := s.pl.DequeueForStdout()
	require.True(t, ok)
	var resp outboundResponse
	require.NoError(t, json.Unmarshal([]byte(msg), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestDispatchBeforeInitializeRejectsRequests(t *testing.T) {
	s := newTestServer(t)

	s.dispatch(requestID{present: true, value: 1}, "textDocument/hover", nil)

	msg, ok := s.pl.DequeueForStdout()
	require.True(t, ok)
	var resp outboundResponse
	require.NoError(t, json.Unmarshal([]byte(msg), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerNotInitialized, resp.Error.Code)
}

func TestDispatchInitializeAllowedBeforeInitialized(t *testing.T) {
	s := newTestServer(t)

	s.dispatch(requestID{present: true, value: 1}, "initialize", json.RawMessage(`{}`))

	msg, ok := s.pl.DequeueForStdout()
	require.True(t, ok)
	var resp outboundResponse
	require.NoError(t, json.Unmarshal([]byte(msg), &resp))
	require.Nil(t, resp.Error)

	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	require.True(t, initialized)
}

func TestDiagnosticsRateLimiterThrottlesNonEmpty(t *testing.T) {
	rl := newDiagnosticsRateLimiter(1000)
	require.True(t, rl.allow("/a.cpp", false))
	require.False(t, rl.allow("/a.cpp", false))
}

func TestDiagnosticsRateLimiterNeverThrottlesEmpty(t *testing.T) {
	rl := newDiagnosticsRateLimiter(1000)
	require.True(t, rl.allow("/a.cpp", false))
	require.True(t, rl.allow("/a.cpp", true))
}

func TestDiagnosticsRateLimiterAllowsAfterWindow(t *testing.T) {
	rl := newDiagnosticsRateLimiter(1)
	require.True(t, rl.allow("/a.cpp", false))
	time.Sleep(5 * time.Millisecond)
	require.True(t, rl.allow("/a.cpp", false))
}

func TestIsGlobalTriggerForManualInvocation(t *testing.T) {
	require.True(t, isGlobalTrigger(nil))
	require.True(t, isGlobalTrigger(&completionContext{TriggerKind: 1}))
	require.False(t, isGlobalTrigger(&completionContext{TriggerKind: 2}))
}

func TestFileUnknownErrorDistinguishesIndexing(t *testing.T) {
	s := newTestServer(t)

	err := s.fileUnknownError("completion", "/proj/a.cc")
	require.Equal(t, errors.KindFileUnknown, err.Kind)

	ok := s.pl.ImportManager().SetStatusAtomic("/proj/a.cc", pipeline.NotSeen, pipeline.ProcessingInitialImport)
	require.True(t, ok)
	err = s.fileUnknownError("completion", "/proj/a.cc")
	require.Equal(t, errors.KindFileIndexing, err.Kind)

	ok = s.pl.ImportManager().SetStatusAtomic("/proj/a.cc", pipeline.ProcessingInitialImport, pipeline.Imported)
	require.True(t, ok)
	err = s.fileUnknownError("completion", "/proj/a.cc")
	require.Equal(t, errors.KindFileUnknown, err.Kind)
}
