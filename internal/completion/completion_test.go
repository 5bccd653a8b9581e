package completion

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cxxls/cxxls/internal/parser"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager() *Manager {
	return New(parser.New(), querydb.New())
}

func TestNotifyViewCreatesAndEvictsPreloadedSessions(t *testing.T) {
	m := newTestManager()
	for i := 0; i < maxPreloadedSessions+3; i++ {
		m.NotifyView(pathFor(i))
	}
	require.Equal(t, maxPreloadedSessions, m.preloaded.Len())
	// The earliest-viewed sessions should have been evicted.
	_, ok := m.preloaded.TryGet(pathFor(0))
	require.False(t, ok)
}

func pathFor(i int) string {
	return "/proj/file" + string(rune('a'+i)) + ".cpp"
}

func TestCodeCompleteRanksByPrefixAndCachesGlobally(t *testing.T) {
	m := newTestManager()
	m.NotifyView("/proj/widget.cpp")

	var mu sync.Mutex
	var gotItems []Item
	var gotCached bool
	onComplete := func(requestID string, items []Item, isCached bool) {
		mu.Lock()
		defer mu.Unlock()
		gotItems = items
		gotCached = isCached
	}

	// render() and resize() are already declared earlier in the buffer; the
	// cursor sits after a fresh "re" prefix typed on a later line.
	buf := "class Widget {\npublic:\n    void render();\n    void resize();\n};\n\nvoid use() {\n    re\n}\n"
	pos := types.Position{Line: 7, Column: 6}

	m.CodeComplete("req-1", "/proj/widget.cpp", pos, buf, true, onComplete, nil)

	mu.Lock()
	items := gotItems
	cached := gotCached
	mu.Unlock()

	require.False(t, cached)
	require.NotEmpty(t, items)
	labels := map[string]bool{}
	for _, it := range items {
		labels[it.Label] = true
	}
	require.True(t, labels["render"])
	require.True(t, labels["resize"])

	// A second identical request should hit the global cache and reply
	// immediately with isCachedResult true.
	var secondCached bool
	done := make(chan struct{})
	m.CodeComplete("req-2", "/proj/widget.cpp", pos, buf, true, func(requestID string, items []Item, isCached bool) {
		secondCached = isCached
		close(done)
	}, nil)
	<-done
	require.True(t, secondCached)

	// Let the background refresh dispatch triggered by the global cache hit
	// finish before the test binary exits, so TestMain's goleak check never
	// races against it.
	time.Sleep(20 * time.Millisecond)
}

func TestNotifyEditInvalidatesResultCache(t *testing.T) {
	m := newTestManager()
	m.results.put("complete", "/proj/x.cpp", types.Position{}, true, []Item{{Label: "foo"}})
	m.NotifyEdit("/proj/x.cpp")
	_, ok := m.results.get("complete", "/proj/x.cpp", types.Position{}, true)
	require.False(t, ok)
}

func TestNotifySaveReparsesBothTranslationUnits(t *testing.T) {
	m := newTestManager()
	m.NotifyView("/proj/x.cpp")
	m.NotifySave("/proj/x.cpp", "void f() {}\n")

	sess := m.sessionFor("/proj/x.cpp")
	require.NotNil(t, sess)

	deadline := time.After(2 * time.Second)
	for {
		sess.completion.mu.Lock()
		parsed := !sess.completion.lastParsed.IsZero()
		sess.completion.mu.Unlock()
		if parsed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for NotifySave to reparse")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNotifyCloseDropsSession(t *testing.T) {
	m := newTestManager()
	m.NotifyView("/proj/x.cpp")
	m.NotifyClose("/proj/x.cpp")
	require.Nil(t, m.sessionFor("/proj/x.cpp"))
}

func TestSessionSupersededTracksLatestRequest(t *testing.T) {
	s := newSession("/proj/x.cpp")
	s.beginRequest("req-1")
	require.False(t, s.superseded("req-1"))
	s.beginRequest("req-2")
	require.True(t, s.superseded("req-1"))
	require.False(t, s.superseded("req-2"))
	require.False(t, s.superseded(""), "empty request id is never superseded")
}

func TestSessionTouchUpdatesLastActive(t *testing.T) {
	s := newSession("/proj/x.cpp")
	before := s.LastActive()
	time.Sleep(time.Millisecond)
	s.touch()
	require.True(t, s.LastActive().After(before))
}

func TestDiagnosticsUpdateReportsDeadCodeRanges(t *testing.T) {
	m := newTestManager()
	src := "#if 0\nvoid dead() {}\n#endif\nvoid live() {}\n"
	diags := m.DiagnosticsUpdate("/proj/x.cpp", src)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "inactive code")
}

func TestSignatureHelpFindsFunctionByCallSitePrefix(t *testing.T) {
	m := newTestManager()
	m.NotifyView("/proj/x.cpp")
	buf := "int add(int a, int b) { return a + b; }\nint main() { return add(\n"
	pos := types.Position{Line: 1, Column: len("int main() { return add(")}

	done := make(chan []Item, 1)
	m.SignatureHelp("req-1", "/proj/x.cpp", pos, buf, func(requestID string, items []Item, isCached bool) {
		done <- items
	})
	items := <-done
	found := false
	for _, it := range items {
		if it.Label == "add" {
			found = true
		}
	}
	require.True(t, found)
}
