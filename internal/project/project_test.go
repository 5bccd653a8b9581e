package project

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxls/cxxls/internal/config"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
}

func TestScanFindsOnlySupportedSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.cc"))
	writeFile(t, filepath.Join(root, "src", "util.h"))
	writeFile(t, filepath.Join(root, "README.md"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	s := NewScanner(config.Default(root))
	files, err := s.Scan()
	require.NoError(t, err)

	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "main.cc"),
		filepath.Join(root, "src", "util.h"),
	}, files)
}

func TestScanPrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "a.cpp"))
	writeFile(t, filepath.Join(root, "build", "gen.cpp"))
	writeFile(t, filepath.Join(root, ".git", "hooks", "x.cc"))

	s := NewScanner(config.Default(root))
	files, err := s.Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "lib", "a.cpp")}, files)
}

func TestMatchesHonorsIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Include = []string{"src/**/*.cc"}
	s := NewScanner(cfg)

	assert.True(t, s.Matches(filepath.Join(root, "src", "deep", "a.cc")))
	assert.False(t, s.Matches(filepath.Join(root, "other", "a.cc")))
	assert.False(t, s.Matches(filepath.Join(root, "src", "a.py")))
}

func TestWatcherReportsDebouncedEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.cc"))

	var mu sync.Mutex
	got := map[string]EventKind{}
	done := make(chan struct{}, 4)

	s := NewScanner(config.Default(root))
	w, err := NewWatcher(s, 20*time.Millisecond, func(ev Event) {
		mu.Lock()
		got[filepath.Base(ev.Path)] = ev.Kind
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	writeFile(t, filepath.Join(root, "b.cc"))
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, "b.cc")
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	root := t.TempDir()

	fired := make(chan Event, 4)
	s := NewScanner(config.Default(root))
	w, err := NewWatcher(s, 10*time.Millisecond, func(ev Event) { fired <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, "real.cpp"))

	ev := <-fired
	assert.Equal(t, "real.cpp", filepath.Base(ev.Path))
	select {
	case extra := <-fired:
		assert.Equal(t, "real.cpp", filepath.Base(extra.Path))
	default:
	}
}
