package project

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cxxls/cxxls/internal/debug"
)

// EventKind classifies one debounced filesystem event.
type EventKind int

const (
	EventCreated EventKind = iota
	EventChanged
	EventRemoved
)

// Event is one debounced change to a source file under the watched root.
type Event struct {
	Path string
	Kind EventKind
}

// Watcher monitors the project root with fsnotify and reports debounced
// per-file events for paths the Scanner accepts. It drives the same
// re-index flow as workspace/didChangeWatchedFiles, for sessions where no
// editor is sending those notifications (the offline `index --watch`
// command, out-of-band edits to files an editor has not opened).
type Watcher struct {
	fsw     *fsnotify.Watcher
	scanner *Scanner
	emit    func(Event)

	mu      sync.Mutex
	pending map[string]EventKind
	timer   *time.Timer

	debounce time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWatcher builds a Watcher over scanner's root. emit is invoked once per
// debounced (path, kind) pair, possibly from the watcher's own goroutine;
// it must be safe to call concurrently with the caller's other work.
func NewWatcher(scanner *Scanner, debounce time.Duration, emit func(Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		fsw:      fsw,
		scanner:  scanner,
		emit:     emit,
		pending:  map[string]EventKind{},
		debounce: debounce,
	}, nil
}

// Start registers watches on every non-excluded directory under the root
// and begins delivering events. Directories created later are picked up as
// their create events arrive.
func (w *Watcher) Start(ctx context.Context) error {
	root, err := filepath.Abs(w.scanner.root)
	if err != nil {
		return err
	}
	if err := w.addWatches(root); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop tears the watcher down. Events still pending in the debouncer are
// dropped; the caller is shutting down the pipeline they would feed anyway.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) addWatches(root string) error {
	seen := map[string]bool{}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if seen[real] {
			return filepath.SkipDir
		}
		seen[real] = true
		if path != root && w.scanner.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			debug.Log("WATCHER", "watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Log("WATCHER", "fsnotify: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := ev.Name

	info, statErr := os.Stat(path)
	if statErr != nil {
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.scanner.Matches(path) {
			w.add(path, EventRemoved)
		}
		return
	}

	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 && !w.scanner.skipDir(path) {
			if err := w.fsw.Add(path); err != nil {
				debug.Log("WATCHER", "watch new dir %s: %v", path, err)
			}
		}
		return
	}

	if !w.scanner.Matches(path) {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		w.add(path, EventCreated)
	case ev.Op&fsnotify.Write != 0:
		w.add(path, EventChanged)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.add(path, EventRemoved)
	}
}

// add records the latest event kind for a path and (re)arms the debounce
// timer. A burst of writes to one file collapses into a single Changed.
func (w *Watcher) add(path string, kind EventKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = map[string]EventKind{}
	w.mu.Unlock()

	// Removals first so a rename's delete half frees state before the
	// create half of the new name re-claims it.
	for _, want := range []EventKind{EventRemoved, EventChanged, EventCreated} {
		for path, kind := range events {
			if kind == want {
				w.emit(Event{Path: path, Kind: kind})
			}
		}
	}
}
