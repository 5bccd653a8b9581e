// Package debug implements the opt-in structured logger: a
// build-flag/env-var gated, mutex-protected writer used by the indexing
// pipeline, the LSP transport, and the CLI. Output never reaches stdout,
// since stdout is the JSON-RPC transport in `serve` mode.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build flag: go build -ldflags
// "-X github.com/cxxls/cxxls/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output regardless of EnableDebug or the
// DEBUG env var; set by cmd/cxxls when running `serve`, since writing to
// the wrong fd would corrupt the LSP stream.
var QuietMode = false

var (
	mu     sync.Mutex
	output io.Writer
	file   *os.File
)

// SetQuietMode toggles QuietMode.
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetOutput sets the writer debug output goes to. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitLogFile opens a timestamped log file under the OS temp dir and routes
// debug output to it, returning the path. Call CloseLogFile when done.
func InitLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(os.TempDir(), "cxxls-debug-logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create debug log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("create debug log file: %w", err)
	}
	file = f
	output = f
	return path, nil
}

// CloseLogFile closes the log file opened by InitLogFile, if any.
func CloseLogFile() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file, output = nil, nil
	return err
}

// Enabled reports whether debug output is currently active.
func Enabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Log writes a component-tagged debug line, a no-op unless Enabled() and an
// output writer has been configured.
func Log(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format+"\n", append([]interface{}{component}, args...)...)
}

// LogPipeline logs from the indexing pipeline.
func LogPipeline(format string, args ...interface{}) { Log("PIPELINE", format, args...) }

// LogQueryDB logs from QueryDB apply/query paths.
func LogQueryDB(format string, args ...interface{}) { Log("QUERYDB", format, args...) }

// LogLSP logs from the JSON-RPC transport and dispatch table.
func LogLSP(format string, args ...interface{}) { Log("LSP", format, args...) }

// LogCompletion logs from the completion session cache.
func LogCompletion(format string, args ...interface{}) { Log("COMPLETION", format, args...) }

// LogParser logs from the tree-sitter parser adapter.
func LogParser(format string, args ...interface{}) { Log("PARSER", format, args...) }

// Fatal records a fatal condition to the debug log and returns an error for
// the caller to propagate; it never calls os.Exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := writer(); w != nil {
			fmt.Fprintf(w, "[FATAL] %s\n", msg)
		}
	}
	return fmt.Errorf("fatal: %s", msg)
}
