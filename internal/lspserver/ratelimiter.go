package lspserver

import (
	"sync"
	"time"
)

// diagnosticsRateLimiter throttles publishDiagnostics per path to at most
// one publish per frequencyMs, except an empty diagnostics set always
// passes through: clearing previously-reported diagnostics must never be
// throttled.
type diagnosticsRateLimiter struct {
	mu          sync.Mutex
	frequencyMs int
	lastSent    map[string]time.Time
}

func newDiagnosticsRateLimiter(frequencyMs int) *diagnosticsRateLimiter {
	return &diagnosticsRateLimiter{frequencyMs: frequencyMs, lastSent: map[string]time.Time{}}
}

func (rl *diagnosticsRateLimiter) allow(path string, empty bool) bool {
	if empty {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	if last, ok := rl.lastSent[path]; ok && now.Sub(last) < time.Duration(rl.frequencyMs)*time.Millisecond {
		return false
	}
	rl.lastSent[path] = now
	return true
}
