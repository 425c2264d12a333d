package app

import (
	"strings"
	"sync"
	"time"
)

const logDebounceInterval = 150 * time.Millisecond

// logCapture keeps the most recent log lines for the log panel.
// Writes are coalesced so bursts of log lines refresh the panel once.
type logCapture struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	timer   *time.Timer
	onFlush func(string)
}

func newLogCapture(limit int) *logCapture {
	return &logCapture{limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, part := range strings.Split(text, "\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	l.scheduleLocked()
	return len(p), nil
}

// Text returns the retained lines joined by newlines.
func (l *logCapture) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// bind sets the function that receives the joined text after each burst of writes.
func (l *logCapture) bind(fn func(string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFlush = fn
	l.scheduleLocked()
}

// stop cancels a pending flush.
func (l *logCapture) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFlush = nil
	if l.timer != nil {
		l.timer.Stop()
	}
}

func (l *logCapture) scheduleLocked() {
	if l.onFlush == nil {
		return
	}
	if l.timer == nil {
		l.timer = time.AfterFunc(logDebounceInterval, l.flush)
		return
	}
	l.timer.Reset(logDebounceInterval)
}

func (l *logCapture) flush() {
	l.mu.Lock()
	fn := l.onFlush
	text := strings.Join(l.lines, "\n")
	l.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}
