// Package runlog maintains the append-only activity.log kept inside every
// run directory. Lines use the fixed format
//
//	[LEVEL] <timestamp> - <message>
//
// which downstream tooling parses, so the format must not change.
package runlog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"reelpress/internal/logging"
)

const (
	levelInfo    = "INFO"
	levelWarn    = "WARN"
	levelError   = "ERROR"
	levelSuccess = "✅ SUCCESS"
)

// Log appends timestamped entries to a run's activity log. Entries are also
// mirrored to the structured logger when one is attached, so operators see
// run activity in the main log stream too.
type Log struct {
	mu     sync.Mutex
	path   string
	mirror *slog.Logger
	now    func() time.Time
}

// Open prepares an activity log at the given path. The file is created on
// first write, never truncated.
func Open(path string, mirror *slog.Logger) *Log {
	if mirror == nil {
		mirror = logging.NewNop()
	}
	return &Log{path: path, mirror: mirror, now: time.Now}
}

// Info records an informational entry.
func (l *Log) Info(msg string) { l.write(levelInfo, msg) }

// Warn records a warning entry.
func (l *Log) Warn(msg string) { l.write(levelWarn, msg) }

// Error records an error entry.
func (l *Log) Error(msg string) { l.write(levelError, msg) }

// Success records a completed-step entry.
func (l *Log) Success(msg string) { l.write(levelSuccess, msg) }

// Infof records a formatted informational entry.
func (l *Log) Infof(format string, args ...any) { l.write(levelInfo, fmt.Sprintf(format, args...)) }

// Errorf records a formatted error entry.
func (l *Log) Errorf(format string, args ...any) { l.write(levelError, fmt.Sprintf(format, args...)) }

// Successf records a formatted completed-step entry.
func (l *Log) Successf(format string, args ...any) {
	l.write(levelSuccess, fmt.Sprintf(format, args...))
}

// Path returns the backing file path.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Log) write(level, msg string) {
	if l == nil || l.path == "" {
		return
	}
	timestamp := l.now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("[%s] %s - %s\n", level, timestamp, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.mirror.Warn("activity log unavailable", logging.String("path", l.path), logging.Error(err))
		return
	}
	defer file.Close()

	if _, err := file.WriteString(line); err != nil {
		l.mirror.Warn("activity log write failed", logging.String("path", l.path), logging.Error(err))
		return
	}

	switch level {
	case levelError:
		l.mirror.Error(msg)
	case levelWarn:
		l.mirror.Warn(msg)
	default:
		l.mirror.Info(msg)
	}
}
