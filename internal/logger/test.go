package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/nodebus/types"
)

// Entry is a single record captured by TestLogger.
type Entry struct {
	Level         string
	Msg           string
	KeysAndValues []any
}

// TestLogger implements types.Logger using testing.TB for output and keeps
// every record so tests can assert on what was logged.
//
// Records emitted after the test has finished are kept but not forwarded to
// t.Logf, so background goroutines that outlive a test cannot panic it.
type TestLogger struct {
	t testing.TB

	mu      sync.Mutex
	entries []Entry
	done    bool
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a new test logger that writes to t.
//
// Parameters:
//   - t: The testing.TB instance to write logs to
//
// Returns:
//   - *TestLogger: A new logger instance that uses t.Logf()
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    logger := NewTest(t)
//	    logger.Info("test started", "id", 123)
//	    require.Equal(t, 1, logger.Count("INFO", "test started"))
//	}
func NewTest(t testing.TB) *TestLogger {
	l := &TestLogger{t: t}
	// Registered first, so it runs after every cleanup registered later.
	t.Cleanup(func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
	})

	return l
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.record("DEBUG", msg, keysAndValues)
}

// Info logs an info-level message with optional key-value pairs.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.record("INFO", msg, keysAndValues)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.record("WARN", msg, keysAndValues)
}

// Error logs an error-level message with optional key-value pairs.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.record("ERROR", msg, keysAndValues)
}

// Fatal logs a fatal-level message and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.record("FATAL", msg, keysAndValues)
	l.t.Errorf("FATAL: %s %s", msg, formatKeyValues(keysAndValues))
}

// Entries returns a copy of all captured records.
func (l *TestLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Count returns how many records were logged at level whose message contains substr.
//
// Parameters:
//   - level: "DEBUG", "INFO", "WARN", "ERROR" or "FATAL"
//   - substr: Substring the message must contain ("" matches all)
//
// Returns:
//   - int: Number of matching records
func (l *TestLogger) Count(level, substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			n++
		}
	}

	return n
}

func (l *TestLogger) record(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{Level: level, Msg: msg, KeysAndValues: keysAndValues})
	if !l.done {
		l.t.Logf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))
	}
}

// formatKeyValues formats key-value pairs for logging.
func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=<missing> ", keysAndValues[i])
		}
	}

	return sb.String()
}
