package testing

import (
	"testing"

	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/types"
)

// Logger writes through testing.T and records every entry.
type Logger struct {
	*logger.TestLogger
}

var _ types.Logger = (*Logger)(nil)

// NewTestLogger creates a new logger instance that writes to the testing.T logger.
// Entries are also recorded so tests can assert on what was logged.
//
// Example:
//
//	log := nbtest.NewTestLogger(t)
//	agent, _ := nodebus.NewAgent(&cfg, nodebus.WithLogger(log))
//	// ...
//	require.Equal(t, 1, log.Count("WARN", "quietly retrying"))
func NewTestLogger(t *testing.T) *Logger {
	return &Logger{TestLogger: logger.NewTest(t)}
}
