package types

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger and other structured loggers. All methods
// accept alternating key-value pairs for structured fields, for example:
//
//	logger.Warn("message bus not ready, quietly retrying", "broker", url)
//
// Keys used across nodebus: "node_id", "grpc_endpoint", "broker", "channel",
// "state" and "error".
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and calls os.Exit(1).
	//
	// nodebus itself never calls Fatal; it exists for compatibility with host
	// loggers and for command-line entry points.
	Fatal(msg string, keysAndValues ...any)
}
