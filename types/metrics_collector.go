package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	ConnectionMetrics
	RegistrationMetrics
}

// ConnectionMetrics defines metrics for broker connection management.
type ConnectionMetrics interface {
	// RecordConnectAttempt records a single dial attempt.
	//
	// Parameters:
	//   - success: true if the attempt produced a connection
	RecordConnectAttempt(success bool)

	// SetConnected sets the current connection status (gauge metric).
	//
	// Parameters:
	//   - connected: true while the broker session is usable
	SetConnected(connected bool)
}

// RegistrationMetrics defines metrics for the registration heartbeat loop.
type RegistrationMetrics interface {
	// RecordPublish records a publish attempt on a control-plane channel.
	//
	// Parameters:
	//   - channel: Channel name ("register", "deregister")
	//   - success: true if the message was accepted by the transport
	RecordPublish(channel string, success bool)

	// RecordFlush records an explicit flush of the outbound buffer.
	//
	// Parameters:
	//   - success: true if the flush completed
	RecordFlush(success bool)

	// RecordStateTransition records a registration state transition.
	RecordStateTransition(from, to State)
}
