package types

import (
	"errors"
)

// Sentinel errors for the nodebus library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Agent, Bus, Registration)
//   - Use consistent messages across similar error types

// Agent errors - Public API errors returned by the Agent.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAlreadyStarted is returned when Start is called on an already running agent.
	ErrAlreadyStarted = errors.New("agent already started")

	// ErrNotStarted is returned when operations require a started agent.
	ErrNotStarted = errors.New("agent not started")
)

// Bus errors - Message bus transport errors.
var (
	// ErrNotConnected is returned when a publish or flush is attempted before the
	// broker connection has been established.
	ErrNotConnected = errors.New("message bus not connected")

	// ErrConnectivity indicates a NATS connectivity issue.
	// This is used to distinguish network failures from application errors.
	ErrConnectivity = errors.New("connectivity issue")

	// ErrConnectFailed is returned when a single connection attempt fails.
	// The connection manager retries such failures indefinitely.
	ErrConnectFailed = errors.New("failed to connect to the NATS server")
)

// Registration errors - Registration service errors.
var (
	// ErrNotInitialized is returned when the registration service is used before Init.
	ErrNotInitialized = errors.New("registration not initialized")

	// ErrTerminated is returned when a message is sent to a registration loop
	// that has already been asked to terminate.
	ErrTerminated = errors.New("registration terminated")

	// ErrCommandQueueFull is returned when the registration loop cannot accept
	// another message without blocking.
	ErrCommandQueueFull = errors.New("registration command queue full")

	// ErrQueueRegister is returned when a register message cannot be queued.
	ErrQueueRegister = errors.New("failed to queue register request")

	// ErrQueueDeregister is returned when a deregister message cannot be queued.
	ErrQueueDeregister = errors.New("failed to queue deregister request")
)
