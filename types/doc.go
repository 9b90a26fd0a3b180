// Package types provides core type definitions and interfaces for the nodebus library.
//
// This package contains shared types that are used across multiple packages in the
// nodebus library. By keeping these types in a separate package, we avoid import cycles
// between the main nodebus package and its internal implementations.
//
// Key types:
//   - State: Registration lifecycle state
//   - MessageBus: Fire-and-forget publish capability used by the registration loop
//   - RegisterPayload / DeregisterPayload: Control-plane wire messages
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
