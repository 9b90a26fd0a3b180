package types

import "context"

// Hooks defines callbacks for registration lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the heartbeat loop. Hook errors are logged but never
// affect registration.
//
// Best practices for hook implementation:
//   - Complete quickly (< 1 second recommended)
//   - Respect context cancellation
//   - Make hooks idempotent (may be called multiple times)
//
// Example:
//
//	hooks := &nodebus.Hooks{
//	    OnStateChanged: func(ctx context.Context, from, to nodebus.State) error {
//	        log.Printf("registration %s -> %s", from, to)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called when the registration state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnError is called when a recoverable error occurs (failed publish or flush).
	OnError func(ctx context.Context, err error) error
}
