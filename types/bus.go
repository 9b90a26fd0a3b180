package types

import "context"

// MessageBus is the capability the registration loop uses to talk to the control plane.
//
// It is implemented once per transport technology; internal/natsbus provides the
// NATS implementation. This is the only way higher layers touch the network.
type MessageBus interface {
	// Fire enqueues payload for delivery on channel.
	//
	// Fire is fire-and-forget: a nil error means the message was accepted by the
	// local transport layer, not that a remote consumer received it.
	//
	// Parameters:
	//   - channel: Subject the payload is published on (e.g., "register")
	//   - payload: Encoded message body
	//
	// Returns:
	//   - error: ErrNotConnected before the connection exists, or a transport error
	Fire(channel string, payload []byte) error

	// Flush blocks until all previously queued outbound messages have been handed
	// to the network layer.
	//
	// Parameters:
	//   - ctx: Context for cancellation; its deadline bounds the flush when set
	//
	// Returns:
	//   - error: Non-nil if the underlying session is broken or ctx expires
	Flush(ctx context.Context) error

	// WaitForReady suspends the caller until the broker connection is established.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - error: ctx.Err() if the context ends first, nil once ready
	WaitForReady(ctx context.Context) error
}
