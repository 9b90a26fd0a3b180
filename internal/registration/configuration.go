package registration

import (
	"time"

	"github.com/arloliu/nodebus/types"
)

// DefaultHeartbeatInterval is the pause between two register messages.
const DefaultHeartbeatInterval = 2 * time.Second

// Configuration identifies the node announced by a Service.
//
// It is copied on Init and never changes afterwards.
type Configuration struct {
	// NodeID is the node identity sent in every message.
	NodeID string

	// GRPCEndpoint is the address where the node serves gRPC, e.g. "10.0.0.1:10124".
	GRPCEndpoint string

	// HeartbeatInterval between register messages (default: 2s).
	HeartbeatInterval time.Duration

	// RegisterChannel overrides the "register" subject.
	RegisterChannel string

	// DeregisterChannel overrides the "deregister" subject.
	DeregisterChannel string
}

func (c Configuration) withDefaults() Configuration {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.RegisterChannel == "" {
		c.RegisterChannel = types.RegisterChannel
	}
	if c.DeregisterChannel == "" {
		c.DeregisterChannel = types.DeregisterChannel
	}

	return c
}

func (c Configuration) registerPayload() ([]byte, error) {
	return types.RegisterPayload{ID: c.NodeID, GRPCEndpoint: c.GRPCEndpoint}.Marshal()
}

func (c Configuration) deregisterPayload() ([]byte, error) {
	return types.DeregisterPayload{ID: c.NodeID}.Marshal()
}
