package nodebus

import "github.com/arloliu/nodebus/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than the root package, which keeps
// the import graph acyclic while users still write nodebus.State,
// nodebus.Logger and so on.
type (
	State             = types.State
	RegisterPayload   = types.RegisterPayload
	DeregisterPayload = types.DeregisterPayload
)

// Re-export interfaces from the types package for convenience.
type (
	MessageBus       = types.MessageBus
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export State constants from the types package.
const (
	StateIdle               = types.StateIdle
	StateAwaitingConnection = types.StateAwaitingConnection
	StateActive             = types.StateActive
	StateTerminating        = types.StateTerminating
	StateTerminated         = types.StateTerminated
)

// Default control-plane channel names.
const (
	RegisterChannel   = types.RegisterChannel
	DeregisterChannel = types.DeregisterChannel
)
