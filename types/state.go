package types

// State represents the registration lifecycle state.
//
// States follow a fixed progression:
//
//	StateIdle → StateAwaitingConnection → StateActive → StateTerminating → StateTerminated
//
// StateAwaitingConnection may also move straight to StateTerminating when the
// registration is cancelled before the broker connection is ready.
// StateTerminating and StateTerminated are terminal: no registration activity
// happens afterwards.
type State int

const (
	// StateIdle is the state before the registration instance exists.
	StateIdle State = iota

	// StateAwaitingConnection indicates the heartbeat loop is waiting for the message bus.
	StateAwaitingConnection

	// StateActive indicates the node is periodically publishing register messages.
	StateActive

	// StateTerminating indicates the node is publishing its deregister message.
	StateTerminating

	// StateTerminated indicates the heartbeat loop has exited.
	StateTerminated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingConnection:
		return "AwaitingConnection"
	case StateActive:
		return "Active"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further registration activity can happen in this state.
func (s State) IsTerminal() bool {
	return s == StateTerminating || s == StateTerminated
}
