package nodebus

import "github.com/arloliu/nodebus/types"

// Sentinel errors re-exported from the types package so callers can use
// errors.Is without importing it.
var (
	// Agent errors.
	ErrInvalidConfig  = types.ErrInvalidConfig
	ErrAlreadyStarted = types.ErrAlreadyStarted
	ErrNotStarted     = types.ErrNotStarted

	// Bus errors.
	ErrNotConnected  = types.ErrNotConnected
	ErrConnectivity  = types.ErrConnectivity
	ErrConnectFailed = types.ErrConnectFailed

	// Registration errors.
	ErrNotInitialized   = types.ErrNotInitialized
	ErrTerminated       = types.ErrTerminated
	ErrCommandQueueFull = types.ErrCommandQueueFull
	ErrQueueRegister    = types.ErrQueueRegister
	ErrQueueDeregister  = types.ErrQueueDeregister
)
