package registration

import (
	"sync"

	"github.com/arloliu/nodebus/types"
)

// stateSubscriber is a helper for managing state change subscriptions.
type stateSubscriber struct {
	ch     chan types.State
	mu     sync.Mutex
	closed bool
}

// trySend delivers state without blocking; a full subscriber misses it.
func (s *stateSubscriber) trySend(state types.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- state:
	default:
	}
}

func (s *stateSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
