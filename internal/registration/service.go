package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/nodebus/internal/hooks"
	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/internal/metrics"
	"github.com/arloliu/nodebus/types"
)

// commandQueueSize bounds the number of pending Notify messages.
const commandQueueSize = 16

// Service owns at most one registration instance and its heartbeat loop.
type Service struct {
	bus          types.MessageBus
	logger       types.Logger
	metrics      types.RegistrationMetrics
	hooks        types.Hooks
	flushTimeout time.Duration

	mu   sync.Mutex
	inst *instance

	// stateMu orders state changes against Subscribe so a new subscriber's
	// snapshot never arrives after a newer transition.
	stateMu sync.Mutex
	state   atomic.Int32 // types.State
	done    chan struct{}

	subscribers      *xsync.Map[uint64, *stateSubscriber]
	nextSubscriberID atomic.Uint64
}

// instance is created by the first Init call.
type instance struct {
	cfg     Configuration
	stopCh  chan struct{}
	cmdCh   chan string
	stopped bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(s *Service) {
		s.logger = logger.OrNop(l)
	}
}

// WithMetrics sets the metrics sink for state transitions.
func WithMetrics(m types.RegistrationMetrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHooks sets lifecycle hooks. Nil callbacks are replaced with no-ops.
func WithHooks(h *types.Hooks) Option {
	return func(s *Service) {
		s.hooks = hooks.Merge(h)
	}
}

// WithFlushTimeout bounds the flush that follows the deregister message.
//
// Zero leaves the transport's default flush timeout in place.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.flushTimeout = d
	}
}

// New creates an idle Service that publishes through bus.
func New(bus types.MessageBus, opts ...Option) *Service {
	s := &Service{
		bus:         bus,
		logger:      logger.NewNop(),
		metrics:     metrics.NewNop(),
		hooks:       hooks.NewNop(),
		done:        make(chan struct{}),
		subscribers: xsync.NewMap[uint64, *stateSubscriber](),
	}
	s.state.Store(int32(types.StateIdle))

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init creates the registration instance and starts the heartbeat loop.
//
// Only the first call does anything; later calls keep the first configuration
// and return false.
//
// Parameters:
//   - cfg: Node identity and heartbeat interval
//
// Returns:
//   - bool: true if this call created the instance
func (s *Service) Init(cfg Configuration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inst != nil {
		s.logger.Debug("registration already initialised, ignoring", "node_id", cfg.NodeID)
		return false
	}

	s.inst = &instance{
		cfg:    cfg.withDefaults(),
		stopCh: make(chan struct{}),
		cmdCh:  make(chan string, commandQueueSize),
	}
	go s.run(s.inst)

	return true
}

// Fini asks the heartbeat loop to deregister and exit.
//
// It does not wait; use Done for that. Repeated calls and calls before Init
// are no-ops.
func (s *Service) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inst == nil {
		s.logger.Debug("registration not initialised, nothing to stop")
		return
	}
	if s.inst.stopped {
		return
	}

	s.inst.stopped = true
	close(s.inst.stopCh)
}

// Notify sends a non-terminating message to the heartbeat loop.
//
// The loop has no message handling yet: each message is logged and dropped
// without disturbing the heartbeat cadence.
//
// Returns:
//   - error: ErrNotInitialized before Init, ErrTerminated after Fini,
//     ErrCommandQueueFull when the loop is behind
func (s *Service) Notify(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inst == nil {
		return types.ErrNotInitialized
	}
	if s.inst.stopped {
		return types.ErrTerminated
	}

	select {
	case s.inst.cmdCh <- msg:
		return nil
	default:
		return types.ErrCommandQueueFull
	}
}

// Config returns the active configuration and whether Init has been called.
func (s *Service) Config() (Configuration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inst == nil {
		return Configuration{}, false
	}

	return s.inst.cfg, true
}

// State returns the current registration state.
func (s *Service) State() types.State {
	return types.State(s.state.Load())
}

// Done returns a channel closed once the heartbeat loop has exited.
//
// The channel never closes if Init was never called.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns a channel that receives state change notifications.
//
// The current state is delivered immediately. The channel is buffered so the
// full lifecycle fits without blocking; a subscriber that falls further
// behind misses intermediate states.
//
// Returns:
//   - <-chan types.State: Channel that receives state updates
//   - func(): Unsubscribe function; closes the channel
func (s *Service) Subscribe() (<-chan types.State, func()) {
	id := s.nextSubscriberID.Add(1)

	sub := &stateSubscriber{ch: make(chan types.State, 8)}

	s.stateMu.Lock()
	sub.trySend(s.State())
	s.subscribers.Store(id, sub)
	s.stateMu.Unlock()

	return sub.ch, func() {
		if sub, ok := s.subscribers.LoadAndDelete(id); ok {
			sub.close()
		}
	}
}

func (s *Service) run(inst *instance) {
	defer close(s.done)

	cfg := inst.cfg
	log := s.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-inst.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.transition(types.StateAwaitingConnection)

	if err := s.bus.WaitForReady(ctx); err != nil {
		log.Info("registration stopped before the message bus became ready", "node_id", cfg.NodeID)
		s.terminate(cfg)

		return
	}

	s.register(cfg)
	s.transition(types.StateActive)

	timer := time.NewTimer(cfg.HeartbeatInterval)
	defer timer.Stop()

	for {
		select {
		case <-inst.stopCh:
			s.terminate(cfg)
			return
		case msg := <-inst.cmdCh:
			log.Warn("messages have not been implemented yet", "node_id", cfg.NodeID, "message", msg)
		case <-timer.C:
			s.register(cfg)
			timer.Reset(cfg.HeartbeatInterval)
		}
	}
}

// register publishes one register message. Failures are reported, never returned.
func (s *Service) register(cfg Configuration) {
	payload, err := cfg.registerPayload()
	if err == nil {
		err = s.bus.Fire(cfg.RegisterChannel, payload)
	}
	if err != nil {
		s.reportError(fmt.Errorf("%w: %w", types.ErrQueueRegister, err),
			"failed to queue registration", cfg)

		return
	}

	s.logger.Debug("registered node", "node_id", cfg.NodeID, "grpc_endpoint", cfg.GRPCEndpoint)
}

// terminate publishes one deregister message, flushes and marks the loop finished.
func (s *Service) terminate(cfg Configuration) {
	s.transition(types.StateTerminating)
	defer s.transition(types.StateTerminated)

	payload, err := cfg.deregisterPayload()
	if err == nil {
		err = s.bus.Fire(cfg.DeregisterChannel, payload)
	}
	if err != nil {
		s.reportError(fmt.Errorf("%w: %w", types.ErrQueueDeregister, err),
			"failed to queue deregistration", cfg)
		if errors.Is(err, types.ErrNotConnected) {
			return
		}
	}

	ctx := context.Background()
	if s.flushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.flushTimeout)
		defer cancel()
	}

	if err := s.bus.Flush(ctx); err != nil {
		s.reportError(err, "failed to flush the message bus", cfg)
		return
	}

	s.logger.Info("deregistered node", "node_id", cfg.NodeID)
}

func (s *Service) reportError(err error, msg string, cfg Configuration) {
	s.logger.Error(msg, "node_id", cfg.NodeID, "error", err)

	go func() {
		if hookErr := s.hooks.OnError(context.Background(), err); hookErr != nil {
			s.logger.Warn("error hook failed", "error", hookErr)
		}
	}()
}

// transition stores the new state, then notifies subscribers, metrics and hooks.
func (s *Service) transition(to types.State) {
	s.stateMu.Lock()
	from := types.State(s.state.Swap(int32(to))) //nolint:gosec // G115: state is bounded enum
	if from == to {
		s.stateMu.Unlock()
		return
	}

	s.subscribers.Range(func(_ uint64, sub *stateSubscriber) bool {
		sub.trySend(to)
		return true
	})
	s.stateMu.Unlock()

	s.logger.Info("registration state transition", "from", from.String(), "to", to.String())
	s.metrics.RecordStateTransition(from, to)

	go func() {
		if err := s.hooks.OnStateChanged(context.Background(), from, to); err != nil {
			s.logger.Warn("state change hook error", "from", from, "to", to, "error", err)
		}
	}()
}
