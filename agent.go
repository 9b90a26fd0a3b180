package nodebus

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/nodebus/internal/connection"
	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/internal/metrics"
	"github.com/arloliu/nodebus/internal/natsbus"
	"github.com/arloliu/nodebus/internal/registration"
)

// Agent owns the broker connection and the node registration of one process.
//
// An Agent holds exactly one connection manager, one message bus and one
// registration service. Start brings them up without blocking; Stop sends the
// deregister message and tears everything down.
type Agent struct {
	cfg     Config
	logger  Logger
	metrics MetricsCollector

	conn         *connection.Manager
	bus          *natsbus.Bus
	registration *registration.Service

	mu                  sync.Mutex
	started             bool
	stopped             bool
	connStarted         bool
	registrationStarted bool
}

// NewAgent creates a new Agent with the provided configuration.
//
// Missing values are filled with defaults and NODEBUS_HB_INTERVAL is applied
// before validation. Nothing touches the network until Start.
//
// Parameters:
//   - cfg: Agent configuration
//   - opts: Optional configuration (logger, metrics, hooks, NATS options)
//
// Returns:
//   - *Agent: Initialized agent instance
//   - error: Error wrapping ErrInvalidConfig if configuration is invalid
//
// Example:
//
//	cfg := nodebus.DefaultConfig()
//	cfg.BrokerURL = "nats://127.0.0.1:4222"
//	cfg.NodeID = "node-a"
//	cfg.GRPCEndpoint = "10.0.0.1:10124"
//	agent, err := nodebus.NewAgent(&cfg)
func NewAgent(cfg *Config, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	ApplyEnv(cfg, os.LookupEnv)
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &agentOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}
	loggerInstance := logger.OrNop(options.logger)

	cfg.ValidateWithWarnings(loggerInstance)

	connOpts := []connection.Option{
		connection.WithRetryInterval(cfg.ConnectRetryInterval),
		connection.WithConnectTimeout(cfg.ConnectTimeout),
		connection.WithName(cfg.ClientName),
		connection.WithNATSOptions(options.natsOpts...),
		connection.WithLogger(loggerInstance),
		connection.WithMetrics(metricsCollector),
	}
	if options.dialer != nil {
		connOpts = append(connOpts, connection.WithDialer(options.dialer))
	}
	conn := connection.New(connOpts...)

	bus := natsbus.New(conn,
		natsbus.WithPollInterval(cfg.ReadyPollInterval),
		natsbus.WithLogger(loggerInstance),
		natsbus.WithMetrics(metricsCollector),
	)

	svc := registration.New(bus,
		registration.WithLogger(loggerInstance),
		registration.WithMetrics(metricsCollector),
		registration.WithHooks(options.hooks),
		registration.WithFlushTimeout(cfg.ShutdownTimeout),
	)

	return &Agent{
		cfg:          *cfg,
		logger:       loggerInstance,
		metrics:      metricsCollector,
		conn:         conn,
		bus:          bus,
		registration: svc,
	}, nil
}

// Start brings up the connection and the heartbeat loop and returns immediately.
//
// The broker connection is only attempted when BrokerURL is set, and
// registration only runs when GRPCEndpoint is set as well. Connecting and the
// first register message happen in the background.
//
// Returns:
//   - error: ErrAlreadyStarted on a second call
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true

	if a.cfg.BrokerURL == "" {
		a.logger.Info("message bus disabled, no broker URL configured")
		return nil
	}

	a.conn.Init(a.cfg.BrokerURL)
	a.connStarted = true

	if a.cfg.GRPCEndpoint == "" {
		a.logger.Info("node registration disabled, no gRPC endpoint configured", "broker", a.cfg.BrokerURL)
		return nil
	}

	a.registrationStarted = a.registration.Init(registration.Configuration{
		NodeID:            a.cfg.NodeID,
		GRPCEndpoint:      a.cfg.GRPCEndpoint,
		HeartbeatInterval: a.cfg.HeartbeatInterval,
		RegisterChannel:   a.cfg.Channels.Register,
		DeregisterChannel: a.cfg.Channels.Deregister,
	})
	a.logger.Info("node registration started",
		"node_id", a.cfg.NodeID,
		"grpc_endpoint", a.cfg.GRPCEndpoint,
		"broker", a.cfg.BrokerURL,
	)

	return nil
}

// Stop deregisters the node and closes the broker connection.
//
// Stop signals the heartbeat loop, waits until it has published its
// deregister message and flushed, then closes the connection. The wait is
// bounded by ctx and Config.ShutdownTimeout; the connection is closed either way.
//
// Parameters:
//   - ctx: Context bounding the wait for deregistration
//
// Returns:
//   - error: ErrNotStarted if never started or already stopped; a wrapped
//     context error if the heartbeat loop did not finish in time
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.started || a.stopped {
		a.mu.Unlock()
		return ErrNotStarted
	}
	a.stopped = true
	registrationStarted := a.registrationStarted
	connStarted := a.connStarted
	a.mu.Unlock()

	var stopErr error
	if registrationStarted {
		a.registration.Fini()

		waitCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
		select {
		case <-a.registration.Done():
		case <-waitCtx.Done():
			stopErr = fmt.Errorf("wait for deregistration: %w", waitCtx.Err())
			a.logger.Warn("deregistration did not finish in time", "node_id", a.cfg.NodeID, "error", waitCtx.Err())
		}
		cancel()
	}

	if connStarted {
		a.conn.Close()
	}
	a.logger.Info("agent stopped", "node_id", a.cfg.NodeID)

	return stopErr
}

// State returns the current registration state.
//
// The state stays StateIdle when registration is disabled.
func (a *Agent) State() State {
	return a.registration.State()
}

// WaitState returns a channel that receives nil once the registration reaches
// expectedState, or context.DeadlineExceeded after timeout.
//
// Parameters:
//   - expectedState: State to wait for
//   - timeout: Maximum time to wait
//
// Returns:
//   - <-chan error: Receives exactly one value, then closes
//
// Example:
//
//	if err := <-agent.WaitState(nodebus.StateActive, 5*time.Second); err != nil {
//	    log.Fatal("node never registered")
//	}
func (a *Agent) WaitState(expectedState State, timeout time.Duration) <-chan error {
	ch := make(chan error, 1)
	states, unsubscribe := a.registration.Subscribe()

	go func() {
		defer close(ch)
		defer unsubscribe()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case state := <-states:
				if state == expectedState {
					ch <- nil
					return
				}
			case <-timer.C:
				ch <- context.DeadlineExceeded
				return
			}
		}
	}()

	return ch
}

// Notify passes a message to the heartbeat loop.
//
// Messages are currently logged and dropped by the loop.
func (a *Agent) Notify(msg string) error {
	return a.registration.Notify(msg)
}

// Bus returns the message bus used for registration traffic.
func (a *Agent) Bus() MessageBus {
	return a.bus
}

// Conn returns the broker connection, or nil until it is established.
func (a *Agent) Conn() *nats.Conn {
	return a.conn.Conn()
}

// Config returns a copy of the effective configuration.
func (a *Agent) Config() Config {
	return a.cfg
}
