// Package connection owns the single broker connection of a nodebus agent.
//
// The Manager dials the broker in the background with a fixed retry interval
// and no retry cap. The resulting connection is published exactly once into a
// write-once slot; readers either poll Conn or block on Ready.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/internal/metrics"
	"github.com/arloliu/nodebus/types"
)

// DefaultRetryInterval is the fixed pause between failed dial attempts.
const DefaultRetryInterval = 500 * time.Millisecond

// Dialer opens a broker connection. nats.Connect satisfies it.
type Dialer func(url string, opts ...nats.Option) (*nats.Conn, error)

// Manager establishes and owns the broker connection.
//
// The connection is written at most once. After it is published the NATS
// client handles reconnects internally; the Manager never swaps it.
type Manager struct {
	retryInterval  time.Duration
	connectTimeout time.Duration
	name           string
	dial           Dialer
	natsOpts       []nats.Option
	logger         types.Logger
	metrics        types.ConnectionMetrics

	initOnce  sync.Once
	closeOnce sync.Once
	conn      atomic.Pointer[nats.Conn]
	ready     chan struct{}
	done      chan struct{}

	mu     sync.Mutex
	url    string
	cancel context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetryInterval sets the pause between failed dial attempts.
//
// Non-positive values are ignored.
func WithRetryInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retryInterval = d
		}
	}
}

// WithConnectTimeout sets the NATS dial timeout for a single attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.connectTimeout = d
		}
	}
}

// WithName sets the client name reported to the broker.
func WithName(name string) Option {
	return func(m *Manager) {
		m.name = name
	}
}

// WithDialer replaces nats.Connect. Tests use it to simulate an unreachable broker.
func WithDialer(dial Dialer) Option {
	return func(m *Manager) {
		if dial != nil {
			m.dial = dial
		}
	}
}

// WithNATSOptions appends extra NATS client options. They are applied after
// the Manager's own options and may override them.
func WithNATSOptions(opts ...nats.Option) Option {
	return func(m *Manager) {
		m.natsOpts = append(m.natsOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(m *Manager) {
		m.logger = logger.OrNop(l)
	}
}

// WithMetrics sets the connection metrics sink.
func WithMetrics(mc types.ConnectionMetrics) Option {
	return func(m *Manager) {
		if mc != nil {
			m.metrics = mc
		}
	}
}

// New creates a Manager. No connection is attempted until Init or Connect.
//
// Parameters:
//   - opts: Optional configuration (WithRetryInterval, WithDialer, WithLogger, ...)
//
// Returns:
//   - *Manager: Manager with an empty connection slot
func New(opts ...Option) *Manager {
	m := &Manager{
		retryInterval: DefaultRetryInterval,
		dial:          nats.Connect,
		logger:        logger.NewNop(),
		metrics:       metrics.NewNop(),
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init starts connecting to url in the background and returns immediately.
//
// Only the first call has any effect. The connection is published into the
// slot once established; Ready is closed at the same moment.
//
// Parameters:
//   - url: Broker URL, for example "nats://127.0.0.1:4222"
func (m *Manager) Init(url string) {
	m.initOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())

		m.mu.Lock()
		m.url = url
		m.cancel = cancel
		m.mu.Unlock()

		go func() {
			defer close(m.done)

			nc, err := m.Connect(ctx, url)
			if err != nil {
				m.logger.Debug("connection routine stopped before broker became reachable", "broker", url, "error", err)
				return
			}

			m.conn.Store(nc)
			close(m.ready)
		}()
	})
}

// Connect dials url until it succeeds or ctx is cancelled.
//
// Dial failures are never returned. The first failure is logged at Warn and
// later ones are suppressed until the connection succeeds, which is logged at
// Info. Between attempts Connect sleeps for the retry interval.
//
// Parameters:
//   - ctx: Context; cancellation is the only way Connect fails
//   - url: Broker URL
//
// Returns:
//   - *nats.Conn: Established connection
//   - error: ctx.Err() when cancelled
func (m *Manager) Connect(ctx context.Context, url string) (*nats.Conn, error) {
	opts := m.connectOptions()
	logged := false

	for {
		nc, err := m.dial(url, opts...)
		if err == nil {
			m.metrics.RecordConnectAttempt(true)
			m.metrics.SetConnected(true)
			m.logger.Info("connected to the message bus", "broker", url)

			return nc, nil
		}

		m.metrics.RecordConnectAttempt(false)
		if !logged {
			m.logger.Warn("connection to the message bus failed, quietly retrying", "broker", url, "error", fmt.Errorf("%w: %w", types.ErrConnectFailed, err))
			logged = true
		}

		timer := time.NewTimer(m.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Conn returns the published connection, or nil until it exists.
func (m *Manager) Conn() *nats.Conn {
	return m.conn.Load()
}

// Ready returns a channel closed when the connection has been published.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// URL returns the broker URL passed to Init, or "" before Init.
func (m *Manager) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.url
}

// Close stops an in-flight connect routine and closes the connection.
//
// Safe to call multiple times and before Init.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		// Blocks a later Init from starting a routine nobody would stop.
		m.initOnce.Do(func() { close(m.done) })

		m.mu.Lock()
		cancel := m.cancel
		m.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		<-m.done

		if nc := m.conn.Load(); nc != nil {
			nc.Close()
		}
		m.metrics.SetConnected(false)
	})
}

func (m *Manager) connectOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			m.metrics.SetConnected(false)
			if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				m.logger.Warn("message bus disconnected", "broker", m.URL(), "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			m.metrics.SetConnected(true)
			m.logger.Info("message bus reconnected", "broker", nc.ConnectedUrl())
		}),
	}
	if m.connectTimeout > 0 {
		opts = append(opts, nats.Timeout(m.connectTimeout))
	}
	if m.name != "" {
		opts = append(opts, nats.Name(m.name))
	}

	return append(opts, m.natsOpts...)
}
