// Package natsbus implements types.MessageBus on top of a NATS connection.
package natsbus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/internal/natsutil"
	"github.com/arloliu/nodebus/types"
)

// DefaultPollInterval is how often WaitForReady checks the connection slot.
const DefaultPollInterval = 500 * time.Millisecond

// ConnSource provides the current broker connection, nil until established.
//
// *connection.Manager satisfies it.
type ConnSource interface {
	Conn() *nats.Conn
}

// ReadySignaler is implemented by sources that close a channel once the
// connection is published. WaitForReady wakes on it instead of waiting for
// the next poll.
type ReadySignaler interface {
	Ready() <-chan struct{}
}

// Bus is a types.MessageBus backed by the connection of a ConnSource.
//
// Bus never dials on its own. It publishes through whatever connection the
// source has established and reports ErrNotConnected until then.
type Bus struct {
	src          ConnSource
	pollInterval time.Duration
	logger       types.Logger
	metrics      types.RegistrationMetrics
}

var _ types.MessageBus = (*Bus)(nil)

// Option configures a Bus.
type Option func(*Bus)

// WithPollInterval sets how often WaitForReady polls for the connection.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(b *Bus) {
		b.logger = logger.OrNop(l)
	}
}

// WithMetrics sets the metrics sink for publishes and flushes.
func WithMetrics(m types.RegistrationMetrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// New creates a Bus reading its connection from src.
func New(src ConnSource, opts ...Option) *Bus {
	b := &Bus{
		src:          src,
		pollInterval: DefaultPollInterval,
		logger:       logger.NewNop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Fire publishes payload on channel without waiting for the broker.
//
// A nil error means the message was accepted into the client's outbound
// buffer, not that it reached the broker.
//
// Parameters:
//   - channel: Subject to publish on
//   - payload: Encoded message body
//
// Returns:
//   - error: ErrNotConnected before the connection exists; publish errors
//     wrapped with ErrConnectivity when caused by the transport
func (b *Bus) Fire(channel string, payload []byte) error {
	nc := b.src.Conn()
	if nc == nil {
		b.recordPublish(channel, false)
		return fmt.Errorf("publish to %q: %w", channel, types.ErrNotConnected)
	}

	if err := nc.Publish(channel, payload); err != nil {
		b.recordPublish(channel, false)
		return fmt.Errorf("publish to %q: %w", channel, natsutil.Classify(err))
	}
	b.recordPublish(channel, true)

	return nil
}

// Flush blocks until the broker has acknowledged everything fired so far.
//
// The ctx deadline bounds the wait when present; otherwise the NATS client's
// default flush timeout applies.
func (b *Bus) Flush(ctx context.Context) error {
	nc := b.src.Conn()
	if nc == nil {
		b.recordFlush(false)
		return fmt.Errorf("flush: %w", types.ErrNotConnected)
	}

	var err error
	if _, ok := ctx.Deadline(); ok {
		err = nc.FlushWithContext(ctx)
	} else {
		err = nc.Flush()
	}
	if err != nil {
		b.recordFlush(false)
		return fmt.Errorf("flush: %w", natsutil.Classify(err))
	}
	b.recordFlush(true)

	return nil
}

// WaitForReady blocks until the connection exists or ctx is done.
//
// The first time the connection is found missing a Warn is logged; later
// polls stay quiet. Readiness is logged at Info only if a wait was needed.
// Sources implementing ReadySignaler end the wait as soon as they connect.
func (b *Bus) WaitForReady(ctx context.Context) error {
	if b.src.Conn() != nil {
		return nil
	}

	var ready <-chan struct{} // nil blocks forever
	if rs, ok := b.src.(ReadySignaler); ok {
		ready = rs.Ready()
	}

	select {
	case <-ready:
		if b.src.Conn() != nil {
			return nil
		}
	default:
	}

	b.logger.Warn("message bus not ready, quietly retrying")

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
			ready = nil
		case <-ticker.C:
		}

		if b.src.Conn() != nil {
			b.logger.Info("message bus is ready")
			return nil
		}
	}
}

func (b *Bus) recordPublish(channel string, success bool) {
	if b.metrics != nil {
		b.metrics.RecordPublish(channel, success)
	}
}

func (b *Bus) recordFlush(success bool) {
	if b.metrics != nil {
		b.metrics.RecordFlush(success)
	}
}
