// Package monitor observes control-plane traffic on the message bus.
//
// It backs the "nodebus monitor" command: a self-check that proves the bus
// delivers messages end to end, and a watch mode that prints every register
// and deregister message seen.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/arloliu/nodebus/internal/logger"
	"github.com/arloliu/nodebus/internal/natsutil"
	"github.com/arloliu/nodebus/types"
)

// ErrNilConnection is returned by New when no connection is supplied.
var ErrNilConnection = errors.New("monitor requires a NATS connection")

// Monitor subscribes to control-plane channels on an existing connection.
type Monitor struct {
	nc     *nats.Conn
	logger types.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger.OrNop(l)
	}
}

// New creates a Monitor on nc. The Monitor never closes nc.
func New(nc *nats.Conn, opts ...Option) (*Monitor, error) {
	if nc == nil {
		return nil, ErrNilConnection
	}

	m := &Monitor{nc: nc, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Event is one message observed on a watched channel.
type Event struct {
	Subject    string
	Data       []byte
	ReceivedAt time.Time
}

// SelfCheckResult reports a successful self-check.
type SelfCheckResult struct {
	// Token identifies the self-check message.
	Token string
	// RTT is the broker round trip measured by the client.
	RTT time.Duration
	// Loopback is the time between publishing the self-check and receiving it back.
	Loopback time.Duration
}

// selfCheckPayload is the body of a self-check message.
type selfCheckPayload struct {
	SelfCheck string `json:"selfCheck"`
}

// SelfCheck publishes a uniquely tagged message on channel and waits until it
// comes back through the broker.
//
// Other messages arriving on channel meanwhile are ignored.
//
// Parameters:
//   - ctx: Bounds the wait for the loopback
//   - channel: Subject to check, usually "register"
//
// Returns:
//   - SelfCheckResult: Token and timings
//   - error: Subscribe, publish or flush failure, or ctx.Err() on timeout
func (m *Monitor) SelfCheck(ctx context.Context, channel string) (SelfCheckResult, error) {
	token := uuid.NewString()

	sub, err := m.nc.SubscribeSync(channel)
	if err != nil {
		return SelfCheckResult{}, fmt.Errorf("subscribe to %q: %w", channel, natsutil.Classify(err))
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	rtt, err := m.nc.RTT()
	if err != nil {
		return SelfCheckResult{}, fmt.Errorf("measure round trip: %w", natsutil.Classify(err))
	}

	payload, err := json.Marshal(selfCheckPayload{SelfCheck: token})
	if err != nil {
		return SelfCheckResult{}, err
	}

	sent := time.Now()
	if err := m.nc.Publish(channel, payload); err != nil {
		return SelfCheckResult{}, fmt.Errorf("publish self-check: %w", natsutil.Classify(err))
	}
	m.logger.Debug("self-check published", "channel", channel, "token", token)

	for {
		msg, err := sub.NextMsgWithContext(ctx)
		if err != nil {
			return SelfCheckResult{}, fmt.Errorf("wait for self-check %s: %w", token, err)
		}

		var p selfCheckPayload
		if json.Unmarshal(msg.Data, &p) == nil && p.SelfCheck == token {
			return SelfCheckResult{Token: token, RTT: rtt, Loopback: time.Since(sent)}, nil
		}
	}
}

// Watch delivers every message on channels to handler until ctx is done.
//
// handler runs on the NATS client's dispatch goroutine, one message at a
// time per channel.
//
// Returns:
//   - error: Subscribe failure, otherwise nil after ctx is done
func (m *Monitor) Watch(ctx context.Context, channels []string, handler func(Event)) error {
	subs := make([]*nats.Subscription, 0, len(channels))
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()

	for _, channel := range channels {
		sub, err := m.nc.Subscribe(channel, func(msg *nats.Msg) {
			handler(Event{Subject: msg.Subject, Data: msg.Data, ReceivedAt: time.Now()})
		})
		if err != nil {
			return fmt.Errorf("subscribe to %q: %w", channel, natsutil.Classify(err))
		}
		subs = append(subs, sub)
	}
	if err := m.nc.Flush(); err != nil {
		return fmt.Errorf("flush subscriptions: %w", natsutil.Classify(err))
	}

	m.logger.Info("watching channels", "channels", channels)
	<-ctx.Done()

	return nil
}

// Describe renders an event as a single human readable line.
//
// Register, deregister and self-check payloads are decoded; anything else is
// printed raw.
func Describe(ev Event) string {
	var body struct {
		ID           string `json:"id"`
		GRPCEndpoint string `json:"grpcEndpoint"`
		SelfCheck    string `json:"selfCheck"`
	}

	ts := ev.ReceivedAt.Format(time.RFC3339Nano)
	if err := json.Unmarshal(ev.Data, &body); err != nil {
		return fmt.Sprintf("%s [%s] %q", ts, ev.Subject, ev.Data)
	}

	switch {
	case body.SelfCheck != "":
		return fmt.Sprintf("%s [%s] self-check %s", ts, ev.Subject, body.SelfCheck)
	case body.ID != "" && body.GRPCEndpoint != "":
		return fmt.Sprintf("%s [%s] node %s at %s", ts, ev.Subject, body.ID, body.GRPCEndpoint)
	case body.ID != "":
		return fmt.Sprintf("%s [%s] node %s", ts, ev.Subject, body.ID)
	default:
		return fmt.Sprintf("%s [%s] %s", ts, ev.Subject, ev.Data)
	}
}
