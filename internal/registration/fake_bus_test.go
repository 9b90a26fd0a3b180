package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/nodebus/types"
)

type firedMessage struct {
	channel string
	payload []byte
	at      time.Time
}

// fakeBus is an in-memory types.MessageBus with controllable readiness and failures.
type fakeBus struct {
	mu       sync.Mutex
	fired    []firedMessage
	flushes  int
	attempts map[string]int
	fireErr  func(channel string, n int) error
	flushErr error

	readyOnce sync.Once
	ready     chan struct{}
	readyFlag bool
	notify    chan struct{}
}

var _ types.MessageBus = (*fakeBus)(nil)

func newFakeBus(ready bool) *fakeBus {
	b := &fakeBus{
		attempts: make(map[string]int),
		ready:    make(chan struct{}),
		notify:   make(chan struct{}, 64),
	}
	if ready {
		b.setReady()
	}

	return b
}

func (b *fakeBus) setReady() {
	b.readyOnce.Do(func() {
		b.mu.Lock()
		b.readyFlag = true
		b.mu.Unlock()
		close(b.ready)
	})
}

func (b *fakeBus) Fire(channel string, payload []byte) error {
	b.mu.Lock()
	defer func() {
		b.mu.Unlock()
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}()

	b.attempts[channel]++
	if !b.readyFlag {
		return fmt.Errorf("publish to %q: %w", channel, types.ErrNotConnected)
	}
	if b.fireErr != nil {
		if err := b.fireErr(channel, b.attempts[channel]); err != nil {
			return err
		}
	}
	b.fired = append(b.fired, firedMessage{channel: channel, payload: payload, at: time.Now()})

	return nil
}

func (b *fakeBus) Flush(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flushes++
	if !b.readyFlag {
		return types.ErrNotConnected
	}

	return b.flushErr
}

func (b *fakeBus) WaitForReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *fakeBus) messages() []firedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]firedMessage, len(b.fired))
	copy(out, b.fired)

	return out
}

func (b *fakeBus) channels() []string {
	msgs := b.messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.channel
	}

	return out
}

func (b *fakeBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.countLocked(channel)
}

func (b *fakeBus) countLocked(channel string) int {
	n := 0
	for _, m := range b.fired {
		if m.channel == channel {
			n++
		}
	}

	return n
}

func (b *fakeBus) attemptCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.attempts[channel]
}

func (b *fakeBus) flushCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.flushes
}

// waitForCount blocks until channel has at least n messages or timeout passes.
func (b *fakeBus) waitForCount(channel string, n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if b.count(channel) >= n {
			return true
		}
		select {
		case <-b.notify:
		case <-deadline:
			return b.count(channel) >= n
		}
	}
}

func decode[T any](payload []byte) T {
	var v T
	_ = json.Unmarshal(payload, &v)

	return v
}
