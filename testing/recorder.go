package testing

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

// Message is a message captured by a Recorder.
type Message struct {
	Subject    string
	Data       []byte
	ReceivedAt time.Time
}

// Recorder subscribes to a set of subjects and keeps every message in arrival order.
//
// All subjects share one connection, so messages published in order by one
// client are recorded in that order.
type Recorder struct {
	t      *testing.T
	mu     sync.Mutex
	msgs   []Message
	notify chan struct{}
	subs   []*nats.Subscription
}

// NewRecorder subscribes to subjects on nc and starts recording.
//
// The subscriptions are flushed to the server before NewRecorder returns, so
// anything published afterwards is captured. Subscriptions are removed when
// the test completes.
//
// Example:
//
//	_, nc := nbtest.StartEmbeddedNATS(t)
//	rec := nbtest.NewRecorder(t, nc, "register", "deregister")
//	// ... run the agent ...
//	msgs := rec.WaitForCount(2, 5*time.Second)
func NewRecorder(t *testing.T, nc *nats.Conn, subjects ...string) *Recorder {
	t.Helper()

	r := &Recorder{t: t, notify: make(chan struct{}, 1)}
	for _, subject := range subjects {
		sub, err := nc.Subscribe(subject, r.handle)
		if err != nil {
			t.Fatalf("Failed to subscribe to %s: %v", subject, err)
		}
		r.subs = append(r.subs, sub)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("Failed to flush subscriptions: %v", err)
	}

	t.Cleanup(func() {
		for _, sub := range r.subs {
			_ = sub.Unsubscribe()
		}
	})

	return r
}

func (r *Recorder) handle(msg *nats.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, Message{
		Subject:    msg.Subject,
		Data:       slices.Clone(msg.Data),
		ReceivedAt: time.Now(),
	})
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.msgs)
}

// Subjects returns the subject of every recorded message in arrival order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subjects := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		subjects[i] = m.Subject
	}

	return subjects
}

// Count returns the number of recorded messages on subject.
func (r *Recorder) Count(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.msgs {
		if m.Subject == subject {
			n++
		}
	}

	return n
}

// WaitForCount blocks until at least n messages have been recorded, failing the
// test after timeout.
//
// Returns:
//   - []Message: Snapshot of all recorded messages at the time n was reached
func (r *Recorder) WaitForCount(n int, timeout time.Duration) []Message {
	r.t.Helper()

	return r.waitFor(timeout, func(msgs []Message) bool { return len(msgs) >= n })
}

// WaitForSubject blocks until at least n messages on subject have been
// recorded, failing the test after timeout.
func (r *Recorder) WaitForSubject(subject string, n int, timeout time.Duration) []Message {
	r.t.Helper()

	return r.waitFor(timeout, func(msgs []Message) bool {
		count := 0
		for _, m := range msgs {
			if m.Subject == subject {
				count++
			}
		}

		return count >= n
	})
}

func (r *Recorder) waitFor(timeout time.Duration, done func([]Message) bool) []Message {
	r.t.Helper()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		msgs := r.Messages()
		if done(msgs) {
			return msgs
		}

		select {
		case <-r.notify:
		case <-deadline.C:
			r.t.Fatalf("Timed out after %v waiting for messages, have %d: %v", timeout, len(msgs), r.Subjects())
			return nil
		}
	}
}
