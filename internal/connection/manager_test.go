package connection

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/nodebus/internal/logger"
	nbtest "github.com/arloliu/nodebus/testing"
)

// failingDialer fails the first n attempts, then delegates to nats.Connect.
func failingDialer(n int32, attempts *atomic.Int32) Dialer {
	return func(url string, opts ...nats.Option) (*nats.Conn, error) {
		if attempts.Add(1) <= n {
			return nil, nats.ErrNoServers
		}

		return nats.Connect(url, opts...)
	}
}

func TestManager_ConnectRetriesUntilSuccess(t *testing.T) {
	ns, _ := nbtest.StartEmbeddedNATS(t)
	log := logger.NewTest(t)

	var attempts atomic.Int32
	m := New(
		WithRetryInterval(10*time.Millisecond),
		WithDialer(failingDialer(5, &attempts)),
		WithLogger(log),
	)

	nc, err := m.Connect(t.Context(), ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	require.True(t, nc.IsConnected())
	require.Equal(t, int32(6), attempts.Load())
	require.Equal(t, 1, log.Count("WARN", "quietly retrying"), "only the first failure is logged")
	require.Equal(t, 1, log.Count("INFO", "connected to the message bus"))
}

func TestManager_ConnectCancelled(t *testing.T) {
	var attempts atomic.Int32
	m := New(
		WithRetryInterval(10*time.Millisecond),
		WithDialer(failingDialer(1<<30, &attempts)),
	)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	nc, err := m.Connect(ctx, "nats://127.0.0.1:1")
	require.Nil(t, nc)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Greater(t, attempts.Load(), int32(1))
}

func TestManager_ConnectRetryInterval(t *testing.T) {
	var attempts atomic.Int32
	m := New(WithDialer(failingDialer(1<<30, &attempts)))

	ctx, cancel := context.WithTimeout(t.Context(), 1200*time.Millisecond)
	defer cancel()

	_, err := m.Connect(ctx, "nats://127.0.0.1:1")
	require.Error(t, err)

	// Attempts at 0, 500ms and 1000ms with the default interval.
	require.Equal(t, int32(3), attempts.Load())
}

func TestManager_InitPublishesOnce(t *testing.T) {
	ns, _ := nbtest.StartEmbeddedNATS(t)

	var dials atomic.Int32
	m := New(WithDialer(func(url string, opts ...nats.Option) (*nats.Conn, error) {
		dials.Add(1)
		return nats.Connect(url, opts...)
	}))
	defer m.Close()

	require.Nil(t, m.Conn())

	m.Init(ns.ClientURL())
	m.Init("nats://127.0.0.1:1")

	select {
	case <-m.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("connection was never published")
	}

	nc := m.Conn()
	require.NotNil(t, nc)
	require.Same(t, nc, m.Conn())
	require.Equal(t, ns.ClientURL(), m.URL())
	require.Equal(t, int32(1), dials.Load())
}

func TestManager_InitLateBroker(t *testing.T) {
	port := nbtest.FreePort(t)
	url := fmt.Sprintf("nats://127.0.0.1:%d", port)
	log := logger.NewTest(t)

	m := New(WithRetryInterval(20*time.Millisecond), WithLogger(log))
	defer m.Close()

	m.Init(url)

	time.Sleep(150 * time.Millisecond)
	require.Nil(t, m.Conn())

	nbtest.StartEmbeddedNATSOnPort(t, port)

	select {
	case <-m.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("connection was never published")
	}

	require.True(t, m.Conn().IsConnected())
	require.Equal(t, 1, log.Count("WARN", "quietly retrying"))
}

func TestManager_CloseStopsRetry(t *testing.T) {
	var attempts atomic.Int32
	m := New(
		WithRetryInterval(5*time.Millisecond),
		WithDialer(failingDialer(1<<30, &attempts)),
	)

	m.Init("nats://127.0.0.1:1")
	time.Sleep(30 * time.Millisecond)
	m.Close()

	stopped := attempts.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, attempts.Load(), "no dial attempts after Close")
	require.Nil(t, m.Conn())

	select {
	case <-m.Ready():
		t.Fatal("ready must stay open when no connection was made")
	default:
	}
}

func TestManager_CloseClosesConnection(t *testing.T) {
	ns, _ := nbtest.StartEmbeddedNATS(t)

	m := New()
	m.Init(ns.ClientURL())
	<-m.Ready()

	nc := m.Conn()
	m.Close()
	m.Close()

	require.True(t, nc.IsClosed())
}

func TestManager_CloseBeforeInit(t *testing.T) {
	m := New()
	m.Close()

	// Init after Close never starts a routine.
	m.Init("nats://127.0.0.1:1")
	require.Nil(t, m.Conn())
}

func TestManager_DialerErrorIsNeverReturned(t *testing.T) {
	sentinel := errors.New("boom")
	var attempts atomic.Int32
	ns, _ := nbtest.StartEmbeddedNATS(t)

	m := New(
		WithRetryInterval(time.Millisecond),
		WithDialer(func(url string, opts ...nats.Option) (*nats.Conn, error) {
			if attempts.Add(1) < 3 {
				return nil, sentinel
			}
			return nats.Connect(url, opts...)
		}),
	)

	nc, err := m.Connect(t.Context(), ns.ClientURL())
	require.NoError(t, err)
	nc.Close()
}
