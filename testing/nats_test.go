package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestStartEmbeddedNATS(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)

	require.NotNil(t, ns)
	require.NotNil(t, nc)
	require.True(t, nc.IsConnected())
	require.True(t, ns.ReadyForConnections(1*time.Second))
}

// TestStartEmbeddedNATS_ParallelTests verifies parallel test execution.
func TestStartEmbeddedNATS_ParallelTests(t *testing.T) {
	t.Parallel()

	for range 5 {
		t.Run("parallel", func(t *testing.T) {
			t.Parallel()

			_, nc := StartEmbeddedNATS(t)
			require.NotNil(t, nc)
			require.True(t, nc.IsConnected())
		})
	}
}

func TestStartEmbeddedNATSOnPort(t *testing.T) {
	port := FreePort(t)
	url := fmt.Sprintf("nats://127.0.0.1:%d", port)

	_, err := nats.Connect(url)
	require.Error(t, err, "nothing should listen on a reserved free port yet")

	ns := StartEmbeddedNATSOnPort(t, port)
	require.Equal(t, url, ns.ClientURL())

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	require.True(t, nc.IsConnected())
}

func TestRecorder(t *testing.T) {
	_, nc := StartEmbeddedNATS(t)
	rec := NewRecorder(t, nc, "register", "deregister")

	require.NoError(t, nc.Publish("register", []byte(`{"id":"a"}`)))
	require.NoError(t, nc.Publish("ignored", []byte(`x`)))
	require.NoError(t, nc.Publish("register", []byte(`{"id":"b"}`)))
	require.NoError(t, nc.Publish("deregister", []byte(`{"id":"a"}`)))
	require.NoError(t, nc.Flush())

	msgs := rec.WaitForCount(3, 2*time.Second)
	require.Len(t, msgs, 3)
	require.Equal(t, []string{"register", "register", "deregister"}, rec.Subjects())
	require.JSONEq(t, `{"id":"b"}`, string(msgs[1].Data))
	require.Equal(t, 2, rec.Count("register"))
	require.Equal(t, 1, rec.Count("deregister"))

	got := rec.WaitForSubject("deregister", 1, time.Second)
	require.Len(t, got, 3)
}

func TestNewTestLogger(t *testing.T) {
	log := NewTestLogger(t)

	log.Warn("message bus not ready, quietly retrying", "broker", "nats://127.0.0.1:1")
	log.Info("ready")

	require.Equal(t, 1, log.Count("WARN", "quietly retrying"))
	require.Len(t, log.Entries(), 2)
}
