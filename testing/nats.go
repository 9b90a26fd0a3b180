package testing

import (
	"net"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// StartEmbeddedNATS starts an embedded NATS server for testing.
//
// The server runs in-process on a random available port with logging
// suppressed. nodebus only uses core pub/sub, so JetStream stays disabled.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client (closed automatically on test completion)
//
// Example:
//
//	func TestMyComponent(t *testing.T) {
//	    ns, nc := nbtest.StartEmbeddedNATS(t)
//	    cfg.BrokerURL = ns.ClientURL()
//	    // Use nc to observe traffic
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns := StartEmbeddedNATSOnPort(t, -1)

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	t.Cleanup(func() {
		nc.Close()
	})

	return ns, nc
}

// StartEmbeddedNATSOnPort starts an embedded NATS server listening on port.
//
// Use FreePort to reserve a port before the server exists, which lets a test
// point a client at a broker that only comes up later. Passing -1 picks a
// random port.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//   - port: TCP port, or -1 for a random one
//
// Returns:
//   - *server.Server: The running server (shut down automatically on test completion)
func StartEmbeddedNATSOnPort(t *testing.T, port int) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns
}

// FreePort returns a TCP port on 127.0.0.1 that was free at the time of the call.
func FreePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a free port: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}
