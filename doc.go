// Package nodebus registers a storage node with its control plane over NATS.
//
// A nodebus Agent keeps a node visible to the control plane: it connects to
// the broker with unbounded retry, announces the node identity and gRPC
// endpoint on a fixed heartbeat, and sends one final deregistration message on
// shutdown.
//
// # Quick Start
//
//	import "github.com/arloliu/nodebus"
//
//	cfg := nodebus.DefaultConfig()
//	cfg.BrokerURL = "nats://127.0.0.1:4222"
//	cfg.NodeID = "node-a"
//	cfg.GRPCEndpoint = "10.0.0.1:10124"
//
//	agent, err := nodebus.NewAgent(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := agent.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer agent.Stop(context.Background())
//
// # Wire Format
//
// Messages are JSON published with core NATS (no JetStream):
//
//	register     {"id":"node-a","grpcEndpoint":"10.0.0.1:10124"}
//	deregister   {"id":"node-a"}
//
// A register message is sent as soon as the connection exists and then every
// HeartbeatInterval (default 2s, overridden by NODEBUS_HB_INTERVAL in whole
// seconds). Delivery is at most once: a successful publish only means the
// message reached the client's outbound buffer.
//
// # Lifecycle
//
// Registration moves through a fixed sequence of states:
//
//	Idle → AwaitingConnection → Active → Terminating → Terminated
//
// Start never blocks on the network. Stop signals the heartbeat loop, waits
// for the deregister message to be flushed (bounded by the context and
// Config.ShutdownTimeout) and closes the connection.
//
// Registration only runs when both BrokerURL and GRPCEndpoint are set; with
// only a BrokerURL the agent keeps a connection but stays Idle.
//
// # Observability
//
// Inject a Logger (compatible with zap.SugaredLogger), a MetricsCollector
// (see internal/metrics for a Prometheus implementation) and Hooks with the
// WithLogger, WithMetrics and WithHooks options.
//
// See the examples/ directory and cmd/nodebus for complete working programs.
package nodebus
