// Package registration runs the node heartbeat loop.
//
// A Service announces a node on the "register" channel as soon as the message
// bus is ready and then once per heartbeat interval. When stopped it publishes
// a single "deregister" message, flushes the transport and exits.
//
// # Lifecycle
//
//	Idle -> AwaitingConnection -> Active -> Terminating -> Terminated
//
// Stopping while still AwaitingConnection skips Active. The deregister attempt
// then fails with ErrNotConnected unless the connection showed up meanwhile.
//
// # Usage
//
//	svc := registration.New(bus, registration.WithLogger(logger))
//	svc.Init(registration.Configuration{
//	    NodeID:            "node-a",
//	    GRPCEndpoint:      "10.0.0.1:10124",
//	    HeartbeatInterval: 2 * time.Second,
//	})
//	defer func() {
//	    svc.Fini()
//	    <-svc.Done()
//	}()
//
// Publish and flush failures are logged and reported through hooks; they never
// stop the loop.
package registration
