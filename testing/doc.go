// Package testing provides test utilities for the nodebus library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single in-process NATS server plus a connected client
//   - StartEmbeddedNATSOnPort and FreePort: Brokers that come up after the client
//   - NewRecorder: Ordered capture of register/deregister traffic
//   - NewTestLogger: Logger that writes through testing.T and records entries
//
// Example usage:
//
//	import (
//	    "testing"
//	    nbtest "github.com/arloliu/nodebus/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    ns, nc := nbtest.StartEmbeddedNATS(t)
//	    rec := nbtest.NewRecorder(t, nc, "register")
//	    // Point an agent at ns.ClientURL() and assert on rec
//	}
package testing
