// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/nodebus/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	agent, _ := nodebus.NewAgent(&cfg, nodebus.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ConnectionMetrics implementation

// RecordConnectAttempt discards the connect attempt metric.
func (n *NopMetrics) RecordConnectAttempt(_ /* success */ bool) {
	// No-op
}

// SetConnected discards the connection status metric.
func (n *NopMetrics) SetConnected(_ /* connected */ bool) {
	// No-op
}

// RegistrationMetrics implementation

// RecordPublish discards the publish metric.
func (n *NopMetrics) RecordPublish(_ /* channel */ string, _ /* success */ bool) {
	// No-op
}

// RecordFlush discards the flush metric.
func (n *NopMetrics) RecordFlush(_ /* success */ bool) {
	// No-op
}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {
	// No-op
}
