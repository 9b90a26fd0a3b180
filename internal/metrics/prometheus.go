package metrics

import (
	"sync"

	"github.com/arloliu/nodebus/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector never panics on duplicate registration until it records.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	connectAttempts *prometheus.CounterVec
	connected       prometheus.Gauge
	publishes       *prometheus.CounterVec
	flushes         *prometheus.CounterVec
	state           prometheus.Gauge
	transitions     *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "nodebus" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "nodebus"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.connectAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "connect_attempts_total",
			Help:      "Total broker dial attempts by result (success,failure).",
		}, []string{"result"})

		p.connected = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "connected",
			Help:      "Broker connection status (1=connected,0=disconnected).",
		})

		p.publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "publishes_total",
			Help:      "Total control-plane publishes by channel and result.",
		}, []string{"channel", "result"})

		p.flushes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "flushes_total",
			Help:      "Total explicit flushes by result.",
		}, []string{"result"})

		p.state = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "registration_state",
			Help:      "Current registration state (0=Idle,1=AwaitingConnection,2=Active,3=Terminating,4=Terminated).",
		})

		p.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "registration_transitions_total",
			Help:      "Total registration state transitions by target state.",
		}, []string{"to"})

		p.reg.MustRegister(p.connectAttempts)
		p.reg.MustRegister(p.connected)
		p.reg.MustRegister(p.publishes)
		p.reg.MustRegister(p.flushes)
		p.reg.MustRegister(p.state)
		p.reg.MustRegister(p.transitions)
	})
}

// RecordConnectAttempt increments the dial attempt counter.
func (p *PrometheusCollector) RecordConnectAttempt(success bool) {
	p.ensureRegistered()
	p.connectAttempts.WithLabelValues(result(success)).Inc()
}

// SetConnected sets the connection status gauge.
func (p *PrometheusCollector) SetConnected(connected bool) {
	p.ensureRegistered()
	if connected {
		p.connected.Set(1)
		return
	}
	p.connected.Set(0)
}

// RecordPublish increments the publish counter for channel.
func (p *PrometheusCollector) RecordPublish(channel string, success bool) {
	p.ensureRegistered()
	p.publishes.WithLabelValues(channel, result(success)).Inc()
}

// RecordFlush increments the flush counter.
func (p *PrometheusCollector) RecordFlush(success bool) {
	p.ensureRegistered()
	p.flushes.WithLabelValues(result(success)).Inc()
}

// RecordStateTransition updates the state gauge and transition counter.
func (p *PrometheusCollector) RecordStateTransition(_ /* from */, to types.State) {
	p.ensureRegistered()
	p.state.Set(float64(to))
	p.transitions.WithLabelValues(to.String()).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
