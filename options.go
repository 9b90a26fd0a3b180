package nodebus

import "github.com/nats-io/nats.go"

// Option configures an Agent with optional dependencies.
type Option func(*agentOptions)

// agentOptions holds optional Agent configuration.
type agentOptions struct {
	hooks    *Hooks
	metrics  MetricsCollector
	logger   Logger
	natsOpts []nats.Option
	dialer   func(url string, opts ...nats.Option) (*nats.Conn, error)
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewAgent
//
// Example:
//
//	hooks := &nodebus.Hooks{
//	    OnStateChanged: func(ctx context.Context, from, to nodebus.State) error {
//	        log.Printf("registration %s -> %s", from, to)
//	        return nil
//	    },
//	}
//	agent, _ := nodebus.NewAgent(&cfg, nodebus.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *agentOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewAgent
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "nodebus")
//	agent, _ := nodebus.NewAgent(&cfg, nodebus.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *agentOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewAgent
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	agent, _ := nodebus.NewAgent(&cfg, nodebus.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *agentOptions) {
		o.logger = logger
	}
}

// WithNATSOptions appends NATS client options used when dialing the broker,
// for example credentials or TLS settings.
//
// Parameters:
//   - opts: NATS client options
//
// Returns:
//   - Option: Functional option for NewAgent
func WithNATSOptions(opts ...nats.Option) Option {
	return func(o *agentOptions) {
		o.natsOpts = append(o.natsOpts, opts...)
	}
}

// WithDialer replaces nats.Connect for dialing the broker.
//
// Parameters:
//   - dial: Function with the signature of nats.Connect
//
// Returns:
//   - Option: Functional option for NewAgent
func WithDialer(dial func(url string, opts ...nats.Option) (*nats.Conn, error)) Option {
	return func(o *agentOptions) {
		o.dialer = dial
	}
}
