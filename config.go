package nodebus

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvHeartbeatInterval overrides the heartbeat interval with an integer number of seconds.
const EnvHeartbeatInterval = "NODEBUS_HB_INTERVAL"

// envPrefix is the prefix of environment variables read by LoadConfig.
const envPrefix = "NODEBUS"

// structValidator checks the validate tags on Config. Safe for concurrent use.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ChannelConfig names the control-plane subjects.
type ChannelConfig struct {
	// Register is the subject for periodic registration messages.
	Register string `yaml:"register" mapstructure:"register" validate:"required"`

	// Deregister is the subject for the final deregistration message.
	Deregister string `yaml:"deregister" mapstructure:"deregister" validate:"required"`
}

// Config is the configuration for the Agent.
//
// All duration fields accept standard Go duration strings like "500ms", "2s".
type Config struct {
	// BrokerURL is the NATS server address, e.g. "nats://127.0.0.1:4222".
	// A comma separated list of servers is accepted. When empty the agent
	// starts without a message bus and registration stays disabled.
	BrokerURL string `yaml:"brokerUrl" mapstructure:"brokerUrl"`

	// NodeID identifies this node to the control plane.
	// Defaults to the host name.
	NodeID string `yaml:"nodeId" mapstructure:"nodeId" validate:"max=255"`

	// GRPCEndpoint is the address where this node serves gRPC, e.g. "10.0.0.1:10124".
	// Registration only runs when both BrokerURL and GRPCEndpoint are set.
	GRPCEndpoint string `yaml:"grpcEndpoint" mapstructure:"grpcEndpoint" validate:"omitempty,hostname_port"`

	// HeartbeatInterval is the pause between two register messages.
	// Overridden by NODEBUS_HB_INTERVAL (whole seconds).
	// Default: 2 seconds
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval" mapstructure:"heartbeatInterval" validate:"gt=0"`

	// ConnectRetryInterval is the fixed pause between failed broker dials.
	// Default: 500 milliseconds
	ConnectRetryInterval time.Duration `yaml:"connectRetryInterval" mapstructure:"connectRetryInterval" validate:"gt=0"`

	// ReadyPollInterval is how often the heartbeat loop checks for the connection.
	// Default: 500 milliseconds
	ReadyPollInterval time.Duration `yaml:"readyPollInterval" mapstructure:"readyPollInterval" validate:"gt=0"`

	// ConnectTimeout bounds a single dial attempt.
	// Default: 2 seconds
	ConnectTimeout time.Duration `yaml:"connectTimeout" mapstructure:"connectTimeout" validate:"gt=0"`

	// ShutdownTimeout is the maximum time Stop waits for the deregister message
	// to be flushed.
	// Default: 5 seconds
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" mapstructure:"shutdownTimeout" validate:"gt=0"`

	// Channels names the control-plane subjects.
	Channels ChannelConfig `yaml:"channels" mapstructure:"channels"`

	// ClientName is reported to the broker for connection monitoring.
	// Default: "nodebus-<NodeID>"
	ClientName string `yaml:"clientName" mapstructure:"clientName"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// BrokerURL, NodeID and GRPCEndpoint are left empty: they describe the
// deployment, not the library.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:    2 * time.Second,
		ConnectRetryInterval: 500 * time.Millisecond,
		ReadyPollInterval:    500 * time.Millisecond,
		ConnectTimeout:       2 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		Channels: ChannelConfig{
			Register:   RegisterChannel,
			Deregister: DeregisterChannel,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.NodeID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.NodeID = host
		}
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.ConnectRetryInterval <= 0 {
		cfg.ConnectRetryInterval = defaults.ConnectRetryInterval
	}
	if cfg.ReadyPollInterval <= 0 {
		cfg.ReadyPollInterval = defaults.ReadyPollInterval
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Channels.Register == "" {
		cfg.Channels.Register = defaults.Channels.Register
	}
	if cfg.Channels.Deregister == "" {
		cfg.Channels.Deregister = defaults.Channels.Deregister
	}
	if cfg.ClientName == "" && cfg.NodeID != "" {
		cfg.ClientName = "nodebus-" + cfg.NodeID
	}
}

// HeartbeatIntervalFromEnv reads EnvHeartbeatInterval through lookup.
//
// The value is a whole number of seconds. Missing, unparsable, zero and
// negative values all yield the 2 second default.
//
// Parameters:
//   - lookup: Environment accessor, usually os.LookupEnv
//
// Returns:
//   - time.Duration: Heartbeat interval to use
func HeartbeatIntervalFromEnv(lookup func(string) (string, bool)) time.Duration {
	def := DefaultConfig().HeartbeatInterval

	raw, ok := lookup(EnvHeartbeatInterval)
	if !ok {
		return def
	}

	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return def
	}

	return time.Duration(secs) * time.Second
}

// ApplyEnv overrides HeartbeatInterval when EnvHeartbeatInterval is set to a
// valid positive number of seconds.
//
// Parameters:
//   - cfg: Config to update (modified in place)
//   - lookup: Environment accessor, usually os.LookupEnv
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if _, ok := lookup(EnvHeartbeatInterval); !ok {
		return
	}
	cfg.HeartbeatInterval = HeartbeatIntervalFromEnv(lookup)
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Rules:
//   - struct tags: GRPCEndpoint is host:port, NodeID at most 255 bytes
//   - all intervals and timeouts > 0
//   - channel names non-empty, distinct and free of wildcards or spaces
//   - GRPCEndpoint requires a NodeID
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, verrs)
		}

		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"HeartbeatInterval", cfg.HeartbeatInterval},
		{"ConnectRetryInterval", cfg.ConnectRetryInterval},
		{"ReadyPollInterval", cfg.ReadyPollInterval},
		{"ConnectTimeout", cfg.ConnectTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidConfig, d.name, d.value)
		}
	}

	for _, ch := range []struct{ name, value string }{
		{"Channels.Register", cfg.Channels.Register},
		{"Channels.Deregister", cfg.Channels.Deregister},
	} {
		if ch.value == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, ch.name)
		}
		if strings.ContainsAny(ch.value, "*> \t") {
			return fmt.Errorf("%w: %s %q must not contain wildcards or spaces", ErrInvalidConfig, ch.name, ch.value)
		}
	}
	if cfg.Channels.Register == cfg.Channels.Deregister {
		return fmt.Errorf("%w: register and deregister channels must differ, both are %q",
			ErrInvalidConfig, cfg.Channels.Register)
	}

	if cfg.GRPCEndpoint != "" && cfg.NodeID == "" {
		return fmt.Errorf("%w: NodeID is required when GRPCEndpoint is set", ErrInvalidConfig)
	}

	return nil
}

// ValidateWithWarnings logs warnings for values that are valid but unusual.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.BrokerURL == "" {
		logger.Warn("no broker URL configured, message bus disabled")
	} else if cfg.GRPCEndpoint == "" {
		logger.Warn("no gRPC endpoint configured, node registration disabled", "broker", cfg.BrokerURL)
	}

	if cfg.HeartbeatInterval < time.Second {
		logger.Warn("HeartbeatInterval is very short, control plane traffic will be high",
			"heartbeatInterval", cfg.HeartbeatInterval,
			"recommended", "1s or higher",
		)
	}

	if cfg.ShutdownTimeout < cfg.ConnectTimeout {
		logger.Warn("ShutdownTimeout is below ConnectTimeout, deregistration may be cut short",
			"shutdownTimeout", cfg.ShutdownTimeout,
			"connectTimeout", cfg.ConnectTimeout,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Use DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := nodebus.TestConfig()
//	cfg.BrokerURL = ns.ClientURL()
//	agent, err := nodebus.NewAgent(&cfg)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.NodeID = "test-node"
	cfg.GRPCEndpoint = "127.0.0.1:10124"
	cfg.HeartbeatInterval = 100 * time.Millisecond
	cfg.ConnectRetryInterval = 20 * time.Millisecond
	cfg.ReadyPollInterval = 10 * time.Millisecond
	cfg.ConnectTimeout = 500 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second

	return cfg
}

// LoadConfig reads the agent configuration from defaults, an optional YAML
// file and NODEBUS_* environment variables, in increasing precedence.
//
// Environment keys are the upper-cased field paths with "." replaced by "_",
// e.g. NODEBUS_BROKERURL or NODEBUS_CHANNELS_REGISTER. NODEBUS_HB_INTERVAL is
// applied last.
//
// Parameters:
//   - path: YAML file path; empty skips the file
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Read, decode or validation error (validation errors wrap ErrInvalidConfig)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("brokerUrl", defaults.BrokerURL)
	v.SetDefault("nodeId", defaults.NodeID)
	v.SetDefault("grpcEndpoint", defaults.GRPCEndpoint)
	v.SetDefault("heartbeatInterval", defaults.HeartbeatInterval)
	v.SetDefault("connectRetryInterval", defaults.ConnectRetryInterval)
	v.SetDefault("readyPollInterval", defaults.ReadyPollInterval)
	v.SetDefault("connectTimeout", defaults.ConnectTimeout)
	v.SetDefault("shutdownTimeout", defaults.ShutdownTimeout)
	v.SetDefault("channels.register", defaults.Channels.Register)
	v.SetDefault("channels.deregister", defaults.Channels.Deregister)
	v.SetDefault("clientName", defaults.ClientName)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	SetDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
