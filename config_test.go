package nodebus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/nodebus/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Empty(t, cfg.BrokerURL)
	require.Empty(t, cfg.GRPCEndpoint)
	require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 500*time.Millisecond, cfg.ConnectRetryInterval)
	require.Equal(t, 500*time.Millisecond, cfg.ReadyPollInterval)
	require.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	require.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, "register", cfg.Channels.Register)
	require.Equal(t, "deregister", cfg.Channels.Deregister)
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		host, err := os.Hostname()
		require.NoError(t, err)
		require.Equal(t, host, cfg.NodeID)
		require.Equal(t, "nodebus-"+host, cfg.ClientName)
		require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
		require.Equal(t, "register", cfg.Channels.Register)
		require.NoError(t, cfg.Validate())
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			BrokerURL:            "nats://10.0.0.5:4222",
			NodeID:               "node-a",
			GRPCEndpoint:         "10.0.0.1:10124",
			HeartbeatInterval:    5 * time.Second,
			ConnectRetryInterval: time.Second,
			ReadyPollInterval:    250 * time.Millisecond,
			ConnectTimeout:       3 * time.Second,
			ShutdownTimeout:      7 * time.Second,
			Channels:             ChannelConfig{Register: "nodes.up", Deregister: "nodes.down"},
			ClientName:           "custom",
		}
		want := cfg
		SetDefaults(&cfg)

		require.Equal(t, want, cfg)
	})

	t.Run("replaces negative durations", func(t *testing.T) {
		cfg := Config{NodeID: "n", HeartbeatInterval: -time.Second}
		SetDefaults(&cfg)

		require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.NodeID = "node-a"
		cfg.GRPCEndpoint = "10.0.0.1:10124"

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no broker is allowed", func(c *Config) { c.BrokerURL = "" }, false},
		{"zero heartbeat", func(c *Config) { c.HeartbeatInterval = 0 }, true},
		{"negative retry", func(c *Config) { c.ConnectRetryInterval = -time.Second }, true},
		{"zero poll", func(c *Config) { c.ReadyPollInterval = 0 }, true},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, true},
		{"empty register channel", func(c *Config) { c.Channels.Register = "" }, true},
		{"wildcard channel", func(c *Config) { c.Channels.Deregister = "nodes.>" }, true},
		{"same channels", func(c *Config) { c.Channels.Deregister = c.Channels.Register }, true},
		{"endpoint without node", func(c *Config) { c.NodeID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	log := logger.NewTest(t)

	cfg := TestConfig()
	cfg.BrokerURL = ""
	cfg.ValidateWithWarnings(log)

	require.Equal(t, 1, log.Count("WARN", "no broker URL configured"))
	require.Equal(t, 1, log.Count("WARN", "HeartbeatInterval is very short"))
}

func TestHeartbeatIntervalFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  time.Duration
	}{
		{"unset", "", false, 2 * time.Second},
		{"seconds", "5", true, 5 * time.Second},
		{"whitespace", " 3 ", true, 3 * time.Second},
		{"zero falls back", "0", true, 2 * time.Second},
		{"negative falls back", "-4", true, 2 * time.Second},
		{"garbage falls back", "2s", true, 2 * time.Second},
		{"empty falls back", "", true, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				require.Equal(t, EnvHeartbeatInterval, key)
				return tt.value, tt.set
			}

			require.Equal(t, tt.want, HeartbeatIntervalFromEnv(lookup))
		})
	}
}

func TestApplyEnv(t *testing.T) {
	unset := func(string) (string, bool) { return "", false }
	set := func(v string) func(string) (string, bool) {
		return func(string) (string, bool) { return v, true }
	}

	cfg := Config{HeartbeatInterval: 7 * time.Second}
	ApplyEnv(&cfg, unset)
	require.Equal(t, 7*time.Second, cfg.HeartbeatInterval, "explicit value kept without env")

	ApplyEnv(&cfg, set("10"))
	require.Equal(t, 10*time.Second, cfg.HeartbeatInterval)

	ApplyEnv(&cfg, set("nope"))
	require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
		require.Equal(t, "register", cfg.Channels.Register)
		require.NotEmpty(t, cfg.NodeID)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nodebus.yaml")
		content := `
brokerUrl: nats://127.0.0.1:4222
nodeId: node-a
grpcEndpoint: 10.0.0.1:10124
heartbeatInterval: 3s
connectRetryInterval: 250ms
channels:
  register: nodes.register
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "nats://127.0.0.1:4222", cfg.BrokerURL)
		require.Equal(t, "node-a", cfg.NodeID)
		require.Equal(t, "10.0.0.1:10124", cfg.GRPCEndpoint)
		require.Equal(t, 3*time.Second, cfg.HeartbeatInterval)
		require.Equal(t, 250*time.Millisecond, cfg.ConnectRetryInterval)
		require.Equal(t, "nodes.register", cfg.Channels.Register)
		require.Equal(t, "deregister", cfg.Channels.Deregister)
		require.Equal(t, "nodebus-node-a", cfg.ClientName)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nodebus.yaml")
		require.NoError(t, os.WriteFile(path, []byte("nodeId: from-file\nheartbeatInterval: 3s\n"), 0o600))

		t.Setenv("NODEBUS_NODEID", "from-env")
		t.Setenv(EnvHeartbeatInterval, "9")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "from-env", cfg.NodeID)
		require.Equal(t, 9*time.Second, cfg.HeartbeatInterval)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nodebus.yaml")
		require.NoError(t, os.WriteFile(path, []byte("nodeId: n\ngrpcEndpoint: not-an-endpoint\n"), 0o600))

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := TestConfig()
	cfg.BrokerURL = "nats://127.0.0.1:4222"

	out, err := yaml.Marshal(&cfg)
	require.NoError(t, err)
	require.Contains(t, string(out), "127.0.0.1:10124")

	var decoded Config
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, cfg, decoded)
}
