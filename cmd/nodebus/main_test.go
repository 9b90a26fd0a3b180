package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/nodebus"
	nbtest "github.com/arloliu/nodebus/testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	err := root.ExecuteContext(ctx)

	return out.String(), err
}

func TestAgentPrintConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodebus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodeId: from-file\nheartbeatInterval: 4s\n"), 0o600))

	out, err := execute(t, "agent",
		"--config", path,
		"--broker", "nats://10.0.0.9:4222",
		"--grpc-endpoint", "10.0.0.1:10124",
		"--print-config",
	)
	require.NoError(t, err)

	var cfg nodebus.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	require.Equal(t, "nats://10.0.0.9:4222", cfg.BrokerURL)
	require.Equal(t, "from-file", cfg.NodeID)
	require.Equal(t, "10.0.0.1:10124", cfg.GRPCEndpoint)
	require.Equal(t, 4*time.Second, cfg.HeartbeatInterval)
}

func TestAgentFlagOverridesNode(t *testing.T) {
	out, err := execute(t, "agent", "--node", "node-b", "--print-config")
	require.NoError(t, err)

	var cfg nodebus.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	require.Equal(t, "node-b", cfg.NodeID)
	require.Equal(t, "nodebus-node-b", cfg.ClientName)
}

func TestAgentInvalidEndpoint(t *testing.T) {
	_, err := execute(t, "agent", "--node", "n", "--grpc-endpoint", "bogus", "--print-config")
	require.ErrorIs(t, err, nodebus.ErrInvalidConfig)
}

func TestAgentLogsCarryNodeID(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"agent", "--node", "node-c", "--log-format", "json"})

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, root.ExecuteContext(ctx))

	var shutdown string
	for line := range strings.Lines(errOut.String()) {
		if strings.Contains(line, `"msg":"shutting down"`) {
			shutdown = line
		}
	}
	require.NotEmpty(t, shutdown, "stderr: %s", errOut.String())
	require.Contains(t, shutdown, `"node_id":"node-c"`)
}

func TestMonitorSelfCheck(t *testing.T) {
	ns, _ := nbtest.StartEmbeddedNATS(t)

	out, err := execute(t, "monitor", "--url", ns.ClientURL(), "--self-check-only")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "connected to "), out)
	require.Contains(t, out, "looped back")
}

func TestMonitorUnreachable(t *testing.T) {
	_, err := execute(t, "monitor", "--url", "nats://127.0.0.1:1", "--timeout", "200ms")
	require.Error(t, err)
}
