package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterPayload_Marshal(t *testing.T) {
	data, err := RegisterPayload{ID: "node-a", GRPCEndpoint: "10.0.0.1:10124"}.Marshal()
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"node-a","grpcEndpoint":"10.0.0.1:10124"}`, string(data))
}

func TestDeregisterPayload_Marshal(t *testing.T) {
	data, err := DeregisterPayload{ID: "node-a"}.Marshal()
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"node-a"}`, string(data))
}

func TestPayload_FieldNames(t *testing.T) {
	// The control plane keys on these exact field names
	data, err := RegisterPayload{ID: "n", GRPCEndpoint: "e"}.Marshal()
	require.NoError(t, err)
	require.Contains(t, string(data), `"grpcEndpoint"`)
	require.NotContains(t, string(data), `"GRPCEndpoint"`)
}
