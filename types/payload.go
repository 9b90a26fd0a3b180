package types

import "encoding/json"

// Default control-plane channel names.
const (
	RegisterChannel   = "register"
	DeregisterChannel = "deregister"
)

// RegisterPayload announces a node and the endpoint of its gRPC server.
type RegisterPayload struct {
	// ID is the node identifier.
	ID string `json:"id"`
	// GRPCEndpoint is the address of the gRPC server exposed by the node.
	GRPCEndpoint string `json:"grpcEndpoint"`
}

// Marshal encodes the payload as JSON.
func (p RegisterPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// DeregisterPayload announces that a node is leaving.
type DeregisterPayload struct {
	// ID is the node identifier.
	ID string `json:"id"`
}

// Marshal encodes the payload as JSON.
func (p DeregisterPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
