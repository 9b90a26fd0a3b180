// Package natsutil provides helpers for working with NATS client errors.
package natsutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/nodebus/types"
	"github.com/nats-io/nats.go"
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes NATS timeouts, connection refused, disconnections, etc.
//
// Kept in internal/natsutil to avoid importing NATS dependencies in types/ package.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, types.ErrConnectivity) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionDraining) ||
		errors.Is(err, nats.ErrConnectionReconnecting) ||
		errors.Is(err, nats.ErrStaleConnection) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// Classify wraps connectivity errors with types.ErrConnectivity so callers can
// tell transport failures apart from application errors using errors.Is.
//
// Parameters:
//   - err: Error returned by the NATS client
//
// Returns:
//   - error: err wrapped with ErrConnectivity when it is a connectivity failure, err otherwise
func Classify(err error) error {
	if err == nil || errors.Is(err, types.ErrConnectivity) {
		return err
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}

	return err
}
