// Package hooks provides default lifecycle hook implementations.
package hooks

import (
	"context"

	"github.com/arloliu/nodebus/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks in the registration loop.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.State, types.State) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, error) error                    = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnStateChanged: h.OnStateChanged,
		OnError:        h.OnError,
	}
}

// Merge returns hooks where every callback left nil in custom falls back to a no-op.
//
// Parameters:
//   - custom: User supplied hooks (may be nil)
//
// Returns:
//   - types.Hooks: Hooks with every field set
func Merge(custom *types.Hooks) types.Hooks {
	merged := NewNop()
	if custom == nil {
		return merged
	}
	if custom.OnStateChanged != nil {
		merged.OnStateChanged = custom.OnStateChanged
	}
	if custom.OnError != nil {
		merged.OnError = custom.OnError
	}

	return merged
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _, _ types.State) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
