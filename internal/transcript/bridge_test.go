package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/toolcall"
)

func completedInvocation(id string) *toolcall.Invocation {
	return &toolcall.Invocation{
		ID:     id,
		Name:   "tasky_delete_task",
		Args:   map[string]any{"id": "42"},
		State:  toolcall.StateComplete,
		Output: "Task deleted",
	}
}

func TestBridgeSnapshotsCompletion(t *testing.T) {
	bridge := NewBridge(nil)

	snap := bridge.OnInvocationComplete(completedInvocation("inv-1"))
	require.NotNil(t, snap)
	assert.Equal(t, KindResult, snap.Kind)
	assert.Equal(t, "tasky_delete_task", snap.Name)
	assert.Equal(t, "Task deleted", snap.Output)
	assert.Equal(t, "42", snap.Args["id"])
}

func TestBridgeIdempotentPerInvocation(t *testing.T) {
	bridge := NewBridge(nil)
	inv := completedInvocation("inv-1")

	require.NotNil(t, bridge.OnInvocationComplete(inv))
	assert.Nil(t, bridge.OnInvocationComplete(inv))

	// A different invocation id produces a fresh snapshot.
	assert.NotNil(t, bridge.OnInvocationComplete(completedInvocation("inv-2")))
}

func TestBridgeIgnoresNonCompleted(t *testing.T) {
	bridge := NewBridge(nil)

	for _, state := range []toolcall.State{
		toolcall.StatePending,
		toolcall.StateConfirming,
		toolcall.StateExecuting,
		toolcall.StateError,
		toolcall.StateCancelled,
	} {
		inv := completedInvocation("inv-1")
		inv.State = state
		assert.Nil(t, bridge.OnInvocationComplete(inv), "state %s must not snapshot", state)
	}
	assert.Nil(t, bridge.OnInvocationComplete(nil))
}

func TestBridgeFinalizedDelegates(t *testing.T) {
	bridge := NewBridge(nil)

	bridge.OnInvocationFinalized(completedInvocation("inv-1"))

	// The finalizer path consumed the id; a direct call now dedupes.
	assert.Nil(t, bridge.OnInvocationComplete(completedInvocation("inv-1")))
}
