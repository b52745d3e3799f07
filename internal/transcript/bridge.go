package transcript

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"taskpilot/internal/toolcall"
)

// SnapshotKind distinguishes the two record shapes the transcript carries.
type SnapshotKind string

const (
	KindConfirm SnapshotKind = "confirm"
	KindResult  SnapshotKind = "result"
)

// Snapshot is the durable, replay-safe record of one finalized tool call.
type Snapshot struct {
	Kind   SnapshotKind   `json:"kind"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"`
	Output string         `json:"output,omitempty"`
}

// Bridge converts finalized invocations into at most one transcript record
// each. Confirmation requests are never snapshotted; the confirmation step
// is ephemeral and implied by the eventual outcome.
type Bridge struct {
	store *Store

	mu     sync.Mutex
	lastID string
}

// NewBridge builds a bridge. store may be nil, in which case snapshots are
// produced but not persisted.
func NewBridge(store *Store) *Bridge {
	return &Bridge{store: store}
}

// OnInvocationComplete returns the result snapshot for an invocation that
// reached Complete, or nil when the id was already handled or the invocation
// carries no result.
func (b *Bridge) OnInvocationComplete(inv *toolcall.Invocation) *Snapshot {
	if inv == nil || inv.State != toolcall.StateComplete {
		return nil
	}

	b.mu.Lock()
	if b.lastID == inv.ID {
		b.mu.Unlock()
		return nil
	}
	b.lastID = inv.ID
	b.mu.Unlock()

	snap := &Snapshot{
		Kind:   KindResult,
		Name:   inv.Name,
		Args:   inv.Args,
		Output: inv.Output,
	}

	if b.store != nil {
		content, err := json.Marshal(snap)
		if err != nil {
			slog.Error("snapshot encode failed", "id", inv.ID, "error", err)
			return snap
		}
		if _, err := b.store.Append(context.Background(), "tool", string(content)); err != nil {
			slog.Error("snapshot append failed", "id", inv.ID, "error", err)
		}
	}

	return snap
}

// OnInvocationFinalized lets the bridge observe every terminal invocation;
// only completions produce records.
func (b *Bridge) OnInvocationFinalized(inv *toolcall.Invocation) {
	b.OnInvocationComplete(inv)
}
