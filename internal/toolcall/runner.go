package toolcall

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskpilot/internal/csync"
	"taskpilot/internal/fault"
	"taskpilot/internal/pubsub"
)

// Confirmer gates execution behind human approval.
type Confirmer interface {
	// Auto reports whether the call would be approved without asking.
	Auto(name string, args map[string]any) bool
	// Request blocks until the call is approved, denied, timed out, or the
	// context fires.
	Request(ctx context.Context, id, name string, args map[string]any) (bool, error)
}

// Executor performs the remote call.
type Executor interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Finalizer observes invocations that reached a terminal state.
type Finalizer interface {
	OnInvocationFinalized(inv *Invocation)
}

// Runner drives each tool invocation through its lifecycle: confirmation,
// remote execution, and the terminal notification. One invocation per id may
// be live at a time.
type Runner struct {
	confirmer Confirmer
	executor  Executor
	finalizer Finalizer
	events    *pubsub.Broker[Notification]
	live      *csync.Map[string, *Invocation]
}

func NewRunner(confirmer Confirmer, executor Executor, finalizer Finalizer) *Runner {
	return &Runner{
		confirmer: confirmer,
		executor:  executor,
		finalizer: finalizer,
		events:    pubsub.NewBroker[Notification](),
		live:      csync.NewMap[string, *Invocation](),
	}
}

// Events registers an observer for lifecycle notifications.
func (r *Runner) Events(ctx context.Context) <-chan Notification {
	return r.events.Subscribe(ctx)
}

// Live reports how many invocations have not reached a terminal state.
func (r *Runner) Live() int {
	return r.live.Len()
}

// Shutdown closes the lifecycle broker.
func (r *Runner) Shutdown() {
	r.events.Shutdown()
}

// Run executes one tool call to completion and returns the finalized
// invocation. It blocks; callers that stream text concurrently run it in its
// own goroutine.
func (r *Runner) Run(ctx context.Context, call Call) *Invocation {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}

	inv := &Invocation{
		ID:        call.ID,
		Name:      call.Name,
		Args:      call.Args,
		State:     StatePending,
		CreatedAt: time.Now(),
	}

	if !r.live.SetIfAbsent(inv.ID, inv) {
		slog.Warn("invocation already live, dropping", "id", inv.ID, "tool", inv.Name)
		return nil
	}
	defer r.live.Del(inv.ID)

	r.events.Publish(Notification{ID: inv.ID, Phase: PhaseStart, Name: inv.Name, Args: inv.Args})

	if r.confirmer.Auto(inv.Name, inv.Args) {
		r.mustAdvance(inv, StateExecuting)
	} else {
		r.mustAdvance(inv, StateConfirming)

		accepted, err := r.confirmer.Request(ctx, inv.ID, inv.Name, inv.Args)
		if err != nil {
			r.finish(inv, StateCancelled, "", fault.UserMessage(err))
			return inv
		}
		if !accepted {
			r.finish(inv, StateCancelled, "", "tool call not approved")
			return inv
		}
		r.mustAdvance(inv, StateExecuting)
	}

	output, err := r.executor.CallTool(ctx, inv.Name, inv.Args)
	if err != nil {
		if fault.IsCancelled(err) {
			r.finish(inv, StateCancelled, "", fault.UserMessage(err))
		} else {
			r.finish(inv, StateError, "", fault.UserMessage(err))
		}
		return inv
	}

	r.finish(inv, StateComplete, output, "")
	return inv
}

// finish moves the invocation to a terminal state and emits its single
// terminal notification.
func (r *Runner) finish(inv *Invocation, state State, output, errMsg string) {
	r.mustAdvance(inv, state)
	inv.Output = output
	inv.Err = errMsg

	switch state {
	case StateComplete:
		r.events.Publish(Notification{ID: inv.ID, Phase: PhaseDone, Name: inv.Name, Output: output})
	default:
		r.events.Publish(Notification{ID: inv.ID, Phase: PhaseError, Name: inv.Name, Err: errMsg})
	}

	if r.finalizer != nil {
		r.finalizer.OnInvocationFinalized(inv)
	}
}

// mustAdvance applies a transition the runner itself sequenced; a rejection
// here is a programming error, not a runtime condition.
func (r *Runner) mustAdvance(inv *Invocation, to State) {
	if err := inv.advance(to); err != nil {
		slog.Error("lifecycle violation", "id", inv.ID, "error", err)
	}
}
