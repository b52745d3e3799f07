package toolcall

import (
	"fmt"
	"time"
)

// State is the lifecycle position of one tool invocation.
type State string

const (
	StatePending    State = "pending"
	StateConfirming State = "confirming"
	StateExecuting  State = "executing"
	StateComplete   State = "complete"
	StateError      State = "error"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool {
	switch s {
	case StateComplete, StateError, StateCancelled:
		return true
	}
	return false
}

// allowed enumerates every legal transition. Transitions are monotonic: no
// backward moves, and Cancelled is reachable from any non-terminal state.
var allowed = map[State][]State{
	StatePending:    {StateConfirming, StateExecuting, StateCancelled},
	StateConfirming: {StateExecuting, StateCancelled},
	StateExecuting:  {StateComplete, StateError, StateCancelled},
}

// transition validates a single state move.
func transition(from, to State) error {
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", from, to)
}

// Call is one well-formed tool-call emission ready to run.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Invocation tracks a single tool call through its lifecycle.
type Invocation struct {
	ID        string
	Name      string
	Args      map[string]any
	State     State
	CreatedAt time.Time
	Output    string
	Err       string
}

// advance moves the invocation to the next state, enforcing monotonicity.
func (inv *Invocation) advance(to State) error {
	if err := transition(inv.State, to); err != nil {
		return err
	}
	inv.State = to
	return nil
}

// Phase is the outward-facing stage of a lifecycle notification.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseDone  Phase = "done"
	PhaseError Phase = "error"
)

// Notification is emitted exactly once per phase of an invocation.
type Notification struct {
	ID     string         `json:"id"`
	Phase  Phase          `json:"phase"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"`
	Output string         `json:"output,omitempty"`
	Err    string         `json:"error,omitempty"`
}
