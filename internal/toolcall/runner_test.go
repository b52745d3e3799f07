package toolcall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/confirm"
	"taskpilot/internal/fault"
)

type stubConfirmer struct {
	auto     bool
	accepted bool
	err      error
	requests int
}

func (s *stubConfirmer) Auto(name string, args map[string]any) bool { return s.auto }

func (s *stubConfirmer) Request(ctx context.Context, id, name string, args map[string]any) (bool, error) {
	s.requests++
	return s.accepted, s.err
}

type stubExecutor struct {
	output string
	err    error
	calls  int
	block  chan struct{}
}

func (s *stubExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.output, s.err
}

type recordingFinalizer struct {
	finalized []*Invocation
}

func (r *recordingFinalizer) OnInvocationFinalized(inv *Invocation) {
	r.finalized = append(r.finalized, inv)
}

func collectPhases(ch <-chan Notification, n int) []Phase {
	phases := make([]Phase, 0, n)
	deadline := time.After(time.Second)
	for len(phases) < n {
		select {
		case note := <-ch:
			phases = append(phases, note.Phase)
		case <-deadline:
			return phases
		}
	}
	return phases
}

func TestRunAutoApprovedCompletes(t *testing.T) {
	confirmer := &stubConfirmer{auto: true}
	executor := &stubExecutor{output: "Task deleted"}
	finalizer := &recordingFinalizer{}
	runner := NewRunner(confirmer, executor, finalizer)
	defer runner.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := runner.Events(ctx)

	inv := runner.Run(ctx, Call{Name: "tasky_list_tasks"})
	require.NotNil(t, inv)
	assert.Equal(t, StateComplete, inv.State)
	assert.Equal(t, "Task deleted", inv.Output)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, 0, confirmer.requests)
	assert.Equal(t, 0, runner.Live())

	assert.Equal(t, []Phase{PhaseStart, PhaseDone}, collectPhases(events, 2))
	require.Len(t, finalizer.finalized, 1)
	assert.Same(t, inv, finalizer.finalized[0])
}

func TestRunConfirmedThenExecutes(t *testing.T) {
	confirmer := &stubConfirmer{accepted: true}
	executor := &stubExecutor{output: "done"}
	runner := NewRunner(confirmer, executor, nil)
	defer runner.Shutdown()

	inv := runner.Run(context.Background(), Call{ID: "c1", Name: "tasky_delete_task"})
	require.NotNil(t, inv)
	assert.Equal(t, StateComplete, inv.State)
	assert.Equal(t, 1, confirmer.requests)
	assert.Equal(t, 1, executor.calls)
}

func TestRunDeniedNeverExecutes(t *testing.T) {
	confirmer := &stubConfirmer{accepted: false}
	executor := &stubExecutor{}
	finalizer := &recordingFinalizer{}
	runner := NewRunner(confirmer, executor, finalizer)
	defer runner.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := runner.Events(ctx)

	inv := runner.Run(ctx, Call{ID: "c2", Name: "tasky_delete_task"})
	require.NotNil(t, inv)
	assert.Equal(t, StateCancelled, inv.State)
	assert.Equal(t, "tool call not approved", inv.Err)
	assert.Equal(t, 0, executor.calls)

	assert.Equal(t, []Phase{PhaseStart, PhaseError}, collectPhases(events, 2))
	require.Len(t, finalizer.finalized, 1)
}

func TestRunConfirmationCancelled(t *testing.T) {
	confirmer := &stubConfirmer{err: fault.New(fault.KindCancelled, "confirmation aborted")}
	executor := &stubExecutor{}
	runner := NewRunner(confirmer, executor, nil)
	defer runner.Shutdown()

	inv := runner.Run(context.Background(), Call{ID: "c3", Name: "tasky_delete_task"})
	require.NotNil(t, inv)
	assert.Equal(t, StateCancelled, inv.State)
	assert.Equal(t, 0, executor.calls)
}

func TestRunExecutorFailure(t *testing.T) {
	confirmer := &stubConfirmer{auto: true}
	executor := &stubExecutor{err: errors.New("dial tcp 127.0.0.1:7420: connection refused")}
	runner := NewRunner(confirmer, executor, nil)
	defer runner.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := runner.Events(ctx)

	inv := runner.Run(ctx, Call{ID: "c4", Name: "tasky_list_tasks"})
	require.NotNil(t, inv)
	assert.Equal(t, StateError, inv.State)
	assert.Equal(t, "Network error reaching the provider.", inv.Err)
	assert.Equal(t, []Phase{PhaseStart, PhaseError}, collectPhases(events, 2))
}

func TestRunExecutorCancellation(t *testing.T) {
	confirmer := &stubConfirmer{auto: true}
	executor := &stubExecutor{err: fault.Wrap(fault.KindCancelled, "call aborted", context.Canceled)}
	runner := NewRunner(confirmer, executor, nil)
	defer runner.Shutdown()

	inv := runner.Run(context.Background(), Call{ID: "c5", Name: "tasky_list_tasks"})
	require.NotNil(t, inv)
	assert.Equal(t, StateCancelled, inv.State)
}

// ctxBoundExecutor models a remote call that only returns when its context
// fires, the way the endpoint client surfaces cancellation.
type ctxBoundExecutor struct{}

func (ctxBoundExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	<-ctx.Done()
	return "", fault.Wrap(fault.KindCancelled, "tool call aborted", ctx.Err())
}

func TestSharedTokenCancellationFanOut(t *testing.T) {
	service := confirm.NewService(nil)
	defer service.Shutdown()
	runner := NewRunner(service, ctxBoundExecutor{}, nil)
	defer runner.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan *Invocation, 2)
	// One call parks in confirmation, one is already executing; both share
	// the same cancellation token.
	go func() {
		results <- runner.Run(ctx, Call{ID: "awaiting-approval", Name: "tasky_delete_task"})
	}()
	go func() {
		results <- runner.Run(ctx, Call{ID: "in-flight", Name: "tasky_list_tasks"})
	}()

	require.Eventually(t, func() bool {
		return service.Outstanding() == 1 && runner.Live() == 2
	}, time.Second, 5*time.Millisecond)

	cancel()

	for i := 0; i < 2; i++ {
		select {
		case inv := <-results:
			require.NotNil(t, inv)
			assert.Equal(t, StateCancelled, inv.State, "invocation %s", inv.ID)
		case <-time.After(time.Second):
			t.Fatal("invocation never finalized after cancel")
		}
	}
	assert.Equal(t, 0, service.Outstanding())
	assert.Equal(t, 0, runner.Live())
}

func TestRunDuplicateLiveID(t *testing.T) {
	confirmer := &stubConfirmer{auto: true}
	executor := &stubExecutor{block: make(chan struct{})}
	runner := NewRunner(confirmer, executor, nil)
	defer runner.Shutdown()

	first := make(chan *Invocation, 1)
	go func() {
		first <- runner.Run(context.Background(), Call{ID: "dup", Name: "tasky_list_tasks"})
	}()

	require.Eventually(t, func() bool { return runner.Live() == 1 }, time.Second, 5*time.Millisecond)

	dup := runner.Run(context.Background(), Call{ID: "dup", Name: "tasky_list_tasks"})
	assert.Nil(t, dup)

	close(executor.block)
	inv := <-first
	require.NotNil(t, inv)
	assert.Equal(t, StateComplete, inv.State)

	// The id is usable again once the first invocation finalized.
	inv = runner.Run(context.Background(), Call{ID: "dup", Name: "tasky_list_tasks"})
	require.NotNil(t, inv)
	assert.Equal(t, StateComplete, inv.State)
}
