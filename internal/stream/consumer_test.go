package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/fault"
	"taskpilot/internal/toolcall"
)

type scriptedProvider struct {
	mu      sync.Mutex
	scripts [][]Event
	errs    []error
	seen    []Request
}

func (p *scriptedProvider) Stream(ctx context.Context, req Request) (<-chan Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	call := len(p.seen)
	p.seen = append(p.seen, req)

	if call < len(p.errs) && p.errs[call] != nil {
		return nil, p.errs[call]
	}

	var script []Event
	if call < len(p.scripts) {
		script = p.scripts[call]
	}
	ch := make(chan Event, len(script)+1)
	for _, ev := range script {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type autoConfirmer struct{}

func (autoConfirmer) Auto(name string, args map[string]any) bool { return true }

func (autoConfirmer) Request(ctx context.Context, id, name string, args map[string]any) (bool, error) {
	return true, nil
}

type countingExecutor struct {
	mu    sync.Mutex
	names []string
}

func (e *countingExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, name)
	return "ok", nil
}

func newTestConsumer(provider Provider, known []string) (*Consumer, *countingExecutor) {
	executor := &countingExecutor{}
	runner := toolcall.NewRunner(autoConfirmer{}, executor, nil)
	return NewConsumer(provider, toolcall.NewRepairer(known), runner), executor
}

func collectUpdates(ch <-chan Update) []Update {
	var out []Update
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, u)
			if u.Final {
				return out
			}
		case <-time.After(time.Second):
			return out
		}
	}
}

func TestRunFlushesOnNewlineAndCompletion(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]Event{{
		{Text: "Hel"},
		{Text: "lo\n"},
		{Text: "World"},
	}}}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := consumer.Updates(ctx)

	text, err := consumer.Run(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", text)

	got := collectUpdates(updates)
	require.Len(t, got, 2)
	assert.Equal(t, Update{Text: "Hello\n", Final: false}, got[0])
	assert.Equal(t, Update{Text: "Hello\nWorld", Final: true}, got[1])
}

func TestRunFlushesAfterInterval(t *testing.T) {
	provider := &slowProvider{chunks: []string{"first", "second"}, gap: flushInterval + 20*time.Millisecond}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := consumer.Updates(ctx)

	text, err := consumer.Run(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "firstsecond", text)

	got := collectUpdates(updates)
	require.Len(t, got, 2)
	assert.Equal(t, "firstsecond", got[0].Text)
	assert.False(t, got[0].Final)
	assert.True(t, got[1].Final)
}

type slowProvider struct {
	chunks []string
	gap    time.Duration
}

func (p *slowProvider) Stream(ctx context.Context, req Request) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for i, chunk := range p.chunks {
			if i > 0 {
				time.Sleep(p.gap)
			}
			ch <- Event{Text: chunk}
		}
	}()
	return ch, nil
}

func TestRunRetriesOnceWithoutToolsOnSchemaError(t *testing.T) {
	provider := &scriptedProvider{
		scripts: [][]Event{
			{{Err: fault.New(fault.KindSchema, "tool block rejected")}},
			{{Text: "plain answer"}},
		},
	}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	req := Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Tools:    []ToolSpec{{Name: "tasky_list_tasks"}},
	}
	text, err := consumer.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "plain answer", text)

	require.Len(t, provider.seen, 2)
	assert.NotEmpty(t, provider.seen[0].Tools)
	assert.Empty(t, provider.seen[1].Tools)
	assert.Equal(t, req.Messages, provider.seen[1].Messages)
}

func TestRunSecondSchemaFailureSurfaces(t *testing.T) {
	provider := &scriptedProvider{
		scripts: [][]Event{
			{{Err: fault.New(fault.KindSchema, "rejected")}},
			{{Err: fault.New(fault.KindSchema, "rejected again")}},
		},
	}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	_, err := consumer.Run(context.Background(), Request{Tools: []ToolSpec{{Name: "t"}}})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindSchema))
	assert.Len(t, provider.seen, 2)
}

func TestRunNoRetryWithoutTools(t *testing.T) {
	provider := &scriptedProvider{
		scripts: [][]Event{{{Err: fault.New(fault.KindSchema, "rejected")}}},
	}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	_, err := consumer.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Len(t, provider.seen, 1)
}

func TestRunInterruptionAppendsMarker(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]Event{{
		{Text: "partial answer"},
		{Err: fault.Wrap(fault.KindCancelled, "stream aborted", context.Canceled)},
	}}}
	consumer, _ := newTestConsumer(provider, nil)
	defer consumer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := consumer.Updates(ctx)

	text, err := consumer.Run(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "partial answer\n[stream interrupted]", text)

	got := collectUpdates(updates)
	require.NotEmpty(t, got)
	final := got[len(got)-1]
	assert.True(t, final.Final)
	assert.Contains(t, final.Text, "[stream interrupted]")
}

func TestRunDispatchesToolCalls(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]Event{{
		{Text: "working on it\n"},
		{ToolCall: &toolcall.Emission{Name: "tasky_delete_task", Args: map[string]any{"id": "42"}}},
		{ToolCall: &toolcall.Emission{Name: "made_up_tool", Args: map[string]any{}}},
		{Text: "done"},
	}}}
	consumer, executor := newTestConsumer(provider, []string{"tasky_delete_task"})
	defer consumer.Shutdown()

	text, err := consumer.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "working on it\ndone", text)

	consumer.Wait()
	assert.Equal(t, []string{"tasky_delete_task"}, executor.names)
}
