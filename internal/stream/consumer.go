package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskpilot/internal/fault"
	"taskpilot/internal/pubsub"
	"taskpilot/internal/toolcall"
)

const (
	flushInterval     = 60 * time.Millisecond
	interruptedMarker = "[stream interrupted]"
)

// Consumer reads provider streams, batches token deltas for observers, and
// dispatches tool-call emissions through repair and the runner. Tool calls
// execute in their own goroutines so text keeps flowing while they resolve.
type Consumer struct {
	provider Provider
	repairer *toolcall.Repairer
	runner   *toolcall.Runner
	updates  *pubsub.Broker[Update]

	wg sync.WaitGroup
}

func NewConsumer(provider Provider, repairer *toolcall.Repairer, runner *toolcall.Runner) *Consumer {
	return &Consumer{
		provider: provider,
		repairer: repairer,
		runner:   runner,
		updates:  pubsub.NewBroker[Update](),
	}
}

// Updates returns a channel of text updates scoped to ctx.
func (c *Consumer) Updates(ctx context.Context) <-chan Update {
	return c.updates.Subscribe(ctx)
}

// Wait blocks until all tool calls dispatched by this consumer have
// finalized.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) Shutdown() {
	c.updates.Shutdown()
}

// Run streams one completion and returns the full accumulated text. If the
// provider rejects the tool definitions, the request is retried exactly once
// with tools omitted and the same message history. A second failure is
// returned to the caller.
func (c *Consumer) Run(ctx context.Context, req Request) (string, error) {
	text, err := c.runOnce(ctx, req)
	if err != nil && fault.IsKind(err, fault.KindSchema) && len(req.Tools) > 0 {
		slog.Warn("provider rejected tool definitions, retrying without tools", "error", err)
		retry := req
		retry.Tools = nil
		return c.runOnce(ctx, retry)
	}
	return text, err
}

type session struct {
	buf       strings.Builder
	lastFlush time.Time
}

func (c *Consumer) runOnce(ctx context.Context, req Request) (string, error) {
	events, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	s := &session{lastFlush: time.Now()}
	for ev := range events {
		if ctx.Err() != nil {
			drain(events)
			return c.interrupt(s), nil
		}
		switch {
		case ev.Err != nil:
			drain(events)
			if fault.IsCancelled(ev.Err) {
				return c.interrupt(s), nil
			}
			return s.buf.String(), ev.Err
		case ev.ToolCall != nil:
			c.dispatch(ctx, *ev.ToolCall)
		case ev.Text != "":
			s.buf.WriteString(ev.Text)
			if time.Since(s.lastFlush) > flushInterval || strings.Contains(ev.Text, "\n") {
				c.flush(s, false)
			}
		}
	}
	if ctx.Err() != nil {
		return c.interrupt(s), nil
	}
	c.flush(s, true)
	return s.buf.String(), nil
}

// interrupt appends a visible marker to whatever partial text was surfaced
// and ends the stream without treating the cancellation as a failure.
func (c *Consumer) interrupt(s *session) string {
	if s.buf.Len() > 0 && !strings.HasSuffix(s.buf.String(), "\n") {
		s.buf.WriteString("\n")
	}
	s.buf.WriteString(interruptedMarker)
	c.flush(s, true)
	return s.buf.String()
}

func (c *Consumer) flush(s *session, final bool) {
	c.updates.Publish(Update{Text: s.buf.String(), Final: final})
	s.lastFlush = time.Now()
}

// dispatch repairs an emission and, if it survives, hands it to the runner
// on its own goroutine.
func (c *Consumer) dispatch(ctx context.Context, em toolcall.Emission) {
	call, ok := c.repairer.Repair(em)
	if !ok {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runner.Run(ctx, call)
	}()
}

// drain keeps consuming a stream the local reader abandoned so the transport
// can finish on the server side.
func drain(events <-chan Event) {
	go func() {
		for range events {
		}
	}()
}
