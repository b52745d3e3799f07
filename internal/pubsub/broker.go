package pubsub

import (
	"context"
	"sync"
)

const defaultBufferSize = 64

// Broker fan-outs payloads to subscribers without blocking publishers.
type Broker[T any] struct {
	mu        sync.RWMutex
	subs      map[chan T]struct{}
	done      chan struct{}
	bufferCap int
}

// NewBroker constructs a broker with sensible defaults.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithOptions[T](defaultBufferSize)
}

// NewBrokerWithOptions builds a broker using the provided channel buffer size.
func NewBrokerWithOptions[T any](buffer int) *Broker[T] {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	return &Broker[T]{
		subs:      make(map[chan T]struct{}),
		done:      make(chan struct{}),
		bufferCap: buffer,
	}
}

// Shutdown closes the broker and all subscriber channels.
func (b *Broker[T]) Shutdown() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		close(ch)
	}
	clear(b.subs)
}

// Subscribe registers for future payloads. The returned channel closes when
// the provided context is done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan T)
		close(ch)
		return ch
	default:
	}

	ch := make(chan T, b.bufferCap)
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.subs[ch]; !ok {
			return
		}
		delete(b.subs, ch)
		close(ch)
	}()

	return ch
}

// Publish sends payload to all subscribers using best-effort delivery.
func (b *Broker[T]) Publish(payload T) {
	b.mu.RLock()
	select {
	case <-b.done:
		b.mu.RUnlock()
		return
	default:
	}

	subs := make([]chan T, 0, len(b.subs))
	for ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
			// Slow subscriber; skip to avoid blocking the publisher.
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Subscriber exposes the Subscribe API implemented by Broker.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan T
}

// Publisher exposes the Publish API implemented by Broker.
type Publisher[T any] interface {
	Publish(T)
}
