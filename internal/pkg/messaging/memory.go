package messaging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Memory is an in-process broker. Every consumer of a source receives every
// message published to it after the consumer subscribed.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]chan memoryMessage
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: map[string][]chan memoryMessage{}}
}

// Close stops accepting messages. Running consumers return when their ctx ends.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Publish delivers msg to current subscribers of destination. A subscriber
// whose buffer is full misses the message.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	now := time.Now()
	for _, ch := range m.subs[destination] {
		select {
		case ch <- memoryMessage{source: destination, out: msg, at: now}:
		default:
			slog.WarnContext(ctx, "memory consumer is full, message dropped", "destination", destination)
		}
	}

	return PublishResult{Destination: destination, Timestamp: now}, nil
}

// Consume registers a subscriber for source and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch := make(chan memoryMessage, 64)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], ch)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case msg := <-ch:
					dispatch(ctx, DriverMemory, handler, &msg, co.autoAck)
				case <-ctx.Done():
					return
				}
			}
		})
	}

	<-ctx.Done()
	wg.Wait()

	m.mu.Lock()
	subs := m.subs[source]
	for i := range subs {
		if subs[i] == ch {
			m.subs[source] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	return ctx.Err()
}

type memoryMessage struct {
	source string
	out    OutgoingMessage
	at     time.Time
}

func (m *memoryMessage) Body() []byte               { return m.out.Body }
func (m *memoryMessage) Key() []byte                { return m.out.Key }
func (m *memoryMessage) Headers() []Header          { return m.out.Headers }
func (m *memoryMessage) Header(key string) string   { return firstHeader(m.out.Headers, key) }
func (m *memoryMessage) Source() string             { return m.source }
func (m *memoryMessage) Timestamp() time.Time       { return m.at }
func (m *memoryMessage) Ack(context.Context) error  { return nil }
func (m *memoryMessage) Nack(context.Context) error { return nil }
