package messaging

import (
	"context"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process broker. Each published message is delivered to one
// consumer per name (group/channel/queue group), like the network drivers.
// Nacked messages are redelivered once more after a short pause.
type Memory struct {
	mu     sync.Mutex
	groups map[string]map[string]chan *memoryMessage
	seq    atomic.Int64
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{groups: map[string]map[string]chan *memoryMessage{}}
}

// Close stops accepting messages. Running consumers return once their
// contexts are cancelled.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans the message out to every consumer group subscribed to destination.
// Messages published before any consumer subscribed are dropped.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	queues := make([]chan *memoryMessage, 0, len(m.groups[destination]))
	for _, q := range m.groups[destination] {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	id := strconv.FormatInt(m.seq.Add(1), 10)
	now := time.Now()
	for _, q := range queues {
		mm := &memoryMessage{
			id:      id,
			source:  destination,
			body:    append([]byte(nil), msg.Body...),
			headers: cloneHeaders(msg.Headers),
			at:      now,
			queue:   q,
		}
		select {
		case q <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Destination: destination, Timestamp: now}, nil
}

// Consume registers a consumer group for source and blocks until ctx is done.
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
	q, err := m.queue(source, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-q:
					_ = dispatch(ctx, "memory", mm, handler, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) queue(source, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}
	if m.groups[source] == nil {
		m.groups[source] = map[string]chan *memoryMessage{}
	}
	q, ok := m.groups[source][group]
	if !ok {
		q = make(chan *memoryMessage, 1024)
		m.groups[source][group] = q
	}
	return q, nil
}

type memoryMessage struct {
	settleOnce
	id         string
	source     string
	body       []byte
	headers    map[string]string
	at         time.Time
	queue      chan *memoryMessage
	redelivery bool
}

func (m *memoryMessage) Body() []byte {
	return m.body
}

func (m *memoryMessage) Header(key string) string {
	return headerValue(m.headers, key)
}

func (m *memoryMessage) Headers() map[string]string {
	return cloneHeaders(m.headers)
}

func (m *memoryMessage) ID() string {
	return m.id
}

func (m *memoryMessage) Source() string {
	return m.source
}

func (m *memoryMessage) Timestamp() time.Time {
	return m.at
}

func (m *memoryMessage) Ack(context.Context) error {
	m.claim()
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	if !m.claim() || m.redelivery {
		return nil
	}

	again := &memoryMessage{
		id: m.id, source: m.source, body: m.body, headers: m.headers,
		at: m.at, queue: m.queue, redelivery: true,
	}
	time.AfterFunc(10*time.Millisecond, func() {
		select {
		case m.queue <- again:
		default:
		}
	})
	return nil
}
