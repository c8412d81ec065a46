package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrHandlerRequired is returned when Consume is called with a nil handler.
var ErrHandlerRequired = errors.New("messaging: handler is required")

// ErrDestinationRequired is returned when the topic/subject is empty.
var ErrDestinationRequired = errors.New("messaging: destination is required")

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source. Consume blocks until ctx is
// cancelled or the broker connection fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
//
// With auto-ack enabled a nil error acks and a non-nil error nacks, unless the
// handler already responded itself.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers are string key/value pairs.
	Headers map[string]string
}

// PublishResult carries optional broker metadata.
type PublishResult struct {
	MessageID   string
	Destination string
	Timestamp   time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	// Header returns the value of key, or "" when absent.
	Header(key string) string
	Headers() map[string]string

	ID() string
	// Source is the topic or subject the message was read from.
	Source() string
	Timestamp() time.Time

	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
	// Nack requests redelivery where the broker supports it.
	Nack(ctx context.Context) error
}
