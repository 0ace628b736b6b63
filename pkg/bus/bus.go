// Package bus provides the message bus that fired widget signals are relayed
// onto and remote control requests arrive from. The production implementation
// uses NATS; MemoryBus serves tests and single-process setups.
package bus

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a request times out waiting for a response.
	ErrTimeout = errors.New("request timeout")

	// ErrNoResponders is returned when no subscribers are available to handle a request.
	ErrNoResponders = errors.New("no responders available")

	// ErrClosed is returned when operating on a closed bus or subscription.
	ErrClosed = errors.New("bus or subscription closed")
)

// MessageBus is a subject-addressed publish/subscribe transport.
// Implementations must be safe for concurrent use.
type MessageBus interface {
	// Publish sends data to all subscribers of subject without waiting for delivery.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers handler for subject. Wildcards follow NATS rules:
	// "rapidgui.*.mybutton.*" matches one token per "*", and a trailing ">"
	// matches the rest of the subject.
	Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error)

	// Request sends data and waits for a single response.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error)

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// MessageHandler processes an incoming message. A non-nil return value is
// sent back as the response when the sender expects one.
type MessageHandler func(msg *Message) []byte

// Message represents an incoming message from the bus.
type Message struct {
	Subject string
	Data    []byte
	ReplyTo string // set if sender expects a response
}

// Subscription represents an active subscription that can be cancelled.
type Subscription interface {
	Unsubscribe() error
	Subject() string
}

// Config holds connection settings for NATSBus.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is a client identifier shown in server monitoring.
	Name string

	// Timeout bounds connecting and requests without their own deadline.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:     "nats://localhost:4222",
		Name:    "rapidgui",
		Timeout: 5 * time.Second,
	}
}
