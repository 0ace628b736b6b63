package bus

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// subscriptionBuffer is how many undelivered messages a slow subscriber may
// hold before further messages to it are dropped.
const subscriptionBuffer = 256

// MemoryBus is an in-process MessageBus. Each subscription delivers on its own
// goroutine in publish order.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySubscription
	closed atomic.Bool
	seq    atomic.Uint64
}

// NewMemoryBus creates a new in-memory message bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySubscription)}
}

func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.deliver(&Message{Subject: subject, Data: data})
	return nil
}

// deliver fans msg out to matching subscriptions and reports whether any matched.
func (b *MemoryBus) deliver(msg *Message) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	matched := false
	for pattern, subs := range b.subs {
		if !matchSubject(pattern, msg.Subject) {
			continue
		}
		for _, sub := range subs {
			if sub.closed.Load() {
				continue
			}
			matched = true
			select {
			case sub.messages <- msg:
			default:
			}
		}
	}
	return matched
}

func (b *MemoryBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		id:       b.seq.Add(1),
		subject:  subject,
		messages: make(chan *Message, subscriptionBuffer),
		done:     make(chan struct{}),
		handler:  handler,
		bus:      b,
	}

	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], sub)
	b.mu.Unlock()

	go sub.run(ctx)
	return sub, nil
}

func (b *MemoryBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	inbox := "_INBOX." + ulid.Make().String()
	replies := make(chan []byte, 1)
	sub, err := b.Subscribe(ctx, inbox, func(msg *Message) []byte {
		select {
		case replies <- msg.Data:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	if !b.deliver(&Message{Subject: subject, Data: data, ReplyTo: inbox}) {
		return nil, ErrNoResponders
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply := <-replies:
		return reply, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.stop()
		}
	}
	b.subs = make(map[string][]*memorySubscription)
	return nil
}

type memorySubscription struct {
	id       uint64
	subject  string
	messages chan *Message
	done     chan struct{}
	handler  MessageHandler
	bus      *MemoryBus
	closed   atomic.Bool
}

func (s *memorySubscription) stop() {
	if !s.closed.Swap(true) {
		close(s.done)
	}
}

func (s *memorySubscription) Unsubscribe() error {
	if s.closed.Load() {
		return nil
	}
	s.stop()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.subs[s.subject]
	for i, sub := range subs {
		if sub.id == s.id {
			s.bus.subs[s.subject] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.bus.subs[s.subject]) == 0 {
		delete(s.bus.subs, s.subject)
	}
	return nil
}

func (s *memorySubscription) Subject() string {
	return s.subject
}

func (s *memorySubscription) run(ctx context.Context) {
	for {
		select {
		case msg := <-s.messages:
			reply := s.handler(msg)
			if reply != nil && msg.ReplyTo != "" {
				s.bus.deliver(&Message{Subject: msg.ReplyTo, Data: reply})
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// matchSubject checks if a subject matches a pattern with wildcards.
// Supports "*" for single token and ">" for multiple tokens.
func matchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	subjectParts := strings.Split(subject, ".")

	pi, si := 0, 0
	for pi < len(patternParts) && si < len(subjectParts) {
		switch patternParts[pi] {
		case "*":
			pi++
			si++
		case ">":
			return pi == len(patternParts)-1
		default:
			if patternParts[pi] != subjectParts[si] {
				return false
			}
			pi++
			si++
		}
	}

	return pi == len(patternParts) && si == len(subjectParts)
}
