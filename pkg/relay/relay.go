// Package relay forwards fired widget signals onto a message bus so other
// processes can react to the window.
package relay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/rapidgui/pkg/logging"
	"github.com/odvcencio/rapidgui/pkg/ui/runtime"
)

//go:generate mockgen -package=relay -destination=mock_publisher_test.go github.com/odvcencio/rapidgui/pkg/relay Publisher

// Publisher is the subset of bus.MessageBus the relay needs.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

const (
	// DefaultPrefix is the first subject token.
	DefaultPrefix = "rapidgui"
	// DefaultBacklog is how many events may wait for publishing.
	DefaultBacklog = 1024
	// DefaultTimeout bounds a single publish.
	DefaultTimeout = 2 * time.Second
)

// Event is the JSON payload published for a fired signal.
type Event struct {
	ID     string    `json:"id"`
	Scene  string    `json:"scene"`
	Widget string    `json:"widget"`
	Signal string    `json:"signal"`
	Frame  uint64    `json:"frame"`
	Time   time.Time `json:"time"`
}

// Options configures a Relay.
type Options struct {
	Prefix  string
	Backlog int
	Timeout time.Duration
	Logger  *logging.Logger
}

// Relay is a runtime.Observer that publishes signals on its own goroutine,
// so a slow bus never stalls the render loop. Events beyond the backlog are
// dropped.
type Relay struct {
	pub     Publisher
	prefix  string
	timeout time.Duration
	logger  *logging.Logger

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}
}

// New starts a relay publishing to pub.
func New(pub Publisher, opts Options) *Relay {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Backlog <= 0 {
		opts.Backlog = DefaultBacklog
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	r := &Relay{
		pub:     pub,
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		logger:  opts.Logger.WithComponent("relay"),
		events:  make(chan Event, opts.Backlog),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// ObserveSignal queues ev for publishing. It never blocks.
func (r *Relay) ObserveSignal(ev runtime.SignalEvent) {
	e := Event{
		ID:     ulid.Make().String(),
		Scene:  ev.Scene,
		Widget: ev.Widget,
		Signal: ev.Signal,
		Frame:  ev.Frame,
		Time:   ev.Time.UTC(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.events <- e:
	default:
		metricDropped.Inc()
		r.logger.RelayDropped(r.Subject(e), cap(r.events))
	}
}

// Subject returns the subject e is published on:
// <prefix>.<scene>.<widget>.<signal>.
func (r *Relay) Subject(e Event) string {
	return Subject(r.prefix, e.Scene, e.Widget, e.Signal)
}

// Close stops accepting events and waits until the backlog is published.
func (r *Relay) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Relay) run() {
	defer close(r.done)
	for e := range r.events {
		r.publish(e)
	}
}

func (r *Relay) publish(e Event) {
	subject := r.Subject(e)
	data, err := json.Marshal(e)
	if err != nil {
		r.logger.RelayFailed(subject, err)
		metricFailed.Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.pub.Publish(ctx, subject, data); err != nil {
		r.logger.RelayFailed(subject, err)
		metricFailed.Inc()
		return
	}
	metricPublished.Inc()
}

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// Subject joins tokens into a bus subject. Characters with meaning to the
// bus are replaced so each part stays a single token.
func Subject(prefix string, parts ...string) string {
	tokens := make([]string, 0, len(parts)+1)
	tokens = append(tokens, prefix)
	for _, p := range parts {
		if p == "" {
			p = "_"
		}
		tokens = append(tokens, tokenReplacer.Replace(p))
	}
	return strings.Join(tokens, ".")
}
