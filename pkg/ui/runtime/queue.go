package runtime

import (
	"sync"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

// Queue is an unbounded multi-producer FIFO drained by the render loop.
// Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []Command
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends cmd. It fails with SceneClosed once the queue is closed.
func (q *Queue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return sceneClosed(cmd)
	}
	q.items = append(q.items, cmd)
	metricQueueDepth.Set(float64(len(q.items)))
	return nil
}

// Drain removes and returns every queued command in arrival order.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	metricQueueDepth.Set(0)
	return items
}

// Close rejects further pushes and returns the commands still queued.
func (q *Queue) Close() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	metricQueueDepth.Set(0)
	return items
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func sceneClosed(cmd Command) error {
	metricSceneClosed.Inc()
	return rgerrors.New(rgerrors.ErrCodeSceneClosed, "scene is closed").
		WithContext("widget", cmd.Target()).
		WithContext("command", cmd.Kind())
}
