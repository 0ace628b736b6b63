package runtime

import "time"

// SignalEvent records a signal emitted by a widget during input dispatch.
type SignalEvent struct {
	Scene  string
	Widget string
	Signal string
	Frame  uint64
	Time   time.Time
}

// Handler receives signal events. Handlers run on the render goroutine unless
// subscribed detached.
type Handler func(ev SignalEvent)

// Observer is notified of every signal event before subscribers run.
// ObserveSignal is called on the render goroutine and must not block.
type Observer interface {
	ObserveSignal(ev SignalEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev SignalEvent)

func (f ObserverFunc) ObserveSignal(ev SignalEvent) { f(ev) }
