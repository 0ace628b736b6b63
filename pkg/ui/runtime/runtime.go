// Package runtime drives a scene: it owns the render goroutine, applies
// commands queued by caller goroutines and fires widget signals.
//
// All widget state and the backend are touched only by the render goroutine.
// Callers talk to it exclusively through the command queue, except when they
// already are the render goroutine (signal callbacks), in which case commands
// are applied immediately.
package runtime

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"sync"
	"sync/atomic"
	"time"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/logging"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
	"github.com/odvcencio/rapidgui/pkg/ui/scene"
	"github.com/odvcencio/rapidgui/pkg/ui/widget"
)

// DefaultFrameInterval is the loop cadence when none is configured.
const DefaultFrameInterval = 15 * time.Millisecond

// Stop reasons reported in logs.
const (
	ReasonWindowClosed = "window closed"
	ReasonClosed       = "closed"
	ReasonCanceled     = "context canceled"
	ReasonBackendError = "backend error"
)

// ErrAlreadyRunning is returned by Run when the loop has already started.
var ErrAlreadyRunning = errors.New("runtime already running")

// Config configures a Runtime.
type Config struct {
	Scene         *scene.Scene
	Backend       backend.Backend
	FrameInterval time.Duration
	Logger        *logging.Logger
	Observers     []Observer
}

// Runtime runs the render/event loop for one scene.
type Runtime struct {
	scene     *scene.Scene
	backend   backend.Backend
	interval  time.Duration
	logger    *logging.Logger
	observers []Observer

	queue *Queue

	// Owned by the render goroutine.
	subs    map[string]map[string][]*subscription
	pending []SignalEvent
	frame   atomic.Uint64

	loopID  atomic.Uint64
	started atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	err      error
}

type subscription struct {
	handler  Handler
	detached bool
	running  atomic.Bool
}

// New creates a runtime for cfg.Scene. The loop does not start until Run or Start.
func New(cfg Config) (*Runtime, error) {
	if cfg.Scene == nil {
		return nil, rgerrors.New(rgerrors.ErrCodeInvalidInput, "scene is required")
	}
	if cfg.Backend == nil {
		return nil, rgerrors.New(rgerrors.ErrCodeInvalidInput, "backend is required")
	}
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runtime{
		scene:     cfg.Scene,
		backend:   cfg.Backend,
		interval:  interval,
		logger:    logger.WithScene(cfg.Scene.Name),
		observers: cfg.Observers,
		queue:     NewQueue(),
		subs:      make(map[string]map[string][]*subscription),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Scene returns the scene being driven.
func (r *Runtime) Scene() *scene.Scene {
	return r.scene
}

// Frame returns the number of the last frame started.
func (r *Runtime) Frame() uint64 {
	return r.frame.Load()
}

// Start runs the loop on a new goroutine.
func (r *Runtime) Start(ctx context.Context) {
	go func() {
		_ = r.Run(ctx)
	}()
}

// Run opens the window and loops until the window closes, Close is called
// or ctx is canceled. The calling goroutine becomes the render goroutine and
// stays locked to its OS thread. Run returns a BACKEND_INIT error if the
// window cannot be opened.
func (r *Runtime) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}

	goruntime.LockOSThread()
	defer goruntime.UnlockOSThread()
	r.loopID.Store(goroutineID())

	reason := ReasonBackendError
	defer func() { r.finish(reason) }()

	select {
	case <-r.stop:
		reason = ReasonClosed
		return nil
	default:
	}

	win := r.scene.Window.Config()
	if err := r.backend.Open(win); err != nil {
		r.err = rgerrors.Wrap(err, rgerrors.ErrCodeBackendInit, "failed to open window").
			WithContext("backend", r.backend.Name())
		return r.err
	}
	r.logger.WindowOpened(r.backend.Name(), win.Width, win.Height)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if r.step() {
			reason = ReasonWindowClosed
			return nil
		}
		select {
		case <-ctx.Done():
			reason = ReasonCanceled
			return nil
		case <-r.stop:
			reason = ReasonClosed
			return nil
		case <-ticker.C:
		}
	}
}

// Close stops the loop. Pending and future commands fail with SceneClosed.
// Close does not wait for the loop to exit; use Wait or Done for that.
func (r *Runtime) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.failPending(r.queue.Close())
	})
}

// Done is closed once the loop has exited and the backend is closed.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the loop exits and returns the backend error, if any.
func (r *Runtime) Wait() error {
	<-r.done
	return r.err
}

// Get reads a property, blocking until the render goroutine answers.
func (r *Runtime) Get(id, property string) (any, error) {
	w, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Schema().Property(property); !ok {
		return nil, widget.UnknownProperty(id, w.Type(), property)
	}

	if r.onLoop() {
		if r.queue.Closed() {
			return nil, sceneClosed(Get{Widget: id, Property: property})
		}
		metricCommands.WithLabelValues("get").Inc()
		return w.Get(property)
	}

	cmd := Get{Widget: id, Property: property, Reply: make(chan Result, 1)}
	if err := r.queue.Push(cmd); err != nil {
		return nil, err
	}
	res := <-cmd.Reply
	return res.Value, res.Err
}

// Set validates v on the calling goroutine and queues the write. It does not
// wait for the write to be applied.
func (r *Runtime) Set(id, property string, v any) error {
	w, err := r.lookup(id)
	if err != nil {
		return err
	}
	prepared, err := w.Schema().Prepare(id, property, v)
	if err != nil {
		return err
	}

	cmd := Set{Widget: id, Property: property, Value: prepared}
	if r.onLoop() {
		if r.queue.Closed() {
			return sceneClosed(cmd)
		}
		r.apply(cmd)
		return nil
	}
	return r.queue.Push(cmd)
}

// Subscribe queues a handler for signal on widget id.
func (r *Runtime) Subscribe(id, signal string, h Handler, detached bool) error {
	w, err := r.lookup(id)
	if err != nil {
		return err
	}
	if h == nil {
		return rgerrors.New(rgerrors.ErrCodeInvalidInput, "handler is nil").WithContext("widget", id)
	}
	if !w.Schema().HasSignal(signal) {
		return rgerrors.Newf(rgerrors.ErrCodeInvalidProperty, "%s has no signal %q", w.Type(), signal).
			WithContext("widget", id).
			WithContext("signal", signal)
	}

	cmd := Subscribe{Widget: id, Signal: signal, Handler: h, Detached: detached}
	if r.onLoop() {
		if r.queue.Closed() {
			return sceneClosed(cmd)
		}
		r.apply(cmd)
		return nil
	}
	return r.queue.Push(cmd)
}

func (r *Runtime) lookup(id string) (widget.Widget, error) {
	w, ok := r.scene.Lookup(id)
	if !ok {
		return nil, rgerrors.Newf(rgerrors.ErrCodeUnknownIdentifier, "no widget with identifier %q", id).
			WithContext("widget", id)
	}
	return w, nil
}

func (r *Runtime) onLoop() bool {
	id := r.loopID.Load()
	return id != 0 && id == goroutineID()
}

// step runs one frame and reports whether the window asked to close.
func (r *Runtime) step() bool {
	start := time.Now()
	frame := r.frame.Add(1)

	for _, ev := range r.backend.PollEvents() {
		switch e := ev.(type) {
		case input.CloseEvent:
			return true
		case input.MouseEvent:
			r.dispatchMouse(e, frame, start)
		}
	}

	for _, cmd := range r.queue.Drain() {
		r.apply(cmd)
	}

	r.fireSignals()
	r.draw()

	took := time.Since(start)
	metricFrames.Inc()
	metricFrameDuration.Observe(took.Seconds())
	if took > r.interval {
		r.logger.FrameOverrun(frame, took, r.interval)
	}
	return false
}

// dispatchMouse routes presses to the front-most widget that accepts them
// and every other action to all widgets, so hover and release tracking see
// the pointer wherever it goes.
func (r *Runtime) dispatchMouse(ev input.MouseEvent, frame uint64, now time.Time) {
	if ev.Action == input.MousePress {
		if w := r.scene.WidgetAt(ev.X, ev.Y); w != nil {
			r.emit(w, w.HandleMouse(ev), frame, now)
		}
		return
	}
	for _, w := range r.scene.Widgets() {
		r.emit(w, w.HandleMouse(ev), frame, now)
	}
}

func (r *Runtime) emit(w widget.Widget, signals []string, frame uint64, now time.Time) {
	for _, signal := range signals {
		r.pending = append(r.pending, SignalEvent{
			Scene:  r.scene.Name,
			Widget: w.ID(),
			Signal: signal,
			Frame:  frame,
			Time:   now,
		})
	}
}

func (r *Runtime) apply(cmd Command) {
	metricCommands.WithLabelValues(cmd.Kind()).Inc()

	w, ok := r.scene.Lookup(cmd.Target())
	if !ok {
		// Identifiers are checked before queueing; this only guards hand-built commands.
		err := rgerrors.Newf(rgerrors.ErrCodeUnknownIdentifier, "no widget with identifier %q", cmd.Target()).
			WithContext("widget", cmd.Target())
		r.logger.CommandFailed(cmd.Kind(), cmd.Target(), err)
		fail(cmd, err)
		return
	}

	switch c := cmd.(type) {
	case Get:
		v, err := w.Get(c.Property)
		c.Reply <- Result{Value: v, Err: err}
	case Set:
		if err := w.Set(c.Property, c.Value); err != nil {
			r.logger.CommandFailed(c.Kind(), c.Widget, err)
			return
		}
		r.logger.CommandApplied(c.Kind(), c.Widget, c.Property)
	case Subscribe:
		bySignal, ok := r.subs[c.Widget]
		if !ok {
			bySignal = make(map[string][]*subscription)
			r.subs[c.Widget] = bySignal
		}
		bySignal[c.Signal] = append(bySignal[c.Signal], &subscription{handler: c.Handler, detached: c.Detached})
		r.logger.CommandApplied(c.Kind(), c.Widget, c.Signal)
	}
}

func (r *Runtime) fireSignals() {
	events := r.pending
	r.pending = nil

	for _, ev := range events {
		metricSignals.WithLabelValues(ev.Signal).Inc()
		for _, o := range r.observers {
			o.ObserveSignal(ev)
		}

		// Copy so subscriptions added by these callbacks start with the next event.
		subs := append([]*subscription(nil), r.subs[ev.Widget][ev.Signal]...)
		r.logger.SignalFired(ev.Widget, ev.Signal, len(subs))
		for _, s := range subs {
			r.invoke(s, ev)
		}
	}
}

func (r *Runtime) invoke(s *subscription, ev SignalEvent) {
	if !s.detached {
		r.call(s.handler, ev)
		return
	}
	// A detached handler that is still busy skips the event.
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.running.Store(false)
		r.call(s.handler, ev)
	}()
}

func (r *Runtime) call(h Handler, ev SignalEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			metricCallbackPanics.Inc()
			r.logger.CallbackPanicked(ev.Widget, ev.Signal, rec)
		}
	}()
	h(ev)
}

func (r *Runtime) draw() {
	r.backend.Clear(r.scene.Window.Background)
	for _, w := range r.scene.Widgets() {
		w.Tick()
		w.Draw(r.backend)
	}
	r.backend.Present()
}

// finish tears the loop down: it fails every pending command, closes the
// backend and releases waiters.
func (r *Runtime) finish(reason string) {
	r.stopOnce.Do(func() { close(r.stop) })
	pending := r.queue.Close()
	r.failPending(pending)
	r.backend.Close()
	r.logger.LoopStopped(reason, r.frame.Load(), len(pending))
	close(r.done)
}

func (r *Runtime) failPending(cmds []Command) {
	for _, cmd := range cmds {
		fail(cmd, sceneClosed(cmd))
	}
}

func (r *Runtime) String() string {
	return fmt.Sprintf("runtime(%s, %s)", r.scene.Name, r.backend.Name())
}
