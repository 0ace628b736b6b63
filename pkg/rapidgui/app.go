// Package rapidgui binds application code to a declaratively described window.
//
// Load a document, then talk to its widgets by identifier from any goroutine:
//
//	app, err := rapidgui.Load(ctx, "example.json")
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	bar, _ := app.ProgressBar("myprogressbar")
//	err = app.Register("mybutton")(func(rapidgui.SignalEvent) {
//		_ = bar.SetPct(100)
//	})
//
// The window runs on its own goroutine. Getters block until the render loop
// answers; setters and registrations return as soon as they are queued.
package rapidgui

import (
	"context"
	"time"

	"github.com/odvcencio/rapidgui/pkg/config"
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/logging"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/tcell"
	"github.com/odvcencio/rapidgui/pkg/ui/runtime"
	"github.com/odvcencio/rapidgui/pkg/ui/scene"
)

// SignalEvent describes a fired widget signal.
type SignalEvent = runtime.SignalEvent

// Document is a decoded window description.
type Document = scene.Document

// Component is one widget entry of a Document.
type Component = scene.Component

// Option configures an App.
type Option func(*options)

type options struct {
	backend   backend.Backend
	logger    *logging.Logger
	cfg       *config.Config
	interval  time.Duration
	observers []runtime.Observer
	manual    bool
}

// WithBackend draws into b instead of the terminal.
func WithBackend(b backend.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig applies runtime configuration: frame interval and terminal cell size.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithFrameInterval overrides the loop cadence.
func WithFrameInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithObserver receives every fired signal, e.g. a relay onto a message bus.
func WithObserver(obs runtime.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Manual leaves starting the loop to App.Run, so the caller picks the
// render goroutine. Native windows on some platforms need the main thread.
//
// Until Run is called nothing drains commands: getters on other goroutines
// block with no bound, while setters and subscriptions queue up and apply on
// the first frame. Close releases blocked getters with SceneClosed; Done and
// Wait still resolve only once Run has been called, which then returns at once.
func Manual() Option {
	return func(o *options) { o.manual = true }
}

// App is the handle to a running window.
type App struct {
	rt     *runtime.Runtime
	scene  *scene.Scene
	logger *logging.Logger
}

// Load decodes and builds the document at path, then starts the window.
// Document errors are returned before any window opens.
func Load(ctx context.Context, path string, opts ...Option) (*App, error) {
	sc, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	return start(ctx, sc, path, opts)
}

// New builds doc and starts the window.
func New(ctx context.Context, doc *Document, opts ...Option) (*App, error) {
	sc, err := scene.Build(doc)
	if err != nil {
		return nil, err
	}
	return start(ctx, sc, sc.Name, opts)
}

func start(ctx context.Context, sc *scene.Scene, source string, opts []Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.interval <= 0 {
		o.interval = o.cfg.FrameInterval
	}
	if o.backend == nil {
		b, err := tcell.New(tcell.Options{
			CellWidth:  o.cfg.Terminal.CellWidth,
			CellHeight: o.cfg.Terminal.CellHeight,
		})
		if err != nil {
			return nil, rgerrors.Wrap(err, rgerrors.ErrCodeBackendInit, "failed to create terminal backend")
		}
		o.backend = b
	}

	rt, err := runtime.New(runtime.Config{
		Scene:         sc,
		Backend:       o.backend,
		FrameInterval: o.interval,
		Logger:        o.logger,
		Observers:     o.observers,
	})
	if err != nil {
		return nil, err
	}

	app := &App{rt: rt, scene: sc, logger: o.logger.WithScene(sc.Name)}
	app.logger.SceneLoaded(source, sc.Len())

	if !o.manual {
		if ctx == nil {
			ctx = context.Background()
		}
		rt.Start(ctx)
	}
	return app, nil
}

// Run runs the loop on the calling goroutine. Only valid with Manual; getters
// issued before Run are answered on its first frame.
func (a *App) Run(ctx context.Context) error {
	return a.rt.Run(ctx)
}

// Widget returns the proxy for id. It works before the first frame.
func (a *App) Widget(id string) (*Proxy, error) {
	w, ok := a.scene.Lookup(id)
	if !ok {
		return nil, rgerrors.Newf(rgerrors.ErrCodeUnknownIdentifier, "no widget with identifier %q", id).
			WithContext("widget", id)
	}
	return &Proxy{rt: a.rt, id: id, schema: w.Schema()}, nil
}

// Register returns a binder that subscribes a handler to the default signal
// of widget id (on_pressed for buttons). Each call of the binder adds a
// subscriber. Lookup errors are reported by the binder.
func (a *App) Register(id string, opts ...SubscribeOption) func(func(SignalEvent)) error {
	return func(fn func(SignalEvent)) error {
		p, err := a.Widget(id)
		if err != nil {
			return err
		}
		signal := p.schema.DefaultSignal()
		if signal == "" {
			return rgerrors.Newf(rgerrors.ErrCodeInvalidProperty, "%s emits no signals", p.Type()).
				WithContext("widget", id)
		}
		return p.On(signal, fn, opts...)
	}
}

// On subscribes fn to a named signal of widget id.
func (a *App) On(id, signal string, fn func(SignalEvent), opts ...SubscribeOption) error {
	p, err := a.Widget(id)
	if err != nil {
		return err
	}
	return p.On(signal, fn, opts...)
}

// Button returns a typed proxy for a button.
func (a *App) Button(id string) (*Button, error) {
	p, err := a.typed(id, "button")
	if err != nil {
		return nil, err
	}
	return &Button{Proxy: p}, nil
}

// ProgressBar returns a typed proxy for a progress bar.
func (a *App) ProgressBar(id string) (*ProgressBar, error) {
	p, err := a.typed(id, "progressbar")
	if err != nil {
		return nil, err
	}
	return &ProgressBar{Proxy: p}, nil
}

func (a *App) typed(id, typ string) (*Proxy, error) {
	p, err := a.Widget(id)
	if err != nil {
		return nil, err
	}
	if p.Type() != typ {
		return nil, rgerrors.Newf(rgerrors.ErrCodeInvalidInput, "widget %q is a %s, not a %s", id, p.Type(), typ).
			WithContext("widget", id)
	}
	return p, nil
}

// Identifiers returns widget identifiers in document order.
func (a *App) Identifiers() []string {
	return a.scene.Identifiers()
}

// Window returns the window properties.
func (a *App) Window() scene.Window {
	return a.scene.Window
}

// Name returns the scene name.
func (a *App) Name() string {
	return a.scene.Name
}

// Close closes the window. Pending and later calls fail with SceneClosed.
func (a *App) Close() {
	a.rt.Close()
}

// Done is closed once the window has closed.
func (a *App) Done() <-chan struct{} {
	return a.rt.Done()
}

// Wait blocks until the window closes. It returns a BACKEND_INIT error if the
// window could not be opened.
func (a *App) Wait() error {
	return a.rt.Wait()
}

// Call invokes method on widget id; see Proxy.Call.
func (a *App) Call(id, method string, args ...any) (any, error) {
	p, err := a.Widget(id)
	if err != nil {
		return nil, err
	}
	return p.Call(method, args...)
}
