package rapidgui

import (
	"fmt"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/runtime"
	"github.com/odvcencio/rapidgui/pkg/ui/widget"
)

// SubscribeOption configures a signal subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	detached bool
}

// Detached runs the handler on its own goroutine instead of the render
// goroutine. While a previous invocation is still running, further events
// for the same subscription are skipped. Use it for handlers that do slow
// work so the window keeps drawing.
func Detached() SubscribeOption {
	return func(o *subscribeOptions) { o.detached = true }
}

// Proxy is a goroutine-safe handle to one widget.
type Proxy struct {
	rt     *runtime.Runtime
	id     string
	schema *widget.Schema
}

// ID returns the widget identifier.
func (p *Proxy) ID() string { return p.id }

// Type returns the widget type name.
func (p *Proxy) Type() string { return p.schema.Type }

// Methods lists the accessor and mutator names Call accepts.
func (p *Proxy) Methods() []string { return p.schema.MethodNames() }

// Properties lists property names in schema order.
func (p *Proxy) Properties() []string { return p.schema.PropertyNames() }

// Signals lists the signals the widget can emit.
func (p *Proxy) Signals() []string { return append([]string(nil), p.schema.Signals...) }

// Get reads a property, blocking until the render loop answers.
func (p *Proxy) Get(property string) (any, error) {
	return p.rt.Get(p.id, property)
}

// Set validates v and queues the write without waiting for it.
func (p *Proxy) Set(property string, v any) error {
	return p.rt.Set(p.id, property, v)
}

// Call invokes a named method such as "get_label" or "set_pct". Accessors
// take no arguments and return the value; mutators take exactly one and
// return nil.
func (p *Proxy) Call(method string, args ...any) (any, error) {
	m, ok := p.schema.Method(method)
	if !ok {
		return nil, rgerrors.Newf(rgerrors.ErrCodeInvalidProperty, "%s has no method %q", p.Type(), method).
			WithContext("widget", p.id).
			WithContext("method", method)
	}
	if m.Mutator {
		if len(args) != 1 {
			return nil, rgerrors.Newf(rgerrors.ErrCodeInvalidInput, "%s takes 1 argument, got %d", method, len(args)).
				WithContext("widget", p.id)
		}
		return nil, p.Set(m.Property, args[0])
	}
	if len(args) != 0 {
		return nil, rgerrors.Newf(rgerrors.ErrCodeInvalidInput, "%s takes no arguments, got %d", method, len(args)).
			WithContext("widget", p.id)
	}
	return p.Get(m.Property)
}

// On subscribes fn to signal.
func (p *Proxy) On(signal string, fn func(SignalEvent), opts ...SubscribeOption) error {
	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return p.rt.Subscribe(p.id, signal, runtime.Handler(fn), o.detached)
}

func (p *Proxy) String() string {
	return fmt.Sprintf("%s(%s)", p.schema.Type, p.id)
}

// Button is a typed proxy for a button widget.
type Button struct {
	*Proxy
}

// SetEnabled enables or disables the button.
func (b *Button) SetEnabled(enabled bool) error {
	return b.Set(widget.PropEnabled, enabled)
}

// Enabled reports whether the button is enabled.
func (b *Button) Enabled() (bool, error) {
	v, err := b.Get(widget.PropEnabled)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// SetLabel changes the label text.
func (b *Button) SetLabel(text string) error {
	return b.Set(widget.PropLabelText, text)
}

// Label returns the label text.
func (b *Button) Label() (string, error) {
	v, err := b.Get(widget.PropLabelText)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// OnPressed subscribes fn to on_pressed.
func (b *Button) OnPressed(fn func(SignalEvent), opts ...SubscribeOption) error {
	return b.On(widget.SignalPressed, fn, opts...)
}

// ProgressBar is a typed proxy for a progress bar widget.
type ProgressBar struct {
	*Proxy
}

// SetPct sets the percentage, clamped to [0, 100].
func (p *ProgressBar) SetPct(pct int) error {
	return p.Set(widget.PropPct, pct)
}

// Pct returns the percentage.
func (p *ProgressBar) Pct() (int, error) {
	v, err := p.Get(widget.PropPct)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
