package widget

import (
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// Button signals.
const (
	SignalPressed    = "on_pressed"
	SignalHoverBegin = "on_hover_begin"
	SignalHoverEnd   = "on_hover_end"
)

// Button properties beyond the common geometry.
const (
	PropLabelText = "label_text"
	PropLineColor = "line_color"
	PropEnabled   = "enabled"
	PropFontSize  = "font_size"
	PropFontColor = "font_color"
)

// Background shifts applied while hovered or held.
const (
	hoverLighten = 5
	pressLighten = 20
)

// ButtonSchema is the property table of "button".
var ButtonSchema = NewSchema("button",
	[]Property{
		IntProperty(PropX, 0),
		IntProperty(PropY, 0),
		IntProperty(PropWidth, 10, NonNegative),
		IntProperty(PropHeight, 10, NonNegative),
		StringProperty(PropLabelText, ""),
		ColorProperty(PropBackgroundColor, backend.RGB(70, 130, 180)),
		ColorProperty(PropLineColor, backend.Transparent),
		BoolProperty(PropEnabled, true),
		IntProperty(PropFontSize, 20, NonNegative),
		ColorProperty(PropFontColor, backend.White),
	},
	[]string{SignalPressed, SignalHoverBegin, SignalHoverEnd},
	Setter("set_label", PropLabelText),
	Getter("get_label", PropLabelText),
)

func init() {
	Register(Type{Schema: ButtonSchema, New: NewButton})
}

// Button is a clickable labelled rectangle. It emits on_pressed once per
// left press and release completed inside it while enabled.
type Button struct {
	Base
	hovered bool
	pressed bool
}

// NewButton creates a button from resolved values.
func NewButton(id string, values map[string]any) Widget {
	return &Button{Base: NewBase(id, ButtonSchema, values)}
}

// Enabled reports whether the button reacts to presses.
func (b *Button) Enabled() bool {
	return b.Bool(PropEnabled)
}

// Hovered reports whether the pointer is over the button.
func (b *Button) Hovered() bool {
	return b.hovered
}

// Pressed reports whether a press is in progress.
func (b *Button) Pressed() bool {
	return b.pressed
}

// Set stores a value; disabling drops any press in progress.
func (b *Button) Set(property string, v any) error {
	if err := b.Base.Set(property, v); err != nil {
		return err
	}
	if property == PropEnabled && !b.Enabled() {
		b.pressed = false
	}
	return nil
}

// HitTest ignores presses while disabled.
func (b *Button) HitTest(x, y int) bool {
	return b.Enabled() && b.Bounds().Contains(x, y)
}

func (b *Button) HandleMouse(ev input.MouseEvent) []string {
	switch ev.Action {
	case input.MouseMove:
		inside := b.Bounds().Contains(ev.X, ev.Y)
		if inside == b.hovered {
			return nil
		}
		b.hovered = inside
		if inside {
			return []string{SignalHoverBegin}
		}
		return []string{SignalHoverEnd}

	case input.MousePress:
		if ev.Button == input.MouseLeft && b.HitTest(ev.X, ev.Y) {
			b.pressed = true
		}

	case input.MouseRelease:
		if !b.pressed || ev.Button != input.MouseLeft {
			return nil
		}
		b.pressed = false
		if b.Enabled() && b.Bounds().Contains(ev.X, ev.Y) {
			return []string{SignalPressed}
		}
	}
	return nil
}

// Fill returns the background drawn for the current state.
func (b *Button) Fill() backend.Color {
	bg := b.Color(PropBackgroundColor)
	switch {
	case !b.Enabled():
		return backend.DisabledGray
	case b.pressed:
		return bg.Lighten(pressLighten)
	case b.hovered:
		return bg.Lighten(hoverLighten)
	default:
		return bg
	}
}

func (b *Button) Draw(c backend.Canvas) {
	r := b.Bounds()
	c.FillRect(r, b.Fill())
	if line := b.Color(PropLineColor); !line.IsTransparent() {
		c.StrokeRect(r, line)
	}
	cx, cy := r.Center()
	c.DrawText(cx, cy, b.Text(PropLabelText), b.Int(PropFontSize), b.Color(PropFontColor))
}
