package widget

import (
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// Common property names shared by every widget type.
const (
	PropX               = "x"
	PropY               = "y"
	PropWidth           = "width"
	PropHeight          = "height"
	PropBackgroundColor = "background_color"
)

// Widget is a unit of a scene. Widgets are not safe for concurrent use; the
// render loop owns them.
type Widget interface {
	ID() string
	Type() string
	Schema() *Schema

	// Get returns the current value of a property.
	Get(property string) (any, error)

	// Set stores a value that has already passed Schema.Prepare or Schema.Resolve.
	Set(property string, v any) error

	// Bounds returns the widget geometry, origin bottom-left.
	Bounds() backend.Rect

	// HitTest reports whether a press at (x, y) targets this widget.
	HitTest(x, y int) bool

	// HandleMouse updates interaction state and returns the signals emitted.
	HandleMouse(ev input.MouseEvent) []string

	// Tick advances per-frame animation.
	Tick()

	// Draw paints the widget.
	Draw(c backend.Canvas)
}

// Base holds the identifier and property values of a widget and implements
// the property plumbing shared by all types.
type Base struct {
	id     string
	schema *Schema
	values map[string]any
}

// NewBase creates a Base. values should come from Schema.Resolve.
func NewBase(id string, schema *Schema, values map[string]any) Base {
	if values == nil {
		values = schema.Defaults()
	}
	return Base{id: id, schema: schema, values: values}
}

func (b *Base) ID() string      { return b.id }
func (b *Base) Type() string    { return b.schema.Type }
func (b *Base) Schema() *Schema { return b.schema }

// Get returns a property value.
func (b *Base) Get(property string) (any, error) {
	v, ok := b.values[property]
	if !ok {
		return nil, UnknownProperty(b.id, b.schema.Type, property)
	}
	return v, nil
}

// Set stores a property value.
func (b *Base) Set(property string, v any) error {
	if _, ok := b.schema.Property(property); !ok {
		return UnknownProperty(b.id, b.schema.Type, property)
	}
	b.values[property] = v
	return nil
}

// Int returns an int property, or zero.
func (b *Base) Int(property string) int {
	n, _ := b.values[property].(int)
	return n
}

// Bool returns a bool property, or false.
func (b *Base) Bool(property string) bool {
	v, _ := b.values[property].(bool)
	return v
}

// Text returns a string property, or "".
func (b *Base) Text(property string) string {
	s, _ := b.values[property].(string)
	return s
}

// Color returns a color property, or transparent.
func (b *Base) Color(property string) backend.Color {
	c, _ := b.values[property].(backend.Color)
	return c
}

// Bounds returns the rect formed by x, y, width and height.
func (b *Base) Bounds() backend.Rect {
	return backend.NewRect(b.Int(PropX), b.Int(PropY), b.Int(PropWidth), b.Int(PropHeight))
}

// HitTest accepts points inside Bounds.
func (b *Base) HitTest(x, y int) bool {
	return b.Bounds().Contains(x, y)
}

// HandleMouse ignores input.
func (b *Base) HandleMouse(input.MouseEvent) []string { return nil }

// Tick does nothing.
func (b *Base) Tick() {}

// Snapshot copies every property value in schema order.
func Snapshot(w Widget) map[string]any {
	out := make(map[string]any, len(w.Schema().Properties))
	for _, p := range w.Schema().Properties {
		if v, err := w.Get(p.Name); err == nil {
			out[p.Name] = v
		}
	}
	return out
}
