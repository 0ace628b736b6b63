package scene

import (
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/widget"
)

// App property names.
const (
	PropWindowWidth      = "width"
	PropWindowHeight     = "height"
	PropWindowBackground = "background_color"
	PropWindowTitle      = "title"
)

// DefaultTitle is used when a document sets no title.
const DefaultTitle = "rapidgui"

// windowSchema checks app-properties with the same generic loader widgets use.
var windowSchema = widget.NewSchema(KeyAppProperties,
	[]widget.Property{
		widget.IntProperty(PropWindowWidth, 500, widget.NonNegative),
		widget.IntProperty(PropWindowHeight, 500, widget.NonNegative),
		widget.ColorProperty(PropWindowBackground, backend.White),
		widget.StringProperty(PropWindowTitle, DefaultTitle),
	},
	nil,
)

// Window holds the window-level properties of a scene.
type Window struct {
	Width      int
	Height     int
	Background backend.Color
	Title      string
}

// Config converts the window properties into a backend window config.
func (w Window) Config() backend.WindowConfig {
	return backend.WindowConfig{Width: w.Width, Height: w.Height, Title: w.Title, Background: w.Background}
}

// Scene is an ordered, fixed set of widgets plus window properties.
// The identifier index never changes after Build, so lookups are safe from
// any goroutine; the widgets themselves belong to the render loop.
type Scene struct {
	Name   string
	Window Window

	widgets []widget.Widget
	index   map[string]widget.Widget
}

// Load reads and builds the document at path.
func Load(path string) (*Scene, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Build validates doc and constructs its widgets. It fails on the first
// schema violation or duplicate identifier; no partial scene is returned.
func Build(doc *Document) (*Scene, error) {
	if doc == nil {
		return nil, rgerrors.New(rgerrors.ErrCodeSchemaViolation, "document is nil")
	}

	app, err := windowSchema.Resolve(KeyAppProperties, doc.App)
	if err != nil {
		return nil, err
	}
	s := &Scene{
		Name: doc.Name,
		Window: Window{
			Width:      app[PropWindowWidth].(int),
			Height:     app[PropWindowHeight].(int),
			Background: app[PropWindowBackground].(backend.Color),
			Title:      app[PropWindowTitle].(string),
		},
		widgets: make([]widget.Widget, 0, len(doc.Components)),
		index:   make(map[string]widget.Widget, len(doc.Components)),
	}
	if s.Name == "" {
		s.Name = s.Window.Title
	}

	for _, c := range doc.Components {
		if _, dup := s.index[c.Identifier]; dup {
			return nil, rgerrors.Newf(rgerrors.ErrCodeDuplicateIdentifier,
				"identifier %q is used by more than one component", c.Identifier).
				WithContext("widget", c.Identifier)
		}
		w, err := widget.Build(c.Type, c.Identifier, c.Properties)
		if err != nil {
			return nil, err
		}
		s.widgets = append(s.widgets, w)
		s.index[c.Identifier] = w
	}
	return s, nil
}

// Widgets returns the widgets in document order, which is also draw order.
func (s *Scene) Widgets() []widget.Widget {
	return s.widgets
}

// Lookup finds a widget by identifier.
func (s *Scene) Lookup(id string) (widget.Widget, bool) {
	w, ok := s.index[id]
	return w, ok
}

// Identifiers returns widget identifiers in document order.
func (s *Scene) Identifiers() []string {
	ids := make([]string, len(s.widgets))
	for i, w := range s.widgets {
		ids[i] = w.ID()
	}
	return ids
}

// Len returns the number of widgets.
func (s *Scene) Len() int {
	return len(s.widgets)
}

// WidgetAt returns the front-most widget accepting a press at (x, y).
// Later widgets are drawn on top, so the search runs back to front.
func (s *Scene) WidgetAt(x, y int) widget.Widget {
	for i := len(s.widgets) - 1; i >= 0; i-- {
		if s.widgets[i].HitTest(x, y) {
			return s.widgets[i]
		}
	}
	return nil
}
