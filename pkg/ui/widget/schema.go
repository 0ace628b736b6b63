package widget

import (
	"sort"
	"strings"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

// Method is a named accessor or mutator bound to a property.
type Method struct {
	Name     string
	Property string
	Mutator  bool
}

// Schema describes a widget type: its properties, signals and methods.
type Schema struct {
	Type       string
	Properties []Property
	Signals    []string

	index   map[string]int
	methods map[string]Method
}

// NewSchema builds a schema. Every property p gets the methods get_p and
// set_p; aliases add further names.
func NewSchema(typ string, props []Property, signals []string, aliases ...Method) *Schema {
	s := &Schema{
		Type:       typ,
		Properties: props,
		Signals:    signals,
		index:      make(map[string]int, len(props)),
		methods:    make(map[string]Method, 2*len(props)+len(aliases)),
	}
	for i, p := range props {
		s.index[p.Name] = i
		s.methods["get_"+p.Name] = Method{Name: "get_" + p.Name, Property: p.Name}
		s.methods["set_"+p.Name] = Method{Name: "set_" + p.Name, Property: p.Name, Mutator: true}
	}
	for _, m := range aliases {
		s.methods[m.Name] = m
	}
	return s
}

// Getter declares an accessor alias.
func Getter(name, property string) Method {
	return Method{Name: name, Property: property}
}

// Setter declares a mutator alias.
func Setter(name, property string) Method {
	return Method{Name: name, Property: property, Mutator: true}
}

// Property returns the named property.
func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.Properties[i], true
}

// PropertyNames returns property names in schema order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		names[i] = p.Name
	}
	return names
}

// Method returns the named method.
func (s *Schema) Method(name string) (Method, bool) {
	m, ok := s.methods[name]
	return m, ok
}

// MethodNames returns all method names, sorted.
func (s *Schema) MethodNames() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasSignal reports whether the type can emit signal.
func (s *Schema) HasSignal(signal string) bool {
	for _, name := range s.Signals {
		if name == signal {
			return true
		}
	}
	return false
}

// DefaultSignal is the signal bound by a bare registration, or "" when the
// type emits none.
func (s *Schema) DefaultSignal() string {
	if len(s.Signals) == 0 {
		return ""
	}
	return s.Signals[0]
}

// Defaults returns a fresh value table holding every default.
func (s *Schema) Defaults() map[string]any {
	values := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		values[p.Name] = p.Default
	}
	return values
}

// Resolve checks document properties for widget id and merges them over the
// defaults. Keys are checked in sorted order so the reported key is stable.
func (s *Schema) Resolve(id string, props map[string]any) (map[string]any, error) {
	values := s.Defaults()

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, ok := s.Property(key)
		if !ok {
			return nil, rgerrors.Newf(rgerrors.ErrCodeSchemaViolation,
				"unknown property %q for %s (known: %s)", key, s.Type, strings.Join(s.PropertyNames(), ", ")).
				WithContext("widget", id).
				WithContext("key", key)
		}
		v, err := p.Check(props[key])
		if err != nil {
			return nil, rgerrors.Wrap(err, rgerrors.ErrCodeSchemaViolation, "invalid value for property "+key).
				WithContext("widget", id).
				WithContext("key", key)
		}
		values[key] = v
	}
	return values, nil
}

// Prepare converts, coerces and validates a value a caller wants to set.
func (s *Schema) Prepare(id, property string, v any) (any, error) {
	p, ok := s.Property(property)
	if !ok {
		return nil, UnknownProperty(id, s.Type, property)
	}
	prepared, err := p.Prepare(v)
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeInvalidValue, "invalid value for property "+property).
			WithContext("widget", id).
			WithContext("property", property)
	}
	return prepared, nil
}

// UnknownProperty builds the error for a property the type does not declare.
func UnknownProperty(id, typ, property string) error {
	return rgerrors.Newf(rgerrors.ErrCodeInvalidProperty, "%s has no property %q", typ, property).
		WithContext("widget", id).
		WithContext("property", property)
}
