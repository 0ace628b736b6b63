// Package widget defines the widget types a scene is built from.
//
// Each widget type is described by a Schema: an ordered table of typed
// properties with defaults and validators, the signals the type can emit and
// the named methods callers may invoke. Documents and callers are checked
// against the same table by generic code, so adding a type means adding a
// table, not a parser.
package widget

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
)

// Kind is the value type of a property.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Validator checks a value that has already been converted to its property's kind.
type Validator func(v any) error

// Property is one entry of a widget schema.
type Property struct {
	Name     string
	Kind     Kind
	Default  any
	Validate Validator

	// Coerce adjusts values set at runtime before they are validated.
	// Document values are never coerced.
	Coerce func(v any) any
}

// IntProperty declares an integer property.
func IntProperty(name string, def int, validators ...Validator) Property {
	return Property{Name: name, Kind: KindInt, Default: def, Validate: all(validators)}
}

// BoolProperty declares a boolean property.
func BoolProperty(name string, def bool) Property {
	return Property{Name: name, Kind: KindBool, Default: def}
}

// StringProperty declares a string property.
func StringProperty(name, def string) Property {
	return Property{Name: name, Kind: KindString, Default: def}
}

// ColorProperty declares an RGBA color property.
func ColorProperty(name string, def backend.Color) Property {
	return Property{Name: name, Kind: KindColor, Default: def}
}

// WithCoerce returns a copy of p that coerces runtime values with fn.
func (p Property) WithCoerce(fn func(v any) any) Property {
	p.Coerce = fn
	return p
}

// Check converts a document value and validates it.
func (p Property) Check(v any) (any, error) {
	converted, err := Convert(p.Kind, v)
	if err != nil {
		return nil, err
	}
	if p.Validate != nil {
		if err := p.Validate(converted); err != nil {
			return nil, err
		}
	}
	return converted, nil
}

// Prepare converts a runtime value, coerces it and validates the result.
func (p Property) Prepare(v any) (any, error) {
	converted, err := Convert(p.Kind, v)
	if err != nil {
		return nil, err
	}
	if p.Coerce != nil {
		converted = p.Coerce(converted)
	}
	if p.Validate != nil {
		if err := p.Validate(converted); err != nil {
			return nil, err
		}
	}
	return converted, nil
}

// Convert turns a decoded or caller-supplied value into the Go type used for
// kind: int, bool, string or backend.Color.
func Convert(kind Kind, v any) (any, error) {
	switch kind {
	case KindInt:
		return toInt(v, true)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case KindColor:
		return toColor(v)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

// toInt accepts any Go integer. Floats are accepted when truncate is set,
// or when they hold an integral value.
func toInt(v any, truncate bool) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		if n > math.MaxInt {
			return 0, fmt.Errorf("integer %d overflows", n)
		}
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("integer %d overflows", n)
		}
		return int(n), nil
	case float32:
		return floatToInt(float64(n), truncate)
	case float64:
		return floatToInt(n, truncate)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		return floatToInt(f, truncate)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func floatToInt(f float64, truncate bool) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", f)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("number %v overflows", f)
	}
	if !truncate && f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int(f), nil
}

func toColor(v any) (backend.Color, error) {
	var parts []any
	switch c := v.(type) {
	case backend.Color:
		return c, nil
	case []any:
		parts = c
	case []int:
		for _, n := range c {
			parts = append(parts, n)
		}
	case []float64:
		for _, n := range c {
			parts = append(parts, n)
		}
	default:
		return backend.Color{}, fmt.Errorf("expected color [r, g, b] or [r, g, b, a], got %T", v)
	}

	if len(parts) != 3 && len(parts) != 4 {
		return backend.Color{}, fmt.Errorf("color needs 3 or 4 components, got %d", len(parts))
	}
	channels := [4]uint8{0, 0, 0, 255}
	for i, p := range parts {
		n, err := toInt(p, false)
		if err != nil {
			return backend.Color{}, fmt.Errorf("color component %d: %w", i, err)
		}
		if n < 0 || n > 255 {
			return backend.Color{}, fmt.Errorf("color component %d out of range 0..255: %d", i, n)
		}
		channels[i] = uint8(n)
	}
	return backend.RGBA(channels[0], channels[1], channels[2], channels[3]), nil
}

// NonNegative rejects integers below zero.
func NonNegative(v any) error {
	if n, ok := v.(int); ok && n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

// Range returns a validator accepting integers in [lo, hi].
func Range(lo, hi int) Validator {
	return func(v any) error {
		n, ok := v.(int)
		if !ok {
			return nil
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be in [%d, %d], got %d", lo, hi, n)
		}
		return nil
	}
}

// Clamp returns a coercion limiting integers to [lo, hi].
func Clamp(lo, hi int) func(v any) any {
	return func(v any) any {
		n, ok := v.(int)
		if !ok {
			return v
		}
		return min(hi, max(lo, n))
	}
}

func all(validators []Validator) Validator {
	switch len(validators) {
	case 0:
		return nil
	case 1:
		return validators[0]
	}
	return func(v any) error {
		for _, validate := range validators {
			if err := validate(v); err != nil {
				return err
			}
		}
		return nil
	}
}
