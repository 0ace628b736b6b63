// Package scene decodes declarative window documents and builds the flat,
// fixed-topology widget collection the render loop drives.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

// Document keys.
const (
	KeyAppProperties = "app-properties"
	KeyComponents    = "components"
	KeyMeta          = "meta"
	KeyProperties    = "properties"
	KeyType          = "type"
	KeyIdentifier    = "identifier"
)

// Document is a decoded window description.
//
//	{
//	  "app-properties": {"width": 500, "height": 500, "background_color": [255, 255, 255]},
//	  "components": [
//	    {"meta": {"type": "button", "identifier": "mybutton"}, "properties": {"label_text": "Go"}}
//	  ]
//	}
type Document struct {
	// Name labels the scene in logs and relay subjects.
	Name       string
	App        map[string]any
	Components []Component
}

// Component is one widget entry of a document.
type Component struct {
	Type       string
	Identifier string
	Properties map[string]any
}

// ReadFile decodes the document at path. JSON and YAML are both accepted.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeDocumentRead, "failed to open document").
			WithContext("path", path)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		if e, ok := rgerrors.As(err); ok {
			e.WithContext("path", path)
		}
		return nil, err
	}
	doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return doc, nil
}

// Decode reads one document from r.
func Decode(r io.Reader) (*Document, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, rgerrors.New(rgerrors.ErrCodeSchemaViolation, "document is empty")
		}
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeDocumentRead, "failed to parse document")
	}
	return FromMap(raw)
}

// FromMap converts generic decoded data into a Document, rejecting unknown
// structural keys.
func FromMap(raw map[string]any) (*Document, error) {
	if err := checkKeys(raw, "document", "document", KeyAppProperties, KeyComponents); err != nil {
		return nil, err
	}

	doc := &Document{}
	if v, ok := raw[KeyAppProperties]; ok && v != nil {
		app, ok := asMap(v)
		if !ok {
			return nil, violation(KeyAppProperties, KeyAppProperties, "app-properties must be a mapping, got %T", v)
		}
		doc.App = app
	}

	if v, ok := raw[KeyComponents]; ok && v != nil {
		items, ok := v.([]any)
		if !ok {
			return nil, violation("document", KeyComponents, "components must be a list, got %T", v)
		}
		for i, item := range items {
			c, err := decodeComponent(i, item)
			if err != nil {
				return nil, err
			}
			doc.Components = append(doc.Components, c)
		}
	}
	return doc, nil
}

func decodeComponent(i int, item any) (Component, error) {
	where := fmt.Sprintf("components[%d]", i)

	m, ok := asMap(item)
	if !ok {
		return Component{}, violation(where, KeyComponents, "component must be a mapping, got %T", item)
	}

	// Name the widget in errors as soon as its identifier is known.
	var meta map[string]any
	if v, ok := m[KeyMeta]; ok {
		if meta, ok = asMap(v); !ok {
			return Component{}, violation(where, KeyMeta, "meta must be a mapping, got %T", v)
		}
	}
	if id, ok := meta[KeyIdentifier].(string); ok && id != "" {
		where = id
	}

	if err := checkKeys(m, where, "component", KeyMeta, KeyProperties); err != nil {
		return Component{}, err
	}
	if meta == nil {
		return Component{}, violation(where, KeyMeta, "component has no meta")
	}
	if err := checkKeys(meta, where, "meta", KeyType, KeyIdentifier); err != nil {
		return Component{}, err
	}

	id, ok := meta[KeyIdentifier].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return Component{}, violation(where, KeyIdentifier, "component needs a non-empty string identifier")
	}
	typ, ok := meta[KeyType].(string)
	if !ok || strings.TrimSpace(typ) == "" {
		return Component{}, violation(id, KeyType, "component needs a non-empty string type")
	}

	c := Component{Type: typ, Identifier: id}
	if v, ok := m[KeyProperties]; ok && v != nil {
		props, ok := asMap(v)
		if !ok {
			return Component{}, violation(id, KeyProperties, "properties must be a mapping, got %T", v)
		}
		c.Properties = props
	}
	return c, nil
}

// checkKeys rejects any key of m not in allowed, reporting the first in sorted order.
func checkKeys(m map[string]any, widget, what string, allowed ...string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return violation(widget, k, "unknown %s key %q (allowed: %s)", what, k, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// asMap accepts both string-keyed and generic mappings from the YAML decoder.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func violation(widget, key, format string, args ...any) error {
	return rgerrors.Newf(rgerrors.ErrCodeSchemaViolation, format, args...).
		WithContext("widget", widget).
		WithContext("key", key)
}
