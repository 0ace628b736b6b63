package widget

import (
	"sort"
	"strings"
	"sync"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

// Constructor creates a widget from resolved property values.
type Constructor func(id string, values map[string]any) Widget

// Type pairs a schema with its constructor.
type Type struct {
	Schema *Schema
	New    Constructor
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Type)
)

// Register makes a widget type available under its schema name and any
// aliases. Names are case-insensitive.
func Register(t Type, aliases ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalizeType(t.Schema.Type)] = t
	for _, alias := range aliases {
		registry[normalizeType(alias)] = t
	}
}

// Lookup finds a registered type by name or alias.
func Lookup(name string) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[normalizeType(name)]
	return t, ok
}

// Types returns the canonical names of registered types.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, t := range registry {
		if !seen[t.Schema.Type] {
			seen[t.Schema.Type] = true
			names = append(names, t.Schema.Type)
		}
	}
	sort.Strings(names)
	return names
}

// Build resolves document properties against the named type and constructs
// the widget.
func Build(typeName, id string, props map[string]any) (Widget, error) {
	t, ok := Lookup(typeName)
	if !ok {
		return nil, rgerrors.Newf(rgerrors.ErrCodeSchemaViolation,
			"unknown component type %q (known: %s)", typeName, strings.Join(Types(), ", ")).
			WithContext("widget", id).
			WithContext("key", "type")
	}
	values, err := t.Schema.Resolve(id, props)
	if err != nil {
		return nil, err
	}
	return t.New(id, values), nil
}

func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
