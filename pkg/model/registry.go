package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when no model matches a symbolic name.
	ErrNotFound = errors.New("model: not found")
	// ErrAmbiguousName is returned when a short name matches models in more
	// than one app.
	ErrAmbiguousName = errors.New("model: ambiguous name")
	// ErrDuplicateModel is returned when a qualified name is registered twice.
	ErrDuplicateModel = errors.New("model: duplicate model")
)

// Registry stores models by qualified name, preserving registration order.
type Registry struct {
	mu          sync.RWMutex
	models      []*Model
	byQualified map[string]*Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byQualified: make(map[string]*Model)}
}

// Register adds models and resolves their CRUD options. Resolution happens
// here, once per model.
func (r *Registry) Register(models ...*Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range models {
		if m == nil {
			return fmt.Errorf("model: model is required")
		}
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("model: model name is required")
		}
		key := m.Qualified()
		if _, exists := r.byQualified[key]; exists {
			return fmt.Errorf("%w %q", ErrDuplicateModel, key)
		}
		m.CRUD()
		r.byQualified[key] = m
		r.models = append(r.models, m)
	}
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(models ...*Model) {
	if err := r.Register(models...); err != nil {
		panic(err)
	}
}

// Get resolves a symbolic name. "app.model" matches exactly; a bare name
// matches case-insensitively across apps and fails when it is ambiguous.
func (r *Registry) Get(name string) (*Model, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("model: name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.Contains(key, ".") {
		m, ok := r.byQualified[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return m, nil
	}

	var matches []*Model
	for _, m := range r.models {
		if m.Key() == key {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.Qualified())
		}
		sort.Strings(candidates)
		return nil, fmt.Errorf("%w: %q matches %s, use the app.model form", ErrAmbiguousName, name, strings.Join(candidates, ", "))
	}
}

// MustGet panics if the model cannot be resolved.
func (r *Registry) MustGet(name string) *Model {
	m, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Models returns registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Model(nil), r.models...)
}

// Concrete returns the registered non-abstract models.
func (r *Registry) Concrete() []*Model {
	var out []*Model
	for _, m := range r.Models() {
		if !m.Abstract {
			out = append(out, m)
		}
	}
	return out
}

// Target resolves the model referenced by a foreign key field of m.
func (r *Registry) Target(m *Model, field string) (*Model, error) {
	f, ok := m.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, field, m.Qualified())
	}
	if !f.IsRelation() {
		return nil, fmt.Errorf("model: field %q on %s is not a relation", field, m.Qualified())
	}
	return r.Get(f.Target)
}
