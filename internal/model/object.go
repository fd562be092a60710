package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField reports access to a field the model does not declare.
var ErrUnknownField = errors.New("model: unknown field")

// Object is a stored record of a model.
type Object struct {
	Model  *Model
	PK     int64
	values map[string]any
}

// NewObject builds an object, dropping values for undeclared fields.
func NewObject(m *Model, pk int64, values map[string]any) *Object {
	obj := &Object{Model: m, PK: pk, values: make(map[string]any, len(values))}
	for key, value := range values {
		if key == PrimaryKey {
			continue
		}
		if _, ok := m.Field(key); ok {
			obj.values[key] = value
		}
	}
	return obj
}

// Get returns the value of a declared field. The primary key is available as
// "id".
func (o *Object) Get(name string) (any, error) {
	if o == nil || o.Model == nil {
		return nil, fmt.Errorf("%w %q: nil object", ErrUnknownField, name)
	}
	if name == PrimaryKey {
		return o.PK, nil
	}
	if _, ok := o.Model.Field(name); !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, name, o.Model.Qualified())
	}
	return o.values[name], nil
}

// Set assigns a declared field.
func (o *Object) Set(name string, value any) error {
	if o == nil || o.Model == nil {
		return fmt.Errorf("%w %q: nil object", ErrUnknownField, name)
	}
	if name == PrimaryKey {
		pk, ok := AsInt64(value)
		if !ok {
			return fmt.Errorf("model: primary key must be an integer, got %T", value)
		}
		o.PK = pk
		return nil
	}
	if _, ok := o.Model.Field(name); !ok {
		return fmt.Errorf("%w %q on %s", ErrUnknownField, name, o.Model.Qualified())
	}
	if o.values == nil {
		o.values = make(map[string]any)
	}
	o.values[name] = value
	return nil
}

// Values returns a copy of the field values without the primary key.
func (o *Object) Values() map[string]any {
	out := make(map[string]any, len(o.values))
	for key, value := range o.values {
		out[key] = value
	}
	return out
}

// Clone returns an independent copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	return &Object{Model: o.Model, PK: o.PK, values: o.Values()}
}

// RefersTo reports whether a foreign key field holds the given primary key.
func (o *Object) RefersTo(field string, pk int64) bool {
	value, err := o.Get(field)
	if err != nil {
		return false
	}
	got, ok := AsInt64(value)
	return ok && got == pk
}

// String renders a short human label, preferring a name or title field.
func (o *Object) String() string {
	if o == nil || o.Model == nil {
		return ""
	}
	for _, candidate := range []string{"name", "title", "label"} {
		if value, ok := o.values[candidate]; ok && value != nil {
			if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
				return text
			}
		}
	}
	return fmt.Sprintf("%s %d", Capitalize(o.Model.DisplayName()), o.PK)
}

// AsInt64 coerces numeric values produced by decoders and drivers.
func AsInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
