// Package store defines the record persistence contract the generated views
// query through, plus an in-memory implementation. Filters are equality
// matches on declared fields; owner scoping is expressed as one more filter
// entry.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// ErrNotFound is returned when no record matches a primary key and filter.
var ErrNotFound = errors.New("store: not found")

// Filter is a set of field equality constraints.
type Filter map[string]any

// With returns a copy of f with one more constraint.
func (f Filter) With(field string, value any) Filter {
	out := make(Filter, len(f)+1)
	for key, v := range f {
		out[key] = v
	}
	out[field] = value
	return out
}

// Validate checks that every filtered field exists on m.
func (f Filter) Validate(m *model.Model) error {
	for field := range f {
		if _, ok := m.Field(field); !ok {
			return fmt.Errorf("store: filter on %s: %w %q", m.Qualified(), model.ErrUnknownField, field)
		}
	}
	return nil
}

// Store persists model objects.
type Store interface {
	List(ctx context.Context, m *model.Model, filter Filter) ([]*model.Object, error)
	Get(ctx context.Context, m *model.Model, pk int64, filter Filter) (*model.Object, error)
	Create(ctx context.Context, obj *model.Object) error
	Update(ctx context.Context, obj *model.Object) error
	Delete(ctx context.Context, m *model.Model, pk int64) error
}

// Matches reports whether obj satisfies every constraint in filter. Numeric
// values are compared as integers so decoded foreign keys match primary keys.
func Matches(obj *model.Object, filter Filter) bool {
	for field, want := range filter {
		got, err := obj.Get(field)
		if err != nil {
			return false
		}
		if !equalValues(got, want) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if ai, ok := model.AsInt64(a); ok {
		if bi, ok := model.AsInt64(b); ok {
			return ai == bi
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
