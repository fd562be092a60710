package forms

import (
	"context"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// CleanFunc runs after field validation. Returned errors are reported as
// non-field errors; use Form.AddError for field errors.
type CleanFunc func(ctx context.Context, form *Form) error

// Class is a named form definition. Model is the symbolic name of the model
// the class edits ("note" or "app.note"). Fields is an include list; when
// empty every model field is used. Exclude is applied after Fields.
type Class struct {
	Name    string
	Model   string
	Fields  []string
	Exclude []string
	Labels  map[string]string
	Widgets map[string]string
	Help    map[string]string
	Clean   CleanFunc
}

// Derive returns the automatic class for a model: every field, no overrides.
func Derive(m *model.Model) *Class {
	return &Class{Model: m.Qualified()}
}

// Matches reports whether the class targets m. Classes without a model match
// any model.
func (c *Class) Matches(m *model.Model) bool {
	name := strings.ToLower(strings.TrimSpace(c.Model))
	if name == "" {
		return true
	}
	if strings.Contains(name, ".") {
		return name == m.Qualified()
	}
	return name == m.Key()
}
