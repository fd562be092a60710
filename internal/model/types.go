package model

import (
	"strings"
	"sync"

	"github.com/goliatone/go-crudgen/pkg/options"
)

// FieldType is the simplified enum for storable field kinds.
type FieldType string

const (
	FieldTypeString     FieldType = "string"
	FieldTypeText       FieldType = "text"
	FieldTypeInteger    FieldType = "integer"
	FieldTypeFloat      FieldType = "float"
	FieldTypeBoolean    FieldType = "boolean"
	FieldTypeForeignKey FieldType = "foreignkey"
)

// PrimaryKey is the implicit primary key field present on every model.
const PrimaryKey = "id"

// Field describes a single model attribute. Foreign keys carry the symbolic
// name of the target model in Target and store the target primary key.
type Field struct {
	Name     string    `json:"name" yaml:"name" toml:"name"`
	Type     FieldType `json:"type" yaml:"type" toml:"type"`
	Target   string    `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Help     string    `json:"help,omitempty" yaml:"help,omitempty" toml:"help,omitempty"`
}

// IsRelation reports whether the field references another model.
func (f Field) IsRelation() bool {
	return f.Type == FieldTypeForeignKey && strings.TrimSpace(f.Target) != ""
}

// Model is a data model descriptor. Parents lists ancestor definitions closest
// first; their fields and CRUD options are inherited. Abstract models only
// act as ancestors and never get routes.
type Model struct {
	App               string
	Name              string
	VerboseName       string
	VerboseNamePlural string
	Abstract          bool
	Fields            []Field
	Parents           []*Model
	Options           options.Options

	once     sync.Once
	resolved options.Resolved
	fields   []Field
}

// Key returns the lower-cased model name.
func (m *Model) Key() string {
	return strings.ToLower(strings.TrimSpace(m.Name))
}

// Qualified returns "app.model" or just the key when the model has no app.
func (m *Model) Qualified() string {
	app := strings.ToLower(strings.TrimSpace(m.App))
	if app == "" {
		return m.Key()
	}
	return app + "." + m.Key()
}

// DisplayName returns the verbose name, derived from the model name when not
// declared.
func (m *Model) DisplayName() string {
	if name := strings.TrimSpace(m.VerboseName); name != "" {
		return name
	}
	return strings.ToLower(DefaultLabeler(m.Name))
}

// PluralName returns the verbose plural name, defaulting to DisplayName + "s".
func (m *Model) PluralName() string {
	if name := strings.TrimSpace(m.VerboseNamePlural); name != "" {
		return name
	}
	return m.DisplayName() + "s"
}

// RouteName returns the lower-cased, space stripped display name used to name
// and mount the model's routes.
func (m *Model) RouteName() string {
	return strings.ReplaceAll(strings.ToLower(m.DisplayName()), " ", "")
}

// Table returns the storage table name.
func (m *Model) Table() string {
	return strings.ReplaceAll(m.Qualified(), ".", "_")
}

// CRUD returns the resolved option set. It is computed once, the first time
// the model is registered or inspected, and a copy is returned on each call.
func (m *Model) CRUD() options.Resolved {
	m.init()
	return m.resolved.Clone()
}

// AllFields returns inherited and local fields, excluding the primary key.
// Local declarations override inherited fields with the same name.
func (m *Model) AllFields() []Field {
	m.init()
	return append([]Field(nil), m.fields...)
}

// Field looks up a field by name across the inherited field set.
func (m *Model) Field(name string) (Field, bool) {
	if name == PrimaryKey {
		return Field{Name: PrimaryKey, Type: FieldTypeInteger}, true
	}
	for _, field := range m.AllFields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func (m *Model) init() {
	m.once.Do(func() {
		ancestors := Ancestors(m)
		layers := make([]options.Options, 0, len(ancestors))
		for _, ancestor := range ancestors {
			layers = append(layers, ancestor.Options)
		}
		m.resolved = options.Resolve(m.Options, layers...)
		m.fields = mergeFields(m, ancestors)
	})
}

func mergeFields(m *Model, ancestors []*Model) []Field {
	var out []Field
	index := make(map[string]int)
	add := func(field Field) {
		if field.Name == "" || field.Name == PrimaryKey {
			return
		}
		if pos, ok := index[field.Name]; ok {
			out[pos] = field
			return
		}
		index[field.Name] = len(out)
		out = append(out, field)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		for _, field := range ancestors[i].Fields {
			add(field)
		}
	}
	for _, field := range m.Fields {
		add(field)
	}
	return out
}

// Ancestors linearises the parent graph depth first in declaration order,
// closest first, visiting each ancestor once.
func Ancestors(m *Model) []*Model {
	if m == nil {
		return nil
	}
	seen := map[*Model]bool{m: true}
	var out []*Model
	var walk func(*Model)
	walk = func(node *Model) {
		for _, parent := range node.Parents {
			if parent == nil || seen[parent] {
				continue
			}
			seen[parent] = true
			out = append(out, parent)
			walk(parent)
		}
	}
	walk(m)
	return out
}
