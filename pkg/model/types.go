package model

import internalmodel "github.com/goliatone/go-crudgen/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString     = internalmodel.FieldTypeString
	FieldTypeText       = internalmodel.FieldTypeText
	FieldTypeInteger    = internalmodel.FieldTypeInteger
	FieldTypeFloat      = internalmodel.FieldTypeFloat
	FieldTypeBoolean    = internalmodel.FieldTypeBoolean
	FieldTypeForeignKey = internalmodel.FieldTypeForeignKey
)

// PrimaryKey is the implicit primary key field name.
const PrimaryKey = internalmodel.PrimaryKey

type Field = internalmodel.Field
type Model = internalmodel.Model
type Object = internalmodel.Object

// ErrUnknownField reports access to an undeclared field.
var ErrUnknownField = internalmodel.ErrUnknownField

// NewObject builds an object of model m.
func NewObject(m *Model, pk int64, values map[string]any) *Object {
	return internalmodel.NewObject(m, pk, values)
}

// Ancestors returns the linearised ancestor chain of m, closest first.
func Ancestors(m *Model) []*Model {
	return internalmodel.Ancestors(m)
}

// FieldLabel returns the declared or derived label of a field.
func FieldLabel(field Field) string {
	return internalmodel.FieldLabel(field)
}

// Capitalize upper-cases the first rune of value.
func Capitalize(value string) string {
	return internalmodel.Capitalize(value)
}

// AsInt64 coerces decoded numeric values into a primary key.
func AsInt64(value any) (int64, bool) {
	return internalmodel.AsInt64(value)
}
