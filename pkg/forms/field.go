package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// Kind identifies the form field flavour derived from a model field type.
type Kind string

const (
	CharField        Kind = "char"
	TextField        Kind = "text"
	IntegerField     Kind = "integer"
	FloatField       Kind = "float"
	BooleanField     Kind = "boolean"
	ModelChoiceField Kind = "model_choice"
)

// KindFor maps a model field type to the form field kind editing it.
func KindFor(t model.FieldType) Kind {
	switch t {
	case model.FieldTypeText:
		return TextField
	case model.FieldTypeInteger:
		return IntegerField
	case model.FieldTypeFloat:
		return FloatField
	case model.FieldTypeBoolean:
		return BooleanField
	case model.FieldTypeForeignKey:
		return ModelChoiceField
	default:
		return CharField
	}
}

// ValidationError is a user-facing validation message.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	errRequired      ValidationError = "This field is required."
	errInteger       ValidationError = "Enter a whole number."
	errNumber        ValidationError = "Enter a number."
	errInvalidChoice ValidationError = "Select a valid choice. That choice is not one of the available choices."
)

// Choice is one selectable option of a model choice field.
type Choice struct {
	Value int64
	Label string
}

// Field is a bound form field. Model choice fields carry the target model and
// the filter their choices are drawn from.
type Field struct {
	Name     string
	Label    string
	Help     string
	Kind     Kind
	Widget   string
	Required bool

	// Target and Filter apply to ModelChoiceField only.
	Target *model.Model
	Filter store.Filter
	// AddURL is the create link rendered next to an owner select.
	AddURL string

	store store.Store
}

// Narrow restricts the choices of a model choice field to records matching
// filter and switches it to widget.
func (f *Field) Narrow(filter store.Filter, widget string) {
	f.Filter = filter
	if widget != "" {
		f.Widget = widget
	}
}

// Choices lists the selectable records of a model choice field.
func (f *Field) Choices(ctx context.Context) ([]Choice, error) {
	if f.Kind != ModelChoiceField {
		return nil, nil
	}
	if f.store == nil || f.Target == nil {
		return nil, fmt.Errorf("forms: field %q has no choice source", f.Name)
	}
	objs, err := f.store.List(ctx, f.Target, f.Filter)
	if err != nil {
		return nil, fmt.Errorf("forms: choices for %q: %w", f.Name, err)
	}
	out := make([]Choice, 0, len(objs))
	for _, obj := range objs {
		out = append(out, Choice{Value: obj.PK, Label: obj.String()})
	}
	return out, nil
}

// clean converts submitted text into a typed value. present reports whether
// the key was submitted at all. Validation failures are ValidationError
// values; any other error comes from the choice source.
func (f *Field) clean(ctx context.Context, raw string, present bool) (any, error) {
	text := strings.TrimSpace(raw)

	if f.Kind == BooleanField {
		checked := present && isTruthy(text)
		if f.Required && !checked {
			return nil, errRequired
		}
		return checked, nil
	}

	if text == "" {
		if f.Required {
			return nil, errRequired
		}
		if f.Kind == CharField || f.Kind == TextField {
			return "", nil
		}
		return nil, nil
	}

	switch f.Kind {
	case IntegerField:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errInteger
		}
		return n, nil
	case FloatField:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errNumber
		}
		return n, nil
	case ModelChoiceField:
		pk, err := strconv.ParseInt(text, 10, 64)
		if err != nil || pk < 0 {
			return nil, errInvalidChoice
		}
		choices, err := f.Choices(ctx)
		if err != nil {
			return nil, err
		}
		for _, choice := range choices {
			if choice.Value == pk {
				return pk, nil
			}
		}
		return nil, errInvalidChoice
	default:
		return text, nil
	}
}

func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes", "y":
		return true
	}
	return false
}
