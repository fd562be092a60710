package widgets

import (
	"testing"

	"github.com/goliatone/go-crudgen/pkg/model"
)

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  model.Field
		expect string
	}{
		{name: "string", field: model.Field{Type: model.FieldTypeString}, expect: WidgetText},
		{name: "text", field: model.Field{Type: model.FieldTypeText}, expect: WidgetTextarea},
		{name: "integer", field: model.Field{Type: model.FieldTypeInteger}, expect: WidgetNumber},
		{name: "float", field: model.Field{Type: model.FieldTypeFloat}, expect: WidgetNumber},
		{name: "boolean", field: model.Field{Type: model.FieldTypeBoolean}, expect: WidgetCheckbox},
		{name: "foreign key", field: model.Field{Type: model.FieldTypeForeignKey, Target: "profile"}, expect: WidgetSelect},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := reg.Resolve(tc.field); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestRegister_HigherPriorityWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("markdown", 100, func(field model.Field) bool {
		return field.Type == model.FieldTypeText
	})

	if got := reg.Resolve(model.Field{Type: model.FieldTypeText}); got != "markdown" {
		t.Fatalf("expected custom widget, got %q", got)
	}
	if got := reg.Resolve(model.Field{Type: model.FieldTypeBoolean}); got != WidgetCheckbox {
		t.Fatalf("expected builtin widget for untouched types, got %q", got)
	}
}

func TestRegister_TiesFallBackToRegistrationOrder(t *testing.T) {
	reg := &Registry{}
	reg.Register("first", 10, func(model.Field) bool { return true })
	reg.Register("second", 10, func(model.Field) bool { return true })

	if got := reg.Resolve(model.Field{}); got != "first" {
		t.Fatalf("expected first registration to win a tie, got %q", got)
	}
}

func TestResolve_EmptyRegistryFallsBackToText(t *testing.T) {
	var reg *Registry
	if got := reg.Resolve(model.Field{Type: model.FieldTypeBoolean}); got != WidgetText {
		t.Fatalf("expected %q, got %q", WidgetText, got)
	}
}
