package forms

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/widgets"
)

func fieldNames(form *Form) []string {
	var out []string
	for _, field := range form.Fields() {
		out = append(out, field.Name)
	}
	return out
}

func TestNewDerivesFieldsFromModel(t *testing.T) {
	fx := newFixture(t)
	form, err := New(nil, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []string{"title", "body", "stars", "pinned", "tag", "owner"}
	if diff := cmp.Diff(want, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	tag, _ := form.Field("tag")
	if tag.Kind != ModelChoiceField || tag.Target != fx.tag {
		t.Fatalf("expected tag to be a model choice on Tag, got %+v", tag)
	}
	if tag.Widget != widgets.WidgetSelect {
		t.Fatalf("expected select widget, got %q", tag.Widget)
	}
	body, _ := form.Field("body")
	if body.Kind != TextField || body.Widget != widgets.WidgetTextarea {
		t.Fatalf("unexpected body field %+v", body)
	}
}

func TestNewAppliesClassOverrides(t *testing.T) {
	fx := newFixture(t)
	class := &Class{
		Name:    "NoteForm",
		Model:   "notes.note",
		Fields:  []string{"title", "body", "owner"},
		Exclude: []string{"body"},
		Labels:  map[string]string{"title": "Headline"},
		Widgets: map[string]string{"title": "textarea"},
	}
	form, err := New(class, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff([]string{"title", "owner"}, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	title, _ := form.Field("title")
	if title.Label != "Headline" || title.Widget != "textarea" {
		t.Fatalf("overrides not applied: %+v", title)
	}
}

func TestNewRejectsUnknownFields(t *testing.T) {
	fx := newFixture(t)

	_, err := New(&Class{Name: "Bad", Fields: []string{"nope"}}, fx.note, fx.store, WithModels(fx.models))
	if !errors.Is(err, model.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for include list, got %v", err)
	}

	_, err = New(&Class{Name: "Bad", Exclude: []string{"nope"}}, fx.note, fx.store, WithModels(fx.models))
	if !errors.Is(err, model.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for exclude list, got %v", err)
	}

	form, err := New(nil, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := form.Exclude("missing"); !errors.Is(err, model.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField when removing, got %v", err)
	}
	if err := form.Exclude("owner", "owner"); err != nil {
		t.Fatalf("removing an absent declared field should succeed: %v", err)
	}
}

func TestNewRejectsClassForOtherModel(t *testing.T) {
	fx := newFixture(t)
	_, err := New(&Class{Name: "TagForm", Model: "tag"}, fx.note, fx.store, WithModels(fx.models))
	if !errors.Is(err, ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}
}

func TestIsValidReportsFieldErrors(t *testing.T) {
	fx := newFixture(t)
	form, err := New(nil, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	form.Bind(url.Values{"title": {""}, "stars": {"many"}, "tag": {"99"}})

	ok, err := form.IsValid(context.Background())
	if err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	if ok {
		t.Fatalf("expected invalid form")
	}
	want := map[string][]string{
		"title": {string(errRequired)},
		"stars": {string(errInteger)},
		"tag":   {string(errInvalidChoice)},
	}
	if diff := cmp.Diff(want, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestModelChoiceNarrowingRejectsOtherOwners(t *testing.T) {
	fx := newFixture(t)
	alice := fx.create(t, fx.profile, map[string]any{"name": "alice"})
	bob := fx.create(t, fx.profile, map[string]any{"name": "bob"})
	aliceTag := fx.create(t, fx.tag, map[string]any{"name": "work", "owner": alice.PK})
	bobTag := fx.create(t, fx.tag, map[string]any{"name": "home", "owner": bob.PK})

	form, err := New(nil, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tag, _ := form.Field("tag")
	tag.Narrow(store.Filter{"owner": alice.PK}, widgets.WidgetOwnerSelect)

	choices, err := tag.Choices(context.Background())
	if err != nil {
		t.Fatalf("Choices: %v", err)
	}
	if diff := cmp.Diff([]Choice{{Value: aliceTag.PK, Label: "work"}}, choices); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}

	form.Bind(url.Values{"title": {"x"}, "tag": {itoa(bobTag.PK)}})
	ok, err := form.IsValid(context.Background())
	if err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	if ok {
		t.Fatalf("expected another owner's tag to be rejected")
	}
}

func TestSaveCreatesWithStampedValues(t *testing.T) {
	fx := newFixture(t)
	alice := fx.create(t, fx.profile, map[string]any{"name": "alice"})
	bob := fx.create(t, fx.profile, map[string]any{"name": "bob"})

	form, err := New(nil, fx.note, fx.store, WithModels(fx.models))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := form.Exclude("owner"); err != nil {
		t.Fatalf("Exclude: %v", err)
	}
	if err := form.Stamp("owner", alice.PK); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	form.Bind(url.Values{"title": {"hello"}, "pinned": {"on"}, "owner": {itoa(bob.PK)}})

	if ok, err := form.IsValid(context.Background()); err != nil || !ok {
		t.Fatalf("expected valid form, ok=%v err=%v errors=%v", ok, err, form.Errors())
	}
	obj, err := form.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.PK == 0 {
		t.Fatalf("expected a primary key to be assigned")
	}
	if !obj.RefersTo("owner", alice.PK) {
		t.Fatalf("expected owner to be stamped, got %v", obj.Values()["owner"])
	}
	if pinned, _ := obj.Get("pinned"); pinned != true {
		t.Fatalf("expected pinned=true, got %v", pinned)
	}
}

func TestSaveUpdatesInstance(t *testing.T) {
	fx := newFixture(t)
	note := fx.create(t, fx.note, map[string]any{"title": "old"})

	form, err := New(&Class{Name: "TitleOnly", Fields: []string{"title"}}, fx.note, fx.store, WithInstance(note))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := form.Value("title"); got != "old" {
		t.Fatalf("expected instance value before binding, got %v", got)
	}
	form.Bind(url.Values{"title": {"new"}})
	if ok, err := form.IsValid(context.Background()); err != nil || !ok {
		t.Fatalf("expected valid form: %v %v", err, form.Errors())
	}
	if _, err := form.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, err := fx.store.Get(context.Background(), fx.note, note.PK, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if title, _ := stored.Get("title"); title != "new" {
		t.Fatalf("expected updated title, got %v", title)
	}
}

func TestSaveRequiresValidation(t *testing.T) {
	fx := newFixture(t)
	form, err := New(&Class{Name: "TitleOnly", Fields: []string{"title"}}, fx.note, fx.store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := form.Save(context.Background()); err == nil {
		t.Fatalf("expected error saving an unvalidated form")
	}
}

func TestCleanHookAddsNonFieldErrors(t *testing.T) {
	fx := newFixture(t)
	class := &Class{
		Name:   "Strict",
		Fields: []string{"title"},
		Clean: func(ctx context.Context, form *Form) error {
			if form.Cleaned()["title"] == "forbidden" {
				return errors.New("title is not allowed")
			}
			return nil
		},
	}
	form, err := New(class, fx.note, fx.store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	form.Bind(url.Values{"title": {"forbidden"}})
	ok, err := form.IsValid(context.Background())
	if err != nil || ok {
		t.Fatalf("expected invalid form, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"title is not allowed"}, form.FieldErrors(NonFieldErrors)); diff != "" {
		t.Fatalf("non-field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRequiresModelRegistryForRelations(t *testing.T) {
	fx := newFixture(t)
	if _, err := New(nil, fx.note, fx.store); err == nil {
		t.Fatalf("expected error when foreign keys cannot be resolved")
	}
}
