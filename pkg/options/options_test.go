package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_Defaults(t *testing.T) {
	got := Resolve(New())
	want := Resolved{
		Actions: ActionSet{ActionCreate, ActionUpdate, ActionDelete},
		Exclude: []string{},
		Inlines: []InlineSpec{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_InheritsUnsetKeysFromClosestAncestor(t *testing.T) {
	grandparent := New(
		WithOwnerRef("company"),
		WithExclude("secret"),
		WithFormClass("BaseForm"),
	)
	parent := New(
		WithActions(ActionCreate),
		WithExclude("internal"),
	)
	child := New(WithFormClass("ChildForm"))

	got := Resolve(child, parent, grandparent)

	if diff := cmp.Diff(ActionSet{ActionCreate}, got.Actions); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"internal"}, got.Exclude); diff != "" {
		t.Fatalf("exclude mismatch (-want +got):\n%s", diff)
	}
	if got.OwnerRef != "company" {
		t.Fatalf("expected owner_ref inherited from grandparent, got %q", got.OwnerRef)
	}
	if got.FormClass != "ChildForm" {
		t.Fatalf("expected local form_class to win, got %q", got.FormClass)
	}
}

func TestResolve_ExplicitEmptyOverridesAncestor(t *testing.T) {
	parent := New(WithOwnerRef("company"), WithActions(ActionCreate, ActionDelete))
	child := New(WithOwnerRef(""), WithActions())

	got := Resolve(child, parent)
	if got.OwnerScoped() {
		t.Fatalf("expected owner scoping disabled, got %q", got.OwnerRef)
	}
	if len(got.Actions) != 0 {
		t.Fatalf("expected no actions, got %v", got.Actions)
	}
}

func TestResolve_ReturnsIndependentCopies(t *testing.T) {
	parent := New(WithInlines(InlineSpec{Model: "note", Attrs: map[string]any{"label": "Notes"}}))
	first := Resolve(New(), parent)
	first.Inlines[0].Attrs["label"] = "changed"
	first.Exclude = append(first.Exclude, "x")

	second := Resolve(New(), parent)
	if second.Inlines[0].Attrs["label"] != "Notes" {
		t.Fatalf("inline attrs leaked between resolutions: %v", second.Inlines[0].Attrs)
	}
	if len(second.Exclude) != 0 {
		t.Fatalf("exclude leaked between resolutions: %v", second.Exclude)
	}
}

func TestNewActionSet_CanonicalOrder(t *testing.T) {
	got := NewActionSet(ActionDelete, ActionCreate, ActionDelete)
	if diff := cmp.Diff(ActionSet{ActionCreate, ActionDelete}, got); diff != "" {
		t.Fatalf("action set mismatch (-want +got):\n%s", diff)
	}
	if got.Has(ActionUpdate) {
		t.Fatalf("update should not be enabled")
	}
}

func TestResolved_Hidden(t *testing.T) {
	res := Resolve(New(WithExclude("secret"), WithOwnerRef("company")))
	for _, field := range []string{"secret", "company"} {
		if !res.Hidden(field) {
			t.Fatalf("expected %q hidden", field)
		}
	}
	if res.Hidden("name") {
		t.Fatalf("name should be visible")
	}
}

func TestFromMap_DecodesRecognisedKeys(t *testing.T) {
	opts, err := FromMap(map[string]any{
		"actions": []any{"create", "Update"},
		"exclude": []any{"secret"},
		"inline_models": []any{
			"note",
			map[string]any{"model": "crm.task", "form_class": "TaskForm", "extra": 2, "label": "Tasks"},
		},
		"owner_ref": "company",
		"ordering":  "name",
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}

	got := Resolve(opts)
	want := Resolved{
		Actions: ActionSet{ActionCreate, ActionUpdate},
		Exclude: []string{"secret"},
		Inlines: []InlineSpec{
			{Model: "note"},
			{Model: "crm.task", FormClass: "TaskForm", Extra: 2, Attrs: map[string]any{"label": "Tasks"}},
		},
		OwnerRef: "company",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolved mismatch (-want +got):\n%s", diff)
	}
	if opts.IsSet(KeyFormClass) {
		t.Fatalf("form_class should not be marked as set")
	}
}

func TestFromMap_Errors(t *testing.T) {
	cases := map[string]map[string]any{
		"unknown action":    {"actions": []any{"archive"}},
		"owner not string":  {"owner_ref": 3},
		"inline no model":   {"inline_models": []any{map[string]any{"form_class": "X"}}},
		"exclude not slice": {"exclude": 12},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromMap(raw); err == nil {
				t.Fatalf("expected error for %v", raw)
			}
		})
	}
}
