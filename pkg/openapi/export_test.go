package openapi

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/testsupport"
)

func catalogRoutes(t *testing.T) []routes.Route {
	t.Helper()
	cat := testsupport.NewCatalog(t)
	generated, err := routes.Generate(cat.Models,
		routes.WithForms(forms.NewRegistry()),
		routes.WithInlineSupport(routes.Capabilities{InlineFormsets: true, DynamicFormsetJS: true}),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return generated
}

func TestBuildDescribesEveryRoute(t *testing.T) {
	doc, err := Build(context.Background(), catalogRoutes(t), "/crud/", WithTitle("Notes"), WithVersion("1.2.0"), WithServer("http://localhost:8080"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if doc.Info.Title != "Notes" || doc.Info.Version != "1.2.0" {
		t.Fatalf("info = %+v", doc.Info)
	}

	want := []string{
		"/crud/account/",
		"/crud/account/{pk}/",
		"/crud/item/",
		"/crud/item/{pk}/",
		"/crud/note/",
		"/crud/note/create/",
		"/crud/note/{pk}/",
		"/crud/note/{pk}/delete/",
		"/crud/note/{pk}/update/",
		"/crud/profile/",
		"/crud/profile/{pk}/",
		"/crud/tag/",
		"/crud/tag/create/",
		"/crud/tag/{pk}/",
		"/crud/tag/{pk}/delete/",
		"/crud/tag/{pk}/update/",
	}
	if diff := cmp.Diff(want, doc.Paths.InMatchingOrder(), sortStrings()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	list := doc.Paths.Value("/crud/note/")
	if list.Post != nil {
		t.Fatalf("list route should not accept POST")
	}
	if list.Get.OperationID != "note_list" {
		t.Fatalf("operation id = %q", list.Get.OperationID)
	}
	if list.Get.Responses.Value("302") == nil {
		t.Fatalf("owner scoped list should document the login redirect")
	}

	create := doc.Paths.Value("/crud/note/create/")
	if create.Post == nil || create.Post.OperationID != "note_create_submit" {
		t.Fatalf("create submit missing: %+v", create.Post)
	}
	if create.Post.Responses.Value("400") == nil {
		t.Fatalf("inline create should document malformed management data")
	}
	if !strings.Contains(create.Get.Summary, "items") {
		t.Fatalf("summary = %q", create.Get.Summary)
	}

	accounts := doc.Paths.Value("/crud/account/")
	if accounts.Get.Responses.Value("302") != nil {
		t.Fatalf("unscoped model documents a login redirect")
	}
}

func TestModelSchemaHidesExcludedAndOwnerFields(t *testing.T) {
	cat := testsupport.NewCatalog(t)
	schema := ModelSchema(cat.Note)

	var names []string
	for name := range schema.Properties {
		names = append(names, name)
	}
	if diff := cmp.Diff([]string{"id", "tag", "title"}, names, sortStrings()); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"title"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if !schema.Properties["id"].Value.ReadOnly {
		t.Fatalf("id should be read only")
	}
	if got := schema.Properties["tag"].Value.Extensions["x-crudgen-target"]; got != "tag" {
		t.Fatalf("tag target = %v", got)
	}
}

func TestEncoders(t *testing.T) {
	doc, err := Build(context.Background(), catalogRoutes(t), "/")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	raw, err := JSON(doc)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded["openapi"] != Version {
		t.Fatalf("openapi = %v", decoded["openapi"])
	}

	out, err := YAML(doc)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(string(out), "openapi: 3.0.3") || !strings.Contains(string(out), "notes_note:") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

func sortStrings() cmp.Option {
	return cmpopts.SortSlices(func(a, b string) bool { return a < b })
}
