package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
)

func newModels(t *testing.T, defs ...*model.Model) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	if err := reg.Register(defs...); err != nil {
		t.Fatalf("register models: %v", err)
	}
	return reg
}

func populatedForms(t *testing.T, classes ...*forms.Class) *forms.Registry {
	t.Helper()
	reg := forms.NewRegistry()
	err := reg.Populate(context.Background(), forms.LoaderFunc(func(ctx context.Context, r *forms.Registry) error {
		for _, class := range classes {
			if err := r.Register(class); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("populate forms: %v", err)
	}
	return reg
}

func routeSummary(routes []Route) []string {
	out := make([]string, 0, len(routes))
	for _, route := range routes {
		out = append(out, route.Name+" "+string(route.Kind)+" "+route.Path)
	}
	return out
}

func TestGenerateDefaultRoutes(t *testing.T) {
	models := newModels(t, &model.Model{App: "shop", Name: "InvoiceLine", Fields: []model.Field{{Name: "name", Type: model.FieldTypeString}}})

	routes, err := Generate(models, WithForms(forms.NewRegistry()))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{
		"invoiceline_list list /invoiceline/",
		"invoiceline_create create /invoiceline/create/",
		"invoiceline_detail detail /invoiceline/{pk}/",
		"invoiceline_update update /invoiceline/{pk}/update/",
		"invoiceline_delete delete /invoiceline/{pk}/delete/",
	}
	if diff := cmp.Diff(want, routeSummary(routes)); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateHonoursActions(t *testing.T) {
	models := newModels(t,
		&model.Model{Name: "Report", Options: options.New(options.WithActions())},
		&model.Model{Name: "Base", Abstract: true},
	)

	routes, err := Generate(models, WithForms(forms.NewRegistry()))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{
		"report_list list /report/",
		"report_detail detail /report/{pk}/",
	}
	if diff := cmp.Diff(want, routeSummary(routes)); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateResolvesFormClass(t *testing.T) {
	models := newModels(t, &model.Model{Name: "Note", Options: options.New(options.WithFormClass("NoteForm"))})

	if _, err := Generate(models, WithForms(forms.NewRegistry())); !errors.Is(err, forms.ErrNotPopulated) {
		t.Fatalf("expected ErrNotPopulated before population, got %v", err)
	}
	if _, err := Generate(models, WithForms(populatedForms(t))); !errors.Is(err, forms.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown class, got %v", err)
	}

	class := &forms.Class{Name: "NoteForm", Model: "note"}
	routes, err := Generate(models, WithForms(populatedForms(t, class)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, route := range routes {
		if route.Kind.IsEdit() && route.FormClass != class {
			t.Fatalf("route %s missing form class", route.Name)
		}
		if !route.Kind.IsEdit() && route.FormClass != nil {
			t.Fatalf("route %s should not carry a form class", route.Name)
		}
	}
}

func inlineModels(t *testing.T) *model.Registry {
	return newModels(t,
		&model.Model{App: "blog", Name: "Post", Fields: []model.Field{{Name: "title", Type: model.FieldTypeString}},
			Options: options.New(options.WithInlines(options.Inline("comment")))},
		&model.Model{App: "blog", Name: "Comment", Fields: []model.Field{
			{Name: "post", Type: model.FieldTypeForeignKey, Target: "post"},
			{Name: "text", Type: model.FieldTypeText},
		}},
	)
}

func TestGenerateInlineRequiresCapabilities(t *testing.T) {
	models := inlineModels(t)

	_, err := Generate(models, WithForms(forms.NewRegistry()))
	if !errors.Is(err, ErrMisconfiguredInlineSupport) {
		t.Fatalf("expected ErrMisconfiguredInlineSupport, got %v", err)
	}

	_, err = Generate(models, WithForms(forms.NewRegistry()), WithInlineSupport(Capabilities{InlineFormsets: true}))
	if !errors.Is(err, ErrMisconfiguredInlineSupport) || !strings.Contains(err.Error(), "dynamic formset javascript") {
		t.Fatalf("expected missing capability to be named, got %v", err)
	}
}

func TestGenerateInlineWithoutEditActionsStillRequiresCapabilities(t *testing.T) {
	models := newModels(t,
		&model.Model{App: "blog", Name: "Post", Fields: []model.Field{{Name: "title", Type: model.FieldTypeString}},
			Options: options.New(options.WithActions(options.ActionDelete), options.WithInlines(options.Inline("comment")))},
		&model.Model{App: "blog", Name: "Comment", Fields: []model.Field{
			{Name: "post", Type: model.FieldTypeForeignKey, Target: "post"},
		}},
	)
	_, err := Generate(models, WithForms(forms.NewRegistry()))
	if !errors.Is(err, ErrMisconfiguredInlineSupport) {
		t.Fatalf("expected ErrMisconfiguredInlineSupport, got %v", err)
	}

	routes, err := Generate(models, WithForms(forms.NewRegistry()), WithInlineSupport(Capabilities{InlineFormsets: true, DynamicFormsetJS: true}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, route := range routes {
		if route.Kind == KindCreateInlines || route.Kind == KindUpdateInlines {
			t.Fatalf("unexpected inline route %s", route.Name)
		}
	}
}

func TestGenerateInlineBindsInlineViews(t *testing.T) {
	models := inlineModels(t)
	routes, err := Generate(models, WithForms(forms.NewRegistry()), WithInlineSupport(Capabilities{InlineFormsets: true, DynamicFormsetJS: true}))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	kinds := map[string]Kind{}
	for _, route := range routes {
		kinds[route.Name] = route.Kind
		if route.Kind == KindCreateInlines && (len(route.Inlines) != 1 || route.Inlines[0].FKName != "post") {
			t.Fatalf("expected resolved inline factory, got %+v", route.Inlines)
		}
	}
	if kinds["post_create"] != KindCreateInlines || kinds["post_update"] != KindUpdateInlines {
		t.Fatalf("expected inline kinds, got %v", kinds)
	}
	if kinds["comment_create"] != KindCreate {
		t.Fatalf("children without inlines keep plain views, got %v", kinds["comment_create"])
	}
}

func TestGenerateInlineAmbiguousName(t *testing.T) {
	models := newModels(t,
		&model.Model{App: "blog", Name: "Post", Options: options.New(options.WithInlines(options.Inline("comment")))},
		&model.Model{App: "blog", Name: "Comment", Fields: []model.Field{{Name: "post", Type: model.FieldTypeForeignKey, Target: "blog.post"}}},
		&model.Model{App: "wiki", Name: "Comment"},
	)
	_, err := Generate(models, WithForms(forms.NewRegistry()), WithInlineSupport(Capabilities{InlineFormsets: true, DynamicFormsetJS: true}))
	if !errors.Is(err, model.ErrAmbiguousName) {
		t.Fatalf("expected ErrAmbiguousName, got %v", err)
	}
}

func TestGenerateRejectsDuplicateRouteNames(t *testing.T) {
	models := newModels(t, &model.Model{App: "a", Name: "Note"}, &model.Model{App: "b", Name: "Note"})
	if _, err := Generate(models, WithForms(forms.NewRegistry())); !errors.Is(err, ErrDuplicateRoute) {
		t.Fatalf("expected ErrDuplicateRoute, got %v", err)
	}
}

func TestMountAndReverse(t *testing.T) {
	models := newModels(t, &model.Model{Name: "Note"})
	routes, err := Generate(models, WithForms(forms.NewRegistry()))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mux := http.NewServeMux()
	patterns, err := Mount(mux, "/crud/", routes, func(route Route) (http.Handler, error) {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(route.Name + ":" + r.PathValue(PKParam)))
		}), nil
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if patterns[0] != "/crud/note/{$}" {
		t.Fatalf("unexpected first pattern %q", patterns[0])
	}

	for path, want := range map[string]string{
		"/crud/note/":          "note_list:",
		"/crud/note/create/":   "note_create:",
		"/crud/note/7/":        "note_detail:7",
		"/crud/note/7/update/": "note_update:7",
		"/crud/note/7/delete/": "note_delete:7",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Body.String() != want {
			t.Fatalf("GET %s: expected %q, got %q (status %d)", path, want, rec.Body.String(), rec.Code)
		}
	}

	rev := NewReverser("/crud/", routes)
	got, err := rev.URL("note_update", 7)
	if err != nil || got != "/crud/note/7/update/" {
		t.Fatalf("URL: %q %v", got, err)
	}
	if _, err := rev.URL("note_missing"); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if _, err := rev.URL("note_detail"); err == nil {
		t.Fatalf("expected error when the primary key is missing")
	}
	m := models.MustGet("note")
	if got, _ := rev.ModelURL(m, KindCreateInlines); got != "/crud/note/create/" {
		t.Fatalf("ModelURL: %q", got)
	}
	if got, _ := rev.ObjectURL(model.NewObject(m, 3, nil), KindDelete); got != "/crud/note/3/delete/" {
		t.Fatalf("ObjectURL: %q", got)
	}
}

func TestKindMethods(t *testing.T) {
	readOnly := []string{http.MethodGet, http.MethodHead}
	writable := []string{http.MethodGet, http.MethodHead, http.MethodPost}
	for kind, want := range map[Kind][]string{
		KindList:          readOnly,
		KindDetail:        readOnly,
		KindCreate:        writable,
		KindUpdateInlines: writable,
		KindDelete:        writable,
	} {
		if diff := cmp.Diff(want, kind.Methods()); diff != "" {
			t.Errorf("%s methods mismatch (-want +got):\n%s", kind, diff)
		}
	}
}
