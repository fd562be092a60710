package crudgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/testsupport"
	"github.com/goliatone/go-crudgen/pkg/views"
)

var fullInlineSupport = routes.Capabilities{InlineFormsets: true, DynamicFormsetJS: true}

func TestNewMountsGeneratedViews(t *testing.T) {
	cat := testsupport.NewCatalog(t)
	mem := store.NewMemory()
	account := testsupport.Seed(t, mem, cat.Account, map[string]any{"name": "Acme"})
	profile := testsupport.Seed(t, mem, cat.Profile, map[string]any{"name": "alice", testsupport.OwnerRef: account.PK})
	testsupport.Seed(t, mem, cat.Tag, map[string]any{"name": "urgent", testsupport.OwnerRef: account.PK})

	app, err := New(context.Background(), cat.Models,
		WithPrefix("/admin/"),
		WithStore(mem),
		WithForms(forms.NewRegistry()),
		WithInlineSupport(fullInlineSupport),
		WithViews(views.WithAuthenticator(views.HeaderAuthenticator{Store: mem, Profile: cat.Profile})),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !app.Forms.Populated() {
		t.Fatalf("form registry not populated")
	}
	if len(app.Patterns) != len(app.Routes) {
		t.Fatalf("mounted %d of %d routes", len(app.Patterns), len(app.Routes))
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/tag/", nil)
	req.Header.Set(views.ProfileHeader, strconv.FormatInt(profile.PK, 10))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "urgent") || !strings.Contains(body, `<a href="/admin/tag/create/">`) {
		t.Fatalf("unexpected list page: %s", body)
	}
}

func TestNewRequiresInlineSupport(t *testing.T) {
	cat := testsupport.NewCatalog(t)
	_, err := New(context.Background(), cat.Models, WithForms(forms.NewRegistry()))
	if !errors.Is(err, routes.ErrMisconfiguredInlineSupport) {
		t.Fatalf("err = %v, want ErrMisconfiguredInlineSupport", err)
	}
}

func TestNewReportsLoaderFailure(t *testing.T) {
	cat := testsupport.NewCatalog(t)
	reg := forms.NewRegistry()
	loader := forms.LoaderFunc(func(ctx context.Context, r *forms.Registry) error {
		return errors.New("broken loader")
	})
	_, err := New(context.Background(), cat.Models, WithForms(reg), WithFormLoaders(loader), WithInlineSupport(fullInlineSupport))
	if err == nil || !strings.Contains(err.Error(), "broken loader") {
		t.Fatalf("err = %v, want the loader failure", err)
	}
}
