package pongo_test

import (
	"embed"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-crudgen/pkg/render/template"
	"github.com/goliatone/go-crudgen/pkg/render/template/pongo"
	"github.com/goliatone/go-crudgen/pkg/testsupport"
)

//go:embed testdata/templates testdata/host
var embeddedTemplates embed.FS

func TestEngine_Globals(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobals(map[string]any{
		"static_url": "/assets/",
		"settings":   map[string]any{"env": "staging"},
	}))

	result, err := engine.RenderTemplate("use-global.html", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-global.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
}

func TestEngine_PageDataShadowsGlobals(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobals(map[string]any{"static_url": "/assets/"}))

	result, err := engine.RenderTemplate("use-global.html", map[string]any{
		"static_url": "/cdn/",
		"settings":   map[string]any{"env": "prod"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "static=/cdn/ env=prod\n" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_FuncErrorsAbortRender(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobals(map[string]any{
		"shout": func(name string) (string, error) {
			if name == "" {
				return "", errors.New("nobody to shout at")
			}
			return strings.ToUpper(name) + "!", nil
		},
	}))

	out, err := engine.RenderTemplate("use-func.html", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "ADA!\n" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = engine.RenderTemplate("use-func.html", map[string]any{"name": ""})
	if err == nil || !strings.Contains(err.Error(), "nobody to shout at") {
		t.Fatalf("expected the func error, got out=%q err=%v", out, err)
	}
}

type note struct {
	Title string
	owner string
}

func (n *note) Owner() string { return n.owner }

func TestEngine_PassesStructsThrough(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("object.html", map[string]any{"object": &note{Title: "Plan", owner: "ada"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Plan by ada\n" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_FirstExistingPrefersEarlierSources(t *testing.T) {
	engine := newEngine(t)

	name, ok := template.FirstExisting(engine, "notes/note_list.html", "crudgen/list.html")
	if !ok || name != "notes/note_list.html" {
		t.Fatalf("expected host template, got %q (ok=%v)", name, ok)
	}

	name, ok = template.FirstExisting(engine, "tasks/task_list.html", "crudgen/list.html")
	if !ok || name != "crudgen/list.html" {
		t.Fatalf("expected fallback template, got %q (ok=%v)", name, ok)
	}

	if _, ok := template.FirstExisting(engine, "missing.html"); ok {
		t.Fatalf("expected no template to exist")
	}

	out, err := engine.RenderTemplate(name, map[string]any{"model_name": "task"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "fallback list of task\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_BaseDirComesFirst(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(filepath.Join("testdata", "host")),
		pongo.WithFS(subFS(t, "testdata/templates")),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	name, ok := template.FirstExisting(engine, "notes/note_list.html", "crudgen/list.html")
	if !ok || name != "notes/note_list.html" {
		t.Fatalf("expected base dir template, got %q (ok=%v)", name, ok)
	}
	out, err := engine.RenderTemplate(name, map[string]any{"model_name": "note"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "host list of note\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_NeedsASource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected an error without sources")
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing.html", nil); err == nil {
		t.Fatalf("expected an error for a missing template")
	}
}

func newEngine(t *testing.T, opts ...pongo.Option) *pongo.Engine {
	t.Helper()

	base := []pongo.Option{
		pongo.WithFS(subFS(t, "testdata/host")),
		pongo.WithFS(subFS(t, "testdata/templates")),
	}
	engine, err := pongo.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func subFS(t *testing.T, dir string) fs.FS {
	t.Helper()
	sub, err := fs.Sub(embeddedTemplates, dir)
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return sub
}
