// Package crudgen wires the scaffolding pipeline: form classes are populated,
// routes are generated from the model registry, views are built for every
// route and mounted on a ServeMux.
package crudgen

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/presentation"
	"github.com/goliatone/go-crudgen/pkg/render/template"
	"github.com/goliatone/go-crudgen/pkg/render/template/pongo"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/views"
)

// App is a mounted set of generated views.
type App struct {
	Models   *model.Registry
	Forms    *forms.Registry
	Routes   []routes.Route
	URLs     *routes.Reverser
	Helpers  *presentation.Helpers
	Renderer template.TemplateRenderer
	Patterns []string
	Mux      *http.ServeMux
}

// ServeHTTP dispatches to the mounted routes.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Mux.ServeHTTP(w, r)
}

// Option configures New.
type Option func(*config)

type config struct {
	prefix       string
	store        store.Store
	forms        *forms.Registry
	loaders      []forms.Loader
	inline       *routes.Capabilities
	renderer     template.TemplateRenderer
	templates    []fs.FS
	templateDir  string
	presentation []presentation.Option
	views        []views.Option
	mux          *http.ServeMux
	logger       *slog.Logger
}

// WithPrefix mounts the routes below prefix. Defaults to "/".
func WithPrefix(prefix string) Option {
	return func(cfg *config) { cfg.prefix = prefix }
}

// WithStore sets the record store. Defaults to an in-memory store.
func WithStore(s store.Store) Option {
	return func(cfg *config) { cfg.store = s }
}

// WithForms sets the form class registry. Defaults to forms.Default.
func WithForms(reg *forms.Registry) Option {
	return func(cfg *config) { cfg.forms = reg }
}

// WithFormLoaders adds loaders run when the form registry is populated.
func WithFormLoaders(loaders ...forms.Loader) Option {
	return func(cfg *config) { cfg.loaders = append(cfg.loaders, loaders...) }
}

// WithInlineSupport declares the host capabilities inline editing needs.
// The bundled formset script counts as dynamic formset support when the
// static files are served.
func WithInlineSupport(caps routes.Capabilities) Option {
	return func(cfg *config) { cfg.inline = &caps }
}

// WithRenderer replaces the default pongo2 engine.
func WithRenderer(r template.TemplateRenderer) Option {
	return func(cfg *config) { cfg.renderer = r }
}

// WithTemplates adds host template sources searched before the fallback
// templates. Ignored when WithRenderer is used.
func WithTemplates(fsys ...fs.FS) Option {
	return func(cfg *config) { cfg.templates = append(cfg.templates, fsys...) }
}

// WithTemplateDir adds a host template directory searched first.
func WithTemplateDir(dir string) Option {
	return func(cfg *config) { cfg.templateDir = dir }
}

// WithPresentation passes options to the presentation helpers.
func WithPresentation(opts ...presentation.Option) Option {
	return func(cfg *config) { cfg.presentation = append(cfg.presentation, opts...) }
}

// WithViews passes options to the view handlers.
func WithViews(opts ...views.Option) Option {
	return func(cfg *config) { cfg.views = append(cfg.views, opts...) }
}

// WithMux mounts the routes on an existing mux.
func WithMux(mux *http.ServeMux) Option {
	return func(cfg *config) { cfg.mux = mux }
}

// WithLogger sets the logger used while wiring and by the views.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// New populates the form registry, generates routes for models, builds the
// views and mounts them. Configuration errors surface here, before any
// request is served.
func New(ctx context.Context, models *model.Registry, opts ...Option) (*App, error) {
	if models == nil {
		return nil, fmt.Errorf("crudgen: model registry is required")
	}
	cfg := config{prefix: "/", forms: forms.Default, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.store == nil {
		cfg.store = store.NewMemory()
	}
	if cfg.mux == nil {
		cfg.mux = http.NewServeMux()
	}

	if err := cfg.forms.Populate(ctx, cfg.loaders...); err != nil {
		return nil, fmt.Errorf("crudgen: populate forms: %w", err)
	}

	routeOpts := []routes.Option{routes.WithForms(cfg.forms)}
	if cfg.inline != nil {
		routeOpts = append(routeOpts, routes.WithInlineSupport(*cfg.inline))
	}
	generated, err := routes.Generate(models, routeOpts...)
	if err != nil {
		return nil, err
	}
	urls := routes.NewReverser(cfg.prefix, generated)
	helpers := presentation.New(models, urls, cfg.presentation...)

	renderer := cfg.renderer
	if renderer == nil {
		engineOpts := []pongo.Option{
			pongo.WithGlobals(helpers.Funcs()),
			pongo.WithGlobals(map[string]any{
				"static_url": helpers.StaticURL(""),
				"formset_js": helpers.StaticURL(views.FormsetScript),
			}),
		}
		if cfg.templateDir != "" {
			engineOpts = append(engineOpts, pongo.WithBaseDir(cfg.templateDir))
		}
		for _, fsys := range cfg.templates {
			engineOpts = append(engineOpts, pongo.WithFS(fsys))
		}
		engineOpts = append(engineOpts, pongo.WithFS(views.Templates()))
		engine, err := pongo.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("crudgen: template engine: %w", err)
		}
		renderer = engine
	}

	viewOpts := append([]views.Option{
		views.WithModels(models),
		views.WithStore(cfg.store),
		views.WithRenderer(renderer),
		views.WithReverser(urls),
		views.WithHelpers(helpers),
		views.WithLogger(cfg.logger),
	}, cfg.views...)
	handlers, err := views.New(viewOpts...)
	if err != nil {
		return nil, err
	}

	patterns, err := routes.Mount(cfg.mux, cfg.prefix, generated, handlers.Handler)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("crudgen routes mounted", slog.String("prefix", cfg.prefix), slog.Int("routes", len(patterns)))

	return &App{
		Models:   models,
		Forms:    cfg.forms,
		Routes:   generated,
		URLs:     urls,
		Helpers:  helpers,
		Renderer: renderer,
		Patterns: patterns,
		Mux:      cfg.mux,
	}, nil
}
