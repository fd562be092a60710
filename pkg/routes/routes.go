package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
)

var (
	// ErrMisconfiguredInlineSupport is returned when a model declares inline
	// models but the generator was not given the required capabilities.
	ErrMisconfiguredInlineSupport = errors.New("routes: misconfigured inline support")
	// ErrDuplicateRoute is returned when two models produce the same route name.
	ErrDuplicateRoute = errors.New("routes: duplicate route")
	// ErrNoRoute is returned by the Reverser for unknown route names.
	ErrNoRoute = errors.New("routes: no route")
)

// Kind is the view flavour a route is bound to.
type Kind string

const (
	KindList          Kind = "list"
	KindDetail        Kind = "detail"
	KindCreate        Kind = "create"
	KindUpdate        Kind = "update"
	KindDelete        Kind = "delete"
	KindCreateInlines Kind = "create_inlines"
	KindUpdateInlines Kind = "update_inlines"
)

// Action returns the route action the kind serves; inline kinds share the
// names of their plain counterparts.
func (k Kind) Action() string {
	switch k {
	case KindCreateInlines:
		return string(KindCreate)
	case KindUpdateInlines:
		return string(KindUpdate)
	default:
		return string(k)
	}
}

// Methods lists the HTTP methods a route of this kind answers. List and
// detail pages are read only.
func (k Kind) Methods() []string {
	if k == KindList || k == KindDetail {
		return []string{http.MethodGet, http.MethodHead}
	}
	return []string{http.MethodGet, http.MethodHead, http.MethodPost}
}

// HasObject reports whether the route addresses a single record.
func (k Kind) HasObject() bool {
	switch k {
	case KindDetail, KindUpdate, KindDelete, KindUpdateInlines:
		return true
	}
	return false
}

// IsEdit reports whether the route renders a form.
func (k Kind) IsEdit() bool {
	switch k {
	case KindCreate, KindUpdate, KindCreateInlines, KindUpdateInlines:
		return true
	}
	return false
}

// PKParam is the path wildcard holding the primary key.
const PKParam = "pk"

// Route is one generated endpoint.
type Route struct {
	Name      string
	Kind      Kind
	Model     *model.Model
	Path      string
	FormClass *forms.Class
	Inlines   []*forms.InlineFactory
}

// Pattern returns the net/http pattern for the route under prefix. Patterns
// match the path exactly.
func (r Route) Pattern(prefix string) string {
	return mountPath(prefix, r.Path) + "{$}"
}

// Name builds the route name for a model and action.
func Name(m *model.Model, action string) string {
	return m.RouteName() + "_" + action
}

func pathFor(m *model.Model, kind Kind) string {
	base := "/" + m.RouteName() + "/"
	switch kind {
	case KindList:
		return base
	case KindDetail:
		return base + "{" + PKParam + "}/"
	case KindCreate, KindCreateInlines:
		return base + "create/"
	default:
		return base + "{" + PKParam + "}/" + kind.Action() + "/"
	}
}

// Capabilities lists the host features inline editing depends on.
type Capabilities struct {
	InlineFormsets   bool
	DynamicFormsetJS bool
}

// Missing names the capabilities that are not available.
func (c Capabilities) Missing() []string {
	var out []string
	if !c.InlineFormsets {
		out = append(out, "inline formsets")
	}
	if !c.DynamicFormsetJS {
		out = append(out, "dynamic formset javascript")
	}
	return out
}

// Option configures route generation.
type Option func(*config)

type config struct {
	forms  *forms.Registry
	inline *Capabilities
}

// WithForms resolves form_class names through reg instead of forms.Default.
func WithForms(reg *forms.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.forms = reg
		}
	}
}

// WithInlineSupport declares the inline editing capabilities of the host.
func WithInlineSupport(caps Capabilities) Option {
	return func(cfg *config) {
		cfg.inline = &caps
	}
}

// Generate builds the routes of every concrete registered model in
// registration order. Form classes and inline models are resolved here so
// configuration errors surface at startup.
func Generate(models *model.Registry, opts ...Option) ([]Route, error) {
	if models == nil {
		return nil, fmt.Errorf("routes: model registry is required")
	}
	cfg := config{forms: forms.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var out []Route
	seen := make(map[string]string)
	for _, m := range models.Concrete() {
		modelRoutes, err := generateModel(models, m, cfg)
		if err != nil {
			return nil, err
		}
		for _, route := range modelRoutes {
			if other, dup := seen[route.Name]; dup {
				return nil, fmt.Errorf("%w: %q produced by %s and %s", ErrDuplicateRoute, route.Name, other, m.Qualified())
			}
			seen[route.Name] = m.Qualified()
		}
		out = append(out, modelRoutes...)
	}
	return out, nil
}

func generateModel(models *model.Registry, m *model.Model, cfg config) ([]Route, error) {
	crud := m.CRUD()

	var formClass *forms.Class
	if crud.FormClass != "" && (crud.HasCreate() || crud.HasUpdate()) {
		class, err := cfg.forms.Resolve(crud.FormClass)
		if err != nil {
			return nil, fmt.Errorf("routes: %s form_class: %w", m.Qualified(), err)
		}
		formClass = class
	}

	if len(crud.Inlines) > 0 {
		if err := checkInlineSupport(m, cfg.inline); err != nil {
			return nil, err
		}
	}
	var inlines []*forms.InlineFactory
	if crud.HasCreate() || crud.HasUpdate() {
		for _, spec := range crud.Inlines {
			factory, err := inlineFactory(models, m, spec, cfg)
			if err != nil {
				return nil, err
			}
			inlines = append(inlines, factory)
		}
	}

	build := func(kind Kind) Route {
		route := Route{
			Name:  Name(m, kind.Action()),
			Kind:  kind,
			Model: m,
			Path:  pathFor(m, kind),
		}
		if kind.IsEdit() {
			route.FormClass = formClass
			route.Inlines = inlines
		}
		return route
	}

	out := []Route{build(KindList)}
	if crud.HasCreate() {
		if len(inlines) > 0 {
			out = append(out, build(KindCreateInlines))
		} else {
			out = append(out, build(KindCreate))
		}
	}
	out = append(out, build(KindDetail))
	if crud.HasUpdate() {
		if len(inlines) > 0 {
			out = append(out, build(KindUpdateInlines))
		} else {
			out = append(out, build(KindUpdate))
		}
	}
	if crud.HasDelete() {
		out = append(out, build(KindDelete))
	}
	return out, nil
}

func checkInlineSupport(m *model.Model, caps *Capabilities) error {
	if caps == nil {
		return fmt.Errorf("%w: %s declares inline_models but inline support was not configured (missing inline formsets, dynamic formset javascript)", ErrMisconfiguredInlineSupport, m.Qualified())
	}
	if missing := caps.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s declares inline_models but the host lacks %s", ErrMisconfiguredInlineSupport, m.Qualified(), strings.Join(missing, ", "))
	}
	return nil
}

func inlineFactory(models *model.Registry, parent *model.Model, spec options.InlineSpec, cfg config) (*forms.InlineFactory, error) {
	child, err := models.Get(spec.Model)
	if err != nil {
		return nil, fmt.Errorf("routes: %s inline %q: %w", parent.Qualified(), spec.Model, err)
	}
	var class *forms.Class
	if spec.FormClass != "" {
		class, err = cfg.forms.Resolve(spec.FormClass)
		if err != nil {
			return nil, fmt.Errorf("routes: %s inline %q form_class: %w", parent.Qualified(), spec.Model, err)
		}
	}
	factory, err := forms.NewInlineFactory(models, parent, child, spec, class)
	if err != nil {
		return nil, fmt.Errorf("routes: %s inline %q: %w", parent.Qualified(), spec.Model, err)
	}
	return factory, nil
}

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// HandlerFactory builds the handler serving a route.
type HandlerFactory func(route Route) (http.Handler, error)

// Mount registers every route under prefix and returns the mounted patterns.
func Mount(mux Mux, prefix string, routes []Route, factory HandlerFactory) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("routes: missing mux")
	}
	if factory == nil {
		return nil, fmt.Errorf("routes: missing handler factory")
	}
	patterns := make([]string, 0, len(routes))
	for _, route := range routes {
		handler, err := factory(route)
		if err != nil {
			return nil, fmt.Errorf("routes: %s: %w", route.Name, err)
		}
		pattern := route.Pattern(prefix)
		mux.Handle(pattern, handler)
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
