package presentation

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/routes"
)

// DefaultAddIcon is the add icon path below the static URL.
const DefaultAddIcon = "admin/img/icon-addlink.svg"

// Option configures the helpers.
type Option func(*Helpers)

// WithStaticURL sets the prefix of static asset URLs.
func WithStaticURL(url string) Option {
	return func(h *Helpers) {
		h.staticURL = strings.TrimSpace(url)
	}
}

// WithAddIcon sets the add icon path below the static URL.
func WithAddIcon(path string) Option {
	return func(h *Helpers) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			h.addIcon = trimmed
		}
	}
}

// WithAddIconHTML replaces the icon image with custom markup. The markup is
// sanitised; only images and inline text styling survive.
func WithAddIconHTML(markup string) Option {
	return func(h *Helpers) {
		h.addIconHTML = markup
	}
}

// Helpers renders presentation fragments for the models in a registry.
type Helpers struct {
	models      *model.Registry
	urls        *routes.Reverser
	staticURL   string
	addIcon     string
	addIconHTML string
	policy      *bluemonday.Policy
	widgets     map[string]WidgetRenderer
}

// New builds helpers resolving model names through models and URLs through
// urls.
func New(models *model.Registry, urls *routes.Reverser, opts ...Option) *Helpers {
	h := &Helpers{
		models:    models,
		urls:      urls,
		staticURL: "/static/",
		addIcon:   DefaultAddIcon,
		policy:    iconPolicy(),
	}
	h.widgets = defaultWidgets(h)
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.addIconHTML != "" {
		h.addIconHTML = h.policy.Sanitize(h.addIconHTML)
	}
	return h
}

func iconPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("span", "i", "b", "strong", "em")
	p.AllowImages()
	p.AllowAttrs("alt", "title", "class").Globally()
	return p
}

// AddLink renders the add icon linking to url.
func (h *Helpers) AddLink(url string) string {
	icon := h.addIconHTML
	if icon == "" {
		icon = fmt.Sprintf(`<img src="%s">`, html.EscapeString(joinStatic(h.staticURL, h.addIcon)))
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), icon)
}

// StaticURL resolves a path below the configured static URL.
func (h *Helpers) StaticURL(path string) string {
	return joinStatic(h.staticURL, path)
}

func joinStatic(base, path string) string {
	if base == "" {
		return path
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(path, "/")
}

// ObjectTable renders every visible field of obj as "<tr><th>name:</th>
// <td>value</td></tr>" rows. The primary key, excluded fields and the owner
// field are skipped; values are escaped.
func (h *Helpers) ObjectTable(obj *model.Object) (string, error) {
	if obj == nil || obj.Model == nil {
		return "", fmt.Errorf("presentation: object is required")
	}
	crud := obj.Model.CRUD()

	var b strings.Builder
	b.WriteString("<table>")
	for _, field := range obj.Model.AllFields() {
		if crud.Hidden(field.Name) {
			continue
		}
		value, err := obj.Get(field.Name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "<tr><th>%s:</th><td>%s</td></tr>", html.EscapeString(field.Name), html.EscapeString(displayValue(value)))
	}
	b.WriteString("</table>")
	return b.String(), nil
}

// Heading renders the "<h3>" list heading of a model, given as a *model.Model
// or a symbolic name. Models with the create action get an add link.
func (h *Helpers) Heading(target any) (string, error) {
	m, err := h.resolveModel(target)
	if err != nil {
		return "", err
	}
	title := html.EscapeString(model.Capitalize(m.PluralName()))
	if !m.CRUD().HasCreate() {
		return fmt.Sprintf("<h3>%s</h3>", title), nil
	}
	url, err := h.urls.ModelURL(m, routes.KindCreate)
	if err != nil {
		return "", fmt.Errorf("presentation: heading %s: %w", m.Qualified(), err)
	}
	return fmt.Sprintf("<h3>%s %s</h3>", title, h.AddLink(url)), nil
}

// ObjectHeading returns the capitalised verbose name of obj's model.
func (h *Helpers) ObjectHeading(obj *model.Object) string {
	if obj == nil || obj.Model == nil {
		return ""
	}
	return model.Capitalize(obj.Model.DisplayName())
}

// ObjectList returns explicit when non-empty, otherwise the "object_list"
// entry of data, otherwise an empty list.
func ObjectList(explicit []*model.Object, data map[string]any) []*model.Object {
	if len(explicit) > 0 {
		return explicit
	}
	if list, ok := data["object_list"].([]*model.Object); ok && list != nil {
		return list
	}
	return []*model.Object{}
}

// RenderObjectList renders objects as a list linking each entry to its
// detail page, with edit and delete links for the enabled actions.
func (h *Helpers) RenderObjectList(objects []*model.Object) (string, error) {
	var b strings.Builder
	b.WriteString(`<ul class="crudgen-object-list">`)
	for _, obj := range objects {
		if obj == nil || obj.Model == nil {
			return "", fmt.Errorf("presentation: object list entry is required")
		}
		detail, err := h.urls.ObjectURL(obj, routes.KindDetail)
		if err != nil {
			return "", fmt.Errorf("presentation: object list: %w", err)
		}
		fmt.Fprintf(&b, `<li><a href="%s">%s</a>`, html.EscapeString(detail), html.EscapeString(obj.String()))
		crud := obj.Model.CRUD()
		for _, link := range []struct {
			enabled bool
			kind    routes.Kind
			label   string
		}{
			{crud.HasUpdate(), routes.KindUpdate, "Edit"},
			{crud.HasDelete(), routes.KindDelete, "Delete"},
		} {
			if !link.enabled {
				continue
			}
			url, err := h.urls.ObjectURL(obj, link.kind)
			if err != nil {
				return "", fmt.Errorf("presentation: object list: %w", err)
			}
			fmt.Fprintf(&b, ` <a href="%s">%s</a>`, html.EscapeString(url), link.label)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String(), nil
}

func (h *Helpers) resolveModel(target any) (*model.Model, error) {
	switch v := target.(type) {
	case *model.Model:
		if v == nil {
			return nil, fmt.Errorf("presentation: model is required")
		}
		return v, nil
	case string:
		if h.models == nil {
			return nil, fmt.Errorf("presentation: no model registry to resolve %q", v)
		}
		return h.models.Get(v)
	default:
		return nil, fmt.Errorf("presentation: expected a model or model name, got %T", target)
	}
}

// HelpersKey is the template context entry holding the Helpers. The
// object_list tag reads it.
const HelpersKey = "crudgen_helpers"

// Funcs exposes the helpers to templates. Functions return markup meant to be
// rendered with the safe filter. Lookup failures abort the render.
func (h *Helpers) Funcs() map[string]any {
	return map[string]any{
		"object_table":   h.ObjectTable,
		"heading":        h.Heading,
		"object_heading": h.ObjectHeading,
		"add_link":       h.AddLink,
		"static":         h.StaticURL,
		HelpersKey:       h,
	}
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(v)
	}
}
