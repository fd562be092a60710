package views

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/presentation"
	"github.com/goliatone/go-crudgen/pkg/render/template"
	"github.com/goliatone/go-crudgen/pkg/routes"
)

//go:embed templates
var embedded embed.FS

// Templates returns the fallback templates, rooted so that names read
// "crudgen/list.html". Register it after any host template source so host
// templates win.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Fallback template names used when the host provides none for a model.
const (
	TemplateList                = "crudgen/list.html"
	TemplateDetail              = "crudgen/detail.html"
	TemplateCreateUpdate        = "crudgen/createupdate.html"
	TemplateDelete              = "crudgen/delete.html"
	TemplateCreateUpdateInlines = "crudgen/createupdate_inlines.html"
)

// FormsetScript is the static path of the inline formset script.
const FormsetScript = "crudgen/formset.js"

// TemplateNames returns the candidates for a route, most specific first: the
// host template "<app>/<model>_<suffix>.html" then the fallback.
func TemplateNames(route routes.Route) []string {
	m := route.Model
	host := func(suffix string) string {
		name := m.Key() + "_" + suffix + ".html"
		app := strings.ToLower(strings.TrimSpace(m.App))
		if app == "" {
			return name
		}
		return app + "/" + name
	}
	switch route.Kind {
	case routes.KindList:
		return []string{host("list"), TemplateList}
	case routes.KindDetail:
		return []string{host("detail"), TemplateDetail}
	case routes.KindDelete:
		return []string{host("confirm_delete"), TemplateDelete}
	case routes.KindCreateInlines, routes.KindUpdateInlines:
		return []string{host("form"), TemplateCreateUpdateInlines}
	default:
		return []string{host("form"), TemplateCreateUpdate}
	}
}

// page builds the context shared by every view of the model.
func (v *View) page(req *request) (map[string]any, error) {
	m := v.Route.Model
	page := map[string]any{
		"model":             m,
		"model_name":        m.DisplayName(),
		"model_name_plural": m.PluralName(),
		"view":              string(v.Route.Kind),
		"has_create":        req.crud.HasCreate(),
		"has_update":        req.crud.HasUpdate(),
		"has_delete":        req.crud.HasDelete(),
		"object_list":       []*model.Object{},
	}
	page[presentation.HelpersKey] = v.cfg.helpers
	heading, err := v.cfg.helpers.Heading(m)
	if err != nil {
		return nil, fmt.Errorf("views: heading: %w", err)
	}
	page["heading"] = heading
	if url, err := v.cfg.urls.ModelURL(m, routes.KindList); err == nil {
		page["list_url"] = url
	}
	if req.crud.HasCreate() {
		if url, err := v.cfg.urls.ModelURL(m, routes.KindCreate); err == nil {
			page["create_url"] = url
		}
	}
	if len(v.Route.Inlines) > 0 {
		page["formset_js"] = v.cfg.helpers.StaticURL(FormsetScript)
	}
	if req.owner != nil {
		page["owner"] = req.owner
	}
	return page, nil
}

func (v *View) withObject(page map[string]any, obj *model.Object) error {
	table, err := v.cfg.helpers.ObjectTable(obj)
	if err != nil {
		return fmt.Errorf("views: object table: %w", err)
	}
	page["object"] = obj
	page["object_heading"] = v.cfg.helpers.ObjectHeading(obj)
	page["object_table"] = table
	page["detail_url"], _ = v.cfg.urls.ObjectURL(obj, routes.KindDetail)
	if v.Route.Model.CRUD().HasUpdate() {
		page["update_url"], _ = v.cfg.urls.ObjectURL(obj, routes.KindUpdate)
	}
	if v.Route.Model.CRUD().HasDelete() {
		page["delete_url"], _ = v.cfg.urls.ObjectURL(obj, routes.KindDelete)
	}
	return nil
}

func (v *View) render(req *request, status int, page map[string]any) error {
	candidates := TemplateNames(v.Route)
	name, ok := template.FirstExisting(v.cfg.renderer, candidates...)
	if !ok {
		return fmt.Errorf("views: no template for %s among %v", v.Route.Name, candidates)
	}
	out, err := v.cfg.renderer.RenderTemplate(name, page)
	if err != nil {
		return fmt.Errorf("views: render %s: %w", name, err)
	}
	req.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	req.w.WriteHeader(status)
	if req.r.Method == http.MethodHead {
		return nil
	}
	if _, err := io.WriteString(req.w, out); err != nil {
		slogcontext.FromCtx(req.ctx).Debug("write response", slog.Any("error", err))
	}
	return nil
}
