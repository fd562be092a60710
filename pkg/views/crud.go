package views

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-crudgen/pkg/events"
	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/routes"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/widgets"
)

// SuccessURLField is the form key that may carry a post-submit redirect.
const SuccessURLField = "success_url"

func (v *View) list(req *request) error {
	objects, err := v.cfg.store.List(req.ctx, v.Route.Model, req.scope())
	if err != nil {
		return fmt.Errorf("views: list %s: %w", v.Route.Model.Qualified(), err)
	}
	page, err := v.page(req)
	if err != nil {
		return err
	}
	page["object_list"] = objects
	return v.render(req, http.StatusOK, page)
}

func (v *View) detail(req *request) error {
	obj, err := v.object(req)
	if err != nil {
		return err
	}
	page, err := v.page(req)
	if err != nil {
		return err
	}
	if err := v.withObject(page, obj); err != nil {
		return err
	}
	return v.render(req, http.StatusOK, page)
}

func (v *View) delete(req *request) error {
	obj, err := v.object(req)
	if err != nil {
		return err
	}
	if req.r.Method == http.MethodPost {
		if err := req.r.ParseForm(); err != nil {
			return statusErr(http.StatusBadRequest, "parse form: %v", err)
		}
		if err := v.cfg.store.Delete(req.ctx, v.Route.Model, obj.PK); err != nil {
			return fmt.Errorf("views: delete %s %d: %w", v.Route.Model.Qualified(), obj.PK, err)
		}
		v.publish(req, obj, events.ActionDeleted)
		return v.redirectSuccess(req)
	}
	page, err := v.page(req)
	if err != nil {
		return err
	}
	if err := v.withObject(page, obj); err != nil {
		return err
	}
	return v.render(req, http.StatusOK, page)
}

// edit serves create and update, with or without inline formsets.
func (v *View) edit(req *request) error {
	var instance *model.Object
	if v.Route.Kind.HasObject() {
		obj, err := v.object(req)
		if err != nil {
			return err
		}
		instance = obj
	}

	submitted := req.r.Method == http.MethodPost
	if submitted {
		if err := req.r.ParseForm(); err != nil {
			return statusErr(http.StatusBadRequest, "parse form: %v", err)
		}
	}

	form, err := v.buildForm(req, instance)
	if err != nil {
		return err
	}
	var formsets []*forms.Formset
	if len(v.Route.Inlines) > 0 {
		formsets, err = v.buildFormsets(req, instance)
		if err != nil {
			return err
		}
	}

	if submitted {
		form.Bind(req.r.PostForm)
		valid, err := form.IsValid(req.ctx)
		if err != nil {
			return fmt.Errorf("views: validate %s: %w", v.Route.Model.Qualified(), err)
		}
		inlinesValid, err := validFormsets(req, formsets)
		if err != nil {
			return err
		}
		if valid && inlinesValid {
			return v.save(req, form, formsets)
		}
		slogcontext.FromCtx(req.ctx).Debug("form rejected", slog.Any("errors", form.Errors()))
	}

	page, err := v.page(req)
	if err != nil {
		return err
	}
	if instance != nil {
		if err := v.withObject(page, instance); err != nil {
			return err
		}
	}
	formHTML, err := v.cfg.helpers.RenderForm(req.ctx, form)
	if err != nil {
		return fmt.Errorf("views: render form: %w", err)
	}
	page["form"] = form
	page["form_html"] = formHTML
	if len(v.Route.Inlines) > 0 {
		rendered := make([]string, 0, len(formsets))
		for _, fs := range formsets {
			out, err := v.cfg.helpers.RenderFormset(req.ctx, fs)
			if err != nil {
				return fmt.Errorf("views: render formset %s: %w", fs.Prefix, err)
			}
			rendered = append(rendered, out)
		}
		page["formsets"] = rendered
	}
	return v.render(req, http.StatusOK, page)
}

func (v *View) save(req *request, form *forms.Form, formsets []*forms.Formset) error {
	creating := form.Instance == nil || form.Instance.PK == 0
	obj, err := form.Save(req.ctx)
	if err != nil {
		return fmt.Errorf("views: save %s: %w", v.Route.Model.Qualified(), err)
	}
	if err := v.saveFormsets(req, obj, formsets); err != nil {
		return err
	}
	action := events.ActionUpdated
	if creating {
		action = events.ActionCreated
	}
	v.publish(req, obj, action)
	return v.redirectSuccess(req)
}

// buildForm derives the form for the view's model. The model's exclude list is
// applied before the owner field is removed; choice fields pointing at models
// with the same owner reference are narrowed to the owner.
func (v *View) buildForm(req *request, instance *model.Object) (*forms.Form, error) {
	opts := []forms.Option{forms.WithModels(v.cfg.models)}
	if instance != nil {
		opts = append(opts, forms.WithInstance(instance))
	}
	form, err := forms.New(v.Route.FormClass, v.Route.Model, v.cfg.store, opts...)
	if err != nil {
		return nil, fmt.Errorf("views: form for %s: %w", v.Route.Model.Qualified(), err)
	}
	if err := form.Exclude(req.crud.Exclude...); err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	if req.owner == nil {
		return form, nil
	}
	if err := form.Exclude(req.crud.OwnerRef); err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	for _, field := range form.Fields() {
		v.narrow(req, field)
	}
	if err := form.Stamp(req.crud.OwnerRef, req.owner.PK); err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	return form, nil
}

// narrow limits a model choice field to the owner's records when its target
// model is scoped by the same owner reference.
func (v *View) narrow(req *request, field *forms.Field) {
	if req.owner == nil || field.Kind != forms.ModelChoiceField || field.Target == nil {
		return
	}
	target := field.Target.CRUD()
	if target.OwnerRef != req.crud.OwnerRef {
		return
	}
	field.Narrow(store.Filter{target.OwnerRef: req.owner.PK}, widgets.WidgetOwnerSelect)
	if target.HasCreate() {
		if url, err := v.cfg.urls.ModelURL(field.Target, routes.KindCreate); err == nil {
			field.AddURL = url
		}
	}
}

func (v *View) redirectSuccess(req *request) error {
	target, err := v.successURL(req)
	if err != nil {
		return err
	}
	http.Redirect(req.w, req.r, target, http.StatusFound)
	return nil
}

// successURL picks the submitted success_url when it is a local path, then
// the configured URL, then the model's list route.
func (v *View) successURL(req *request) (string, error) {
	if candidate := strings.TrimSpace(req.r.PostForm.Get(SuccessURLField)); isLocalURL(candidate) {
		return candidate, nil
	}
	if v.cfg.successURL != "" {
		return v.cfg.successURL, nil
	}
	url, err := v.cfg.urls.ModelURL(v.Route.Model, routes.KindList)
	if err != nil {
		return "", fmt.Errorf("views: success url for %s: %w", v.Route.Model.Qualified(), err)
	}
	return url, nil
}

// isLocalURL accepts same-origin paths only. Browsers drop tabs and line
// breaks and read backslashes as slashes, so any of those reject the URL.
func isLocalURL(candidate string) bool {
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if c := candidate[i]; c < 0x20 || c == 0x7f || c == '\\' {
			return false
		}
	}
	parsed, err := url.Parse(candidate)
	return err == nil && parsed.Scheme == "" && parsed.Host == ""
}
