package views

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
)

// buildFormsets materialises one formset per inline factory of the route.
// Child forms drop the child's excluded fields; when the parent is owner
// scoped, choice fields are narrowed on every row and on the empty form, and
// children sharing the owner reference have the owner removed and stamped.
func (v *View) buildFormsets(req *request, parent *model.Object) ([]*forms.Formset, error) {
	var data url.Values
	if req.r.Method == http.MethodPost {
		data = req.r.PostForm
	}

	out := make([]*forms.Formset, 0, len(v.Route.Inlines))
	for _, factory := range v.Route.Inlines {
		fs, err := factory.Build(req.ctx, v.cfg.store, parent, data)
		if errors.Is(err, forms.ErrManagementForm) || errors.Is(err, forms.ErrUnknownRow) {
			return nil, statusErr(http.StatusBadRequest, "%v", err)
		}
		if err != nil {
			return nil, fmt.Errorf("views: inline %s: %w", factory.Child.Qualified(), err)
		}

		child := factory.Child.CRUD()
		if err := excludeRows(fs, child.Exclude...); err != nil {
			return nil, err
		}
		if req.owner != nil {
			fs.Narrow(func(field *forms.Field) { v.narrow(req, field) })
			if child.OwnerRef == req.crud.OwnerRef {
				if err := excludeRows(fs, child.OwnerRef); err != nil {
					return nil, err
				}
				if err := fs.Stamp(child.OwnerRef, req.owner.PK); err != nil {
					return nil, fmt.Errorf("views: inline %s: %w", factory.Child.Qualified(), err)
				}
			}
		}
		out = append(out, fs)
	}
	return out, nil
}

func excludeRows(fs *forms.Formset, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	for _, form := range append(append([]*forms.Form(nil), fs.Forms...), fs.Empty) {
		if form == nil {
			continue
		}
		if err := form.Exclude(names...); err != nil {
			return fmt.Errorf("views: inline %s: %w", fs.Factory.Child.Qualified(), err)
		}
	}
	return nil
}

func validFormsets(req *request, formsets []*forms.Formset) (bool, error) {
	valid := true
	for _, fs := range formsets {
		ok, err := fs.IsValid(req.ctx)
		if err != nil {
			return false, fmt.Errorf("views: validate inline %s: %w", fs.Factory.Child.Qualified(), err)
		}
		valid = valid && ok
	}
	return valid, nil
}

// saveFormsets runs after the parent is saved so new rows can link to it.
func (v *View) saveFormsets(req *request, parent *model.Object, formsets []*forms.Formset) error {
	for _, fs := range formsets {
		if _, err := fs.Save(req.ctx, v.cfg.store, parent); err != nil {
			return fmt.Errorf("views: save inline %s: %w", fs.Factory.Child.Qualified(), err)
		}
	}
	return nil
}
