package forms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// Management form keys, suffixed to the formset prefix.
const (
	TotalFormsKey   = "TOTAL_FORMS"
	InitialFormsKey = "INITIAL_FORMS"
	MinNumFormsKey  = "MIN_NUM_FORMS"
	MaxNumFormsKey  = "MAX_NUM_FORMS"
	DeleteKey       = "DELETE"

	// IDKey names the hidden field carrying the primary key of an initial row.
	IDKey = model.PrimaryKey

	// EmptyFormPrefix is the placeholder index of the client-side template row.
	EmptyFormPrefix = "__prefix__"

	maxForms = 1000
)

// InlineFactory builds formsets editing the children of one parent model. It
// is created once at startup from an inline declaration.
type InlineFactory struct {
	Parent *model.Model
	Child  *model.Model
	Class  *Class
	FKName string
	Extra  int
	Prefix string

	models *model.Registry
}

// NewInlineFactory resolves the foreign key linking child to parent. When
// spec names fk_name it must be a relation to parent; otherwise exactly one
// relation to parent must exist on the child.
func NewInlineFactory(models *model.Registry, parent, child *model.Model, spec options.InlineSpec, class *Class) (*InlineFactory, error) {
	if models == nil || parent == nil || child == nil {
		return nil, fmt.Errorf("forms: inline factory requires a model registry, a parent and a child")
	}
	if class != nil && !class.Matches(child) {
		return nil, fmt.Errorf("%w: inline class %q targets %q, not %s", ErrModelMismatch, class.Name, class.Model, child.Qualified())
	}

	fkName := strings.TrimSpace(spec.FKName)
	if fkName != "" {
		target, err := models.Target(child, fkName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrNoForeignKey, child.Qualified(), fkName, err)
		}
		if target != parent {
			return nil, fmt.Errorf("%w: %s.%s points to %s", ErrNoForeignKey, child.Qualified(), fkName, target.Qualified())
		}
	} else {
		var candidates []string
		for _, field := range child.AllFields() {
			if !field.IsRelation() {
				continue
			}
			if target, err := models.Get(field.Target); err == nil && target == parent {
				candidates = append(candidates, field.Name)
			}
		}
		switch len(candidates) {
		case 0:
			return nil, fmt.Errorf("%w: %s has no foreign key to %s", ErrNoForeignKey, child.Qualified(), parent.Qualified())
		case 1:
			fkName = candidates[0]
		default:
			return nil, fmt.Errorf("%w: %s has more than one foreign key to %s (%s), set fk_name", ErrNoForeignKey, child.Qualified(), parent.Qualified(), strings.Join(candidates, ", "))
		}
	}

	extra := spec.Extra
	if extra < 0 {
		extra = 0
	}
	return &InlineFactory{
		Parent: parent,
		Child:  child,
		Class:  class,
		FKName: fkName,
		Extra:  extra,
		Prefix: child.Key() + "_set",
		models: models,
	}, nil
}

// Formset is the set of child forms for one parent record.
type Formset struct {
	Factory *InlineFactory
	Prefix  string
	Parent  *model.Object
	Forms   []*Form
	Empty   *Form

	initial int
	data    url.Values
	bound   bool
}

// Build materialises a formset for parent, which may be nil or unsaved on
// create. When data is non-nil the formset and its forms are bound: each of
// the submitted initial rows names the child it edits through its id field,
// and that child must be one of parent's current children.
func (fac *InlineFactory) Build(ctx context.Context, s store.Store, parent *model.Object, data url.Values) (*Formset, error) {
	fs := &Formset{Factory: fac, Prefix: fac.Prefix, Parent: parent, data: data, bound: data != nil}

	var existing []*model.Object
	if parent != nil && parent.PK > 0 {
		rows, err := s.List(ctx, fac.Child, store.Filter{fac.FKName: parent.PK})
		if err != nil {
			return nil, fmt.Errorf("forms: inline %s: %w", fac.Child.Qualified(), err)
		}
		existing = rows
	}

	instances := existing
	total := len(existing) + fac.Extra
	if fs.bound {
		initial, err := fs.managementInt(InitialFormsKey)
		if err != nil {
			return nil, err
		}
		submitted, err := fs.managementInt(TotalFormsKey)
		if err != nil {
			return nil, err
		}
		initial = min(initial, maxForms)
		total = min(max(submitted, initial), initial+maxForms)
		if instances, err = fs.matchRows(initial, existing); err != nil {
			return nil, err
		}
	}
	fs.initial = len(instances)

	for idx := 0; idx < total; idx++ {
		var instance *model.Object
		if idx < len(instances) {
			instance = instances[idx]
		}
		form, err := fac.newForm(s, fmt.Sprintf("%s-%d", fs.Prefix, idx), instance)
		if err != nil {
			return nil, err
		}
		if fs.bound {
			form.Bind(data)
		}
		fs.Forms = append(fs.Forms, form)
	}

	empty, err := fac.newForm(s, fs.Prefix+"-"+EmptyFormPrefix, nil)
	if err != nil {
		return nil, err
	}
	fs.Empty = empty
	return fs, nil
}

// matchRows resolves the id submitted by each of the first initial rows
// against the parent's current children.
func (fs *Formset) matchRows(initial int, existing []*model.Object) ([]*model.Object, error) {
	byPK := make(map[int64]*model.Object, len(existing))
	for _, obj := range existing {
		byPK[obj.PK] = obj
	}
	matched := make([]*model.Object, 0, initial)
	seen := make(map[int64]bool, initial)
	for idx := 0; idx < initial; idx++ {
		name := fmt.Sprintf("%s-%d-%s", fs.Prefix, idx, IDKey)
		raw := strings.TrimSpace(fs.data.Get(name))
		pk, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || pk <= 0 {
			return nil, fmt.Errorf("%w: %s=%q", ErrUnknownRow, name, raw)
		}
		obj, ok := byPK[pk]
		if !ok || seen[pk] {
			return nil, fmt.Errorf("%w: %s=%d", ErrUnknownRow, name, pk)
		}
		seen[pk] = true
		matched = append(matched, obj)
	}
	return matched, nil
}

func (fac *InlineFactory) newForm(s store.Store, prefix string, instance *model.Object) (*Form, error) {
	opts := []Option{WithPrefix(prefix), WithModels(fac.models)}
	if instance != nil {
		opts = append(opts, WithInstance(instance))
	}
	form, err := New(fac.Class, fac.Child, s, opts...)
	if err != nil {
		return nil, err
	}
	if err := form.Exclude(fac.FKName); err != nil {
		return nil, err
	}
	return form, nil
}

func (fs *Formset) managementInt(key string) (int, error) {
	raw := strings.TrimSpace(fs.data.Get(fs.Prefix + "-" + key))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s-%s", ErrManagementForm, fs.Prefix, key)
	}
	return n, nil
}

// Management returns the hidden management fields keyed by submitted name.
func (fs *Formset) Management() map[string]string {
	return map[string]string{
		fs.Prefix + "-" + TotalFormsKey:   strconv.Itoa(len(fs.Forms)),
		fs.Prefix + "-" + InitialFormsKey: strconv.Itoa(fs.initial),
		fs.Prefix + "-" + MinNumFormsKey:  "0",
		fs.Prefix + "-" + MaxNumFormsKey:  strconv.Itoa(maxForms),
	}
}

// InitialForms returns the number of forms bound to existing rows.
func (fs *Formset) InitialForms() int { return fs.initial }

// RowID returns the hidden id field name and value of the form at idx, or
// false for rows that do not edit an existing child.
func (fs *Formset) RowID(idx int) (string, string, bool) {
	if !fs.IsInitial(idx) || idx >= len(fs.Forms) || fs.Forms[idx].Instance == nil {
		return "", "", false
	}
	form := fs.Forms[idx]
	return form.HTMLName(IDKey), strconv.FormatInt(form.Instance.PK, 10), true
}

// IsInitial reports whether the form at idx edits an existing row.
func (fs *Formset) IsInitial(idx int) bool { return idx < fs.initial }

// Deleted reports whether the form at idx was flagged for deletion.
func (fs *Formset) Deleted(idx int) bool {
	if !fs.bound || idx >= len(fs.Forms) {
		return false
	}
	return isTruthy(strings.TrimSpace(fs.data.Get(fs.Forms[idx].HTMLName(DeleteKey))))
}

// Narrow applies fn to every form field of every row and the empty form.
func (fs *Formset) Narrow(fn func(*Field)) {
	for _, form := range append(append([]*Form(nil), fs.Forms...), fs.Empty) {
		if form == nil {
			continue
		}
		for _, field := range form.fields {
			fn(field)
		}
	}
}

// Stamp forces a field value on every row, including the empty form.
func (fs *Formset) Stamp(name string, value any) error {
	for _, form := range append(append([]*Form(nil), fs.Forms...), fs.Empty) {
		if form == nil {
			continue
		}
		if err := form.Stamp(name, value); err != nil {
			return err
		}
	}
	return nil
}

// skipped reports whether a row takes no part in validation and saving:
// deleted rows and untouched extra rows.
func (fs *Formset) skipped(idx int) bool {
	if fs.Deleted(idx) {
		return true
	}
	return !fs.IsInitial(idx) && !fs.Forms[idx].HasChanged()
}

// IsValid validates every participating row.
func (fs *Formset) IsValid(ctx context.Context) (bool, error) {
	if !fs.bound {
		return false, nil
	}
	valid := true
	for idx, form := range fs.Forms {
		if fs.skipped(idx) {
			continue
		}
		ok, err := form.IsValid(ctx)
		if err != nil {
			return false, err
		}
		valid = valid && ok
	}
	return valid, nil
}

// Errors returns per-row error maps in form order.
func (fs *Formset) Errors() []map[string][]string {
	out := make([]map[string][]string, len(fs.Forms))
	for idx, form := range fs.Forms {
		out[idx] = form.Errors()
	}
	return out
}

// Save links every row to parent, persists changed rows and deletes flagged
// existing rows. IsValid must have succeeded first.
func (fs *Formset) Save(ctx context.Context, s store.Store, parent *model.Object) ([]*model.Object, error) {
	if parent == nil || parent.PK <= 0 {
		return nil, fmt.Errorf("forms: inline %s: parent must be saved first", fs.Factory.Child.Qualified())
	}
	fs.Parent = parent

	var saved []*model.Object
	for idx, form := range fs.Forms {
		if fs.Deleted(idx) {
			if fs.IsInitial(idx) && form.Instance != nil {
				if err := s.Delete(ctx, fs.Factory.Child, form.Instance.PK); err != nil {
					return saved, fmt.Errorf("forms: inline delete %s: %w", fs.Factory.Child.Qualified(), err)
				}
			}
			continue
		}
		if fs.skipped(idx) {
			continue
		}
		if err := form.Stamp(fs.Factory.FKName, parent.PK); err != nil {
			return saved, err
		}
		obj, err := form.Save(ctx)
		if err != nil {
			return saved, err
		}
		saved = append(saved, obj)
	}
	return saved, nil
}
