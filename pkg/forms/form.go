package forms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
	"github.com/goliatone/go-crudgen/pkg/widgets"
)

// NonFieldErrors is the Errors key holding form-wide messages.
const NonFieldErrors = "__all__"

// Option configures a form at construction time.
type Option func(*Form)

// WithPrefix namespaces submitted keys as "<prefix>-<field>".
func WithPrefix(prefix string) Option {
	return func(f *Form) {
		f.Prefix = strings.TrimSpace(prefix)
	}
}

// WithInstance edits an existing record instead of creating one.
func WithInstance(obj *model.Object) Option {
	return func(f *Form) {
		f.Instance = obj.Clone()
	}
}

// WithModels resolves foreign key targets for model choice fields.
func WithModels(reg *model.Registry) Option {
	return func(f *Form) {
		f.models = reg
	}
}

// WithWidgets overrides the widget registry used for default widgets.
func WithWidgets(reg *widgets.Registry) Option {
	return func(f *Form) {
		if reg != nil {
			f.widgets = reg
		}
	}
}

// Form edits one record of a model.
type Form struct {
	Class    *Class
	Model    *model.Model
	Prefix   string
	Instance *model.Object

	fields  []*Field
	store   store.Store
	models  *model.Registry
	widgets *widgets.Registry

	data    url.Values
	bound   bool
	checked bool
	errors  map[string][]string
	cleaned map[string]any
	stamps  map[string]any
}

// New builds a form for m from class, or from the derived class when class is
// nil. Field names in the class that the model does not declare are errors.
func New(class *Class, m *model.Model, s store.Store, opts ...Option) (*Form, error) {
	if m == nil {
		return nil, fmt.Errorf("forms: model is required")
	}
	if class == nil {
		class = Derive(m)
	}
	if !class.Matches(m) {
		return nil, fmt.Errorf("%w: class %q targets %q, not %s", ErrModelMismatch, class.Name, class.Model, m.Qualified())
	}

	form := &Form{
		Class:   class,
		Model:   m,
		store:   s,
		widgets: widgets.Default,
		errors:  make(map[string][]string),
		stamps:  make(map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(form)
		}
	}

	names := class.Fields
	if len(names) == 0 {
		for _, field := range m.AllFields() {
			names = append(names, field.Name)
		}
	}
	for _, name := range names {
		if name == model.PrimaryKey {
			continue
		}
		declared, ok := m.Field(name)
		if !ok {
			return nil, fmt.Errorf("forms: class %q: %w %q on %s", class.Name, model.ErrUnknownField, name, m.Qualified())
		}
		field, err := form.buildField(declared)
		if err != nil {
			return nil, err
		}
		form.fields = append(form.fields, field)
	}

	if err := form.Exclude(class.Exclude...); err != nil {
		return nil, err
	}
	return form, nil
}

func (f *Form) buildField(declared model.Field) (*Field, error) {
	field := &Field{
		Name:     declared.Name,
		Label:    model.FieldLabel(declared),
		Help:     declared.Help,
		Kind:     KindFor(declared.Type),
		Widget:   f.widgets.Resolve(declared),
		Required: declared.Required,
		store:    f.store,
	}
	if label := strings.TrimSpace(f.Class.Labels[declared.Name]); label != "" {
		field.Label = label
	}
	if help := strings.TrimSpace(f.Class.Help[declared.Name]); help != "" {
		field.Help = help
	}
	if widget := strings.TrimSpace(f.Class.Widgets[declared.Name]); widget != "" {
		field.Widget = widget
	}
	if field.Kind == ModelChoiceField {
		if f.models == nil {
			return nil, fmt.Errorf("forms: field %q on %s: a model registry is required to resolve %q", declared.Name, f.Model.Qualified(), declared.Target)
		}
		target, err := f.models.Get(declared.Target)
		if err != nil {
			return nil, fmt.Errorf("forms: field %q on %s: %w", declared.Name, f.Model.Qualified(), err)
		}
		field.Target = target
	}
	return field, nil
}

// Fields returns the form fields in order.
func (f *Form) Fields() []*Field {
	return append([]*Field(nil), f.fields...)
}

// Field looks a form field up by name.
func (f *Form) Field(name string) (*Field, bool) {
	for _, field := range f.fields {
		if field.Name == name {
			return field, true
		}
	}
	return nil, false
}

// Exclude removes fields from the form. Naming a field the model does not
// declare is an error; removing a field already absent is not.
func (f *Form) Exclude(names ...string) error {
	for _, name := range names {
		if _, ok := f.Model.Field(name); !ok {
			return fmt.Errorf("forms: exclude on %s: %w %q", f.Model.Qualified(), model.ErrUnknownField, name)
		}
		f.fields = slices.DeleteFunc(f.fields, func(field *Field) bool {
			return field.Name == name
		})
	}
	return nil
}

// Stamp forces a field value on the instance, overriding anything submitted.
func (f *Form) Stamp(name string, value any) error {
	if f.Instance == nil {
		f.Instance = model.NewObject(f.Model, 0, nil)
	}
	if err := f.Instance.Set(name, value); err != nil {
		return fmt.Errorf("forms: stamp: %w", err)
	}
	f.stamps[name] = value
	return nil
}

// Bind attaches submitted data.
func (f *Form) Bind(data url.Values) {
	f.data = data
	f.bound = true
	f.checked = false
}

// IsBound reports whether data was attached.
func (f *Form) IsBound() bool { return f.bound }

// HTMLName returns the submitted key for a field.
func (f *Form) HTMLName(name string) string {
	if f.Prefix == "" {
		return name
	}
	return f.Prefix + "-" + name
}

// Value returns the value to display for a field: the submitted text when
// bound, otherwise the instance value.
func (f *Form) Value(name string) any {
	if f.bound {
		return f.data.Get(f.HTMLName(name))
	}
	if f.Instance == nil {
		return nil
	}
	value, err := f.Instance.Get(name)
	if err != nil {
		return nil
	}
	return value
}

// HasChanged reports whether any form field was submitted with a value.
func (f *Form) HasChanged() bool {
	if !f.bound {
		return false
	}
	for _, field := range f.fields {
		if strings.TrimSpace(f.data.Get(f.HTMLName(field.Name))) != "" {
			return true
		}
	}
	return false
}

// IsValid validates bound data. The error is non-nil only when validation
// could not run, for instance when a choice source fails.
func (f *Form) IsValid(ctx context.Context) (bool, error) {
	if !f.bound {
		return false, nil
	}
	f.errors = make(map[string][]string)
	f.cleaned = make(map[string]any, len(f.fields))

	for _, field := range f.fields {
		key := f.HTMLName(field.Name)
		_, present := f.data[key]
		value, err := field.clean(ctx, f.data.Get(key), present)
		if err != nil {
			var verr ValidationError
			if !errors.As(err, &verr) {
				return false, err
			}
			f.AddError(field.Name, verr.Error())
			continue
		}
		f.cleaned[field.Name] = value
	}

	if f.Class.Clean != nil && len(f.errors) == 0 {
		if err := f.Class.Clean(ctx, f); err != nil {
			f.AddError(NonFieldErrors, err.Error())
		}
	}
	f.checked = true
	return len(f.errors) == 0, nil
}

// AddError records a message against a field, or NonFieldErrors.
func (f *Form) AddError(field, message string) {
	f.errors[field] = append(f.errors[field], message)
}

// Errors returns validation messages keyed by field name.
func (f *Form) Errors() map[string][]string {
	out := make(map[string][]string, len(f.errors))
	for key, messages := range f.errors {
		out[key] = append([]string(nil), messages...)
	}
	return out
}

// FieldErrors returns the messages for one field.
func (f *Form) FieldErrors(name string) []string {
	return append([]string(nil), f.errors[name]...)
}

// Cleaned returns the typed values produced by validation.
func (f *Form) Cleaned() map[string]any {
	out := make(map[string]any, len(f.cleaned))
	for key, value := range f.cleaned {
		out[key] = value
	}
	return out
}

// Save writes cleaned values and stamps onto the instance and persists it.
// Instances without a primary key are created, the rest updated.
func (f *Form) Save(ctx context.Context) (*model.Object, error) {
	if !f.checked || len(f.errors) > 0 {
		return nil, fmt.Errorf("forms: cannot save an invalid or unvalidated form for %s", f.Model.Qualified())
	}
	if f.store == nil {
		return nil, fmt.Errorf("forms: no store configured for %s", f.Model.Qualified())
	}

	obj := f.Instance.Clone()
	if obj == nil {
		obj = model.NewObject(f.Model, 0, nil)
	}
	for name, value := range f.cleaned {
		if err := obj.Set(name, value); err != nil {
			return nil, fmt.Errorf("forms: save: %w", err)
		}
	}
	for name, value := range f.stamps {
		if err := obj.Set(name, value); err != nil {
			return nil, fmt.Errorf("forms: save: %w", err)
		}
	}

	var err error
	if obj.PK == 0 {
		err = f.store.Create(ctx, obj)
	} else {
		err = f.store.Update(ctx, obj)
	}
	if err != nil {
		return nil, fmt.Errorf("forms: save %s: %w", f.Model.Qualified(), err)
	}
	f.Instance = obj.Clone()
	return obj, nil
}
