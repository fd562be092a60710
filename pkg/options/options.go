package options

import (
	"fmt"
	"slices"
	"strings"
)

// Action identifies a CRUD action that can be toggled per model. Listing and
// detail views are always available and therefore have no Action value.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Key names one of the recognised option keys.
type Key string

const (
	KeyActions      Key = "actions"
	KeyExclude      Key = "exclude"
	KeyInlineModels Key = "inline_models"
	KeyOwnerRef     Key = "owner_ref"
	KeyFormClass    Key = "form_class"
)

// Keys lists the recognised option keys in declaration order.
var Keys = []Key{KeyActions, KeyExclude, KeyInlineModels, KeyOwnerRef, KeyFormClass}

var actionOrder = []Action{ActionCreate, ActionUpdate, ActionDelete}

// ParseAction normalises a textual action name.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionCreate:
		return ActionCreate, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("options: unknown action %q", raw)
	}
}

// ActionSet is an ordered, duplicate free set of actions.
type ActionSet []Action

// NewActionSet builds a set in canonical order (create, update, delete).
func NewActionSet(actions ...Action) ActionSet {
	out := make(ActionSet, 0, len(actions))
	for _, candidate := range actionOrder {
		if slices.Contains(actions, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// Has reports whether the action is enabled.
func (s ActionSet) Has(action Action) bool {
	return slices.Contains(s, action)
}

// Strings returns the action names.
func (s ActionSet) Strings() []string {
	out := make([]string, len(s))
	for i, action := range s {
		out[i] = string(action)
	}
	return out
}

// InlineSpec declares a child model edited together with its parent. Model is
// a symbolic model name ("note" or "app.note"). The remaining fields are
// per-entry overrides; Attrs keeps any extra attributes verbatim.
type InlineSpec struct {
	Model     string         `json:"model" yaml:"model" toml:"model"`
	FormClass string         `json:"form_class,omitempty" yaml:"form_class,omitempty" toml:"form_class,omitempty"`
	FKName    string         `json:"fk_name,omitempty" yaml:"fk_name,omitempty" toml:"fk_name,omitempty"`
	Extra     int            `json:"extra,omitempty" yaml:"extra,omitempty" toml:"extra,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty" toml:"attrs,omitempty"`
}

// Inline returns a bare inline reference to the named model.
func Inline(model string) InlineSpec {
	return InlineSpec{Model: strings.TrimSpace(model)}
}

func (s InlineSpec) clone() InlineSpec {
	out := s
	if len(s.Attrs) > 0 {
		out.Attrs = make(map[string]any, len(s.Attrs))
		for key, value := range s.Attrs {
			out.Attrs[key] = value
		}
	}
	return out
}

// Options is a declared option block. Only keys that were explicitly set take
// part in inheritance; a key set to an empty value still overrides ancestors.
type Options struct {
	actions   []Action
	exclude   []string
	inlines   []InlineSpec
	ownerRef  string
	formClass string
	set       map[Key]bool
}

// Option mutates a declared option block.
type Option func(*Options)

// New declares an option block.
func New(opts ...Option) Options {
	out := Options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&out)
	}
	return out
}

func (o *Options) mark(key Key) {
	if o.set == nil {
		o.set = make(map[Key]bool, len(Keys))
	}
	o.set[key] = true
}

// WithActions enables exactly the supplied actions.
func WithActions(actions ...Action) Option {
	return func(o *Options) {
		o.actions = append([]Action(nil), actions...)
		o.mark(KeyActions)
	}
}

// WithExclude hides the named fields from generated forms and tables.
func WithExclude(fields ...string) Option {
	return func(o *Options) {
		o.exclude = trimAll(fields)
		o.mark(KeyExclude)
	}
}

// WithInlines declares child models edited alongside the parent.
func WithInlines(inlines ...InlineSpec) Option {
	return func(o *Options) {
		o.inlines = make([]InlineSpec, 0, len(inlines))
		for _, inline := range inlines {
			o.inlines = append(o.inlines, inline.clone())
		}
		o.mark(KeyInlineModels)
	}
}

// WithOwnerRef names the field scoping records to the requesting owner. An
// empty name explicitly disables owner scoping inherited from ancestors.
func WithOwnerRef(field string) Option {
	return func(o *Options) {
		o.ownerRef = strings.TrimSpace(field)
		o.mark(KeyOwnerRef)
	}
}

// WithFormClass names a registered form class used instead of the derived one.
func WithFormClass(name string) Option {
	return func(o *Options) {
		o.formClass = strings.TrimSpace(name)
		o.mark(KeyFormClass)
	}
}

// IsSet reports whether the key was declared on this block.
func (o Options) IsSet(key Key) bool {
	return o.set[key]
}

// Resolved is the final option set governing a model.
type Resolved struct {
	Actions   ActionSet
	Exclude   []string
	Inlines   []InlineSpec
	OwnerRef  string
	FormClass string
}

// Defaults returns the option set used when nothing is declared anywhere.
func Defaults() Resolved {
	return Resolved{
		Actions: NewActionSet(actionOrder...),
		Exclude: []string{},
		Inlines: []InlineSpec{},
	}
}

// Resolve merges a local block with its ancestors, closest ancestor first.
// Each key takes the local value when declared, otherwise the value of the
// nearest ancestor declaring it, otherwise the default.
func Resolve(local Options, ancestors ...Options) Resolved {
	resolved := Defaults()
	layers := make([]Options, 0, len(ancestors)+1)
	layers = append(layers, local)
	layers = append(layers, ancestors...)

	for _, key := range Keys {
		for _, layer := range layers {
			if !layer.IsSet(key) {
				continue
			}
			layer.apply(key, &resolved)
			break
		}
	}
	return resolved
}

func (o Options) apply(key Key, target *Resolved) {
	switch key {
	case KeyActions:
		target.Actions = NewActionSet(o.actions...)
	case KeyExclude:
		target.Exclude = append([]string{}, o.exclude...)
	case KeyInlineModels:
		target.Inlines = make([]InlineSpec, 0, len(o.inlines))
		for _, inline := range o.inlines {
			target.Inlines = append(target.Inlines, inline.clone())
		}
	case KeyOwnerRef:
		target.OwnerRef = o.ownerRef
	case KeyFormClass:
		target.FormClass = o.formClass
	}
}

// Has reports whether the action is enabled.
func (r Resolved) Has(action Action) bool { return r.Actions.Has(action) }

func (r Resolved) HasCreate() bool { return r.Has(ActionCreate) }
func (r Resolved) HasUpdate() bool { return r.Has(ActionUpdate) }
func (r Resolved) HasDelete() bool { return r.Has(ActionDelete) }

// Excludes reports whether the field is listed in Exclude.
func (r Resolved) Excludes(field string) bool {
	return slices.Contains(r.Exclude, field)
}

// Hidden reports whether a field is kept out of generated forms and tables,
// either because it is excluded or because it is the owner reference.
func (r Resolved) Hidden(field string) bool {
	return r.Excludes(field) || (r.OwnerRef != "" && r.OwnerRef == field)
}

// OwnerScoped reports whether records are filtered by owner.
func (r Resolved) OwnerScoped() bool { return r.OwnerRef != "" }

// Clone returns a deep copy so callers cannot mutate a cached set.
func (r Resolved) Clone() Resolved {
	out := Resolved{
		Actions:   append(ActionSet(nil), r.Actions...),
		Exclude:   append([]string{}, r.Exclude...),
		Inlines:   make([]InlineSpec, 0, len(r.Inlines)),
		OwnerRef:  r.OwnerRef,
		FormClass: r.FormClass,
	}
	for _, inline := range r.Inlines {
		out.Inlines = append(out.Inlines, inline.clone())
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
