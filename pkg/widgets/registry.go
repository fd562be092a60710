package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText        = "text"
	WidgetTextarea    = "textarea"
	WidgetNumber      = "number"
	WidgetCheckbox    = "checkbox"
	WidgetSelect      = "select"
	WidgetOwnerSelect = "owner-select"
)

// Matcher decides whether a widget renderer should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for model fields based on registered matchers.
// Higher priority wins; ties fall back to registration order. Fields that no
// matcher claims render as WidgetText.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Default is the registry used by generated forms unless another is supplied.
var Default = NewRegistry()

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence; use a priority above the builtins to
// override them.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field model.Field) string {
	if r == nil {
		return WidgetText
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name
		}
	}
	return WidgetText
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetSelect, 90, func(field model.Field) bool {
		return field.Type == model.FieldTypeForeignKey
	})

	r.Register(WidgetCheckbox, 80, func(field model.Field) bool {
		return field.Type == model.FieldTypeBoolean
	})

	r.Register(WidgetNumber, 70, func(field model.Field) bool {
		return field.Type == model.FieldTypeInteger || field.Type == model.FieldTypeFloat
	})

	r.Register(WidgetTextarea, 60, func(field model.Field) bool {
		return field.Type == model.FieldTypeText
	})
}
