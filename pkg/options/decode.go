package options

import (
	"fmt"
	"strings"
)

// FromMap decodes a declared option block from a generic map, as produced by
// YAML, TOML or JSON decoders. Only the recognised keys are read; anything
// else is ignored. A nil owner_ref or form_class value counts as declared and
// empty.
func FromMap(raw map[string]any) (Options, error) {
	var opts []Option
	for key, value := range raw {
		switch Key(strings.TrimSpace(key)) {
		case KeyActions:
			names, err := stringList(key, value)
			if err != nil {
				return Options{}, err
			}
			actions := make([]Action, 0, len(names))
			for _, name := range names {
				action, err := ParseAction(name)
				if err != nil {
					return Options{}, err
				}
				actions = append(actions, action)
			}
			opts = append(opts, WithActions(actions...))
		case KeyExclude:
			names, err := stringList(key, value)
			if err != nil {
				return Options{}, err
			}
			opts = append(opts, WithExclude(names...))
		case KeyInlineModels:
			inlines, err := inlineList(value)
			if err != nil {
				return Options{}, err
			}
			opts = append(opts, WithInlines(inlines...))
		case KeyOwnerRef:
			name, err := optionalString(key, value)
			if err != nil {
				return Options{}, err
			}
			opts = append(opts, WithOwnerRef(name))
		case KeyFormClass:
			name, err := optionalString(key, value)
			if err != nil {
				return Options{}, err
			}
			opts = append(opts, WithFormClass(name))
		}
	}
	return New(opts...), nil
}

func stringList(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{v}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for idx, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("options: %s[%d] must be a string, got %T", key, idx, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("options: %s must be a list of strings, got %T", key, value)
	}
}

func optionalString(key string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("options: %s must be a string, got %T", key, value)
	}
}

func inlineList(value any) ([]InlineSpec, error) {
	var items []any
	switch v := value.(type) {
	case nil:
		return []InlineSpec{}, nil
	case []any:
		items = v
	case []map[string]any:
		for _, item := range v {
			items = append(items, item)
		}
	case []string:
		for _, item := range v {
			items = append(items, item)
		}
	default:
		return nil, fmt.Errorf("options: inline_models must be a list, got %T", value)
	}

	out := make([]InlineSpec, 0, len(items))
	for idx, item := range items {
		spec, err := decodeInline(item)
		if err != nil {
			return nil, fmt.Errorf("options: inline_models[%d]: %w", idx, err)
		}
		out = append(out, spec)
	}
	return out, nil
}

func decodeInline(item any) (InlineSpec, error) {
	switch v := item.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return InlineSpec{}, fmt.Errorf("model name is required")
		}
		return Inline(v), nil
	case map[string]any:
		return inlineFromAttrs(v)
	default:
		return InlineSpec{}, fmt.Errorf("expected a model name or attribute map, got %T", item)
	}
}

func inlineFromAttrs(attrs map[string]any) (InlineSpec, error) {
	spec := InlineSpec{}
	for key, value := range attrs {
		switch key {
		case "model":
			name, ok := value.(string)
			if !ok {
				return InlineSpec{}, fmt.Errorf("model must be a string, got %T", value)
			}
			spec.Model = strings.TrimSpace(name)
		case "form_class":
			name, ok := value.(string)
			if !ok {
				return InlineSpec{}, fmt.Errorf("form_class must be a string, got %T", value)
			}
			spec.FormClass = strings.TrimSpace(name)
		case "fk_name":
			name, ok := value.(string)
			if !ok {
				return InlineSpec{}, fmt.Errorf("fk_name must be a string, got %T", value)
			}
			spec.FKName = strings.TrimSpace(name)
		case "extra":
			extra, err := toInt(value)
			if err != nil {
				return InlineSpec{}, fmt.Errorf("extra: %w", err)
			}
			spec.Extra = extra
		default:
			if spec.Attrs == nil {
				spec.Attrs = make(map[string]any)
			}
			spec.Attrs[key] = value
		}
	}
	if spec.Model == "" {
		return InlineSpec{}, fmt.Errorf("model name is required")
	}
	return spec, nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}
