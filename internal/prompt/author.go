package prompt

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/config"
	"github.com/goliatone/go-crudgen/pkg/options"
)

// FieldTypes lists the field types offered while authoring, in the order
// they are shown.
var FieldTypes = []string{"string", "text", "integer", "float", "boolean", "fk"}

var actionNames = []string{string(options.ActionCreate), string(options.ActionUpdate), string(options.ActionDelete)}

const noOwner = "(none)"

func required(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a value is required")
	}
	return nil
}

// AuthorModels asks for model declarations until the user declines to add
// another one.
func AuthorModels(ctx context.Context, d Driver, app string) ([]config.Draft, error) {
	var drafts []config.Draft
	for {
		draft, err := AuthorModel(ctx, d, app)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
		more, err := d.Confirm(ctx, ConfirmConfig{Message: "Add another model?"})
		if err != nil {
			return nil, err
		}
		if !more {
			return drafts, nil
		}
	}
}

// AuthorModel asks for one model: its name, fields and CRUD options. Only
// options differing from the defaults end up in the draft.
func AuthorModel(ctx context.Context, d Driver, app string) (config.Draft, error) {
	name, err := d.Input(ctx, InputConfig{Message: "Model name", Validator: required})
	if err != nil {
		return config.Draft{}, err
	}
	draft := config.Draft{App: app, Name: strings.TrimSpace(name)}

	if err := d.Info(ctx, "Add fields, leave the name empty to finish."); err != nil {
		return config.Draft{}, err
	}
	var foreignKeys []string
	for {
		field, ok, err := authorField(ctx, d)
		if err != nil {
			return config.Draft{}, err
		}
		if !ok {
			break
		}
		if field.Type == "fk" {
			foreignKeys = append(foreignKeys, field.Name)
		}
		draft.Fields = append(draft.Fields, field)
	}

	crud := map[string]any{}
	picked, err := d.MultiSelect(ctx, SelectConfig{
		Message:  "Enabled actions",
		Options:  actionNames,
		Defaults: []int{0, 1, 2},
	})
	if err != nil {
		return config.Draft{}, err
	}
	if len(picked) != len(actionNames) {
		actions := make([]string, 0, len(picked))
		for _, idx := range picked {
			actions = append(actions, actionNames[idx])
		}
		crud[string(options.KeyActions)] = actions
	}

	exclude, err := d.Input(ctx, InputConfig{Message: "Excluded fields (comma separated)"})
	if err != nil {
		return config.Draft{}, err
	}
	if names := splitList(exclude); len(names) > 0 {
		crud[string(options.KeyExclude)] = names
	}

	if len(foreignKeys) > 0 {
		choices := append([]string{noOwner}, foreignKeys...)
		idx, err := d.Select(ctx, SelectConfig{
			Message: "Scope records by owner field",
			Options: choices,
			Help:    "Requests only see records whose owner field matches the requester's owner.",
		})
		if err != nil {
			return config.Draft{}, err
		}
		if idx > 0 && idx < len(choices) {
			crud[string(options.KeyOwnerRef)] = choices[idx]
		}
	}

	if len(crud) > 0 {
		draft.CRUD = crud
	}
	return draft, nil
}

func authorField(ctx context.Context, d Driver) (config.DraftField, bool, error) {
	name, err := d.Input(ctx, InputConfig{Message: "Field name"})
	if err != nil {
		return config.DraftField{}, false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return config.DraftField{}, false, nil
	}
	field := config.DraftField{Name: name}

	idx, err := d.Select(ctx, SelectConfig{Message: "Type of " + name, Options: FieldTypes})
	if err != nil {
		return config.DraftField{}, false, err
	}
	if idx >= 0 && idx < len(FieldTypes) {
		field.Type = FieldTypes[idx]
	}
	if field.Type == "fk" {
		target, err := d.Input(ctx, InputConfig{
			Message:   "Target model of " + name,
			Help:      `A model name such as "account" or "accounts.account".`,
			Validator: required,
		})
		if err != nil {
			return config.DraftField{}, false, err
		}
		field.Target = strings.TrimSpace(target)
	}

	field.Required, err = d.Confirm(ctx, ConfirmConfig{Message: "Is " + name + " required?"})
	if err != nil {
		return config.DraftField{}, false, err
	}
	return field, true, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
