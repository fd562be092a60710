package presentation

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/widgets"
)

// WidgetRenderer renders the input markup of one form field.
type WidgetRenderer func(ctx context.Context, form *forms.Form, field *forms.Field) (string, error)

// RegisterWidget adds or replaces the renderer for a widget name.
func (h *Helpers) RegisterWidget(name string, renderer WidgetRenderer) {
	if name = strings.TrimSpace(name); name == "" || renderer == nil {
		return
	}
	h.widgets[name] = renderer
}

func defaultWidgets(h *Helpers) map[string]WidgetRenderer {
	return map[string]WidgetRenderer{
		widgets.WidgetText:        inputWidget("text"),
		widgets.WidgetNumber:      inputWidget("number"),
		widgets.WidgetTextarea:    textareaWidget,
		widgets.WidgetCheckbox:    checkboxWidget,
		widgets.WidgetSelect:      selectWidget,
		widgets.WidgetOwnerSelect: h.ownerSelectWidget,
	}
}

func fieldID(form *forms.Form, field *forms.Field) string {
	return "id_" + form.HTMLName(field.Name)
}

func requiredAttr(field *forms.Field) string {
	if field.Required && field.Kind != forms.BooleanField {
		return " required"
	}
	return ""
}

func inputValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func inputWidget(kind string) WidgetRenderer {
	return func(_ context.Context, form *forms.Form, field *forms.Field) (string, error) {
		return fmt.Sprintf(`<input type="%s" name="%s" id="%s" value="%s"%s>`,
			kind,
			html.EscapeString(form.HTMLName(field.Name)),
			html.EscapeString(fieldID(form, field)),
			html.EscapeString(inputValue(form.Value(field.Name))),
			requiredAttr(field),
		), nil
	}
}

func textareaWidget(_ context.Context, form *forms.Form, field *forms.Field) (string, error) {
	return fmt.Sprintf(`<textarea name="%s" id="%s"%s>%s</textarea>`,
		html.EscapeString(form.HTMLName(field.Name)),
		html.EscapeString(fieldID(form, field)),
		requiredAttr(field),
		html.EscapeString(inputValue(form.Value(field.Name))),
	), nil
}

func checkboxWidget(_ context.Context, form *forms.Form, field *forms.Field) (string, error) {
	checked := ""
	switch v := form.Value(field.Name).(type) {
	case bool:
		if v {
			checked = " checked"
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "true", "1", "yes", "y":
			checked = " checked"
		}
	}
	return fmt.Sprintf(`<input type="checkbox" name="%s" id="%s"%s>`,
		html.EscapeString(form.HTMLName(field.Name)),
		html.EscapeString(fieldID(form, field)),
		checked,
	), nil
}

func selectWidget(ctx context.Context, form *forms.Form, field *forms.Field) (string, error) {
	choices, err := field.Choices(ctx)
	if err != nil {
		return "", err
	}
	selected := inputValue(form.Value(field.Name))

	var b strings.Builder
	fmt.Fprintf(&b, `<select name="%s" id="%s"%s>`,
		html.EscapeString(form.HTMLName(field.Name)),
		html.EscapeString(fieldID(form, field)),
		requiredAttr(field),
	)
	b.WriteString(`<option value="">---------</option>`)
	for _, choice := range choices {
		value := strconv.FormatInt(choice.Value, 10)
		attr := ""
		if value == selected {
			attr = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, value, attr, html.EscapeString(choice.Label))
	}
	b.WriteString("</select>")
	return b.String(), nil
}

// ownerSelectWidget is a select followed by an add link to the target model's
// create view, when that view exists.
func (h *Helpers) ownerSelectWidget(ctx context.Context, form *forms.Form, field *forms.Field) (string, error) {
	out, err := selectWidget(ctx, form, field)
	if err != nil {
		return "", err
	}
	if field.AddURL != "" {
		out += h.AddLink(field.AddURL)
	}
	return out, nil
}

// OwnerSelect renders a model choice field with the owner select widget.
func (h *Helpers) OwnerSelect(ctx context.Context, form *forms.Form, field *forms.Field) (string, error) {
	return h.ownerSelectWidget(ctx, form, field)
}

// Widget renders the input of one field, falling back to a text input for
// unknown widget names.
func (h *Helpers) Widget(ctx context.Context, form *forms.Form, field *forms.Field) (string, error) {
	renderer, ok := h.widgets[field.Widget]
	if !ok {
		if field.Kind == forms.ModelChoiceField {
			renderer = selectWidget
		} else {
			renderer = inputWidget("text")
		}
	}
	out, err := renderer(ctx, form, field)
	if err != nil {
		return "", fmt.Errorf("presentation: widget %q for %s: %w", field.Widget, field.Name, err)
	}
	return out, nil
}

func errorList(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="errorlist">`)
	for _, msg := range messages {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(msg))
	}
	b.WriteString("</ul>")
	return b.String()
}

// RenderForm renders form errors and one paragraph per field.
func (h *Helpers) RenderForm(ctx context.Context, form *forms.Form) (string, error) {
	var b strings.Builder
	b.WriteString(errorList(form.FieldErrors(forms.NonFieldErrors)))
	for _, field := range form.Fields() {
		widget, err := h.Widget(ctx, form, field)
		if err != nil {
			return "", err
		}
		b.WriteString(errorList(form.FieldErrors(field.Name)))
		fmt.Fprintf(&b, `<p><label for="%s">%s:</label> %s`,
			html.EscapeString(fieldID(form, field)),
			html.EscapeString(field.Label),
			widget,
		)
		if field.Help != "" {
			fmt.Fprintf(&b, ` <span class="helptext">%s</span>`, html.EscapeString(field.Help))
		}
		b.WriteString("</p>")
	}
	return b.String(), nil
}

// RenderFormset renders the management inputs, every row with a delete box
// for existing rows, and the empty row inside a <template> element that
// client-side code clones by replacing "__prefix__".
func (h *Helpers) RenderFormset(ctx context.Context, fs *forms.Formset) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="inline-group" data-prefix="%s">`, html.EscapeString(fs.Prefix))
	fmt.Fprintf(&b, "<h4>%s</h4>", html.EscapeString(model.Capitalize(fs.Factory.Child.PluralName())))

	management := fs.Management()
	keys := make([]string, 0, len(management))
	for key := range management {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, `<input type="hidden" name="%s" id="id_%s" value="%s">`,
			html.EscapeString(key), html.EscapeString(key), html.EscapeString(management[key]))
	}

	for idx, form := range fs.Forms {
		body, err := h.RenderForm(ctx, form)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `<div class="inline-form" id="%s">%s`, html.EscapeString(form.Prefix), body)
		if name, value, ok := fs.RowID(idx); ok {
			fmt.Fprintf(&b, `<input type="hidden" name="%s" id="id_%s" value="%s">`,
				html.EscapeString(name), html.EscapeString(name), html.EscapeString(value))
		}
		if fs.IsInitial(idx) {
			name := form.HTMLName(forms.DeleteKey)
			fmt.Fprintf(&b, `<p><label for="id_%s">Delete:</label> <input type="checkbox" name="%s" id="id_%s"></p>`,
				html.EscapeString(name), html.EscapeString(name), html.EscapeString(name))
		}
		b.WriteString("</div>")
	}

	if fs.Empty != nil {
		body, err := h.RenderForm(ctx, fs.Empty)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `<template id="%s-empty"><div class="inline-form">%s</div></template>`, html.EscapeString(fs.Prefix), body)
	}
	b.WriteString("</div>")
	return b.String(), nil
}
