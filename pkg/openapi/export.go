package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/routes"
)

// Version is the OpenAPI version written to documents.
const Version = "3.0.3"

const (
	mediaHTML = "text/html"
	mediaForm = "application/x-www-form-urlencoded"
)

// Option configures the exported document.
type Option func(*config)

type config struct {
	title       string
	version     string
	description string
	servers     []string
}

// WithTitle sets info.title. Defaults to "crudgen".
func WithTitle(title string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			cfg.title = trimmed
		}
	}
}

// WithVersion sets info.version. Defaults to "0.0.0".
func WithVersion(version string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			cfg.version = trimmed
		}
	}
}

// WithDescription sets info.description.
func WithDescription(description string) Option {
	return func(cfg *config) { cfg.description = strings.TrimSpace(description) }
}

// WithServer appends a server URL.
func WithServer(url string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			cfg.servers = append(cfg.servers, trimmed)
		}
	}
}

// Build describes routes mounted under prefix. The document is validated
// before it is returned.
func Build(ctx context.Context, generated []routes.Route, prefix string, opts ...Option) (*openapi3.T, error) {
	cfg := config{title: "crudgen", version: "0.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       cfg.title,
			Version:     cfg.version,
			Description: cfg.description,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	for _, url := range cfg.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	for _, route := range generated {
		if route.Model == nil {
			return nil, fmt.Errorf("openapi: route %q has no model", route.Name)
		}
		name := SchemaName(route.Model)
		if _, ok := doc.Components.Schemas[name]; !ok {
			doc.Components.Schemas[name] = &openapi3.SchemaRef{Value: ModelSchema(route.Model)}
		}

		path := strings.TrimSuffix(route.Pattern(prefix), "{$}")
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		describeRoute(item, route, doc.Components.Schemas[name].Value, name)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}
	return doc, nil
}

// SchemaName returns the component name of a model's form schema.
func SchemaName(m *model.Model) string {
	return m.Table()
}

// ModelSchema describes the fields a model's generated form accepts. Hidden
// fields are left out; foreign keys are primary keys of the target model.
func ModelSchema(m *model.Model) *openapi3.Schema {
	crud := m.CRUD()
	schema := openapi3.NewObjectSchema()
	schema.Title = model.Capitalize(m.DisplayName())

	id := openapi3.NewInt64Schema()
	id.ReadOnly = true
	id.Min = openapi3.Float64Ptr(0)
	schema.WithProperty(model.PrimaryKey, id)

	for _, field := range m.AllFields() {
		if crud.Hidden(field.Name) {
			continue
		}
		property := fieldSchema(field)
		property.Title = model.FieldLabel(field)
		property.Description = field.Help
		schema.WithProperty(field.Name, property)
		if field.Required {
			schema.Required = append(schema.Required, field.Name)
		}
	}
	return schema
}

func fieldSchema(field model.Field) *openapi3.Schema {
	switch field.Type {
	case model.FieldTypeInteger:
		return openapi3.NewInt64Schema()
	case model.FieldTypeFloat:
		return openapi3.NewFloat64Schema()
	case model.FieldTypeBoolean:
		return openapi3.NewBoolSchema()
	case model.FieldTypeForeignKey:
		fk := openapi3.NewInt64Schema()
		fk.Min = openapi3.Float64Ptr(0)
		fk.Extensions = map[string]any{"x-crudgen-target": field.Target}
		return fk
	case model.FieldTypeText:
		schema := openapi3.NewStringSchema()
		schema.Extensions = map[string]any{"x-crudgen-widget": "textarea"}
		return schema
	default:
		return openapi3.NewStringSchema()
	}
}

func describeRoute(item *openapi3.PathItem, route routes.Route, schema *openapi3.Schema, schemaName string) {
	m := route.Model
	crud := m.CRUD()
	title := model.Capitalize(m.DisplayName())
	plural := model.Capitalize(m.PluralName())

	var params openapi3.Parameters
	if route.Kind.HasObject() {
		pk := openapi3.NewPathParameter(routes.PKParam).WithSchema(openapi3.NewInt64Schema())
		pk.Description = "Primary key of the " + m.DisplayName()
		params = openapi3.Parameters{{Value: pk}}
	}
	if crud.OwnerScoped() {
		override := openapi3.NewQueryParameter(crud.OwnerRef).WithSchema(openapi3.NewInt64Schema())
		override.Description = "Staff only: act for another " + crud.OwnerRef
		params = append(params, &openapi3.ParameterRef{Value: override})
	}

	get := newOperation(route, http.MethodGet, params)
	switch route.Kind {
	case routes.KindList:
		get.Summary = "List " + plural
	case routes.KindDetail:
		get.Summary = "Show a " + m.DisplayName()
	case routes.KindDelete:
		get.Summary = "Confirm deletion of a " + m.DisplayName()
	default:
		get.Summary = editSummary(route, title)
	}
	addResponse(get, http.StatusOK, htmlResponse("Rendered page"))
	item.Get = get

	if route.Kind == routes.KindList || route.Kind == routes.KindDetail {
		return
	}

	post := newOperation(route, http.MethodPost, params)
	addResponse(post, http.StatusFound, openapi3.NewResponse().WithDescription("Saved; redirects to the success URL"))
	if route.Kind == routes.KindDelete {
		post.Summary = "Delete a " + m.DisplayName()
	} else {
		post.Summary = "Submit: " + editSummary(route, title)
		body := openapi3.NewObjectSchema()
		body.Properties = openapi3.Schemas{}
		for name, property := range schema.Properties {
			if name == model.PrimaryKey {
				continue
			}
			body.Properties[name] = property
		}
		body.Required = append(body.Required, schema.Required...)
		body.WithProperty("success_url", openapi3.NewStringSchema())
		if len(route.Inlines) > 0 {
			// inline rows use prefixed keys such as item_set-0-label
			body.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(true)}
			body.Description = "Includes inline formset rows for " + inlineNames(route)
		}
		post.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithContent(openapi3.Content{mediaForm: openapi3.NewMediaType().WithSchema(body)})}
		post.Description = "Form fields follow the " + schemaName + " schema."
		addResponse(post, http.StatusOK, htmlResponse("Validation failed; the form is rendered again with errors"))
		if len(route.Inlines) > 0 {
			addResponse(post, http.StatusBadRequest, openapi3.NewResponse().WithDescription("Missing or malformed formset management data"))
		}
	}
	item.Post = post
}

func newOperation(route routes.Route, method string, params openapi3.Parameters) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = operationID(route, method)
	op.Tags = []string{route.Model.Qualified()}
	op.Parameters = params
	op.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusMethodNotAllowed,
		&openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Method not allowed")}))
	if route.Kind.HasObject() {
		addResponse(op, http.StatusNotFound, openapi3.NewResponse().WithDescription("No such record for the requester"))
	}
	if route.Model.CRUD().OwnerScoped() {
		addResponse(op, http.StatusFound, openapi3.NewResponse().WithDescription("Anonymous requesters are redirected to the login URL"))
		addResponse(op, http.StatusForbidden, openapi3.NewResponse().WithDescription("The requester has no owner"))
	}
	return op
}

// operationID is the route name, with a "_submit" suffix on POST.
func operationID(route routes.Route, method string) string {
	if method == http.MethodPost {
		return route.Name + "_submit"
	}
	return route.Name
}

func editSummary(route routes.Route, title string) string {
	verb := "Create"
	if route.Kind == routes.KindUpdate || route.Kind == routes.KindUpdateInlines {
		verb = "Update"
	}
	summary := verb + " " + strings.ToLower(title)
	if len(route.Inlines) > 0 {
		summary += " with " + inlineNames(route)
	}
	return summary
}

func inlineNames(route routes.Route) string {
	names := make([]string, 0, len(route.Inlines))
	for _, factory := range route.Inlines {
		names = append(names, factory.Child.PluralName())
	}
	return strings.Join(names, ", ")
}

func htmlResponse(description string) *openapi3.Response {
	return openapi3.NewResponse().
		WithDescription(description).
		WithContent(openapi3.Content{mediaHTML: openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())})
}

func addResponse(op *openapi3.Operation, status int, response *openapi3.Response) {
	op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: response})
}

// JSON renders the document as indented JSON.
func JSON(doc *openapi3.T) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: encode json: %w", err)
	}
	return append(out, '\n'), nil
}

// YAML renders the document as YAML.
func YAML(doc *openapi3.T) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode yaml: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("openapi: encode yaml: %w", err)
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode yaml: %w", err)
	}
	return out, nil
}
