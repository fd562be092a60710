package main

import (
	"context"

	"github.com/goliatone/go-crudgen"
	"github.com/goliatone/go-crudgen/pkg/config"
	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/routes"
)

// fullInlineSupport is what the bundled server provides: formsets are built
// by pkg/forms and the formset script ships in the static files.
var fullInlineSupport = routes.Capabilities{InlineFormsets: true, DynamicFormsetJS: true}

func loadRegistry(path string) (*config.Declarations, *model.Registry, error) {
	decls, err := config.LoadPath(path)
	if err != nil {
		return nil, nil, err
	}
	reg := model.NewRegistry()
	if err := decls.Register(reg); err != nil {
		return nil, nil, err
	}
	return decls, reg, nil
}

// buildApp wires the declared models into an App with its own form registry.
func buildApp(ctx context.Context, path string, opts ...crudgen.Option) (*crudgen.App, error) {
	decls, reg, err := loadRegistry(path)
	if err != nil {
		return nil, err
	}
	base := []crudgen.Option{
		crudgen.WithForms(forms.NewRegistry()),
		crudgen.WithFormLoaders(decls.FormLoader()),
		crudgen.WithInlineSupport(fullInlineSupport),
	}
	return crudgen.New(ctx, reg, append(base, opts...)...)
}
