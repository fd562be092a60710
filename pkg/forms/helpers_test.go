package forms

import (
	"context"
	"strconv"
	"testing"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
	"github.com/goliatone/go-crudgen/pkg/store"
)

type fixture struct {
	models  *model.Registry
	store   *store.Memory
	profile *model.Model
	tag     *model.Model
	note    *model.Model
	item    *model.Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{models: model.NewRegistry(), store: store.NewMemory()}
	f.profile = &model.Model{App: "accounts", Name: "Profile", Fields: []model.Field{
		{Name: "name", Type: model.FieldTypeString},
	}}
	f.tag = &model.Model{App: "notes", Name: "Tag",
		Fields: []model.Field{
			{Name: "name", Type: model.FieldTypeString, Required: true},
			{Name: "owner", Type: model.FieldTypeForeignKey, Target: "profile"},
		},
		Options: options.New(options.WithOwnerRef("owner")),
	}
	f.note = &model.Model{App: "notes", Name: "Note",
		Fields: []model.Field{
			{Name: "title", Type: model.FieldTypeString, Required: true},
			{Name: "body", Type: model.FieldTypeText},
			{Name: "stars", Type: model.FieldTypeInteger},
			{Name: "pinned", Type: model.FieldTypeBoolean},
			{Name: "tag", Type: model.FieldTypeForeignKey, Target: "tag"},
			{Name: "owner", Type: model.FieldTypeForeignKey, Target: "profile"},
		},
		Options: options.New(options.WithOwnerRef("owner")),
	}
	f.item = &model.Model{App: "notes", Name: "Item", Fields: []model.Field{
		{Name: "note", Type: model.FieldTypeForeignKey, Target: "note"},
		{Name: "label", Type: model.FieldTypeString, Required: true},
	}}
	f.models.MustRegister(f.profile, f.tag, f.note, f.item)
	return f
}

func (f *fixture) create(t *testing.T, m *model.Model, values map[string]any) *model.Object {
	t.Helper()
	obj := model.NewObject(m, 0, values)
	if err := f.store.Create(context.Background(), obj); err != nil {
		t.Fatalf("create %s: %v", m.Qualified(), err)
	}
	return obj
}

func itoa(pk int64) string {
	return strconv.FormatInt(pk, 10)
}
