package testsupport

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// Catalog is a small owner-scoped domain shared by package tests: accounts
// own tags, notes and items; a profile links a requester to an account; notes
// carry items edited inline.
type Catalog struct {
	Models  *model.Registry
	Account *model.Model
	Profile *model.Model
	Tag     *model.Model
	Note    *model.Model
	Item    *model.Model
}

// OwnerRef is the owner field shared by the owned catalog models.
const OwnerRef = "account"

// NewCatalog registers the catalog models. Note declares inline items, so
// route generation needs inline support.
func NewCatalog(t *testing.T) *Catalog {
	t.Helper()

	c := &Catalog{Models: model.NewRegistry()}
	c.Account = &model.Model{App: "accounts", Name: "Account", Fields: []model.Field{
		{Name: "name", Type: model.FieldTypeString, Required: true},
	}, Options: options.New(options.WithActions())}
	c.Profile = &model.Model{App: "accounts", Name: "Profile", Fields: []model.Field{
		{Name: "name", Type: model.FieldTypeString},
		{Name: OwnerRef, Type: model.FieldTypeForeignKey, Target: "accounts.account"},
	}, Options: options.New(options.WithActions())}
	owned := &model.Model{App: "notes", Name: "Owned", Abstract: true, Fields: []model.Field{
		{Name: OwnerRef, Type: model.FieldTypeForeignKey, Target: "accounts.account"},
	}, Options: options.New(options.WithOwnerRef(OwnerRef))}
	c.Tag = &model.Model{App: "notes", Name: "Tag", Parents: []*model.Model{owned}, Fields: []model.Field{
		{Name: "name", Type: model.FieldTypeString, Required: true},
	}}
	c.Note = &model.Model{App: "notes", Name: "Note", Parents: []*model.Model{owned}, Fields: []model.Field{
		{Name: "title", Type: model.FieldTypeString, Required: true},
		{Name: "secret", Type: model.FieldTypeString},
		{Name: "tag", Type: model.FieldTypeForeignKey, Target: "tag"},
	}, Options: options.New(
		options.WithExclude("secret"),
		options.WithInlines(options.Inline("item")),
	)}
	c.Item = &model.Model{App: "notes", Name: "Item", Parents: []*model.Model{owned}, Fields: []model.Field{
		{Name: "note", Type: model.FieldTypeForeignKey, Target: "note"},
		{Name: "label", Type: model.FieldTypeString, Required: true},
		{Name: "tag", Type: model.FieldTypeForeignKey, Target: "tag"},
	}, Options: options.New(options.WithActions())}

	if err := c.Models.Register(owned, c.Account, c.Profile, c.Tag, c.Note, c.Item); err != nil {
		t.Fatalf("register catalog: %v", err)
	}
	return c
}

// Seed stores a new object and returns it.
func Seed(t *testing.T, s store.Store, m *model.Model, values map[string]any) *model.Object {
	t.Helper()
	obj := model.NewObject(m, 0, values)
	if err := s.Create(context.Background(), obj); err != nil {
		t.Fatalf("seed %s: %v", m.Qualified(), err)
	}
	return obj
}

// Published is one event captured by Recorder.
type Published struct {
	Topic string
	Event any
}

// Recorder is an events.Publisher keeping every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(ctx context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns the captured events in publish order.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Topics returns the captured topics in publish order.
func (r *Recorder) Topics() []string {
	var out []string
	for _, event := range r.Events() {
		out = append(out, event.Topic)
	}
	return out
}

// MustReadGoldenString reads a golden file and returns its content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}
