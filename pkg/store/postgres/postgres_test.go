package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func noteModel() *model.Model {
	return &model.Model{
		App:  "notes",
		Name: "Note",
		Fields: []model.Field{
			{Name: "title", Type: model.FieldTypeString},
			{Name: "owner", Type: model.FieldTypeForeignKey, Target: "profile"},
		},
	}
}

var noteColumns = []string{"id", "title", "owner"}

func TestListAppliesFilterInStableOrder(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	m := noteModel()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "owner" FROM "notes_note" WHERE "owner" = $1 AND "title" = $2 ORDER BY "id"`)).
		WithArgs(int64(7), "hello").
		WillReturnRows(sqlmock.NewRows(noteColumns).AddRow(int64(1), []byte("hello"), int64(7)))

	objs, err := s.List(context.Background(), m, store.Filter{"title": "hello", "owner": int64(7)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}
	want := map[string]any{"title": "hello", "owner": int64(7)}
	if diff := cmp.Diff(want, objs[0].Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if objs[0].PK != 1 {
		t.Fatalf("expected pk 1, got %d", objs[0].PK)
	}
}

func TestListRejectsUnknownFilterField(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewWithDB(db)

	_, err := s.List(context.Background(), noteModel(), store.Filter{"missing": 1})
	if !errors.Is(err, model.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestGetScopedMissReturnsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "owner" FROM "notes_note" WHERE "id" = $1 AND "owner" = $2`)).
		WithArgs(int64(3), int64(9)).
		WillReturnRows(sqlmock.NewRows(noteColumns))

	_, err := s.Get(context.Background(), noteModel(), 3, store.Filter{"owner": int64(9)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAssignsReturnedPrimaryKey(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	m := noteModel()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notes_note" ("title", "owner") VALUES ($1, $2) RETURNING "id"`)).
		WithArgs("draft", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	obj := model.NewObject(m, 0, map[string]any{"title": "draft", "owner": int64(4)})
	if err := s.Create(context.Background(), obj); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if obj.PK != 12 {
		t.Fatalf("expected pk 12, got %d", obj.PK)
	}
}

func TestUpdateWithoutRowsReturnsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	m := noteModel()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notes_note" SET "title" = $1, "owner" = $2 WHERE "id" = $3`)).
		WithArgs("edited", int64(4), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	obj := model.NewObject(m, 5, map[string]any{"title": "edited", "owner": int64(4)})
	if err := s.Update(context.Background(), obj); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes_note" WHERE "id" = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), noteModel(), 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
