package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func columnNames(m *model.Model) []string {
	fields := m.AllFields()
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, field.Name)
	}
	return out
}

func selectClause(m *model.Model) string {
	cols := append([]string{model.PrimaryKey}, columnNames(m)...)
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	return "SELECT " + strings.Join(quoted, ", ") + " FROM " + pq.QuoteIdentifier(m.Table())
}

// whereClause renders filter constraints in a stable order, starting at
// placeholder $start.
func whereClause(m *model.Model, filter store.Filter, start int) (string, []any, error) {
	if err := filter.Validate(m); err != nil {
		return "", nil, err
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		parts = append(parts, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(key), start+i))
		args = append(args, filter[key])
	}
	return strings.Join(parts, " AND "), args, nil
}

func queryList(ctx context.Context, db executor, m *model.Model, filter store.Filter) ([]*model.Object, error) {
	where, args, err := whereClause(m, filter, 1)
	if err != nil {
		return nil, err
	}
	query := selectClause(m)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + pq.QuoteIdentifier(model.PrimaryKey)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", m.Qualified(), err)
	}
	defer rows.Close()

	out := []*model.Object{}
	for rows.Next() {
		obj, err := scanObject(rows, m)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", m.Qualified(), err)
	}
	return out, nil
}

func queryGet(ctx context.Context, db executor, m *model.Model, pk int64, filter store.Filter) (*model.Object, error) {
	where, args, err := whereClause(m, filter, 2)
	if err != nil {
		return nil, err
	}
	query := selectClause(m) + " WHERE " + pq.QuoteIdentifier(model.PrimaryKey) + " = $1"
	if where != "" {
		query += " AND " + where
	}

	row := db.QueryRowContext(ctx, query, append([]any{pk}, args...)...)
	obj, err := scanObject(row, m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", store.ErrNotFound, m.Qualified(), pk)
	}
	return obj, err
}

func queryCreate(ctx context.Context, db executor, obj *model.Object) error {
	m := obj.Model
	cols := columnNames(m)
	values := obj.Values()

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}

	query := "INSERT INTO " + pq.QuoteIdentifier(m.Table())
	if len(cols) == 0 {
		query += " DEFAULT VALUES"
	} else {
		query += " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " RETURNING " + pq.QuoteIdentifier(model.PrimaryKey)

	var pk int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&pk); err != nil {
		return fmt.Errorf("postgres: create %s: %w", m.Qualified(), err)
	}
	obj.PK = pk
	return nil
}

func queryUpdate(ctx context.Context, db executor, obj *model.Object) error {
	m := obj.Model
	cols := columnNames(m)
	if len(cols) == 0 {
		return nil
	}
	values := obj.Values()

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), i+1)
		args = append(args, values[col])
	}
	args = append(args, obj.PK)

	query := "UPDATE " + pq.QuoteIdentifier(m.Table()) + " SET " + strings.Join(sets, ", ") +
		fmt.Sprintf(" WHERE %s = $%d", pq.QuoteIdentifier(model.PrimaryKey), len(cols)+1)

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update %s: %w", m.Qualified(), err)
	}
	return expectAffected(res, m, obj.PK)
}

func queryDelete(ctx context.Context, db executor, m *model.Model, pk int64) error {
	query := "DELETE FROM " + pq.QuoteIdentifier(m.Table()) + " WHERE " + pq.QuoteIdentifier(model.PrimaryKey) + " = $1"
	res, err := db.ExecContext(ctx, query, pk)
	if err != nil {
		return fmt.Errorf("postgres: delete %s: %w", m.Qualified(), err)
	}
	return expectAffected(res, m, pk)
}

func expectAffected(res sql.Result, m *model.Model, pk int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", store.ErrNotFound, m.Qualified(), pk)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner, m *model.Model) (*model.Object, error) {
	cols := columnNames(m)
	raw := make([]any, len(cols)+1)
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: scan %s: %w", m.Qualified(), err)
	}

	pk, ok := model.AsInt64(raw[0])
	if !ok {
		return nil, fmt.Errorf("postgres: scan %s: unexpected primary key %T", m.Qualified(), raw[0])
	}
	values := make(map[string]any, len(cols))
	for i, col := range cols {
		values[col] = normalizeValue(raw[i+1])
	}
	return model.NewObject(m, pk, values), nil
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
