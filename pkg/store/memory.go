package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-crudgen/pkg/model"
)

// Memory is a Store kept in process memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	next int64
	rows map[int64]*model.Object
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memoryTable)}
}

func (s *Memory) table(m *model.Model) *memoryTable {
	key := m.Table()
	tbl, ok := s.tables[key]
	if !ok {
		tbl = &memoryTable{rows: make(map[int64]*model.Object)}
		s.tables[key] = tbl
	}
	return tbl
}

func (s *Memory) List(ctx context.Context, m *model.Model, filter Filter) ([]*model.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Validate(m); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tbl, ok := s.tables[m.Table()]
	if !ok {
		return []*model.Object{}, nil
	}
	out := make([]*model.Object, 0, len(tbl.rows))
	for _, obj := range tbl.rows {
		if Matches(obj, filter) {
			out = append(out, obj.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PK < out[j].PK })
	return out, nil
}

func (s *Memory) Get(ctx context.Context, m *model.Model, pk int64, filter Filter) (*model.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Validate(m); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tbl, ok := s.tables[m.Table()]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, m.Qualified(), pk)
	}
	obj, ok := tbl.rows[pk]
	if !ok || !Matches(obj, filter) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, m.Qualified(), pk)
	}
	return obj.Clone(), nil
}

func (s *Memory) Create(ctx context.Context, obj *model.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj == nil || obj.Model == nil {
		return fmt.Errorf("store: object is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(obj.Model)
	if obj.PK <= 0 {
		tbl.next++
		obj.PK = tbl.next
	} else if _, exists := tbl.rows[obj.PK]; exists {
		return fmt.Errorf("store: %s %d already exists", obj.Model.Qualified(), obj.PK)
	} else if obj.PK > tbl.next {
		tbl.next = obj.PK
	}
	tbl.rows[obj.PK] = obj.Clone()
	return nil
}

func (s *Memory) Update(ctx context.Context, obj *model.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj == nil || obj.Model == nil {
		return fmt.Errorf("store: object is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.tables[obj.Model.Table()]
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrNotFound, obj.Model.Qualified(), obj.PK)
	}
	if _, exists := tbl.rows[obj.PK]; !exists {
		return fmt.Errorf("%w: %s %d", ErrNotFound, obj.Model.Qualified(), obj.PK)
	}
	tbl.rows[obj.PK] = obj.Clone()
	return nil
}

func (s *Memory) Delete(ctx context.Context, m *model.Model, pk int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.tables[m.Table()]
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrNotFound, m.Qualified(), pk)
	}
	if _, exists := tbl.rows[pk]; !exists {
		return fmt.Errorf("%w: %s %d", ErrNotFound, m.Qualified(), pk)
	}
	delete(tbl.rows, pk)
	return nil
}
