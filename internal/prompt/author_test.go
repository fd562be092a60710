package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudgen/pkg/config"
)

type stubDriver struct {
	inputs     []string
	selectIdx  []int
	multiIdx   [][]int
	confirm    []bool
	info       []string
	inputPos   int
	selectPos  int
	multiPos   int
	confirmPos int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func TestAuthorModelCollectsFieldsAndOptions(t *testing.T) {
	driver := &stubDriver{
		// model name, field 1, field 2, fk target, end of fields, exclude
		inputs:    []string{"Order", "reference", "customer", "shop.customer", "", "notes, internal"},
		selectIdx: []int{0, 5, 1},
		confirm:   []bool{true, false},
		multiIdx:  [][]int{{0, 1}},
	}

	draft, err := AuthorModel(context.Background(), driver, "shop")
	if err != nil {
		t.Fatalf("author: %v", err)
	}

	want := config.Draft{
		App:  "shop",
		Name: "Order",
		Fields: []config.DraftField{
			{Name: "reference", Type: "string", Required: true},
			{Name: "customer", Type: "fk", Target: "shop.customer"},
		},
		CRUD: map[string]any{
			"actions":   []string{"create", "update"},
			"exclude":   []string{"notes", "internal"},
			"owner_ref": "customer",
		},
	}
	if diff := cmp.Diff(want, draft); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
	if _, err := config.EncodeYAML(draft); err != nil {
		t.Fatalf("authored draft does not encode: %v", err)
	}
}

func TestAuthorModelKeepsDefaultsImplicit(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Tag", "label", "", ""},
		selectIdx: []int{0},
		confirm:   []bool{false},
		multiIdx:  [][]int{{0, 1, 2}},
	}
	draft, err := AuthorModel(context.Background(), driver, "notes")
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	if draft.CRUD != nil {
		t.Fatalf("expected no crud block, got %#v", draft.CRUD)
	}
	if driver.selectPos != 1 {
		t.Fatalf("owner prompt shown without foreign keys")
	}
}

func TestAuthorModelsLoopsUntilDeclined(t *testing.T) {
	driver := &stubDriver{
		inputs:   []string{"Tag", "", "", "Note", "", ""},
		confirm:  []bool{true, false},
		multiIdx: [][]int{{0, 1, 2}, {0, 1, 2}},
	}
	drafts, err := AuthorModels(context.Background(), driver, "notes")
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	var names []string
	for _, draft := range drafts {
		names = append(names, draft.Name)
	}
	if diff := cmp.Diff([]string{"Tag", "Note"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthorModelRequiresName(t *testing.T) {
	driver := &stubDriver{inputs: []string{"  "}}
	if _, err := AuthorModel(context.Background(), driver, "notes"); err == nil {
		t.Fatal("expected validation error for blank model name")
	}
}
