package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crudgen/pkg/forms"
	"github.com/goliatone/go-crudgen/pkg/model"
	"github.com/goliatone/go-crudgen/pkg/options"
)

// ErrNoDeclarations is returned when a source holds no declaration file.
var ErrNoDeclarations = errors.New("config: no declarations found")

type documentFile struct {
	Models []modelFile `json:"models" yaml:"models" toml:"models"`
	Forms  []formFile  `json:"forms" yaml:"forms" toml:"forms"`
}

type modelFile struct {
	App               string         `json:"app" yaml:"app" toml:"app"`
	Name              string         `json:"name" yaml:"name" toml:"name"`
	VerboseName       string         `json:"verbose_name" yaml:"verbose_name" toml:"verbose_name"`
	VerboseNamePlural string         `json:"verbose_name_plural" yaml:"verbose_name_plural" toml:"verbose_name_plural"`
	Abstract          bool           `json:"abstract" yaml:"abstract" toml:"abstract"`
	Parents           []string       `json:"parents" yaml:"parents" toml:"parents"`
	Fields            []fieldFile    `json:"fields" yaml:"fields" toml:"fields"`
	CRUD              map[string]any `json:"crud" yaml:"crud" toml:"crud"`
}

type fieldFile struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type" yaml:"type" toml:"type"`
	Target   string `json:"target" yaml:"target" toml:"target"`
	Required bool   `json:"required" yaml:"required" toml:"required"`
	Label    string `json:"label" yaml:"label" toml:"label"`
	Help     string `json:"help" yaml:"help" toml:"help"`
}

type formFile struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Model   string            `json:"model" yaml:"model" toml:"model"`
	Fields  []string          `json:"fields" yaml:"fields" toml:"fields"`
	Exclude []string          `json:"exclude" yaml:"exclude" toml:"exclude"`
	Labels  map[string]string `json:"labels" yaml:"labels" toml:"labels"`
	Widgets map[string]string `json:"widgets" yaml:"widgets" toml:"widgets"`
	Help    map[string]string `json:"help" yaml:"help" toml:"help"`
}

// Declarations is the result of loading a set of declaration files. Models
// are linked to their parents but not registered yet.
type Declarations struct {
	Models  []*model.Model
	Forms   []*forms.Class
	Sources []string
}

type pendingModel struct {
	model   *model.Model
	parents []string
	source  string
}

// LoadPath loads a single declaration file or every declaration file below a
// directory.
func LoadPath(path string) (*Declarations, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if info.IsDir() {
		return LoadFS(os.DirFS(path))
	}
	return LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadFS walks fsys for .yaml, .yml, .toml and .json files and decodes them
// in lexical order. When names are given only those files are read.
func LoadFS(fsys fs.FS, names ...string) (*Declarations, error) {
	if fsys == nil {
		return nil, ErrNoDeclarations
	}
	if len(names) == 0 {
		err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() || !isDeclarationFile(path) {
				return nil
			}
			names = append(names, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("config: walk declarations: %w", err)
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		return nil, ErrNoDeclarations
	}

	decls := &Declarations{}
	var pending []pendingModel
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", name, err)
		}
		doc, err := parseDocument(data, name)
		if err != nil {
			return nil, err
		}
		for idx, raw := range doc.Models {
			m, err := normaliseModel(raw)
			if err != nil {
				return nil, fmt.Errorf("config: %s models[%d]: %w", name, idx, err)
			}
			pending = append(pending, pendingModel{model: m, parents: raw.Parents, source: name})
		}
		for idx, raw := range doc.Forms {
			class, err := normaliseForm(raw)
			if err != nil {
				return nil, fmt.Errorf("config: %s forms[%d]: %w", name, idx, err)
			}
			decls.Forms = append(decls.Forms, class)
		}
		decls.Sources = append(decls.Sources, name)
	}

	if err := linkParents(pending); err != nil {
		return nil, err
	}
	for _, p := range pending {
		decls.Models = append(decls.Models, p.model)
	}
	return decls, nil
}

func isDeclarationFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, fmt.Errorf("config: file %s is empty", source)
	}

	var err error
	switch strings.ToLower(filepath.Ext(source)) {
	case ".toml":
		_, err = toml.Decode(string(data), &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return documentFile{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseModel(raw modelFile) (*model.Model, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	opts, err := options.FromMap(raw.CRUD)
	if err != nil {
		return nil, err
	}

	m := &model.Model{
		App:               strings.TrimSpace(raw.App),
		Name:              name,
		VerboseName:       strings.TrimSpace(raw.VerboseName),
		VerboseNamePlural: strings.TrimSpace(raw.VerboseNamePlural),
		Abstract:          raw.Abstract,
		Options:           opts,
	}
	seen := make(map[string]bool, len(raw.Fields))
	for idx, rf := range raw.Fields {
		field, err := normaliseField(rf)
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", idx, err)
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("duplicate field %q", field.Name)
		}
		seen[field.Name] = true
		m.Fields = append(m.Fields, field)
	}
	return m, nil
}

func normaliseField(raw fieldFile) (model.Field, error) {
	name := strings.TrimSpace(raw.Name)
	switch {
	case name == "":
		return model.Field{}, fmt.Errorf("field name is required")
	case name == model.PrimaryKey:
		return model.Field{}, fmt.Errorf("field %q is the implicit primary key", name)
	}
	fieldType, err := parseFieldType(raw.Type)
	if err != nil {
		return model.Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	field := model.Field{
		Name:     name,
		Type:     fieldType,
		Target:   strings.TrimSpace(raw.Target),
		Required: raw.Required,
		Label:    strings.TrimSpace(raw.Label),
		Help:     strings.TrimSpace(raw.Help),
	}
	if fieldType == model.FieldTypeForeignKey && field.Target == "" {
		return model.Field{}, fmt.Errorf("field %q: foreign keys need a target", name)
	}
	return field, nil
}

func parseFieldType(raw string) (model.FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "string", "char":
		return model.FieldTypeString, nil
	case "text":
		return model.FieldTypeText, nil
	case "integer", "int":
		return model.FieldTypeInteger, nil
	case "float", "number":
		return model.FieldTypeFloat, nil
	case "boolean", "bool":
		return model.FieldTypeBoolean, nil
	case "foreignkey", "foreign-key", "foreign_key", "fk":
		return model.FieldTypeForeignKey, nil
	default:
		return "", fmt.Errorf("unknown field type %q", raw)
	}
}

func normaliseForm(raw formFile) (*forms.Class, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, fmt.Errorf("form name is required")
	}
	return &forms.Class{
		Name:    name,
		Model:   strings.TrimSpace(raw.Model),
		Fields:  trimAll(raw.Fields),
		Exclude: trimAll(raw.Exclude),
		Labels:  raw.Labels,
		Widgets: raw.Widgets,
		Help:    raw.Help,
	}, nil
}

// linkParents resolves parent names against the loaded models: "app.model"
// exactly, a bare name when it matches a single model.
func linkParents(pending []pendingModel) error {
	for _, p := range pending {
		for _, ref := range p.parents {
			parent, err := findModel(pending, ref)
			if err != nil {
				return fmt.Errorf("config: %s %s parent: %w", p.source, p.model.Qualified(), err)
			}
			if parent == p.model {
				return fmt.Errorf("config: %s %s lists itself as a parent", p.source, p.model.Qualified())
			}
			p.model.Parents = append(p.model.Parents, parent)
		}
	}
	for _, p := range pending {
		if err := checkCycle(p.model, nil); err != nil {
			return fmt.Errorf("config: %s: %w", p.source, err)
		}
	}
	return nil
}

func findModel(pending []pendingModel, ref string) (*model.Model, error) {
	key := strings.ToLower(strings.TrimSpace(ref))
	var matches []*model.Model
	for _, p := range pending {
		if p.model.Qualified() == key || (!strings.Contains(key, ".") && p.model.Key() == key) {
			matches = append(matches, p.model)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", model.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Qualified())
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %q matches %s", model.ErrAmbiguousName, ref, strings.Join(names, ", "))
	}
}

func checkCycle(m *model.Model, path []*model.Model) error {
	for _, seen := range path {
		if seen == m {
			return fmt.Errorf("inheritance cycle through %s", m.Qualified())
		}
	}
	for _, parent := range m.Parents {
		if err := checkCycle(parent, append(path, m)); err != nil {
			return err
		}
	}
	return nil
}

// Register adds every loaded model to reg, ancestors first.
func (d *Declarations) Register(reg *model.Registry) error {
	done := make(map[*model.Model]bool, len(d.Models))
	var visit func(m *model.Model) error
	visit = func(m *model.Model) error {
		if done[m] {
			return nil
		}
		done[m] = true
		for _, parent := range m.Parents {
			if err := visit(parent); err != nil {
				return err
			}
		}
		return reg.Register(m)
	}
	for _, m := range d.Models {
		if err := visit(m); err != nil {
			return err
		}
	}
	return nil
}

// FormLoader registers the declared form classes during forms population.
func (d *Declarations) FormLoader() forms.Loader {
	return forms.LoaderFunc(func(_ context.Context, reg *forms.Registry) error {
		for _, class := range d.Forms {
			if err := reg.Register(class); err != nil {
				return err
			}
		}
		return nil
	})
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
