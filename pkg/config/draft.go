package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Draft is a model declaration assembled in code, for example by
// "crudgen init", before it is written to a declaration file.
type Draft struct {
	App               string         `yaml:"app"`
	Name              string         `yaml:"name"`
	VerboseName       string         `yaml:"verbose_name,omitempty"`
	VerboseNamePlural string         `yaml:"verbose_name_plural,omitempty"`
	Parents           []string       `yaml:"parents,omitempty"`
	Fields            []DraftField   `yaml:"fields"`
	CRUD              map[string]any `yaml:"crud,omitempty"`
}

// DraftField is one declared field of a Draft.
type DraftField struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type,omitempty"`
	Target   string `yaml:"target,omitempty"`
	Required bool   `yaml:"required,omitempty"`
	Label    string `yaml:"label,omitempty"`
}

// EncodeYAML renders drafts as a declaration document. Every draft is
// normalised first so the output loads back without errors.
func EncodeYAML(drafts ...Draft) ([]byte, error) {
	if len(drafts) == 0 {
		return nil, ErrNoDeclarations
	}
	for idx, draft := range drafts {
		if _, err := normaliseModel(draft.file()); err != nil {
			return nil, fmt.Errorf("config: draft[%d]: %w", idx, err)
		}
	}
	doc := struct {
		Models []Draft `yaml:"models"`
	}{Models: drafts}

	var out strings.Builder
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("config: encode drafts: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encode drafts: %w", err)
	}
	return []byte(out.String()), nil
}

func (d Draft) file() modelFile {
	raw := modelFile{
		App:               d.App,
		Name:              d.Name,
		VerboseName:       d.VerboseName,
		VerboseNamePlural: d.VerboseNamePlural,
		Parents:           d.Parents,
		CRUD:              d.CRUD,
	}
	for _, field := range d.Fields {
		raw.Fields = append(raw.Fields, fieldFile{
			Name:     field.Name,
			Type:     field.Type,
			Target:   field.Target,
			Required: field.Required,
			Label:    field.Label,
		})
	}
	return raw
}
