// Package modelfile loads model definitions from YAML and registers them as
// field metadata on a schema compiler.
package modelfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is a parsed model file
type File struct {
	Enums  map[string]EnumDef `yaml:"enums"`
	Models []ModelDef         `yaml:"models"`
}

// EnumDef declares a named enum. Values keep their file order.
type EnumDef struct {
	Type   string    `yaml:"type"`
	Values yaml.Node `yaml:"values"`
}

// ModelDef declares one model class
type ModelDef struct {
	Name    string          `yaml:"name"`
	Extends string          `yaml:"extends"`
	Options ModelOptionsDef `yaml:"options"`
	Fields  []FieldDef      `yaml:"fields"`
	Indexes []IndexDef      `yaml:"indexes"`
}

// ModelOptionsDef holds the class and schema options of a model
type ModelOptionsDef struct {
	CustomName    string         `yaml:"customName"`
	AutomaticName bool           `yaml:"automaticName"`
	AllowMixed    string         `yaml:"allowMixed"`
	Schema        map[string]any `yaml:"schema"`
}

// FieldDef declares one field. Type is a type name, a model name, or a
// nested list such as [[Number]] for arrays.
type FieldDef struct {
	Name           string             `yaml:"name"`
	Type           any                `yaml:"type"`
	Kind           string             `yaml:"kind"`
	Options        map[string]any     `yaml:"options"`
	Discriminators []DiscriminatorDef `yaml:"discriminators"`
	Passthrough    *PassthroughDef    `yaml:"passthrough"`
}

// DiscriminatorDef is a discriminator entry: a model name, or a mapping
// with type and value.
type DiscriminatorDef struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// UnmarshalYAML accepts both the scalar and the mapping form
func (d *DiscriminatorDef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Type = value.Value
		return nil
	}
	type plain DiscriminatorDef
	return value.Decode((*plain)(d))
}

// PassthroughDef inserts a raw schema value for a field
type PassthroughDef struct {
	Direct bool `yaml:"direct"`
	Value  any  `yaml:"value"`
}

// IndexDef declares an index
type IndexDef struct {
	Fields  []IndexFieldDef `yaml:"fields"`
	Options map[string]any  `yaml:"options"`
}

// IndexFieldDef is one indexed path
type IndexFieldDef struct {
	Path  string `yaml:"path"`
	Order any    `yaml:"order"`
}

// Load reads and parses a model file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses model file contents and validates model names
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	seen := make(map[string]bool)
	for i, m := range f.Models {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("model %d has no name", i)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("model %s is declared twice", m.Name)
		}
		seen[m.Name] = true
	}
	for _, m := range f.Models {
		if m.Extends != "" && !seen[m.Extends] {
			return nil, fmt.Errorf("model %s extends unknown model %s", m.Name, m.Extends)
		}
	}
	return &f, nil
}

// ModelNames returns the declared model names in file order
func (f *File) ModelNames() []string {
	names := make([]string, 0, len(f.Models))
	for _, m := range f.Models {
		names = append(names, m.Name)
	}
	return names
}
