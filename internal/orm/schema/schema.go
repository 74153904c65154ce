package schema

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultDiscriminatorKey is the path holding the discriminator value when
// the schema options do not name one.
const DefaultDiscriminatorKey = "__t"

// DiscriminatorBinding is a discriminator schema attached to a path
type DiscriminatorBinding struct {
	Path   string
	Name   string
	Value  string
	Schema *Schema
}

// Schema is a compiled schema: the merged field fragment of a class chain
// plus everything attached on the final pass.
type Schema struct {
	Name           string
	Fields         *Fragment
	Options        Options
	PreHooks       []Hook
	PostHooks      []Hook
	Virtuals       []VirtualPopulate
	Indexes        []Index
	QueryMethods   []QueryMethod
	Plugins        []Plugin
	Discriminators []DiscriminatorBinding
	Diagnostics    []Diagnostic

	typeName string
}

func newSchema(name string, fields *Fragment, opts Options) *Schema {
	return &Schema{
		Name:    name,
		Fields:  fields,
		Options: opts.Clone(),
	}
}

// Path returns the definition of a top-level path
func (s *Schema) Path(key string) (*Definition, bool) {
	return s.Fields.Get(key)
}

// Add sets a path on the schema. Plugins use it to contribute fields.
func (s *Schema) Add(key string, def *Definition) {
	if def.Options == nil {
		def.Options = Options{}
	}
	s.Fields.Set(key, def)
}

// TypeName returns the display name recorded on the final pass, the
// reverse-lookup key for the class registry.
func (s *Schema) TypeName() string {
	return s.typeName
}

// ModelName implements the artifact interface accepted by Registry.ClassFor
func (s *Schema) ModelName() string {
	return s.typeName
}

// DiscriminatorKey returns the configured discriminator path
func (s *Schema) DiscriminatorKey() string {
	if key, ok := s.Options["discriminatorKey"].(string); ok && key != "" {
		return key
	}
	return DefaultDiscriminatorKey
}

// skipDiscriminatorCheck marks an existing discriminator key path so the
// engine does not reject it as a duplicate.
func (s *Schema) skipDiscriminatorCheck() {
	if def, ok := s.Fields.Get(s.DiscriminatorKey()); ok {
		def.Options["$skipDiscriminatorCheck"] = true
	}
}

// Clone returns a copy of the schema with its own fragment
func (s *Schema) Clone() *Schema {
	out := *s
	out.Fields = s.Fields.Clone()
	out.Options = s.Options.Clone()
	out.PreHooks = append([]Hook(nil), s.PreHooks...)
	out.PostHooks = append([]Hook(nil), s.PostHooks...)
	out.Virtuals = append([]VirtualPopulate(nil), s.Virtuals...)
	out.Indexes = append([]Index(nil), s.Indexes...)
	out.QueryMethods = append([]QueryMethod(nil), s.QueryMethods...)
	out.Plugins = append([]Plugin(nil), s.Plugins...)
	out.Discriminators = append([]DiscriminatorBinding(nil), s.Discriminators...)
	out.Diagnostics = append([]Diagnostic(nil), s.Diagnostics...)
	return &out
}

// RunPreHooks runs the pre hooks registered for method in registration order
func (s *Schema) RunPreHooks(ctx context.Context, method string, doc map[string]any) error {
	return runHooks(ctx, s.PreHooks, method, doc)
}

// RunPostHooks runs the post hooks registered for method in registration order
func (s *Schema) RunPostHooks(ctx context.Context, method string, doc map[string]any) error {
	return runHooks(ctx, s.PostHooks, method, doc)
}

func runHooks(ctx context.Context, hooks []Hook, method string, doc map[string]any) error {
	for i, h := range hooks {
		if h.Method != method || h.Func == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Func(ctx, doc); err != nil {
			return fmt.Errorf("%s hook %d: %w", method, i, err)
		}
	}
	return nil
}

// Query applies the named query helper
func (s *Schema) Query(name string, filter map[string]any, args ...any) (map[string]any, error) {
	for _, q := range s.QueryMethods {
		if q.Name == name {
			return q.Func(filter, args...), nil
		}
	}
	return nil, fmt.Errorf("query method %q is not defined on %s", name, s.Name)
}

// Describe renders the schema as plain data
func (s *Schema) Describe() map[string]any {
	out := map[string]any{
		"name":    s.Name,
		"paths":   s.Fields.Describe(),
		"options": describeValue(s.Options),
	}

	if len(s.Indexes) > 0 {
		indexes := make([]any, 0, len(s.Indexes))
		for _, idx := range s.Indexes {
			fields := make([]any, 0, len(idx.Fields))
			for _, f := range idx.Fields {
				fields = append(fields, map[string]any{"path": f.Path, "order": f.Order})
			}
			indexes = append(indexes, map[string]any{"fields": fields, "options": describeValue(idx.Options)})
		}
		out["indexes"] = indexes
	}
	if len(s.Virtuals) > 0 {
		virtuals := make(map[string]any, len(s.Virtuals))
		for _, v := range s.Virtuals {
			virtuals[v.Path] = describeValue(v.Options)
		}
		out["virtuals"] = virtuals
	}
	if hooks := describeHooks(s.PreHooks); len(hooks) > 0 {
		out["pre"] = hooks
	}
	if hooks := describeHooks(s.PostHooks); len(hooks) > 0 {
		out["post"] = hooks
	}
	if len(s.QueryMethods) > 0 {
		names := make([]string, 0, len(s.QueryMethods))
		for _, q := range s.QueryMethods {
			names = append(names, q.Name)
		}
		out["queryMethods"] = names
	}
	if len(s.Plugins) > 0 {
		names := make([]string, 0, len(s.Plugins))
		for _, p := range s.Plugins {
			names = append(names, p.Name)
		}
		out["plugins"] = names
	}
	if len(s.Discriminators) > 0 {
		discriminators := make(map[string]any)
		for _, d := range s.Discriminators {
			list, _ := discriminators[d.Path].([]any)
			discriminators[d.Path] = append(list, map[string]any{"name": d.Name, "value": d.Value})
		}
		out["discriminators"] = discriminators
	}
	return out
}

func describeHooks(hooks []Hook) map[string]int {
	out := map[string]int{}
	for _, h := range hooks {
		out[h.Method]++
	}
	return out
}

// MarshalJSON renders Describe with the paths kept in field order
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := s.Describe()
	out["paths"] = s.Fields
	return json.Marshal(out)
}

// Model pairs a compiled schema with its registered name
type Model struct {
	Name               string
	Class              *Class
	Schema             *Schema
	Base               *Model
	DiscriminatorValue string
	discriminators     map[string]*Model
}

// ModelName returns the registered name of the model
func (m *Model) ModelName() string {
	return m.Name
}

// Discriminator returns a discriminator model built from m
func (m *Model) Discriminator(name string) (*Model, bool) {
	d, ok := m.discriminators[name]
	return d, ok
}
