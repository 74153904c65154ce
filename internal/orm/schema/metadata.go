package schema

import (
	"context"
	"sync"
)

// FieldMetadata is the metadata attached to one field of a class
type FieldMetadata struct {
	Class   *Class
	Key     string
	Type    any
	Options Options
	Kind    Kind
}

// HookFunc represents a lifecycle hook. It receives the document as a map.
type HookFunc func(ctx context.Context, doc map[string]any) error

// Hook is a hook registered for one lifecycle method
type Hook struct {
	Method  string
	Func    HookFunc
	Options Options
}

// IndexField is one key of a compound index. Order is 1, -1 or an index
// kind such as "text".
type IndexField struct {
	Path  string
	Order any
}

// Index is a schema index declaration
type Index struct {
	Fields  []IndexField
	Options Options
}

// QueryFunc is a query helper. It derives a filter from the current one.
type QueryFunc func(filter map[string]any, args ...any) map[string]any

// QueryMethod is a named query helper
type QueryMethod struct {
	Name string
	Func QueryFunc
}

// PluginFunc is applied to a schema on its final compilation pass
type PluginFunc func(s *Schema, options Options) error

// Plugin is a plugin registration
type Plugin struct {
	Name    string
	Func    PluginFunc
	Options Options
}

// VirtualPopulate is a computed relation resolved by matching keys
type VirtualPopulate struct {
	Path    string
	Options Options
}

// NestedDiscriminators is the discriminator list recorded for one path
type NestedDiscriminators struct {
	Path    string
	Entries []Discriminator
}

// ClassOptions are the non-schema options of a class
type ClassOptions struct {
	CustomName     string
	CustomNameFunc func(opts *ModelOptions) string
	AutomaticName  bool
	// AllowMixed overrides the ambiguity severity; nil inherits
	AllowMixed *Severity
}

// ModelOptions holds the schema options and class options of a class
type ModelOptions struct {
	SchemaOptions Options
	Options       ClassOptions
}

// Clone returns a copy of the options
func (m *ModelOptions) Clone() *ModelOptions {
	if m == nil {
		return &ModelOptions{SchemaOptions: Options{}}
	}
	out := *m
	out.SchemaOptions = m.SchemaOptions.Clone()
	if m.Options.AllowMixed != nil {
		sev := *m.Options.AllowMixed
		out.Options.AllowMixed = &sev
	}
	return &out
}

// Merge returns a copy of m with the set values of other applied on top
func (m *ModelOptions) Merge(other *ModelOptions) *ModelOptions {
	out := m.Clone()
	if other == nil {
		return out
	}
	out.SchemaOptions = out.SchemaOptions.Merge(other.SchemaOptions)
	if other.Options.CustomName != "" {
		out.Options.CustomName = other.Options.CustomName
	}
	if other.Options.CustomNameFunc != nil {
		out.Options.CustomNameFunc = other.Options.CustomNameFunc
	}
	if other.Options.AutomaticName {
		out.Options.AutomaticName = true
	}
	if other.Options.AllowMixed != nil {
		sev := *other.Options.AllowMixed
		out.Options.AllowMixed = &sev
	}
	return out
}

type fieldList struct {
	keys  []string
	byKey map[string]FieldMetadata
}

type classMeta struct {
	fields         *fieldList
	options        *ModelOptions
	preHooks       []Hook
	postHooks      []Hook
	indexes        []Index
	queryMethods   []QueryMethod
	plugins        []Plugin
	virtuals       []VirtualPopulate
	discriminators []NestedDiscriminators
}

// Store is the process-wide metadata store: ordered field metadata per
// class plus the class-level registries for options, hooks, indexes,
// query methods, plugins, virtual populates and nested discriminators.
// Field metadata is owned by the declaring class only; class-level
// registries are inherited from ancestors.
type Store struct {
	mu      sync.RWMutex
	classes map[*Class]*classMeta
}

// NewStore creates an empty metadata store
func NewStore() *Store {
	return &Store{classes: make(map[*Class]*classMeta)}
}

func (s *Store) meta(cl *Class) *classMeta {
	m, ok := s.classes[cl]
	if !ok {
		m = &classMeta{}
		s.classes[cl] = m
	}
	return m
}

// AddField registers field metadata. Registering a key again overwrites
// the metadata but keeps the original position.
func (s *Store) AddField(field FieldMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(field.Class)
	if m.fields == nil {
		m.fields = &fieldList{byKey: make(map[string]FieldMetadata)}
	}
	if _, exists := m.fields.byKey[field.Key]; !exists {
		m.fields.keys = append(m.fields.keys, field.Key)
	}
	field.Options = field.Options.Clone()
	m.fields.byKey[field.Key] = field
}

// Prop is a shorthand for AddField with automatic kind detection
func (s *Store) Prop(cl *Class, key string, typ any, opts Options) {
	s.AddField(FieldMetadata{Class: cl, Key: key, Type: typ, Options: opts})
}

// Fields returns the field metadata declared directly on cl, in
// registration order.
func (s *Store) Fields(cl *Class) []FieldMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.classes[cl]
	if !ok || m.fields == nil {
		return nil
	}
	out := make([]FieldMetadata, 0, len(m.fields.keys))
	for _, k := range m.fields.keys {
		out = append(out, m.fields.byKey[k])
	}
	return out
}

// ClassOptions returns the effective model options of cl: its own, or the
// nearest ancestor's. It returns nil when none were set.
func (s *Store) ClassOptions(cl *Class) *ModelOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classOptions(cl)
}

func (s *Store) classOptions(cl *Class) *ModelOptions {
	seen := map[*Class]bool{}
	for c := cl; c != nil && !seen[c]; c = c.Base {
		seen[c] = true
		if m, ok := s.classes[c]; ok && m.options != nil {
			return m.options.Clone()
		}
	}
	return nil
}

// SetClassOptions merges opts on top of the effective options of cl and
// stores the result on cl.
func (s *Store) SetClassOptions(cl *Class, opts *ModelOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.classOptions(cl)
	s.meta(cl).options = current.Merge(opts)
}

// seedClassOptions stores opts on cl when no options are visible for it
func (s *Store) seedClassOptions(cl *Class, opts *ModelOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.classOptions(cl) != nil {
		return false
	}
	s.meta(cl).options = opts.Clone()
	return true
}

// Pre registers fn to run before each of the given lifecycle methods
func (s *Store) Pre(cl *Class, methods []string, fn HookFunc, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	for _, method := range methods {
		m.preHooks = append(m.preHooks, Hook{Method: method, Func: fn, Options: opts})
	}
}

// Post registers fn to run after each of the given lifecycle methods
func (s *Store) Post(cl *Class, methods []string, fn HookFunc, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	for _, method := range methods {
		m.postHooks = append(m.postHooks, Hook{Method: method, Func: fn, Options: opts})
	}
}

// Index registers an index on cl
func (s *Store) Index(cl *Class, fields []IndexField, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	m.indexes = append(m.indexes, Index{Fields: fields, Options: opts})
}

// QueryMethod registers a named query helper on cl
func (s *Store) QueryMethod(cl *Class, name string, fn QueryFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	for i, q := range m.queryMethods {
		if q.Name == name {
			m.queryMethods[i].Func = fn
			return
		}
	}
	m.queryMethods = append(m.queryMethods, QueryMethod{Name: name, Func: fn})
}

// Plugin registers a plugin on cl
func (s *Store) Plugin(cl *Class, name string, fn PluginFunc, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	m.plugins = append(m.plugins, Plugin{Name: name, Func: fn, Options: opts})
}

func (s *Store) setVirtual(cl *Class, path string, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	for i, v := range m.virtuals {
		if v.Path == path {
			m.virtuals[i].Options = opts
			return
		}
	}
	m.virtuals = append(m.virtuals, VirtualPopulate{Path: path, Options: opts})
}

func (s *Store) setNestedDiscriminators(cl *Class, path string, entries []Discriminator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.meta(cl)
	for i, d := range m.discriminators {
		if d.Path == path {
			m.discriminators[i].Entries = entries
			return
		}
	}
	m.discriminators = append(m.discriminators, NestedDiscriminators{Path: path, Entries: entries})
}

// lineage returns the metadata of cl and its ancestors, root-first
func (s *Store) lineage(cl *Class) []*classMeta {
	chain := append(cl.Ancestors(), cl)
	out := make([]*classMeta, 0, len(chain))
	for _, c := range chain {
		if m, ok := s.classes[c]; ok {
			out = append(out, m)
		}
	}
	return out
}

// PreHooks returns the pre hooks visible on cl, ancestors first
func (s *Store) PreHooks(cl *Class) []Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Hook
	for _, m := range s.lineage(cl) {
		out = append(out, m.preHooks...)
	}
	return out
}

// PostHooks returns the post hooks visible on cl, ancestors first
func (s *Store) PostHooks(cl *Class) []Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Hook
	for _, m := range s.lineage(cl) {
		out = append(out, m.postHooks...)
	}
	return out
}

// Indexes returns the indexes visible on cl, ancestors first
func (s *Store) Indexes(cl *Class) []Index {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Index
	for _, m := range s.lineage(cl) {
		out = append(out, m.indexes...)
	}
	return out
}

// Plugins returns the plugins visible on cl, ancestors first
func (s *Store) Plugins(cl *Class) []Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Plugin
	for _, m := range s.lineage(cl) {
		out = append(out, m.plugins...)
	}
	return out
}

// QueryMethods returns the query helpers visible on cl. A helper declared
// on a subclass replaces the inherited one of the same name.
func (s *Store) QueryMethods(cl *Class) []QueryMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []QueryMethod
	pos := map[string]int{}
	for _, m := range s.lineage(cl) {
		for _, q := range m.queryMethods {
			if i, ok := pos[q.Name]; ok {
				out[i] = q
				continue
			}
			pos[q.Name] = len(out)
			out = append(out, q)
		}
	}
	return out
}

// Virtuals returns the virtual populates visible on cl. A subclass entry
// replaces the inherited one for the same path.
func (s *Store) Virtuals(cl *Class) []VirtualPopulate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []VirtualPopulate
	pos := map[string]int{}
	for _, m := range s.lineage(cl) {
		for _, v := range m.virtuals {
			if i, ok := pos[v.Path]; ok {
				out[i] = v
				continue
			}
			pos[v.Path] = len(out)
			out = append(out, v)
		}
	}
	return out
}

// Discriminators returns the nested discriminators visible on cl. A
// subclass entry replaces the inherited one for the same path.
func (s *Store) Discriminators(cl *Class) []NestedDiscriminators {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []NestedDiscriminators
	pos := map[string]int{}
	for _, m := range s.lineage(cl) {
		for _, d := range m.discriminators {
			if i, ok := pos[d.Path]; ok {
				out[i] = d
				continue
			}
			pos[d.Path] = len(out)
			out = append(out, d)
		}
	}
	return out
}
