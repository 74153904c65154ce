package schema

import (
	"fmt"

	"go.uber.org/zap"
)

// Compiler turns class metadata into compiled schemas. It owns the
// per-class fragment cache and reads metadata from a Store and records
// names in a Registry, both of which may be shared.
//
// A Compiler is not safe for concurrent use.
type Compiler struct {
	store       *Store
	registry    *Registry
	logger      *zap.Logger
	global      *ModelOptions
	fragments   map[string]*Fragment
	building    map[*Class]bool
	diagnostics []Diagnostic
}

// NewCompiler creates a compiler. A nil logger disables logging.
func NewCompiler(store *Store, registry *Registry, logger *zap.Logger) *Compiler {
	if store == nil {
		store = NewStore()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		store:     store,
		registry:  registry,
		logger:    logger,
		global:    defaultGlobalOptions(),
		fragments: make(map[string]*Fragment),
		building:  make(map[*Class]bool),
	}
}

// Store returns the metadata store
func (c *Compiler) Store() *Store {
	return c.store
}

// Registry returns the class registry
func (c *Compiler) Registry() *Registry {
	return c.registry
}

// classOptions returns the global defaults overlaid with the options of cl
func (c *Compiler) classOptions(cl *Class) *ModelOptions {
	return c.global.Merge(c.store.ClassOptions(cl))
}

// isMaterialized reports whether the fragment of cl is cached
func (c *Compiler) isMaterialized(cl *Class) bool {
	name, err := c.DisplayName(cl, nil)
	if err != nil {
		return false
	}
	_, ok := c.fragments[name]
	return ok
}

// Fragment returns the cached fragment of a class level, compiled from the
// fields declared directly on that class.
func (c *Compiler) Fragment(cl *Class) (*Fragment, bool) {
	name, err := c.DisplayName(cl, nil)
	if err != nil {
		return nil, false
	}
	frag, ok := c.fragments[name]
	if !ok {
		return nil, false
	}
	return frag.Clone(), true
}

func (c *Compiler) compileClass(cl *Class) (*Schema, error) {
	return c.CompileSchema(cl, nil, nil)
}

// CompileSchema compiles cl and its ancestors into one schema. The
// ancestors are compiled root-first as intermediate levels, then cl is
// compiled as the final level. schemaOptions override the class schema
// options; override can rename the result.
func (c *Compiler) CompileSchema(cl *Class, schemaOptions Options, override *ModelOptions) (*Schema, error) {
	if cl == nil || cl.Name == "" {
		return nil, newError(ErrNoValidClass, "", "", cl, "")
	}
	if c.building[cl] {
		return nil, newError(ErrCircularEmbedding, cl.Name, "", cl, "class is already being compiled")
	}
	c.building[cl] = true
	defer delete(c.building, cl)

	c.logger.Debug("compiling schema", zap.String("class", cl.Name))
	start := len(c.diagnostics)
	merged := c.classOptions(cl).SchemaOptions.Merge(schemaOptions)

	var s *Schema
	for _, parent := range cl.Ancestors() {
		var err error
		s, err = c.build(parent, s, merged, false, nil)
		if err != nil {
			return nil, err
		}
	}
	s, err := c.build(cl, s, merged, true, override)
	if err != nil {
		return nil, err
	}
	s.Diagnostics = append([]Diagnostic(nil), c.diagnostics[start:]...)
	return s, nil
}

// build compiles one class level on top of base.
func (c *Compiler) build(cl *Class, base *Schema, opts Options, final bool, override *ModelOptions) (*Schema, error) {
	if cl == nil || cl.Name == "" {
		return nil, newError(ErrNoValidClass, "", "", cl, "")
	}
	if c.store.seedClassOptions(cl, c.global) {
		c.logger.Debug("assigned global options", zap.String("class", cl.Name))
	}

	classOpts := c.classOptions(cl)
	schemaOptions := classOpts.SchemaOptions.Merge(opts)

	className, err := displayName(cl, classOpts, nil)
	if err != nil {
		return nil, err
	}
	finalName, err := displayName(cl, classOpts, override)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("building class level",
		zap.String("class", finalName),
		zap.Bool("final", final),
	)

	frag, ok := c.fragments[className]
	if !ok {
		frag = NewFragment()
		c.fragments[className] = frag
	}
	for _, field := range c.store.Fields(cl) {
		if err := c.compileField(cl, className, frag, field); err != nil {
			return nil, err
		}
	}

	var s *Schema
	if base == nil {
		s = newSchema(finalName, frag.Clone(), schemaOptions)
	} else {
		s = base.Clone()
		s.Name = finalName
		s.Fields.Merge(frag)
	}

	if final {
		if err := c.attach(cl, s, finalName); err != nil {
			return nil, err
		}
	}

	c.registry.Register(finalName, cl)
	return s, nil
}

// attach applies the class-level registries to the final schema
func (c *Compiler) attach(cl *Class, s *Schema, finalName string) error {
	for _, nested := range c.store.Discriminators(cl) {
		c.logger.Debug("applying nested discriminators", zap.String("class", finalName), zap.String("path", nested.Path))

		path, ok := s.Fields.Get(nested.Path)
		if !ok {
			return newError(ErrPathNotInSchema, finalName, nested.Path, nil, "")
		}
		if _, ok := path.Embedded(); !ok {
			return newError(ErrNoDiscriminatorSupport, finalName, nested.Path, nil, "")
		}

		for _, d := range nested.Entries {
			childName, err := c.DisplayName(d.Type, nil)
			if err != nil {
				return withField(err, finalName, nested.Path)
			}
			child := s
			if childName != finalName {
				child, err = c.compileClass(d.Type)
				if err != nil {
					return err
				}
			}
			child.skipDiscriminatorCheck()

			value := d.Value
			if value == "" {
				value = childName
			}
			s.Discriminators = append(s.Discriminators, DiscriminatorBinding{
				Path:   nested.Path,
				Name:   childName,
				Value:  value,
				Schema: child,
			})
		}
	}

	s.PreHooks = c.store.PreHooks(cl)
	s.PostHooks = c.store.PostHooks(cl)

	s.Virtuals = c.store.Virtuals(cl)
	for _, v := range s.Virtuals {
		c.logger.Debug("applying virtual populate", zap.String("class", finalName), zap.String("path", v.Path))
	}

	s.Indexes = c.store.Indexes(cl)
	s.QueryMethods = c.store.QueryMethods(cl)

	s.Plugins = c.store.Plugins(cl)
	for _, p := range s.Plugins {
		c.logger.Debug("applying plugin", zap.String("class", finalName), zap.String("plugin", p.Name))
		if p.Func == nil {
			continue
		}
		if err := p.Func(s, p.Options); err != nil {
			return fmt.Errorf("plugin %s on %s: %w", p.Name, finalName, err)
		}
	}

	s.typeName = finalName
	return nil
}

// ResolveClass returns the class that produced a name or artifact
func (c *Compiler) ResolveClass(artifact any) (*Class, error) {
	return c.registry.ClassFor(artifact)
}

// Model compiles cl and registers it as a model, or returns the model
// already registered under its display name.
func (c *Compiler) Model(cl *Class, override *ModelOptions) (*Model, error) {
	if cl == nil || cl.Name == "" {
		return nil, newError(ErrNoValidClass, "", "", cl, "")
	}
	opts := c.classOptions(cl).Merge(override)
	name, err := c.DisplayName(cl, override)
	if err != nil {
		return nil, err
	}
	if m, ok := c.registry.Model(name); ok {
		return m, nil
	}

	s, err := c.CompileSchema(cl, opts.SchemaOptions, override)
	if err != nil {
		return nil, err
	}
	m := &Model{Name: name, Class: cl, Schema: s}
	if err := c.registry.AddModel(m, cl); err != nil {
		return nil, err
	}
	c.logger.Info("model registered", zap.String("model", name), zap.Int("paths", s.Fields.Len()))
	return m, nil
}

// DiscriminatorModel builds cl as a discriminator of from. value defaults
// to the display name of cl.
func (c *Compiler) DiscriminatorModel(from *Model, cl *Class, value string) (*Model, error) {
	if from == nil || from.Schema == nil {
		return nil, newError(ErrNotValidModel, "", "", from, "DiscriminatorModel.from")
	}
	name, err := c.DisplayName(cl, nil)
	if err != nil {
		return nil, err
	}
	if m, ok := c.registry.Model(name); ok {
		return m, nil
	}

	s, err := c.CompileSchema(cl, nil, nil)
	if err != nil {
		return nil, err
	}
	s.skipDiscriminatorCheck()
	if value == "" {
		value = name
	}

	m := &Model{Name: name, Class: cl, Schema: s, Base: from, DiscriminatorValue: value}
	if err := c.registry.AddModel(m, cl); err != nil {
		return nil, err
	}
	if from.discriminators == nil {
		from.discriminators = make(map[string]*Model)
	}
	from.discriminators[name] = m
	return m, nil
}

// DeleteModel removes the model registered under name
func (c *Compiler) DeleteModel(name string) {
	c.logger.Debug("deleting model", zap.String("model", name))
	c.registry.DeleteModel(name)
}

// DeleteModelWithClass removes the model built from cl
func (c *Compiler) DeleteModelWithClass(cl *Class) error {
	name, err := c.DisplayName(cl, nil)
	if err != nil {
		return err
	}
	if !c.registry.DeleteModelWithClass(cl, name) {
		c.logger.Debug("class not found in registry", zap.String("class", name))
	}
	return nil
}
