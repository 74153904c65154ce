package modelfile

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// Registration is the result of registering a file: its classes in file
// order and by model name.
type Registration struct {
	Classes []*schema.Class
	byName  map[string]*schema.Class
}

// Class returns the class declared for a model name
func (r *Registration) Class(name string) (*schema.Class, bool) {
	cl, ok := r.byName[name]
	return cl, ok
}

type registrar struct {
	file    *File
	classes map[string]*schema.Class
	enums   map[string]schema.Enum
}

// Register creates a class per model and records its fields, options and
// indexes in the metadata store of c. Model references are deferred so a
// field may name a model declared further down the file.
func (f *File) Register(c *schema.Compiler) (*Registration, error) {
	r := &registrar{
		file:    f,
		classes: make(map[string]*schema.Class, len(f.Models)),
	}

	enums, err := r.buildEnums()
	if err != nil {
		return nil, err
	}
	r.enums = enums

	reg := &Registration{byName: r.classes}
	for _, m := range f.Models {
		cl := schema.NewClass(m.Name, nil)
		r.classes[m.Name] = cl
		reg.Classes = append(reg.Classes, cl)
	}
	for _, m := range f.Models {
		if m.Extends != "" {
			r.classes[m.Name].Base = r.classes[m.Extends]
		}
	}
	for _, cl := range reg.Classes {
		if err := checkLineage(cl); err != nil {
			return nil, err
		}
	}

	store := c.Store()
	for _, m := range f.Models {
		cl := r.classes[m.Name]

		opts, err := modelOptions(m.Options)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		if opts != nil {
			store.SetClassOptions(cl, opts)
		}

		for _, fd := range m.Fields {
			meta, err := r.field(cl, fd)
			if err != nil {
				return nil, fmt.Errorf("model %s field %s: %w", m.Name, fd.Name, err)
			}
			store.AddField(meta)
		}

		for _, idx := range m.Indexes {
			fields := make([]schema.IndexField, 0, len(idx.Fields))
			for _, f := range idx.Fields {
				order := f.Order
				if order == nil {
					order = 1
				}
				fields = append(fields, schema.IndexField{Path: f.Path, Order: order})
			}
			store.Index(cl, fields, schema.Options(idx.Options))
		}
	}
	return reg, nil
}

func checkLineage(cl *schema.Class) error {
	seen := map[*schema.Class]bool{}
	for c := cl; c != nil; c = c.Base {
		if seen[c] {
			return fmt.Errorf("model %s has a cyclic extends chain", cl.Name)
		}
		seen[c] = true
	}
	return nil
}

func modelOptions(def ModelOptionsDef) (*schema.ModelOptions, error) {
	if def.CustomName == "" && !def.AutomaticName && def.AllowMixed == "" && len(def.Schema) == 0 {
		return nil, nil
	}
	opts := &schema.ModelOptions{
		SchemaOptions: schema.Options(def.Schema),
		Options: schema.ClassOptions{
			CustomName:    def.CustomName,
			AutomaticName: def.AutomaticName,
		},
	}
	if def.AllowMixed != "" {
		sev, err := schema.ParseSeverity(def.AllowMixed)
		if err != nil {
			return nil, err
		}
		opts.Options.AllowMixed = sev.Ptr()
	}
	return opts, nil
}

func (r *registrar) buildEnums() (map[string]schema.Enum, error) {
	out := make(map[string]schema.Enum, len(r.file.Enums))
	names := make([]string, 0, len(r.file.Enums))
	for name := range r.file.Enums {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := r.file.Enums[name]
		if def.Values.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("enum %s: values must be a mapping", name)
		}

		var entries []schema.EnumEntry
		nodes := def.Values.Content
		for i := 0; i+1 < len(nodes); i += 2 {
			var value any
			if err := nodes[i+1].Decode(&value); err != nil {
				return nil, fmt.Errorf("enum %s: %w", name, err)
			}
			entries = append(entries, schema.EnumEntry{Name: nodes[i].Value, Value: value})
		}

		switch def.Type {
		case "", "string":
			out[name] = schema.Enum(entries)
		case "number":
			out[name] = schema.NumberEnum(entries...)
		default:
			return nil, fmt.Errorf("enum %s: unknown enum type %q", name, def.Type)
		}
	}
	return out, nil
}

func (r *registrar) field(cl *schema.Class, fd FieldDef) (schema.FieldMetadata, error) {
	meta := schema.FieldMetadata{Class: cl, Key: fd.Name}

	kind, err := schema.ParseKind(fd.Kind)
	if err != nil {
		return meta, err
	}
	meta.Kind = kind

	if fd.Passthrough != nil {
		meta.Type = schema.Passthrough{Raw: fd.Passthrough.Value, Direct: fd.Passthrough.Direct}
	} else {
		typ, err := r.resolveType(fd.Type)
		if err != nil {
			return meta, err
		}
		meta.Type = typ
	}

	opts := schema.Options{}
	for k, v := range fd.Options {
		switch k {
		case "type":
			typ, err := r.resolveType(v)
			if err != nil {
				return meta, err
			}
			opts[k] = typ
		case "ref":
			opts[k] = r.resolveRef(v)
		case "enum":
			e, err := r.resolveEnum(v)
			if err != nil {
				return meta, err
			}
			opts[k] = e
		default:
			opts[k] = v
		}
	}

	if len(fd.Discriminators) > 0 {
		list := make([]any, 0, len(fd.Discriminators))
		for _, d := range fd.Discriminators {
			if _, ok := r.classes[d.Type]; !ok {
				return meta, fmt.Errorf("discriminator %q is not a model", d.Type)
			}
			name, value := d.Type, d.Value
			list = append(list, schema.Deferred(func() any {
				return schema.Discriminator{Type: r.classes[name], Value: value}
			}))
		}
		opts["discriminators"] = list
	}

	meta.Options = opts
	return meta, nil
}

// resolveType maps a type expression to a declared type. Lists become
// array literals.
func (r *registrar) resolveType(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if _, ok := r.classes[t]; ok {
			return r.deferredClass(t), nil
		}
		st, err := schema.ParseSchemaType(t)
		if err != nil {
			return nil, fmt.Errorf("unknown type %q", t)
		}
		return st, nil
	case []any:
		if len(t) != 1 {
			return nil, fmt.Errorf("array type must have exactly one element, got %d", len(t))
		}
		elem, err := r.resolveType(t[0])
		if err != nil {
			return nil, err
		}
		return schema.Array(elem), nil
	default:
		return nil, fmt.Errorf("invalid type expression %v", v)
	}
}

func (r *registrar) deferredClass(name string) schema.Deferred {
	return func() any { return r.classes[name] }
}

// resolveRef turns model names into class references. Other strings are
// kept as literal reference names.
func (r *registrar) resolveRef(v any) any {
	if name, ok := v.(string); ok {
		if _, exists := r.classes[name]; exists {
			return r.deferredClass(name)
		}
	}
	return v
}

func (r *registrar) resolveEnum(v any) (any, error) {
	name, ok := v.(string)
	if !ok {
		return v, nil
	}
	e, exists := r.enums[name]
	if !exists {
		return nil, fmt.Errorf("unknown enum %q", name)
	}
	return e, nil
}
