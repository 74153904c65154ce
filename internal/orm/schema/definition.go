package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Definition is one compiled schema path
type Definition struct {
	// Type is a SchemaType, an embedded *Schema, an ArrayType, or a raw
	// passthrough value.
	Type any
	// Of is the value definition of map paths
	Of *Definition
	// Raw marks a passthrough value inserted verbatim as the whole path
	Raw     bool
	Options Options
}

// ArrayType is Dim levels of arrays around the element definition
type ArrayType struct {
	Dim  int
	Elem *Definition
}

// Kind returns the container shape of the definition
func (d *Definition) Kind() Kind {
	switch t := d.Type.(type) {
	case ArrayType:
		return KindArray
	case SchemaType:
		if t == TypeMap {
			return KindMap
		}
	}
	return KindScalar
}

// Ref returns the "ref" of the path, looking through arrays and maps
func (d *Definition) Ref() string {
	if d == nil {
		return ""
	}
	if ref, ok := d.Options["ref"].(string); ok {
		return ref
	}
	if at, ok := d.Type.(ArrayType); ok {
		return at.Elem.Ref()
	}
	return d.Of.Ref()
}

// Embedded returns the sub-document schema of the path, if any
func (d *Definition) Embedded() (*Schema, bool) {
	switch t := d.Type.(type) {
	case *Schema:
		return t, true
	case ArrayType:
		s, ok := t.Elem.Type.(*Schema)
		return s, ok
	}
	return nil, false
}

// Clone returns a deep copy of the definition. Embedded schemas are shared.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := &Definition{
		Type:    d.Type,
		Of:      d.Of.Clone(),
		Raw:     d.Raw,
		Options: d.Options.Clone(),
	}
	if at, ok := d.Type.(ArrayType); ok {
		out.Type = ArrayType{Dim: at.Dim, Elem: at.Elem.Clone()}
	}
	return out
}

// Describe renders the definition as plain data in the shape a document
// persistence engine expects: {"type": ..., "of": ..., <options>}.
func (d *Definition) Describe() any {
	if d == nil {
		return nil
	}
	if d.Raw {
		return describeValue(d.Type)
	}
	out := make(map[string]any, len(d.Options)+2)
	for k, v := range d.Options {
		out[k] = describeValue(v)
	}
	out["type"] = describeType(d.Type)
	if d.Of != nil {
		out["of"] = d.Of.Describe()
	}
	return out
}

func describeType(t any) any {
	switch v := t.(type) {
	case ArrayType:
		var arr any = []any{v.Elem.Describe()}
		for i := 1; i < v.Dim; i++ {
			arr = []any{arr}
		}
		return arr
	case *Schema:
		return map[string]any{
			"schema": v.Name,
			"paths":  v.Fields.Describe(),
		}
	default:
		return describeValue(t)
	}
}

func describeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case SchemaType:
		return t.String()
	case *Class:
		return t.Name
	case *Definition:
		return t.Describe()
	case *Schema, ArrayType:
		return describeType(t)
	case Options:
		return describeValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = describeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = describeValue(val)
		}
		return out
	case reflect.Type:
		return t.String()
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "[function]"
	}
	return v
}

// Fragment is an ordered mapping of field keys to definitions for one
// class level. Keys keep their first insertion position.
type Fragment struct {
	keys []string
	defs map[string]*Definition
}

// NewFragment creates an empty fragment
func NewFragment() *Fragment {
	return &Fragment{defs: make(map[string]*Definition)}
}

// Set stores the definition for key
func (f *Fragment) Set(key string, def *Definition) {
	if _, exists := f.defs[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.defs[key] = def
}

// Get returns the definition for key
func (f *Fragment) Get(key string) (*Definition, bool) {
	def, ok := f.defs[key]
	return def, ok
}

// Delete removes key from the fragment
func (f *Fragment) Delete(key string) {
	if _, exists := f.defs[key]; !exists {
		return
	}
	delete(f.defs, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field keys in order
func (f *Fragment) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of paths
func (f *Fragment) Len() int {
	return len(f.keys)
}

// Clone returns a deep copy of the fragment
func (f *Fragment) Clone() *Fragment {
	out := NewFragment()
	for _, k := range f.keys {
		out.Set(k, f.defs[k].Clone())
	}
	return out
}

// Merge applies every path of other on top of f
func (f *Fragment) Merge(other *Fragment) {
	for _, k := range other.keys {
		f.Set(k, other.defs[k].Clone())
	}
}

// Describe renders the fragment as plain data keyed by field
func (f *Fragment) Describe() map[string]any {
	out := make(map[string]any, len(f.keys))
	for _, k := range f.keys {
		out[k] = f.defs[k].Describe()
	}
	return out
}

// MarshalJSON renders the fragment with keys in field order
func (f *Fragment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.defs[k].Describe())
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
