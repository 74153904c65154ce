// Package schema compiles per-field model metadata into schema descriptions
// consumable by a document persistence engine.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SchemaType represents the built-in schema types a field can resolve to
type SchemaType int

const (
	TypeString SchemaType = iota + 1
	TypeNumber
	TypeBoolean
	TypeDate
	TypeBuffer
	TypeBinary // buffer-like, normalized to TypeBuffer
	TypeObjectID
	TypeDecimal128
	TypeBigInt
	TypeUUID
	TypeMixed
	TypeObject // generic object bucket, treated as Mixed
	TypeMap
	TypeArray
	TypeDocumentArray
)

// String returns the string representation of the schema type
func (t SchemaType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	case TypeDate:
		return "Date"
	case TypeBuffer:
		return "Buffer"
	case TypeBinary:
		return "Binary"
	case TypeObjectID:
		return "ObjectId"
	case TypeDecimal128:
		return "Decimal128"
	case TypeBigInt:
		return "BigInt"
	case TypeUUID:
		return "UUID"
	case TypeMixed:
		return "Mixed"
	case TypeObject:
		return "Object"
	case TypeMap:
		return "Map"
	case TypeArray:
		return "Array"
	case TypeDocumentArray:
		return "DocumentArray"
	default:
		return "unknown"
	}
}

// MarshalText renders the type by name so raw passthrough values holding
// schema types serialize readably.
func (t SchemaType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseSchemaType parses a type name (case-insensitive, common aliases accepted)
func ParseSchemaType(s string) (SchemaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "number", "int", "integer", "float", "double":
		return TypeNumber, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "date", "timestamp", "datetime":
		return TypeDate, nil
	case "buffer":
		return TypeBuffer, nil
	case "binary", "bytes":
		return TypeBinary, nil
	case "objectid", "oid":
		return TypeObjectID, nil
	case "decimal128", "decimal":
		return TypeDecimal128, nil
	case "bigint":
		return TypeBigInt, nil
	case "uuid":
		return TypeUUID, nil
	case "mixed", "any":
		return TypeMixed, nil
	case "object":
		return TypeObject, nil
	case "map":
		return TypeMap, nil
	case "array":
		return TypeArray, nil
	case "documentarray":
		return TypeDocumentArray, nil
	default:
		return 0, fmt.Errorf("unknown schema type: %q", s)
	}
}

// isRefType reports whether values of the type can hold a reference id.
// Boolean and the generic object bucket cannot.
func (t SchemaType) isRefType() bool {
	switch t {
	case TypeBoolean, TypeObject, 0:
		return false
	default:
		return t <= TypeDocumentArray
	}
}

// Kind is the container shape of a field
type Kind int

const (
	// KindAuto asks the compiler to detect the kind from the declared type
	KindAuto Kind = iota
	KindScalar
	KindArray
	KindMap
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, nil
	case "scalar", "none":
		return KindScalar, nil
	case "array":
		return KindArray, nil
	case "map":
		return KindMap, nil
	default:
		return KindAuto, fmt.Errorf("unknown kind: %q", s)
	}
}

// Class identifies a model class. Base links to the parent class when the
// model extends another one.
type Class struct {
	Name string
	Base *Class
}

// NewClass creates a class extending base (nil for a root class)
func NewClass(name string, base *Class) *Class {
	return &Class{Name: name, Base: base}
}

// Ancestors returns the parents of c ordered root-first, excluding c itself
func (c *Class) Ancestors() []*Class {
	var chain []*Class
	seen := map[*Class]bool{c: true}
	for p := c.Base; p != nil && !seen[p]; p = p.Base {
		seen[p] = true
		chain = append([]*Class{p}, chain...)
	}
	return chain
}

func (c *Class) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// Deferred is a zero-argument accessor for a type that may not exist yet
// when the metadata is registered.
type Deferred func() any

// Passthrough inserts a raw schema definition for a path. With Direct set
// the raw value replaces the whole path definition, otherwise it is used as
// the path type and the usual array/map handling applies.
type Passthrough struct {
	Raw    any
	Direct bool
}

// Options is an open option bag
type Options map[string]any

// Has reports whether key is present, even with a nil value
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Clone returns a shallow copy of the options (never nil)
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge returns a copy of o with every entry of other applied on top
func (o Options) Merge(other Options) Options {
	out := o.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the option keys in sorted order
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asOptions(v any) (Options, bool) {
	switch m := v.(type) {
	case Options:
		return m, true
	case map[string]any:
		return Options(m), true
	default:
		return nil, false
	}
}

// EnumEntry is one name/value pair of an enum
type EnumEntry struct {
	Name  string
	Value any
}

// Enum is an ordered set of enum entries, the Go form of a named enum
// object. Numeric enums carry value->name reverse entries.
type Enum []EnumEntry

// StringEnum builds a string enum from alternating name, value pairs
func StringEnum(pairs ...string) Enum {
	e := make(Enum, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		e = append(e, EnumEntry{Name: pairs[i], Value: pairs[i+1]})
	}
	return e
}

// NumberEnum builds a numeric enum and appends the reverse value->name
// entries that numeric enums are expected to carry.
func NumberEnum(entries ...EnumEntry) Enum {
	e := make(Enum, 0, len(entries)*2)
	e = append(e, entries...)
	for _, entry := range entries {
		if s, ok := numberString(entry.Value); ok {
			e = append(e, EnumEntry{Name: s, Value: entry.Name})
		}
	}
	return e
}

// Values returns the entry values in order
func (e Enum) Values() []any {
	out := make([]any, 0, len(e))
	for _, entry := range e {
		out = append(out, entry.Value)
	}
	return out
}

func (e Enum) hasName(name string) bool {
	for _, entry := range e {
		if entry.Name == name {
			return true
		}
	}
	return false
}

// Discriminator is one entry of a nested discriminator list. Value is the
// stored discriminator value and defaults to the class display name.
type Discriminator struct {
	Type  *Class
	Value string
}

// Array wraps t in an array literal, the declared form of a list field
func Array(t any) []any {
	return []any{t}
}

func numberString(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return "", false
	}
}

func isNumber(v any) bool {
	_, ok := numberString(v)
	return ok
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
