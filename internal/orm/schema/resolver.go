package schema

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// maxDimension bounds array unwrapping so cyclic or runaway literals fail
// instead of recursing forever.
const maxDimension = 100

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Resolution is a concrete type plus the number of array levels that were
// unwrapped to reach it.
type Resolution struct {
	Type any
	Dim  int
}

// Resolve resolves a declared type. Deferred accessors are invoked once per
// level, then array literals are unwrapped down to the leaf element type.
func Resolve(declared any) (Resolution, error) {
	return resolve(declared, false)
}

// ResolveOuterArray resolves like Resolve but stops at the innermost array
// whose first element is not an array, returning that array itself. It is
// used for list-valued options such as nested discriminators.
func ResolveOuterArray(declared any) (Resolution, error) {
	return resolve(declared, true)
}

func resolve(declared any, keepLastArray bool) (Resolution, error) {
	r := Resolution{Type: callDeferred(declared)}
	r.Type = normalizeGoType(r.Type)

	for {
		arr, ok := asArray(r.Type)
		if !ok {
			return r, nil
		}
		r.Dim++
		if r.Dim > maxDimension {
			return r, newError(ErrDimensionExceeded, "", "", r.Dim, "")
		}
		if keepLastArray {
			if len(arr) == 0 {
				r.Type = arr
				return r, nil
			}
			if _, nested := asArray(normalizeGoType(callDeferred(arr[0]))); !nested {
				r.Type = arr
				return r, nil
			}
		}
		if len(arr) == 0 {
			r.Type = nil
			return r, nil
		}
		r.Type = normalizeGoType(callDeferred(arr[0]))
	}
}

func callDeferred(v any) any {
	switch d := v.(type) {
	case Deferred:
		return d()
	case func() any:
		return d()
	default:
		return v
	}
}

// DetectKind classifies a declared type by comparing it against the
// built-in container markers. Anything else is a scalar.
func DetectKind(t any) Kind {
	switch v := t.(type) {
	case SchemaType:
		switch v {
		case TypeArray, TypeDocumentArray:
			return KindArray
		case TypeMap:
			return KindMap
		}
	case reflect.Type:
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Slice:
			if v.Elem().Kind() != reflect.Uint8 {
				return KindArray
			}
		case reflect.Map:
			return KindMap
		}
	}
	return KindScalar
}

// asArray reports whether v is an array literal, converting typed slices
// (for example []*Class) to []any.
func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case nil:
		return nil, false
	case []any:
		return a, true
	case []byte, Enum:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// normalizeGoType maps a reflect.Type to the schema type it stores as.
// Slices become array literals so their dimension is counted like any
// other literal. Unknown struct types are returned unchanged.
func normalizeGoType(v any) any {
	t, ok := v.(reflect.Type)
	if !ok || t == nil {
		return v
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return TypeDate
	case uuidType:
		return TypeUUID
	}

	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Interface:
		return TypeMixed
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBuffer
		}
		return []any{t.Elem()}
	case reflect.Map:
		return TypeMap
	default:
		return t
	}
}
