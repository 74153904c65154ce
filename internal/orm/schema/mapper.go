package schema

import "go.uber.org/zap"

type keySet map[string]struct{}

func newKeySet(groups ...[]string) keySet {
	set := keySet{}
	for _, keys := range groups {
		for _, k := range keys {
			set[k] = struct{}{}
		}
	}
	return set
}

func (s keySet) has(key string) bool {
	_, ok := s[key]
	return ok
}

var baseOptionKeys = []string{
	"type", "validate", "cast", "required", "default", "ref", "refPath", "select",
	"index", "unique", "sparse", "text", "immutable", "transform",
}

// Accepted inner option keys per type family
var (
	baseKeys          = newKeySet(baseOptionKeys)
	stringKeys        = newKeySet(baseOptionKeys, []string{"enum", "match", "lowercase", "trim", "uppercase", "minLength", "maxLength", "minlength", "maxlength", "populate"})
	numberKeys        = newKeySet(baseOptionKeys, []string{"min", "max", "enum", "populate"})
	dateKeys          = newKeySet(baseOptionKeys, []string{"min", "max", "expires"})
	bufferKeys        = newKeySet(baseOptionKeys, []string{"subtype"})
	objectIDKeys      = newKeySet(baseOptionKeys, []string{"auto", "populate"})
	arrayKeys         = newKeySet(baseOptionKeys, []string{"enum", "of", "castNonArrays"})
	documentArrayKeys = newKeySet(baseOptionKeys, []string{"excludeIndexes", "_id"})
	mapKeys           = newKeySet(baseOptionKeys, []string{"of"})
	subdocumentKeys   = newKeySet(baseOptionKeys, []string{"_id"})
)

// innerKeys returns the option keys accepted inside the type definition
func innerKeys(t any) (keySet, bool) {
	switch v := t.(type) {
	case *Schema:
		return subdocumentKeys, true
	case SchemaType:
		switch v {
		case TypeString:
			return stringKeys, true
		case TypeNumber:
			return numberKeys, true
		case TypeDate:
			return dateKeys, true
		case TypeBuffer, TypeBinary:
			return bufferKeys, true
		case TypeObjectID:
			return objectIDKeys, true
		case TypeArray:
			return arrayKeys, true
		case TypeDocumentArray:
			return documentArrayKeys, true
		case TypeMap:
			return mapKeys, true
		case TypeBoolean, TypeMixed, TypeObject, TypeDecimal128, TypeBigInt, TypeUUID:
			return baseKeys, true
		}
	}
	return nil, false
}

// fieldContext carries the identity of the field being compiled
type fieldContext struct {
	cl          *Class
	name        string
	key         string
	passthrough bool
	mixedWarned bool
}

// mapOptions splits raw into the options accepted by typ (inner) and the
// rest (outer). "innerOptions" and "outerOptions" force entries to a side.
func (c *Compiler) mapOptions(fc *fieldContext, raw Options, typ any) (inner, outer Options, err error) {
	keys, ok := innerKeys(typ)
	if !ok && fc.passthrough && typ != nil {
		keys, ok = baseKeys, true
	}
	if !ok {
		return nil, nil, newError(ErrInvalidOptionsSet, fc.name, fc.key, typ, "")
	}
	if typ == TypeMixed || typ == TypeObject {
		if err := c.mixedOnce(fc); err != nil {
			return nil, nil, err
		}
	}

	inner, outer = Options{}, Options{}
	for k, v := range raw {
		if keys.has(k) {
			inner[k] = v
		} else {
			outer[k] = v
		}
	}
	if forced, ok := asOptions(raw["innerOptions"]); ok {
		delete(outer, "innerOptions")
		for k, v := range forced {
			inner[k] = v
		}
	}
	if forced, ok := asOptions(raw["outerOptions"]); ok {
		delete(outer, "outerOptions")
		for k, v := range forced {
			outer[k] = v
		}
	}

	c.logger.Debug("mapped options",
		zap.String("class", fc.name),
		zap.String("field", fc.key),
		zap.Strings("inner", inner.Keys()),
		zap.Strings("outer", outer.Keys()),
	)
	return inner, outer, nil
}

// mapArrayOptions maps raw for typ and wraps the inner definition in as
// many arrays as the "dim" option asks for (default 1). extra entries are
// attached to the innermost element.
func (c *Compiler) mapArrayOptions(fc *fieldContext, raw Options, typ any, extra Options) (*Definition, error) {
	raw = raw.Clone()
	dim, hasDim := raw["dim"]
	delete(raw, "dim")

	inner, outer, err := c.mapOptions(fc, raw, typ)
	if err != nil {
		return nil, err
	}

	n := 1
	if hasDim {
		v, ok := toInt(dim)
		if !ok {
			return nil, newError(ErrInvalidDimension, fc.name, fc.key, dim, "")
		}
		n = v
	}
	if n < 1 {
		return nil, newError(ErrInvalidDimension, fc.name, fc.key, n, "")
	}

	elem := &Definition{Type: typ, Options: inner.Merge(extra)}
	return &Definition{Type: ArrayType{Dim: n, Elem: elem}, Options: outer}, nil
}

// mapMapOptions builds a map path whose values are typ. When "dim" is set
// the values are arrays of typ.
func (c *Compiler) mapMapOptions(fc *fieldContext, raw Options, typ any, extra Options) (*Definition, error) {
	if raw.Has("dim") {
		arr, err := c.mapArrayOptions(fc, raw, typ, extra)
		if err != nil {
			return nil, err
		}
		return &Definition{
			Type:    TypeMap,
			Of:      &Definition{Type: arr.Type, Options: Options{}},
			Options: arr.Options,
		}, nil
	}

	inner, outer, err := c.mapOptions(fc, raw, typ)
	if err != nil {
		return nil, err
	}
	return &Definition{
		Type:    TypeMap,
		Of:      &Definition{Type: typ, Options: inner.Merge(extra)},
		Options: outer,
	}, nil
}

// scalarDefinition keeps every remaining option on the path itself
func scalarDefinition(raw Options, typ any, extra Options) *Definition {
	opts := raw.Merge(extra)
	delete(opts, "dim")
	return &Definition{Type: typ, Options: opts}
}
