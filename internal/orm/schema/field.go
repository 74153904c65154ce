package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Option families checked against the resolved type
var (
	stringValidateOptions  = []string{"match", "minlength", "maxlength", "minLength", "maxLength"}
	stringTransformOptions = []string{"lowercase", "uppercase", "trim"}
	numberValidateOptions  = []string{"min", "max"}
	enumValidateOptions    = []string{"enum"}
)

// compileField compiles one field of cl into frag. Virtual populates are
// recorded on the class instead and never become a path.
func (c *Compiler) compileField(cl *Class, name string, frag *Fragment, meta FieldMetadata) error {
	key := meta.Key
	fc := &fieldContext{cl: cl, name: name, key: key}
	c.logger.Debug("processing field", zap.String("class", name), zap.String("field", key))

	if key == "" || strings.HasPrefix(key, "$") {
		return newError(ErrInvalidKey, name, key, key, "")
	}

	raw := meta.Options.Clone()
	declared := callDeferred(meta.Type)
	declared = normalizeGoType(declared)

	// a declared array literal carries its element type and dimension
	if _, ok := asArray(declared); ok {
		if !raw.Has("type") {
			raw["type"] = declared
		}
		declared = TypeArray
	}

	kind := meta.Kind
	if kind == KindAuto {
		kind = DetectKind(declared)
		if declared == nil && kind == KindScalar {
			kind = detectOptionKind(raw["type"])
		}
	}

	var typ any = declared
	if kind == KindArray || kind == KindMap {
		if (raw.Has("ref") || raw.Has("refPath")) && !raw.Has("type") {
			typ = nil
		}
	}

	if t, ok := raw["type"]; ok {
		if t != nil {
			res, err := Resolve(t)
			if err != nil {
				return withField(err, name, key)
			}
			typ = res.Type
			if res.Dim > 0 {
				raw["dim"] = res.Dim
			}
		}
		delete(raw, "type")
	}

	if t, ok := typ.(*Class); ok && t == cl {
		return newError(ErrSelfReference, name, key, t, "")
	}

	if typ == TypeBinary {
		typ = TypeBuffer
	}

	if kind == KindArray && DetectKind(typ) == KindArray {
		c.logger.Debug("type is still an array, defaulting to Mixed", zap.String("class", name), zap.String("field", key))
		typ = TypeMixed
	}
	if kind == KindMap && DetectKind(typ) == KindMap {
		c.logger.Debug("type is still a map, defaulting to Mixed", zap.String("class", name), zap.String("field", key))
		typ = TypeMixed
	}

	if sub, ok := typ.(*Class); ok && !c.isMaterialized(sub) && !c.building[sub] {
		if _, err := c.compileClass(sub); err != nil {
			return err
		}
	}

	if err := c.collectDiscriminators(fc, raw); err != nil {
		return err
	}

	if v, ok := raw["ref"]; ok {
		res, err := Resolve(v)
		if err != nil {
			return withField(err, name, key)
		}
		if res.Dim != 0 {
			return newError(ErrOptionConstraint, name, key, res.Dim, `option "ref" does not support "dim" other than 0`)
		}
		ref := res.Type
		if ref == nil {
			return newError(ErrRefUndefined, name, key, nil, "")
		}
		if refClass, ok := ref.(*Class); ok {
			refName, err := c.DisplayName(refClass, nil)
			if err != nil {
				return withField(err, name, key)
			}
			ref = refName
		}
		raw["ref"] = ref
	}

	if raw.Has("localField") || raw.Has("foreignField") {
		if !raw.Has("localField") || !raw.Has("foreignField") || !raw.Has("ref") {
			return newError(ErrIncompleteVirtualPopulate, name, key, nil, "")
		}
		c.store.setVirtual(cl, key, raw)
		frag.Delete(key)
		return nil
	}

	if raw.Has("justOne") {
		c.diagnose(DiagJustOne, name, key, `option "justOne" is set but the field is not a virtual populate`)
	}

	def, err := c.compileDefinition(fc, kind, typ, raw)
	if err != nil {
		return err
	}
	frag.Set(key, def)
	return nil
}

func (c *Compiler) compileDefinition(fc *fieldContext, kind Kind, typ any, raw Options) (*Definition, error) {
	name, key := fc.name, fc.key

	if p, ok := asPassthrough(typ); ok {
		c.logger.Debug("passthrough type",
			zap.String("class", name),
			zap.String("field", key),
			zap.Stringer("kind", kind),
			zap.Bool("direct", p.Direct),
		)
		if p.Direct {
			return &Definition{Type: p.Raw, Raw: true, Options: Options{}}, nil
		}
		fc.passthrough = true
		switch kind {
		case KindArray:
			return c.mapArrayOptions(fc, raw, p.Raw, nil)
		case KindMap:
			return c.mapMapOptions(fc, raw, p.Raw, nil)
		case KindScalar:
			return scalarDefinition(raw, p.Raw, nil), nil
		default:
			return nil, newError(ErrInvalidKind, name, key, kind, "passthrough")
		}
	}

	var refType any = TypeObjectID
	if st, ok := typ.(SchemaType); ok && st.isRefType() {
		refType = st
	}

	if ref, ok := raw["ref"]; ok {
		delete(raw, "ref")
		extra := Options{"ref": ref}
		switch kind {
		case KindArray:
			return c.mapArrayOptions(fc, raw, refType, extra)
		case KindScalar:
			return scalarDefinition(raw, refType, extra), nil
		case KindMap:
			return c.mapMapOptions(fc, raw, refType, extra)
		default:
			return nil, newError(ErrInvalidKind, name, key, kind, `option "ref"`)
		}
	}

	if refPath, ok := raw["refPath"]; ok {
		delete(raw, "refPath")
		if s, isString := refPath.(string); !isString || s == "" {
			return nil, newError(ErrStringLengthExpected, name, key, refPath, "refPath")
		}
		extra := Options{"refPath": refPath}
		switch kind {
		case KindArray:
			return c.mapArrayOptions(fc, raw, refType, extra)
		case KindScalar:
			return scalarDefinition(raw, refType, extra), nil
		default:
			return nil, newError(ErrInvalidKind, name, key, kind, `option "refPath"`)
		}
	}

	if !isUsableType(typ) {
		return nil, newError(ErrInvalidType, name, key, typ, "")
	}

	if err := normalizeEnum(fc, raw, typ); err != nil {
		return nil, err
	}
	if v, ok := raw["addNullToEnum"]; ok {
		if v != nil {
			values, _ := raw["enum"].([]any)
			raw["enum"] = append(append([]any{}, values...), nil)
		}
		delete(raw, "addNullToEnum")
	}

	c.checkOptionFamilies(fc, raw, typ)

	switch t := typ.(type) {
	case SchemaType:
		if t == TypeMixed || t == TypeObject {
			if err := c.mixedOnce(fc); err != nil {
				return nil, err
			}
		}
		switch kind {
		case KindArray:
			return c.mapArrayOptions(fc, raw, t, nil)
		case KindMap:
			return c.mapMapOptions(fc, raw, t, nil)
		case KindScalar:
			return scalarDefinition(raw, t, nil), nil
		default:
			return nil, newError(ErrInvalidKind, name, key, kind, "primitive")
		}

	case reflect.Type:
		if err := c.mixedOnce(fc); err != nil {
			return nil, err
		}
		return scalarDefinition(raw, TypeMixed, nil), nil

	case *Class:
		sub, err := c.compileClass(t)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindArray:
			return c.mapArrayOptions(fc, raw, sub, nil)
		case KindMap:
			if raw.Has("dim") {
				c.logger.Debug("map of sub-document arrays", zap.String("class", name), zap.String("field", key))
			}
			return c.mapMapOptions(fc, raw, sub, nil)
		case KindScalar:
			return scalarDefinition(raw, sub, nil), nil
		default:
			return nil, newError(ErrInvalidKind, name, key, kind, "sub-document")
		}
	}

	return nil, newError(ErrInvalidType, name, key, typ, "")
}

// collectDiscriminators records the "discriminators" option of the field
// on its class and strips it from raw.
func (c *Compiler) collectDiscriminators(fc *fieldContext, raw Options) error {
	v, ok := raw["discriminators"]
	if !ok {
		return nil
	}
	c.logger.Debug("found nested discriminators", zap.String("class", fc.name), zap.String("field", fc.key))

	res, err := ResolveOuterArray(v)
	if err != nil {
		return withField(err, fc.name, fc.key)
	}
	if res.Dim != 1 {
		return newError(ErrOptionConstraint, fc.name, fc.key, res.Dim, `option "discriminators" does not support "dim" other than 1`)
	}
	list, _ := asArray(res.Type)

	entries := make([]Discriminator, 0, len(list))
	for i, el := range list {
		switch d := callDeferred(el).(type) {
		case *Class:
			if d == nil {
				return newError(ErrMalformedDiscriminator, fc.name, fc.key, i, "index is not a class or an object")
			}
			entries = append(entries, Discriminator{Type: d})
		case Discriminator:
			if d.Type == nil {
				return newError(ErrMalformedDiscriminator, fc.name, fc.key, i, `index is an object without the "type" property`)
			}
			entries = append(entries, d)
		case *Discriminator:
			if d == nil || d.Type == nil {
				return newError(ErrMalformedDiscriminator, fc.name, fc.key, i, `index is an object without the "type" property`)
			}
			entries = append(entries, *d)
		default:
			if m, isMap := asOptions(d); isMap {
				t, hasType := callDeferred(m["type"]).(*Class)
				if !hasType || t == nil {
					return newError(ErrMalformedDiscriminator, fc.name, fc.key, i, `index is an object without the "type" property`)
				}
				value, _ := m["value"].(string)
				entries = append(entries, Discriminator{Type: t, Value: value})
				continue
			}
			return newError(ErrMalformedDiscriminator, fc.name, fc.key, i, "index is not a class or an object")
		}
	}

	c.store.setNestedDiscriminators(fc.cl, fc.key, entries)
	delete(raw, "discriminators")
	return nil
}

// normalizeEnum converts a named enum into the list of values the path
// accepts. Lists are left as they are.
func normalizeEnum(fc *fieldContext, raw Options, typ any) error {
	v := raw["enum"]
	if v == nil {
		return nil
	}

	var entries Enum
	switch e := v.(type) {
	case Enum:
		entries = e
	case map[string]string:
		for _, k := range sortedKeys(e) {
			entries = append(entries, EnumEntry{Name: k, Value: e[k]})
		}
	case map[string]int:
		for _, k := range sortedKeys(e) {
			entries = append(entries, EnumEntry{Name: k, Value: e[k]})
		}
		for _, k := range sortedKeys(e) {
			entries = append(entries, EnumEntry{Name: fmt.Sprint(e[k]), Value: k})
		}
	case map[string]any:
		for _, k := range sortedKeys(e) {
			entries = append(entries, EnumEntry{Name: k, Value: e[k]})
		}
	default:
		if list, ok := asArray(v); ok {
			raw["enum"] = list
		}
		return nil
	}

	switch typ {
	case TypeString:
		values := make([]any, 0, len(entries))
		for _, entry := range entries {
			if _, ok := entry.Value.(string); !ok {
				return newError(ErrEnumNotString, fc.name, fc.key, entry.Value, fmt.Sprintf("enum key %q", entry.Name))
			}
			values = append(values, entry.Value)
		}
		raw["enum"] = values
	case TypeNumber:
		values := make([]any, 0, len(entries))
		for _, entry := range entries {
			// numeric entries need a value->name entry, reverse entries are skipped
			if reverse, ok := numberString(entry.Value); ok && entries.hasName(reverse) {
				values = append(values, entry.Value)
				continue
			}
			if s, ok := entry.Value.(string); ok && entries.hasName(s) {
				continue
			}
			return newError(ErrEnumNotNumber, fc.name, fc.key, entry.Value, fmt.Sprintf("enum key %q", entry.Name))
		}
		raw["enum"] = values
	default:
		return newError(ErrInvalidEnumType, fc.name, fc.key, typ, "")
	}
	return nil
}

// checkOptionFamilies flags options that belong to another type family.
// It never fails.
func (c *Compiler) checkOptionFamilies(fc *fieldContext, raw Options, typ any) {
	isString := typ == TypeString
	isNumber := typ == TypeNumber

	if !isString {
		c.warnFamily(fc, raw, "String", "String-Validate", stringValidateOptions)
		c.warnFamily(fc, raw, "String", "String-Transform", stringTransformOptions)
	}
	if !isNumber {
		c.warnFamily(fc, raw, "Number", "Number-Validate", numberValidateOptions)
	}
	if !isString && !isNumber {
		c.warnFamily(fc, raw, "String | Number", "extra", enumValidateOptions)
	}
}

func (c *Compiler) warnFamily(fc *fieldContext, raw Options, expected, family string, keys []string) {
	var included []string
	for _, k := range keys {
		if raw.Has(k) {
			included = append(included, k)
		}
	}
	if len(included) == 0 {
		return
	}
	c.diagnose(DiagOptionFamily, fc.name, fc.key,
		fmt.Sprintf("type is not %s, but includes the following %s options: [%s]", expected, family, strings.Join(included, ", ")))
}

// mixedOnce applies the ambiguity policy at most once per field
func (c *Compiler) mixedOnce(fc *fieldContext) error {
	if fc.mixedWarned {
		return nil
	}
	fc.mixedWarned = true
	return c.warnMixed(fc.cl, fc.name, fc.key)
}

// detectOptionKind infers the kind from the "type" option when the field
// has no declared type.
func detectOptionKind(t any) Kind {
	t = callDeferred(t)
	if _, ok := asArray(normalizeGoType(t)); ok {
		return KindArray
	}
	return DetectKind(t)
}

func asPassthrough(t any) (Passthrough, bool) {
	switch p := t.(type) {
	case Passthrough:
		return p, true
	case *Passthrough:
		if p != nil {
			return *p, true
		}
	}
	return Passthrough{}, false
}

func isUsableType(t any) bool {
	switch v := t.(type) {
	case SchemaType:
		return v >= TypeString && v <= TypeDocumentArray
	case *Class:
		return v != nil
	case reflect.Type:
		return v != nil
	default:
		return false
	}
}

// withField fills in the owning class and field on errors raised without them
func withField(err error, class, field string) error {
	if ce, ok := err.(*CompileError); ok && ce.Class == "" {
		out := *ce
		out.Class, out.Field = class, field
		return &out
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
