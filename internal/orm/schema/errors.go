package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelExists is returned when a model name is registered twice
	ErrModelExists = errors.New("model name already registered")

	// ErrSelfReference is returned when a field's type is its owning class
	ErrSelfReference = errors.New("type is the same as the owning class")

	// ErrRefUndefined is returned when the "ref" option resolves to nothing
	ErrRefUndefined = errors.New(`option "ref" resolved to nil`)

	// ErrIncompleteVirtualPopulate is returned when only part of localField,
	// foreignField and ref is set
	ErrIncompleteVirtualPopulate = errors.New("virtual populate needs localField, foreignField and ref")

	// ErrInvalidType is returned when a field type cannot be used
	ErrInvalidType = errors.New("invalid field type")

	// ErrEnumNotString is returned when a string enum holds a non-string value
	ErrEnumNotString = errors.New("string enum holds a non-string value")

	// ErrEnumNotNumber is returned when a numeric enum value is nil or has no reverse mapping
	ErrEnumNotNumber = errors.New("numeric enum value is nil or has no reverse mapping")

	// ErrInvalidEnumType is returned when "enum" is used on a type other than String or Number
	ErrInvalidEnumType = errors.New(`option "enum" needs a String or Number type`)

	// ErrInvalidKind is returned when an option is not supported for the field kind
	ErrInvalidKind = errors.New("option not supported for this kind")

	// ErrUnresolvableName is returned when a class cannot be found for an artifact
	ErrUnresolvableName = errors.New("cannot resolve class name")

	// ErrInvalidOptionsSet is returned when a type has no accepted option set
	ErrInvalidOptionsSet = errors.New("type has no accepted option set")

	// ErrMixedNotAllowed is returned when an untyped fallback happens under ERROR severity
	ErrMixedNotAllowed = errors.New("setting Mixed is not allowed")

	// ErrInvalidDimension is returned when an array dimension is below 1
	ErrInvalidDimension = errors.New(`"dim" needs to be higher than 0`)

	// ErrInvalidKey is returned when a field key is empty or reserved
	ErrInvalidKey = errors.New("field key must be a plain non-empty string")

	// ErrNotValidModel is returned when a model argument is nil or malformed
	ErrNotValidModel = errors.New("not a valid model")

	// ErrStringLengthExpected is returned when a name or path option is empty
	ErrStringLengthExpected = errors.New("expected a non-empty string")

	// ErrOptionConstraint is returned when an option is combined with an unsupported value
	ErrOptionConstraint = errors.New("option does not support this value")

	// ErrNoValidClass is returned when a class is nil or has no name
	ErrNoValidClass = errors.New("value is not a valid class")

	// ErrExpectedType is returned when an argument has the wrong type
	ErrExpectedType = errors.New("argument has an unexpected type")

	// ErrPathNotInSchema is returned when a nested discriminator path does not exist
	ErrPathNotInSchema = errors.New("path does not exist in the schema")

	// ErrNoDiscriminatorSupport is returned when a path cannot hold discriminators
	ErrNoDiscriminatorSupport = errors.New("path does not support nested discriminators")

	// ErrDimensionExceeded is returned when array unwrapping goes past the depth limit
	ErrDimensionExceeded = errors.New("array nesting too deep (dim > 100)")

	// ErrMalformedDiscriminator is returned when a discriminator entry is not a class or has no type
	ErrMalformedDiscriminator = errors.New("discriminator entry must be a class or carry a type")

	// ErrCircularEmbedding is returned when classes embed each other
	ErrCircularEmbedding = errors.New("circular sub-document embedding")
)

var errorCodes = map[error]string{
	ErrModelExists:               "E003",
	ErrSelfReference:             "E004",
	ErrRefUndefined:              "E005",
	ErrIncompleteVirtualPopulate: "E006",
	ErrInvalidType:               "E009",
	ErrEnumNotString:             "E010",
	ErrEnumNotNumber:             "E011",
	ErrInvalidEnumType:           "E012",
	ErrInvalidKind:               "E013",
	ErrUnresolvableName:          "E014",
	ErrInvalidOptionsSet:         "E016",
	ErrMixedNotAllowed:           "E017",
	ErrInvalidDimension:          "E018",
	ErrInvalidKey:                "E024",
	ErrNotValidModel:             "E025",
	ErrStringLengthExpected:      "E026",
	ErrOptionConstraint:          "E027",
	ErrNoValidClass:              "E028",
	ErrExpectedType:              "E029",
	ErrPathNotInSchema:           "E030",
	ErrNoDiscriminatorSupport:    "E031",
	ErrDimensionExceeded:         "E032",
	ErrMalformedDiscriminator:    "E033",
	ErrCircularEmbedding:         "E034",
}

// CompileError is a fatal compilation failure. It names the owning class,
// the field key and the offending value.
type CompileError struct {
	Code   string
	Class  string
	Field  string
	Value  any
	Detail string
	Err    error
}

func newError(err error, class, field string, value any, detail string) *CompileError {
	return &CompileError{
		Code:   errorCodes[err],
		Class:  class,
		Field:  field,
		Value:  value,
		Detail: detail,
		Err:    err,
	}
}

// Error implements the error interface
func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Class != "" {
		b.WriteString(e.Class)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (got: %s)", describeValueString(e.Value))
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	return b.String()
}

// Unwrap returns the sentinel error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Code returns the error code carried by err, or "" when err is not a
// compile error.
func Code(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func describeValueString(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case *Class:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Diagnostic codes
const (
	DiagOptionFamily = "W001"
	DiagMixed        = "W002"
	DiagJustOne      = "W003"
)

// Diagnostic is a non-fatal finding reported while compiling
type Diagnostic struct {
	Code    string `json:"code"`
	Class   string `json:"class"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s.%s: %s [%s]", d.Class, d.Field, d.Message, d.Code)
}
