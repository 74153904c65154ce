package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedArray(leaf any, dim int) any {
	var t any = leaf
	for i := 0; i < dim; i++ {
		t = []any{t}
	}
	return t
}

func TestResolve(t *testing.T) {
	cl := NewClass("Thing", nil)

	tests := []struct {
		name     string
		declared any
		wantType any
		wantDim  int
	}{
		{"scalar", TypeString, TypeString, 0},
		{"one dimension", Array(TypeNumber), TypeNumber, 1},
		{"three dimensions", nestedArray(TypeDate, 3), TypeDate, 3},
		{"deferred class", Deferred(func() any { return cl }), cl, 0},
		{"deferred array", Deferred(func() any { return Array(cl) }), cl, 1},
		{"typed slice", []*Class{cl}, cl, 1},
		{"empty literal", []any{}, nil, 1},
		{"nil", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, res.Type)
			assert.Equal(t, tt.wantDim, res.Dim)
		})
	}
}

func TestResolveDimensionLimit(t *testing.T) {
	res, err := Resolve(nestedArray(TypeString, maxDimension))
	require.NoError(t, err)
	assert.Equal(t, maxDimension, res.Dim)

	_, err = Resolve(nestedArray(TypeString, maxDimension+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionExceeded))
	assert.Equal(t, "E032", Code(err))
}

func TestResolveOuterArray(t *testing.T) {
	a := NewClass("A", nil)
	b := NewClass("B", nil)

	res, err := ResolveOuterArray([]any{a, b})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dim)
	assert.Equal(t, []any{a, b}, res.Type)

	res, err = ResolveOuterArray([]any{[]any{a}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dim)
	assert.Equal(t, []any{a}, res.Type)

	res, err = ResolveOuterArray(a)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Dim)
}

func TestResolveGoTypes(t *testing.T) {
	type embedded struct{ X int }

	tests := []struct {
		name     string
		declared reflect.Type
		wantType any
		wantDim  int
	}{
		{"string", reflect.TypeOf(""), TypeString, 0},
		{"int64", reflect.TypeOf(int64(0)), TypeNumber, 0},
		{"pointer to float", reflect.TypeOf(new(float64)), TypeNumber, 0},
		{"time", reflect.TypeOf(time.Time{}), TypeDate, 0},
		{"uuid", reflect.TypeOf(uuid.UUID{}), TypeUUID, 0},
		{"bytes", reflect.TypeOf([]byte{}), TypeBuffer, 0},
		{"string slice", reflect.TypeOf([]string{}), TypeString, 1},
		{"matrix", reflect.TypeOf([][]bool{}), TypeBoolean, 2},
		{"map", reflect.TypeOf(map[string]int{}), TypeMap, 0},
		{"struct", reflect.TypeOf(embedded{}), reflect.TypeOf(embedded{}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, res.Type)
			assert.Equal(t, tt.wantDim, res.Dim)
		})
	}
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindArray, DetectKind(TypeArray))
	assert.Equal(t, KindArray, DetectKind(TypeDocumentArray))
	assert.Equal(t, KindMap, DetectKind(TypeMap))
	assert.Equal(t, KindScalar, DetectKind(TypeString))
	assert.Equal(t, KindScalar, DetectKind(nil))
	assert.Equal(t, KindScalar, DetectKind(NewClass("A", nil)))
	assert.Equal(t, KindArray, DetectKind(reflect.TypeOf([]int{})))
	assert.Equal(t, KindScalar, DetectKind(reflect.TypeOf([]byte{})))
	assert.Equal(t, KindMap, DetectKind(reflect.TypeOf(map[string]string{})))
}
