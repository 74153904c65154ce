package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// compileModel compiles a small class with a title, a count and an
// untyped payload so the entry carries one diagnostic.
func compileModel(t *testing.T, name string) *schema.Model {
	t.Helper()
	c := schema.NewCompiler(nil, nil, nil)
	cl := schema.NewClass(name, nil)
	c.Store().Prop(cl, "title", schema.TypeString, schema.Options{"required": true})
	c.Store().Prop(cl, "count", schema.TypeNumber, nil)
	c.Store().Prop(cl, "payload", schema.TypeMixed, nil)

	m, err := c.Model(cl, nil)
	require.NoError(t, err)
	return m
}

func TestNewEntry(t *testing.T) {
	m := compileModel(t, "Post")

	e, err := NewEntry(m)
	require.NoError(t, err)

	assert.Equal(t, "Post", e.Name)
	assert.Equal(t, "Post", e.Class)
	assert.NotEqual(t, [16]byte{}, [16]byte(e.ID))
	assert.False(t, e.CompiledAt.IsZero())
	require.Len(t, e.Diagnostics, 1)
	assert.Equal(t, "W002", e.Diagnostics[0].Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(e.Document, &doc))
	assert.Equal(t, "Post", doc["name"])
	paths := doc["paths"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "String", "required": true}, paths["title"])

	other, err := NewEntry(m)
	require.NoError(t, err)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestNewEntryWithoutSchema(t *testing.T) {
	_, err := NewEntry(nil)
	assert.Error(t, err)

	_, err = NewEntry(&schema.Model{Name: "Empty"})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	runStoreContract(t, ctx, store)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	e, err := NewEntry(compileModel(t, "Post"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, e))

	got, err := store.Get(ctx, "Post")
	require.NoError(t, err)
	got.Diagnostics[0].Code = "changed"

	again, err := store.Get(ctx, "Post")
	require.NoError(t, err)
	assert.Equal(t, "W002", again.Diagnostics[0].Code)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries, err := Publish(ctx, store, compileModel(t, "Post"), compileModel(t, "Author"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Author", list[0].Name)
	assert.Equal(t, "Post", list[1].Name)

	entries, err = Publish(ctx, store, compileModel(t, "Tag"), &schema.Model{Name: "Broken"})
	assert.Error(t, err)
	assert.Len(t, entries, 1)
}

// runStoreContract exercises the behavior every Store implementation
// shares.
func runStoreContract(t *testing.T, ctx context.Context, store Store) {
	t.Helper()

	_, err := store.Get(ctx, "Post")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	post, err := NewEntry(compileModel(t, "Post"))
	require.NoError(t, err)
	author, err := NewEntry(compileModel(t, "Author"))
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, post))
	require.NoError(t, store.Put(ctx, author))

	got, err := store.Get(ctx, "Post")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, post.Class, got.Class)
	assert.JSONEq(t, string(post.Document), string(got.Document))
	assert.Equal(t, post.Diagnostics, got.Diagnostics)
	assert.WithinDuration(t, post.CompiledAt, got.CompiledAt, 0)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Author", list[0].Name)
	assert.Equal(t, "Post", list[1].Name)

	// a second publish replaces the revision
	revised, err := NewEntry(compileModel(t, "Post"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, revised))

	got, err = store.Get(ctx, "Post")
	require.NoError(t, err)
	assert.Equal(t, revised.ID, got.ID)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, store.Delete(ctx, "Post"))
	_, err = store.Get(ctx, "Post")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "Post"), ErrNotFound)

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Author", list[0].Name)
}
