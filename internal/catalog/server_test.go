package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) List(ctx context.Context) ([]*Entry, error) {
	return nil, errors.New("backend unavailable")
}

type panickingStore struct {
	*MemoryStore
}

func (p *panickingStore) Get(ctx context.Context, name string) (*Entry, error) {
	panic("boom")
}

func setupServer(t *testing.T) (*Server, *Entry) {
	store := NewMemoryStore()
	e, err := NewEntry(compileModel(t, "Post"))
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), e))
	return NewServer(store, zaptest.NewLogger(t)), e
}

func doRequest(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_List(t *testing.T) {
	srv, e := setupServer(t)

	rec := doRequest(t, srv, "/schemas")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Post", items[0]["name"])
	assert.Equal(t, e.ID.String(), items[0]["id"])
	assert.Equal(t, float64(1), items[0]["diagnostics"])
}

func TestServer_Get(t *testing.T) {
	srv, e := setupServer(t)

	rec := doRequest(t, srv, "/schemas/Post")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, e.ID, got.ID)
	assert.JSONEq(t, string(e.Document), string(got.Document))
}

func TestServer_GetNotFound(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, "/schemas/Missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, ErrNotFound.Error(), body.Message)
}

func TestServer_StoreFailure(t *testing.T) {
	srv := NewServer(&failingStore{MemoryStore: NewMemoryStore()}, nil)

	rec := doRequest(t, srv, "/schemas")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Code)
}

func TestServer_RecoversFromPanic(t *testing.T) {
	srv := NewServer(&panickingStore{MemoryStore: NewMemoryStore()}, nil)

	rec := doRequest(t, srv, "/schemas/Post")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	srv, _ := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
