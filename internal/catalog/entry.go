// Package catalog publishes compiled schema descriptions so other services
// can read them back by model name.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// ErrNotFound is returned when no entry is published under a name
var ErrNotFound = errors.New("schema not found")

// Entry is one published schema revision
type Entry struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Class       string              `json:"class"`
	Document    json.RawMessage     `json:"document"`
	Diagnostics []schema.Diagnostic `json:"diagnostics"`
	CompiledAt  time.Time           `json:"compiledAt"`
}

// NewEntry builds an entry from a compiled model. Every call gets a fresh
// revision id.
func NewEntry(m *schema.Model) (*Entry, error) {
	if m == nil || m.Schema == nil {
		return nil, errors.New("model has no compiled schema")
	}

	doc, err := json.Marshal(m.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema %s: %w", m.Name, err)
	}

	className := ""
	if m.Class != nil {
		className = m.Class.Name
	}

	diagnostics := append([]schema.Diagnostic{}, m.Schema.Diagnostics...)

	return &Entry{
		ID:          uuid.New(),
		Name:        m.Name,
		Class:       className,
		Document:    doc,
		Diagnostics: diagnostics,
		CompiledAt:  time.Now().UTC(),
	}, nil
}

// Store persists published entries, one per model name. Put replaces any
// entry published under the same name.
type Store interface {
	Put(ctx context.Context, e *Entry) error
	Get(ctx context.Context, name string) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Publish builds entries for the given models and stores them in order.
// It stops at the first failure.
func Publish(ctx context.Context, store Store, models ...*schema.Model) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(models))
	for _, m := range models {
		e, err := NewEntry(m)
		if err != nil {
			return entries, err
		}
		if err := store.Put(ctx, e); err != nil {
			return entries, fmt.Errorf("failed to publish %s: %w", m.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
