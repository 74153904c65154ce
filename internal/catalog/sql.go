package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect selects the placeholder style of the SQL store
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor returns the dialect used with a database/sql driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return DialectSQLite, nil
	case "postgres", "pgx":
		return DialectPostgres, nil
	default:
		return 0, fmt.Errorf("unsupported SQL driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $n for postgres
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore keeps entries in the schema_catalog table
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a store over an open database
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Initialize ensures the schema_catalog table exists
func (s *SQLStore) Initialize(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS schema_catalog (
	name VARCHAR(255) PRIMARY KEY,
	id VARCHAR(36) NOT NULL,
	class_name VARCHAR(255) NOT NULL,
	document TEXT NOT NULL,
	diagnostics TEXT NOT NULL,
	compiled_at TIMESTAMP NOT NULL
)
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize catalog table: %w", err)
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, e *Entry) error {
	diagnostics, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	query := s.dialect.rebind(`
INSERT INTO schema_catalog (name, id, class_name, document, diagnostics, compiled_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
	id = excluded.id,
	class_name = excluded.class_name,
	document = excluded.document,
	diagnostics = excluded.diagnostics,
	compiled_at = excluded.compiled_at
`)
	_, err = s.db.ExecContext(ctx, query,
		e.Name, e.ID.String(), e.Class, string(e.Document), string(diagnostics), e.CompiledAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store schema %s: %w", e.Name, err)
	}
	return nil
}

const selectEntries = `
SELECT name, id, class_name, document, diagnostics, compiled_at
FROM schema_catalog
`

func (s *SQLStore) Get(ctx context.Context, name string) (*Entry, error) {
	query := s.dialect.rebind(selectEntries + "WHERE name = ?")
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema %s: %w", name, err)
	}
	return e, nil
}

// List returns all entries sorted by name
func (s *SQLStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntries+"ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	query := s.dialect.rebind("DELETE FROM schema_catalog WHERE name = ?")
	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete schema %s: %w", name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e           Entry
		id          string
		document    string
		diagnostics string
		compiledAt  time.Time
	)
	if err := row.Scan(&e.Name, &id, &e.Class, &document, &diagnostics, &compiledAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", id, err)
	}
	e.ID = parsed
	e.Document = json.RawMessage(document)
	e.CompiledAt = compiledAt.UTC()
	if err := json.Unmarshal([]byte(diagnostics), &e.Diagnostics); err != nil {
		return nil, fmt.Errorf("invalid diagnostics for %s: %w", e.Name, err)
	}
	return &e, nil
}
