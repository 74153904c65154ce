package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, dir string) string {
	t.Helper()
	dsn := filepath.Join(dir, "catalog.db")
	return writeConfig(t, dir, "catalog:\n  driver: sqlite3\n  dsn: "+dsn+"\n")
}

func TestCatalogCommandSubcommands(t *testing.T) {
	cmd := NewCatalogCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"publish", "list", "show", "delete", "serve"}, names)
}

func TestCatalogLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := sqliteConfig(t, dir)
	models := writeFile(t, dir, "models.yml", shopModels)

	stdout, _, err := execute(t, ctx, "--config", cfg, "--no-color", "catalog", "publish", models)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Published Order")
	assert.Contains(t, stdout, "Published Customer")

	stdout, _, err = execute(t, ctx, "--config", cfg, "--no-color", "catalog", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Name"))
	assert.True(t, strings.HasPrefix(lines[2], "Customer"))
	assert.True(t, strings.HasPrefix(lines[3], "Order"))
	assert.Contains(t, lines[3], "  1  ")

	stdout, _, err = execute(t, ctx, "--config", cfg, "catalog", "show", "Order")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "Order", doc["name"])

	stdout, _, err = execute(t, ctx, "--config", cfg, "--no-color", "catalog", "delete", "Order")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted Order")

	_, _, err = execute(t, ctx, "--config", cfg, "catalog", "show", "Order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema Order is not published")

	_, _, err = execute(t, ctx, "--config", cfg, "catalog", "delete", "Order")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema Order is not published")
}

func TestCatalogPublishModelFilter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := sqliteConfig(t, dir)
	models := writeFile(t, dir, "models.yml", shopModels)

	stdout, _, err := execute(t, ctx, "--config", cfg, "--no-color", "catalog", "publish", models, "--model", "Customer")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Published Customer")
	assert.NotContains(t, stdout, "Published Order")
}

func TestCatalogPublishCompileFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := sqliteConfig(t, dir)
	models := writeFile(t, dir, "models.yml", shopModels)

	stdout, stderr, err := execute(t, ctx, "--config", cfg, "--no-color", "catalog", "publish", models, "--allow-mixed", "ERROR")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "COMPILE FAILED")

	stdout, _, err = execute(t, ctx, "--config", cfg, "catalog", "list")
	require.NoError(t, err)
	assert.Equal(t, "No schemas published\n", stdout)
}

func TestCatalogListEmptyMemoryStore(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	stdout, _, err := execute(t, context.Background(), "--config", cfg, "catalog", "list")
	require.NoError(t, err)
	assert.Equal(t, "No schemas published\n", stdout)
}

func TestCatalogOpenFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "catalog:\n  driver: postgres\n")

	_, _, err := execute(t, context.Background(), "--config", cfg, "catalog", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open catalog")
}

func TestCatalogServeStopsWhenContextIsDone(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stderr, err := execute(t, ctx, "--config", cfg, "catalog", "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Serving catalog on http://127.0.0.1:0")
}
