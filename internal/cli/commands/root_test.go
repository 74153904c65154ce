package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh root command and captures its output
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeConfig writes a schemacraft.yml with logging turned off followed by extra
func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	return writeFile(t, dir, "schemacraft.yml", "log:\n  level: off\n"+extra)
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "schemacraft", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, name := range []string{"version", "compile", "catalog"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestVersionCommand(t *testing.T) {
	oldVersion, oldCommit, oldDate, oldGo := Version, GitCommit, BuildDate, GoVersion
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, GoVersion = oldVersion, oldCommit, oldDate, oldGo
	})

	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	stdout, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)

	assert.Contains(t, stdout, "schemacraft version: 1.0.0-test")
	assert.Contains(t, stdout, "Git commit: abc123")
	assert.Contains(t, stdout, "Build date: 2025-01-01")
	assert.Contains(t, stdout, "Go version: go1.23")
}

func TestVersionCommandRuntimeGoVersion(t *testing.T) {
	oldGo := GoVersion
	t.Cleanup(func() { GoVersion = oldGo })
	GoVersion = "unknown"

	stdout, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Go version: go")
	assert.NotContains(t, stdout, "Go version: unknown")
}

func TestInvalidConfigIsReported(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "catalog:\n  driver: mongo\n")

	_, stderr, err := execute(t, context.Background(), "--config", cfg, "--no-color", "catalog", "list")
	require.Error(t, err)

	var reported *reportedError
	assert.ErrorAs(t, err, &reported)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "catalog.driver must be one of")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, context.Background(), "frobnicate")
	assert.Error(t, err)
}
