package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// chdir moves into dir for the rest of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SCHEMACRAFT_ALLOW_MIXED",
		"SCHEMACRAFT_COMPILER_ALLOW_MIXED",
		"SCHEMACRAFT_CATALOG_DRIVER",
		"SCHEMACRAFT_SERVER_PORT",
		"SCHEMACRAFT_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Compiler.AllowMixed)
	assert.Equal(t, "memory", cfg.Catalog.Driver)
	assert.Equal(t, "localhost:6379", cfg.Catalog.RedisAddr)
	assert.Equal(t, "schemacraft:", cfg.Catalog.RedisPrefix)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
}

const configContent = `
compiler:
  allow_mixed: ERROR
  schema_options:
    discriminatorKey: kind
    timestamps: true
catalog:
  driver: sqlite3
  dsn: catalog.db
server:
  port: 9090
  host: 0.0.0.0
log:
  level: debug
  development: true
`

func TestLoadWithConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("schemacraft.yml", []byte(configContent), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ERROR", cfg.Compiler.AllowMixed)
	assert.Equal(t, map[string]any{"discriminatorKey": "kind", "timestamps": true}, cfg.Compiler.SchemaOptions)
	assert.Equal(t, "sqlite3", cfg.Catalog.Driver)
	assert.Equal(t, "catalog.db", cfg.Catalog.DSN)
	assert.Equal(t, "0.0.0.0:9090", cfg.ServerAddr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadFindsParentConfig(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "schemacraft.yaml"), []byte(configContent), 0644))

	nested := filepath.Join(root, "models", "blog")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	found, err := FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "schemacraft.yaml", filepath.Base(found))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadExplicitPath(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  driver: redis\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Catalog.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("schemacraft.yml", []byte(configContent), 0644))

	t.Setenv("SCHEMACRAFT_ALLOW_MIXED", "0")
	t.Setenv("SCHEMACRAFT_CATALOG_DRIVER", "memory")
	t.Setenv("SCHEMACRAFT_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0", cfg.Compiler.AllowMixed)
	assert.Equal(t, "memory", cfg.Catalog.Driver)
	assert.Equal(t, 7070, cfg.Server.Port)

	sev, err := cfg.AllowMixed()
	require.NoError(t, err)
	assert.Equal(t, schema.SeverityAllow, sev)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid severity", "compiler:\n  allow_mixed: LOUD\n", "compiler.allow_mixed"},
		{"unknown driver", "catalog:\n  driver: mongo\n", "catalog.driver must be one of"},
		{"port out of range", "server:\n  port: 70000\n", "server.port must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			chdir(t, t.TempDir())
			require.NoError(t, os.WriteFile("schemacraft.yml", []byte(tt.content), 0644))

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGlobalOptions(t *testing.T) {
	cfg := &Config{Compiler: CompilerConfig{
		AllowMixed:    "error",
		SchemaOptions: map[string]any{"versionKey": false},
	}}

	opts, err := cfg.GlobalOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Options.AllowMixed)
	assert.Equal(t, schema.SeverityError, *opts.Options.AllowMixed)
	assert.Equal(t, schema.Options{"versionKey": false}, opts.SchemaOptions)

	cfg.Compiler.AllowMixed = "sometimes"
	_, err = cfg.GlobalOptions()
	assert.Error(t, err)
}

func TestCatalogStoreConfig(t *testing.T) {
	cfg := &Config{Catalog: CatalogConfig{
		Driver:      "redis",
		RedisAddr:   "cache:6379",
		RedisDB:     2,
		RedisPrefix: "sc:",
	}}

	store := cfg.CatalogStoreConfig()
	assert.Equal(t, "redis", store.Driver)
	assert.Equal(t, "cache:6379", store.Redis.Addr)
	assert.Equal(t, 2, store.Redis.DB)
	assert.Equal(t, "sc:", store.Redis.Prefix)
}
