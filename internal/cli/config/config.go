package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/schemacraft/internal/catalog"
	"github.com/conduit-lang/schemacraft/internal/orm/schema"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "SCHEMACRAFT"

// Config represents the schemacraft configuration
type Config struct {
	Compiler CompilerConfig `mapstructure:"compiler"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// CompilerConfig represents the global compiler options
type CompilerConfig struct {
	AllowMixed    string         `mapstructure:"allow_mixed"`
	SchemaOptions map[string]any `mapstructure:"schema_options"`
}

// CatalogConfig represents the schema catalog backend
type CatalogConfig struct {
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// ServerConfig represents the catalog API server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var configNames = []string{"schemacraft.yml", "schemacraft.yaml"}

var validDrivers = []string{"memory", "sqlite3", "postgres", "pgx", "redis"}

// Load loads the configuration from path, or from the schemacraft.yml or
// schemacraft.yaml found by FindConfigFile when path is empty.
// SCHEMACRAFT_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("compiler.allow_mixed", "WARN")
	v.SetDefault("compiler.schema_options", map[string]any{})
	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.dsn", "")
	v.SetDefault("catalog.redis_addr", "localhost:6379")
	v.SetDefault("catalog.redis_password", "")
	v.SetDefault("catalog.redis_db", 0)
	v.SetDefault("catalog.redis_prefix", "schemacraft:")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if path == "" {
		if found, err := FindConfigFile(); err == nil {
			path = found
		}
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("compiler.allow_mixed", EnvPrefix+"_COMPILER_ALLOW_MIXED", EnvPrefix+"_ALLOW_MIXED"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	// Read config file if one was given or found - otherwise use defaults
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if path != "" {
		opts, err := readSchemaOptions(path)
		if err != nil {
			return nil, err
		}
		if opts != nil {
			config.Compiler.SchemaOptions = opts
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindConfigFile looks for schemacraft.yml or schemacraft.yaml in the
// working directory and its parents
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found", strings.Join(configNames, " or "))
		}
		dir = parent
	}
}

// readSchemaOptions reads compiler.schema_options with its key case intact.
// viper lowercases keys, schema option names are case sensitive.
func readSchemaOptions(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw struct {
		Compiler struct {
			SchemaOptions map[string]any `yaml:"schema_options"`
		} `yaml:"compiler"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return raw.Compiler.SchemaOptions, nil
}

// AllowMixed returns the configured mixed-type severity
func (c *Config) AllowMixed() (schema.Severity, error) {
	return schema.ParseSeverity(c.Compiler.AllowMixed)
}

// GlobalOptions returns the compiler-wide options the configuration sets
func (c *Config) GlobalOptions() (*schema.ModelOptions, error) {
	sev, err := c.AllowMixed()
	if err != nil {
		return nil, err
	}
	return &schema.ModelOptions{
		SchemaOptions: schema.Options(c.Compiler.SchemaOptions).Clone(),
		Options:       schema.ClassOptions{AllowMixed: sev.Ptr()},
	}, nil
}

// CatalogStoreConfig returns the catalog store configuration
func (c *Config) CatalogStoreConfig() catalog.Config {
	return catalog.Config{
		Driver: c.Catalog.Driver,
		DSN:    c.Catalog.DSN,
		Redis: catalog.RedisConfig{
			Addr:     c.Catalog.RedisAddr,
			Password: c.Catalog.RedisPassword,
			DB:       c.Catalog.RedisDB,
			Prefix:   c.Catalog.RedisPrefix,
		},
	}
}

// ServerAddr returns the host:port the catalog API listens on
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := schema.ParseSeverity(cfg.Compiler.AllowMixed); err != nil {
		return fmt.Errorf("compiler.allow_mixed: %w", err)
	}

	valid := false
	for _, d := range validDrivers {
		if cfg.Catalog.Driver == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("catalog.driver must be one of %s, got: %s", strings.Join(validDrivers, ", "), cfg.Catalog.Driver)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}
	return nil
}
