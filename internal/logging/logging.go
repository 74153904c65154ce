// Package logging builds the zap logger used by the command line tool.
package logging

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogLevel = "SCHEMACRAFT_LOG_LEVEL"
	EnvLogDev   = "SCHEMACRAFT_LOG_DEV"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger configuration
type Config struct {
	Level       zapcore.Level
	Development bool
	Disabled    bool
}

// DefaultConfig returns the defaults of a profile. Runtime logs info and
// up as JSON; tests log everything with the console encoder.
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zapcore.DebugLevel, Development: true}
	default:
		return Config{Level: zapcore.InfoLevel}
	}
}

// Resolve starts from the profile defaults, applies the configured level
// and development flag, then the environment overrides.
func Resolve(profile Profile, level string, development bool) Config {
	cfg := DefaultConfig(profile)
	applyLevel(&cfg, level)
	if development {
		cfg.Development = true
	}
	applyEnvOverrides(&cfg, os.Getenv)
	return cfg
}

// New builds a logger writing to stderr
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Disabled {
		return zap.NewNop(), nil
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.Level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	applyLevel(cfg, getenv(EnvLogLevel))
	if v, ok := parseBool(getenv(EnvLogDev)); ok {
		cfg.Development = v
	}
}

func applyLevel(cfg *Config, raw string) {
	lvl, disabled, ok := parseLevel(raw)
	if !ok {
		return
	}
	cfg.Level = lvl
	cfg.Disabled = disabled
}

func parseLevel(raw string) (zapcore.Level, bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zapcore.InfoLevel, false, false
	case "debug", "trace":
		return zapcore.DebugLevel, false, true
	case "info":
		return zapcore.InfoLevel, false, true
	case "warn", "warning":
		return zapcore.WarnLevel, false, true
	case "error":
		return zapcore.ErrorLevel, false, true
	case "disabled", "off", "none":
		return zapcore.InfoLevel, true, true
	default:
		return zapcore.InfoLevel, false, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
