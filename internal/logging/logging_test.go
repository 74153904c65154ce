package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, Config{Level: zapcore.InfoLevel}, DefaultConfig(ProfileRuntime))
	assert.Equal(t, Config{Level: zapcore.DebugLevel, Development: true}, DefaultConfig(ProfileTest))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw      string
		level    zapcore.Level
		disabled bool
		ok       bool
	}{
		{"", zapcore.InfoLevel, false, false},
		{"debug", zapcore.DebugLevel, false, true},
		{" TRACE ", zapcore.DebugLevel, false, true},
		{"info", zapcore.InfoLevel, false, true},
		{"Warning", zapcore.WarnLevel, false, true},
		{"error", zapcore.ErrorLevel, false, true},
		{"off", zapcore.InfoLevel, true, true},
		{"loud", zapcore.InfoLevel, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			level, disabled, ok := parseLevel(tt.raw)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.disabled, disabled)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel: "warn",
		EnvLogDev:   "true",
	}
	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	assert.True(t, cfg.Development)

	// invalid values keep what was there
	env[EnvLogLevel] = "nope"
	env[EnvLogDev] = "maybe"
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	assert.True(t, cfg.Development)
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogDev, "")

	cfg := Resolve(ProfileRuntime, "debug", true)
	assert.Equal(t, Config{Level: zapcore.DebugLevel, Development: true}, cfg)

	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogDev, "false")
	cfg = Resolve(ProfileRuntime, "debug", true)
	assert.Equal(t, Config{Level: zapcore.ErrorLevel}, cfg)

	t.Setenv(EnvLogLevel, "off")
	cfg = Resolve(ProfileTest, "", false)
	assert.True(t, cfg.Disabled)
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: zapcore.WarnLevel})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))

	logger, err = New(Config{Level: zapcore.DebugLevel, Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New(Config{Disabled: true})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
