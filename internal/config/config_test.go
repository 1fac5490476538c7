package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ".arbor/graphs", cfg.Graphs)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Watch)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ARBOR_PORT", "9090")
	t.Setenv("ARBOR_REDIS", "localhost:6379")
	t.Setenv("ARBOR_LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ARBOR_PORT", "9090")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("port", 8080, "")
	f.String("graphs", ".arbor/graphs", "")
	require.NoError(t, f.Parse([]string{"--port=7000", "--graphs=/tmp/stories"}))

	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "/tmp/stories", cfg.Graphs)
}
