// Package config loads server configuration from defaults, an optional
// config file, environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the settings for the arbor server.
type Config struct {
	Graphs    string `koanf:"graphs"`    // directory of dialog documents
	Port      int    `koanf:"port"`      // HTTP listen port
	RedisAddr string `koanf:"redis"`     // redis address; empty = in-memory sessions
	RedisDB   int    `koanf:"redis_db"`  // redis database number
	LogLevel  string `koanf:"log_level"` // debug, info, warn, error
	Watch     bool   `koanf:"watch"`     // hot-reload documents on change
}

// Load builds the configuration.
// Priority: flags > environment > config file (arbor.toml) > defaults.
// Environment variables use the ARBOR_ prefix (e.g. ARBOR_PORT=9090).
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"graphs":    ".arbor/graphs",
		"port":      8080,
		"redis":     "",
		"redis_db":  0,
		"log_level": "info",
		"watch":     false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The config file is optional; ignore a missing one.
	_ = k.Load(file.Provider("arbor.toml"), toml.Parser())

	if err := k.Load(env.Provider("ARBOR_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "ARBOR_")), "-", "_")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// mapProvider adapts a plain map to the koanf provider interface.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
