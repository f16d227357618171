// Package config loads the host configuration: which worker commands to
// spawn, how to reach the model API, and logging settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/calcbridge/go-mcp-host/pkg/transport/stdio"
)

// DefaultPath is where the chat command looks for its configuration
const DefaultPath = "servers_config.toml"

// Config is the host runtime configuration
type Config struct {
	// Servers maps a server name to the command that runs it
	Servers map[string]stdio.ServerConfig

	// Model is the model identifier passed to the API; empty selects a
	// default
	Model string

	// LogLevel is the textual log level (trace, debug, info, warn, error)
	LogLevel string
}

// config.toml key mapping to host runtime settings
type fileConfig struct {
	Model    string                  `toml:"model"`
	LogLevel string                  `toml:"log_level"`
	Servers  map[string]serverConfig `toml:"servers"`
}

type serverConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Load reads and validates a TOML configuration file
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg := Config{
		Model:    strings.TrimSpace(raw.Model),
		LogLevel: strings.TrimSpace(raw.LogLevel),
		Servers:  make(map[string]stdio.ServerConfig, len(raw.Servers)),
	}

	if len(raw.Servers) == 0 {
		return Config{}, fmt.Errorf("load config: no servers defined")
	}

	for name, sc := range raw.Servers {
		command := strings.TrimSpace(sc.Command)
		if command == "" {
			return Config{}, fmt.Errorf("load config: server %q has no command", name)
		}
		cfg.Servers[name] = stdio.ServerConfig{
			Command: command,
			Args:    sc.Args,
		}
	}

	return cfg, nil
}

// APIKey reads the model API key from the environment
func APIKey() (string, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	return key, nil
}
