// Package config loads the hiven-bot configuration file.
//
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
// ${VAR} references are replaced with environment variables before parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/luciancaetano/hiven"
)

// Config is the complete bot configuration.
type Config struct {
	Token   string        `toml:"token" yaml:"token"`
	API     APIConfig     `toml:"api" yaml:"api"`
	Gateway GatewayConfig `toml:"gateway" yaml:"gateway"`
	Bot     BotConfig     `toml:"bot" yaml:"bot"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// APIConfig holds REST endpoint settings.
type APIConfig struct {
	Host string `toml:"host" yaml:"host"`
}

// GatewayConfig holds gateway endpoint settings.
type GatewayConfig struct {
	Host      string `toml:"host" yaml:"host"`
	QueueSize int    `toml:"queue_size" yaml:"queue_size"`
}

// BotConfig holds the example bot's behavior.
type BotConfig struct {
	CommandPrefix string `toml:"command_prefix" yaml:"command_prefix"`
	Color         bool   `toml:"color" yaml:"color"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns a configuration with every optional field set.
func Default() *Config {
	return &Config{
		API:     APIConfig{Host: hiven.DefaultAPIHost},
		Gateway: GatewayConfig{Host: hiven.DefaultGatewayHost, QueueSize: hiven.DefaultQueueSize},
		Bot:     BotConfig{CommandPrefix: "!", Color: true},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file, expands environment variables, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(expandEnvVars(string(data)), formatOf(path))
}

// Parse decodes an already expanded document in the given format ("toml" or "yaml").
func Parse(doc, format string) (*Config, error) {
	cfg := Default()

	switch format {
	case "yaml":
		if err := yaml.Unmarshal([]byte(doc), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(doc, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all required configuration fields are present and valid.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.API.Host == "" {
		return fmt.Errorf("api.host must not be empty")
	}
	if c.Gateway.Host == "" {
		return fmt.Errorf("gateway.host must not be empty")
	}
	if c.Gateway.QueueSize < 1 {
		return fmt.Errorf("gateway.queue_size must be at least 1, got %d", c.Gateway.QueueSize)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
