package alert

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the dispatch wiring configuration. It only toggles which alert
// types are handled; the rule table itself is fixed in code.
type Config struct {
	Alerts []AlertConfig `yaml:"alerts"`
}

// AlertConfig enables or disables handling for one alert type.
type AlertConfig struct {
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`
}

// DefaultConfig returns a configuration with every known alert type enabled.
func DefaultConfig() *Config {
	cfg := &Config{}
	for _, t := range KnownTypes {
		cfg.Alerts = append(cfg.Alerts, AlertConfig{Type: string(t), Enabled: true})
	}
	return cfg
}

// LoadConfig loads dispatch configuration from a YAML file. Values support
// environment variable expansion in the form ${VAR} or ${VAR:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate rejects duplicate and unknown alert types.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, a := range c.Alerts {
		if a.Type == "" {
			return fmt.Errorf("alert entry with empty type found")
		}
		if seen[a.Type] {
			return fmt.Errorf("duplicate alert type: %s", a.Type)
		}
		seen[a.Type] = true

		if !KnownType(Type(a.Type)) {
			return fmt.Errorf("unknown alert type: %s", a.Type)
		}
	}

	return nil
}

// EnabledTypes returns the set of alert types the dispatcher should handle.
func (c *Config) EnabledTypes() map[Type]bool {
	enabled := make(map[Type]bool)
	for _, a := range c.Alerts {
		if a.Enabled {
			enabled[Type(a.Type)] = true
		}
	}
	return enabled
}

// expandEnvVars expands environment variables in the format ${VAR} or
// ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
