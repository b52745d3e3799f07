package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EndpointConfig describes the remote tool endpoint connection.
type EndpointConfig struct {
	Address   string `yaml:"address"`
	AuthToken string `yaml:"auth_token,omitempty"`
}

// ApprovalConfig tunes the confirmation policy for tool calls.
type ApprovalConfig struct {
	// AllowTools are approved without asking the user.
	AllowTools []string `yaml:"allow_tools,omitempty"`
	// SkipConfirm disables confirmation prompts entirely.
	SkipConfirm bool `yaml:"skip_confirm,omitempty"`
}

// Config is the root of endpoint.yaml.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Approval ApprovalConfig `yaml:"approval"`
}

// Default returns the configuration written by `taskpilot config init`.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{Address: "tcp://127.0.0.1:7420"},
	}
}

// Load reads endpoint.yaml from the config directory. A missing file yields
// the default configuration.
func Load() (*Config, error) {
	path, err := GetConfigFile()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Endpoint.AuthToken = expandEnvVars(cfg.Endpoint.AuthToken)

	if cfg.Endpoint.Address == "" {
		cfg.Endpoint.Address = Default().Endpoint.Address
	}
	if err := ValidateAddress(cfg.Endpoint.Address); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the config directory.
func Save(cfg *Config) error {
	path, err := GetConfigFile()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the configuration to an explicit path.
func SaveFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ValidateAddress validates an endpoint address format.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	// Check for supported schemes
	if !strings.HasPrefix(address, "unix://") && !strings.HasPrefix(address, "tcp://") {
		return fmt.Errorf("address must start with 'unix://' or 'tcp://', got: %s", address)
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR_NAME}
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
