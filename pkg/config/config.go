// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arc-language/abistage/pkg/abi"
	"github.com/arc-language/abistage/pkg/resolver"
	"github.com/arc-language/abistage/pkg/stager"
)

// EnvHostABI overrides host_abi from the config file
const EnvHostABI = "ABISTAGE_HOST_ABI"

// Config holds abistage configuration
type Config struct {
	HostABI         string `yaml:"host_abi,omitempty"`
	EmulatorProfile string `yaml:"emulator_profile,omitempty"`
	UnknownPolicy   string `yaml:"unknown_policy"`
	CopyBufferSize  int    `yaml:"copy_buffer_size"`
	Debug           bool   `yaml:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		HostABI:        os.Getenv(EnvHostABI), // Empty means detect
		UnknownPolicy:  string(resolver.AllowUnknown),
		CopyBufferSize: stager.DefaultBufferSize,
	}
}

// DefaultPath returns $HOME/.config/abistage/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "abistage", "config.yaml"), nil
}

// LoadConfig loads configuration from file. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if v := os.Getenv(EnvHostABI); v != "" {
		cfg.HostABI = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks field values without touching the filesystem
func (c *Config) Validate() error {
	if c.HostABI != "" {
		if _, ok := abi.Parse(c.HostABI); !ok {
			return fmt.Errorf("config: unknown host_abi %q", c.HostABI)
		}
	}
	if _, err := resolver.ParsePolicy(c.UnknownPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CopyBufferSize < 0 {
		return fmt.Errorf("config: copy_buffer_size must not be negative")
	}
	return nil
}

// Host returns the configured host, detecting it when host_abi is empty
func (c *Config) Host() (abi.Host, error) {
	if c.HostABI == "" {
		return abi.DetectHost()
	}
	tag, ok := abi.Parse(c.HostABI)
	if !ok {
		return abi.Host{}, fmt.Errorf("config: unknown host_abi %q", c.HostABI)
	}
	return abi.NewHost(tag)
}

// Policy returns the parsed unknown-policy
func (c *Config) Policy() resolver.UnknownPolicy {
	p, err := resolver.ParsePolicy(c.UnknownPolicy)
	if err != nil {
		return resolver.AllowUnknown
	}
	return p
}
