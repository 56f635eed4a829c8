package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the odds service configuration
type Config struct {
	Server Settings `hcl:"server,block"`
}

// Settings contains server-level configuration
type Settings struct {
	Address        string `hcl:"address,optional"`
	Port           int    `hcl:"port,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	DefaultTrials  int    `hcl:"default_trials,optional"`
	MaxTrials      int    `hcl:"max_trials,optional"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:        "localhost",
			Port:           8080,
			LogLevel:       "info",
			DefaultTrials:  10000,
			MaxTrials:      200000,
			TimeoutSeconds: 30,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	def := DefaultConfig().Server
	if config.Server.Address == "" {
		config.Server.Address = def.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.LogLevel
	}
	if config.Server.DefaultTrials == 0 {
		config.Server.DefaultTrials = def.DefaultTrials
	}
	if config.Server.MaxTrials == 0 {
		config.Server.MaxTrials = def.MaxTrials
	}
	if config.Server.TimeoutSeconds == 0 {
		config.Server.TimeoutSeconds = def.TimeoutSeconds
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.DefaultTrials < 1 {
		return fmt.Errorf("default_trials must be positive, got %d", c.Server.DefaultTrials)
	}
	if c.Server.MaxTrials < c.Server.DefaultTrials {
		return fmt.Errorf("max_trials (%d) must be at least default_trials (%d)",
			c.Server.MaxTrials, c.Server.DefaultTrials)
	}
	if c.Server.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.Server.TimeoutSeconds)
	}
	return nil
}

// ListenAddress returns the full address to bind to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Timeout returns the per-request simulation deadline
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}
