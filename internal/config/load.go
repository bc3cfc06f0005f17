package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding config.yaml.
const (
	EnvProject          = "BEAVER_PROJECT"
	EnvRegion           = "BEAVER_REGION"
	EnvLogLevel         = "BEAVER_LOG_LEVEL"
	EnvInteropAccessKey = "BEAVER_INTEROP_ACCESS_KEY"
	EnvInteropSecretKey = "BEAVER_INTEROP_SECRET_KEY"
)

// Load reads <root>/config.yaml, applies defaults and environment overrides
// and validates the result.
func Load(layout Layout) (*Config, error) {
	return LoadFile(layout.ConfigFile())
}

// LoadFile reads and validates a configuration file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304 -- path is the operator-supplied configuration root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &PathError{Path: path, Reason: "configuration file not found (run 'beaver init')", Err: err}
		}
		return nil, &PathError{Path: path, Reason: "configuration file not readable", Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, &PathError{Path: path, Reason: "malformed configuration", Err: err}
	}
	return cfg, nil
}

// Parse decodes, completes and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	applyEnv(&cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvProject); v != "" {
		cfg.Project = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvInteropAccessKey); v != "" {
		cfg.Interop.AccessKey = v
	}
	if v := os.Getenv(EnvInteropSecretKey); v != "" {
		cfg.Interop.SecretKey = v
	}
}
