package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() error {
	var errs []error

	if c.Project == "" {
		errs = append(errs, errors.New("project is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if err := ValidateName(c.Name); err != nil {
		errs = append(errs, fmt.Errorf("name %q: %w", c.Name, err))
	}
	if fields := strings.Fields(c.Schedule); c.Schedule != "" && len(fields) != 5 {
		errs = append(errs, fmt.Errorf("schedule %q must have 5 cron fields, got %d", c.Schedule, len(fields)))
	}

	switch c.StorageBackend {
	case "", BackendCLI, BackendSDK:
	case BackendInterop:
		if c.Interop.AccessKey == "" || c.Interop.SecretKey == "" {
			errs = append(errs, errors.New("interop.access_key and interop.secret_key are required for the interop storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_backend must be one of cli, sdk, interop, got %q", c.StorageBackend))
	}

	switch c.PubSubBackend {
	case "", BackendCLI, BackendSDK:
	default:
		errs = append(errs, fmt.Errorf("pubsub_backend must be one of cli, sdk, got %q", c.PubSubBackend))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, error, got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
